// Package qualify annotates candidate releases with alternate-build and
// security information from the alternate-build index.
package qualify

import (
	"github.com/ajxudir/releasewatch/pkg/catalog"
	"github.com/ajxudir/releasewatch/pkg/lines"
	"github.com/ajxudir/releasewatch/pkg/verbose"
	"github.com/ajxudir/releasewatch/pkg/version"
)

// Candidate is a newer release for one major line.
//
// Fields:
//   - Line: Major line id, e.g. "18"
//   - Version: The newer release
//   - HasAlternateBuild: Whether the required artifact is published
//   - IsSecurity: Whether upstream flagged the release as a security release
type Candidate struct {
	Line              string
	Version           version.Version
	HasAlternateBuild bool
	IsSecurity        bool
}

// Annotate looks up every candidate in the alternate-build index.
//
// It performs the following operations:
//   - Step 1: Reduces the index to a lookup keyed by the exact version string
//     (the first occurrence of a duplicate wins)
//   - Step 2: For each candidate, matches on the prefixed tag, e.g. "v18.1.0"
//   - Step 3: Sets HasAlternateBuild when artifact is among the entry's files,
//     and IsSecurity from the entry's flag
//
// A candidate with no index entry is annotated false/false so that missing
// data never approves an update.
//
// Parameters:
//   - candidates: Newer version per major line
//   - index: Records of the alternate-build index
//   - artifact: Required artifact tag, e.g. "linux-x64-musl"
//
// Returns:
//   - *lines.Map[Candidate]: Annotated candidates in the order of candidates
func Annotate(candidates *lines.Map[version.Version], index []catalog.Entry, artifact string) *lines.Map[Candidate] {
	lookup := make(map[string]catalog.Entry, len(index))
	for _, e := range index {
		if _, seen := lookup[e.Version]; !seen {
			lookup[e.Version] = e
		}
	}

	result := lines.New[Candidate]()
	candidates.Each(func(line string, v version.Version) bool {
		c := Candidate{Line: line, Version: v}
		if entry, ok := lookup[v.Tag()]; ok {
			c.HasAlternateBuild = entry.HasFile(artifact)
			c.IsSecurity = entry.Security
		} else {
			verbose.Printf("No alternate-build index entry for %s", v.Tag())
		}
		result.Set(line, c)
		return true
	})
	return result
}
