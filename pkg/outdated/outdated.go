// Package outdated finds, per tracked major line, the newest upstream release
// that is strictly newer than the version currently built.
package outdated

import (
	"fmt"

	"github.com/ajxudir/releasewatch/pkg/catalog"
	"github.com/ajxudir/releasewatch/pkg/lines"
	"github.com/ajxudir/releasewatch/pkg/verbose"
	"github.com/ajxudir/releasewatch/pkg/version"
)

// FindNewer returns, for each line in current, the highest catalog version
// strictly greater than the current one.
//
// It performs the following operations:
//   - Step 1: Folds the catalog into a per-line maximum, ignoring versions
//     whose major line is not tracked in current
//   - Step 2: Keeps only maxima strictly greater than the current version
//   - Step 3: Emits results in the iteration order of current
//
// Untracked major lines never appear in the result. Duplicate catalog entries
// do not change the result. Neither input is modified.
//
// Parameters:
//   - current: Built version per major line
//   - releases: Every known upstream version, in any order
//
// Returns:
//   - *lines.Map[version.Version]: Newer version per line; empty when none
func FindNewer(current *lines.Map[version.Version], releases []version.Version) *lines.Map[version.Version] {
	highest := make(map[string]version.Version, current.Len())
	for _, v := range releases {
		line := v.Line()
		base, tracked := current.Get(line)
		if !tracked || !base.Less(v) {
			continue
		}
		if best, ok := highest[line]; !ok || best.Less(v) {
			highest[line] = v
		}
	}

	result := lines.New[version.Version]()
	current.Each(func(line string, base version.Version) bool {
		if v, ok := highest[line]; ok {
			result.Set(line, v)
			verbose.LineEvaluated(line, base.String(), v.String(), "newer release available")
		} else {
			verbose.LineEvaluated(line, base.String(), "-", "up to date")
		}
		return true
	})
	return result
}

// ParseCatalog converts primary index records into versions.
//
// Parameters:
//   - releases: Records from the primary release index
//
// Returns:
//   - []version.Version: Parsed versions in input order
//   - error: The first parse failure, wrapping *version.ParseError
func ParseCatalog(releases []catalog.Release) ([]version.Version, error) {
	out := make([]version.Version, 0, len(releases))
	for i, r := range releases {
		v, err := version.Parse(r.Version)
		if err != nil {
			return nil, fmt.Errorf("release index record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
