// Package catalog fetches and filters upstream release indexes.
//
// Two indexes are consumed: the primary release index listing every published
// version, and the alternate-build index listing which build artifacts exist
// per version (e.g. linux-x64-musl) along with the security flag. Both use the
// nodejs.org index.json shape: a JSON array of objects with a "version" field
// formatted v<major>.<minor>.<patch>.
package catalog

import (
	"fmt"

	semver "github.com/Masterminds/semver/v3"

	"github.com/ajxudir/releasewatch/pkg/verbose"
)

// Release is one record of the primary release index.
type Release struct {
	Version string `json:"version"`
}

// Entry is one record of the alternate-build index.
//
// Fields:
//   - Version: Release tag, e.g. "v18.1.0"
//   - Files: Artifact tags available for the release, e.g. "linux-x64-musl"
//   - Security: Whether upstream flagged the release as a security release
type Entry struct {
	Version  string   `json:"version"`
	Files    []string `json:"files"`
	Security bool     `json:"security"`
}

// HasFile reports whether the entry lists the given artifact tag.
func (e Entry) HasFile(artifact string) bool {
	for _, f := range e.Files {
		if f == artifact {
			return true
		}
	}
	return false
}

// FilterSkipped drops releases matching the skip constraint.
//
// The constraint uses Masterminds semver syntax and a release is dropped when
// it satisfies the constraint: "20.11.0" skips one release, "20.11.0 || 18.19.1"
// skips two, ">=23.0.0" skips a range. Records whose version the constraint
// parser cannot read are kept so that strict parsing later reports them.
//
// Parameters:
//   - releases: Records from the primary index
//   - constraint: Skip constraint; empty keeps every release
//
// Returns:
//   - []Release: Releases not matching the constraint, in input order
//   - error: When the constraint itself is invalid
func FilterSkipped(releases []Release, constraint string) ([]Release, error) {
	if constraint == "" {
		return releases, nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("invalid skip constraint %q: %w", constraint, err)
	}

	kept := make([]Release, 0, len(releases))
	for _, r := range releases {
		v, err := semver.NewVersion(r.Version)
		if err == nil && c.Check(v) {
			verbose.Printf("Skipping release %s (matches skip constraint %q)", r.Version, constraint)
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}
