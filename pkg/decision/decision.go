// Package decision applies the all-or-nothing update gate to annotated
// candidates.
package decision

import (
	"github.com/ajxudir/releasewatch/pkg/errors"
	"github.com/ajxudir/releasewatch/pkg/lines"
	"github.com/ajxudir/releasewatch/pkg/qualify"
)

// Kind distinguishes the two decision outcomes.
type Kind int

const (
	// NoUpdate means no tracked line has a newer release.
	NoUpdate Kind = iota
	// Update means every candidate qualified and all are approved.
	Update
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	if k == Update {
		return "update"
	}
	return "no-update"
}

// Decision is the outcome of Decide.
//
// Fields:
//   - Kind: NoUpdate or Update
//   - Candidates: Approved candidates in line order; empty for NoUpdate
type Decision struct {
	Kind       Kind
	Candidates []qualify.Candidate
}

// Versions returns the canonical version strings of the approved candidates.
func (d Decision) Versions() []string {
	out := make([]string, 0, len(d.Candidates))
	for _, c := range d.Candidates {
		out = append(out, c.Version.String())
	}
	return out
}

// Decide approves every candidate or none of them.
//
// It performs the following operations:
//   - Step 1: Returns NoUpdate when annotated is empty
//   - Step 2: Walks candidates in map order and stops at the first one
//     without the alternate build
//   - Step 3: Otherwise returns Update with every candidate
//
// Parameters:
//   - annotated: Candidates from qualify.Annotate
//
// Returns:
//   - Decision: The approved batch, or NoUpdate
//   - error: *errors.MissingArtifactError naming the first blocking line
func Decide(annotated *lines.Map[qualify.Candidate]) (Decision, error) {
	if annotated.Len() == 0 {
		return Decision{Kind: NoUpdate}, nil
	}

	approved := make([]qualify.Candidate, 0, annotated.Len())
	var blocked *errors.MissingArtifactError
	annotated.Each(func(line string, c qualify.Candidate) bool {
		if !c.HasAlternateBuild {
			blocked = &errors.MissingArtifactError{Line: line, Version: c.Version.String()}
			return false
		}
		approved = append(approved, c)
		return true
	})

	if blocked != nil {
		return Decision{Kind: NoUpdate}, blocked
	}
	return Decision{Kind: Update, Candidates: approved}, nil
}
