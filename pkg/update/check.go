package update

import (
	"context"
	stderrors "errors"

	"github.com/ajxudir/releasewatch/pkg/constants"
	"github.com/ajxudir/releasewatch/pkg/decision"
	"github.com/ajxudir/releasewatch/pkg/errors"
	"github.com/ajxudir/releasewatch/pkg/version"
)

// LineReport is the check outcome for one supported line.
//
// Fields:
//   - Line: Major line id
//   - Current: Version currently built
//   - Latest: Newest qualifying upstream version, empty when none
//   - HasAlternateBuild: Whether the alternate build exists for Latest
//   - IsSecurity: Whether Latest is a security release
//   - Status: One of the constants.Status* line statuses
type LineReport struct {
	Line              string
	Current           string
	Latest            string
	HasAlternateBuild bool
	IsSecurity        bool
	Status            string
}

// Report is the outcome of Check.
//
// Fields:
//   - Lines: One entry per supported line, in line order
//   - Decision: The gate outcome
//   - Blocked: The blocking line when the batch was withheld, else nil
type Report struct {
	Lines    []LineReport
	Decision decision.Decision
	Blocked  *errors.MissingArtifactError
}

// Check evaluates the decision without dispatching anything.
//
// A blocked batch is reported through Report.Blocked and line statuses rather
// than as an error: lines without the alternate build are MissingArtifact and
// ready lines are Held.
//
// Parameters:
//   - ctx: Cancels fetches and commands
//   - opts: Configuration and collaborators; Dispatcher is ignored
//
// Returns:
//   - *Report: Per-line outcome
//   - error: Input or parse errors
func Check(ctx context.Context, opts Options) (*Report, error) {
	result, err := evaluate(ctx, opts)
	report := &Report{}
	if err != nil {
		mae, ok := asMissingArtifact(err)
		if !ok {
			return nil, err
		}
		report.Blocked = mae
	}
	report.Decision = result.Decision

	result.Supported.Each(func(line string, current version.Version) bool {
		lr := LineReport{Line: line, Current: current.String(), Status: constants.StatusUpToDate}
		if c, ok := result.Annotated.Get(line); ok {
			lr.Latest = c.Version.String()
			lr.HasAlternateBuild = c.HasAlternateBuild
			lr.IsSecurity = c.IsSecurity
			switch {
			case !c.HasAlternateBuild:
				lr.Status = constants.StatusMissingArtifact
			case report.Blocked != nil:
				lr.Status = constants.StatusHeld
			default:
				lr.Status = constants.StatusUpdate
			}
		}
		report.Lines = append(report.Lines, lr)
		return true
	})
	return report, nil
}

// HasUpdates reports whether the batch would be dispatched.
func (r *Report) HasUpdates() bool {
	return r.Decision.Kind == decision.Update
}

func asMissingArtifact(err error) (*errors.MissingArtifactError, bool) {
	var mae *errors.MissingArtifactError
	ok := stderrors.As(err, &mae)
	return mae, ok
}
