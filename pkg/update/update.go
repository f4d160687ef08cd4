// Package update sequences the release decision against live inputs and
// dispatches the update action for every approved line.
package update

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/ajxudir/releasewatch/pkg/catalog"
	"github.com/ajxudir/releasewatch/pkg/config"
	"github.com/ajxudir/releasewatch/pkg/decision"
	"github.com/ajxudir/releasewatch/pkg/errors"
	"github.com/ajxudir/releasewatch/pkg/lines"
	"github.com/ajxudir/releasewatch/pkg/outdated"
	"github.com/ajxudir/releasewatch/pkg/qualify"
	"github.com/ajxudir/releasewatch/pkg/verbose"
	"github.com/ajxudir/releasewatch/pkg/version"
)

// SupportedSource provides the built version of every supported line.
type SupportedSource interface {
	Supported(ctx context.Context) (*lines.Map[version.Version], error)
}

// CatalogSource provides the primary and alternate-build release indexes.
type CatalogSource interface {
	Releases(ctx context.Context) ([]catalog.Release, error)
	Entries(ctx context.Context) ([]catalog.Entry, error)
}

// Dispatcher runs the external update action.
type Dispatcher interface {
	// Dispatch updates one approved line and returns the action's output.
	Dispatch(ctx context.Context, c qualify.Candidate) ([]byte, error)
	// Finish runs once after every line was updated.
	Finish(ctx context.Context) ([]byte, error)
}

// Options carries the configuration and collaborators of a run.
//
// Fields:
//   - Config: Effective configuration
//   - Source: Supported lines, usually a *buildtree.Tree
//   - Catalog: Release indexes, usually a *catalog.Client
//   - Dispatcher: Update action, usually a *CommandDispatcher; unused by Check
//   - OnAction: Optional callback invoked after each successful action
type Options struct {
	Config     *config.Config
	Source     SupportedSource
	Catalog    CatalogSource
	Dispatcher Dispatcher
	OnAction   func(Action)
}

// Action is the outcome of one dispatched update.
type Action struct {
	Candidate qualify.Candidate
	Output    string
}

// Result is the outcome of Run.
//
// Fields:
//   - Supported: Built version per line
//   - Newer: Newer version per line, empty when nothing is newer
//   - Annotated: Qualified candidates; nil when nothing is newer
//   - Decision: The gate outcome
//   - Actions: Completed actions in dispatch order
//   - PostOutput: Output of the post-update commands
type Result struct {
	Supported  *lines.Map[version.Version]
	Newer      *lines.Map[version.Version]
	Annotated  *lines.Map[qualify.Candidate]
	Decision   decision.Decision
	Actions    []Action
	PostOutput string
}

// UpdatedVersions returns the versions of the completed actions in order.
func (r *Result) UpdatedVersions() []string {
	out := make([]string, 0, len(r.Actions))
	for _, a := range r.Actions {
		out = append(out, a.Candidate.Version.String())
	}
	return out
}

// Summary joins the updated versions with ", ".
func (r *Result) Summary() string {
	return strings.Join(r.UpdatedVersions(), ", ")
}

// Run detects newer releases and updates every approved line.
//
// It performs the following operations:
//   - Step 1-7: Evaluates the decision as described for evaluate
//   - Step 8: Dispatches the approved candidates one at a time, in line
//     order; the first failure aborts the remaining lines
//   - Step 9: Runs the dispatcher's post-update step once
//
// A blocked batch returns the partial Result together with a
// *errors.MissingArtifactError and dispatches nothing. An action failure
// returns the Result with the actions completed so far together with an
// *errors.ActionError.
//
// Parameters:
//   - ctx: Cancels fetches and commands
//   - opts: Configuration and collaborators
//
// Returns:
//   - *Result: Non-nil unless reading the inputs failed
//   - error: Input, parse, blocking or action errors
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("update: no dispatcher configured")
	}

	result, err := evaluate(ctx, opts)
	if err != nil {
		return result, err
	}
	if result.Decision.Kind == decision.NoUpdate {
		return result, nil
	}

	for _, c := range result.Decision.Candidates {
		verbose.Infof("Updating line %s to %s (security: %t)", c.Line, c.Version, c.IsSecurity)
		out, err := opts.Dispatcher.Dispatch(ctx, c)
		if err != nil {
			return result, &errors.ActionError{
				Line:      c.Line,
				Version:   c.Version.String(),
				Completed: result.UpdatedVersions(),
				Err:       err,
			}
		}
		action := Action{Candidate: c, Output: string(out)}
		result.Actions = append(result.Actions, action)
		if opts.OnAction != nil {
			opts.OnAction(action)
		}
	}

	out, err := opts.Dispatcher.Finish(ctx)
	result.PostOutput = string(out)
	if err != nil {
		return result, &errors.ActionError{Line: "post-update", Completed: result.UpdatedVersions(), Err: err}
	}
	return result, nil
}

// evaluate runs the pure decision pipeline against the collaborators.
//
// It performs the following operations:
//   - Step 1: Reads the supported lines
//   - Step 2: Fetches the primary release index
//   - Step 3: Drops skipped releases, parses the rest and finds newer versions
//   - Step 4: Stops with NoUpdate when nothing is newer
//   - Step 5: Fetches the alternate-build index
//   - Step 6: Annotates the candidates
//   - Step 7: Applies the all-or-nothing gate
func evaluate(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil || opts.Source == nil || opts.Catalog == nil {
		return nil, fmt.Errorf("update: config, source and catalog are required")
	}
	cfg := opts.Config

	supported, err := opts.Source.Supported(ctx)
	if err != nil {
		return nil, fmt.Errorf("read supported lines: %w", err)
	}
	verbose.Printf("Supported lines: %s", strings.Join(supported.Keys(), ", "))

	releases, err := opts.Catalog.Releases(ctx)
	if err != nil {
		return nil, err
	}
	releases, err = catalog.FilterSkipped(releases, cfg.Catalog.Skip)
	if err != nil {
		return nil, err
	}
	parsed, err := outdated.ParseCatalog(releases)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Supported: supported,
		Newer:     outdated.FindNewer(supported, parsed),
		Decision:  decision.Decision{Kind: decision.NoUpdate},
	}
	if result.Newer.Len() == 0 {
		return result, nil
	}

	entries, err := opts.Catalog.Entries(ctx)
	if err != nil {
		return result, err
	}
	result.Annotated = qualify.Annotate(result.Newer, entries, cfg.Artifact)

	d, err := decision.Decide(result.Annotated)
	if err != nil {
		var mae *errors.MissingArtifactError
		if stderrors.As(err, &mae) {
			mae.Artifact = cfg.Artifact
		}
		return result, err
	}
	result.Decision = d
	return result, nil
}
