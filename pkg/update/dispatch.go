package update

import (
	"context"
	"strings"
	"time"

	"github.com/ajxudir/releasewatch/pkg/cmdexec"
	"github.com/ajxudir/releasewatch/pkg/config"
	"github.com/ajxudir/releasewatch/pkg/qualify"
)

// CommandDispatcher runs the configured shell commands as the update action.
//
// Fields:
//   - Commands: Template run per line; see cmdexec.BuildReplacements
//   - PostCommands: Run once after all lines; empty skips the step
//   - Dir: Working directory
//   - Env: Extra environment
//   - Timeout: Limit per command line
//   - Shell: Shell override
type CommandDispatcher struct {
	Commands     string
	PostCommands string
	Dir          string
	Env          map[string]string
	Timeout      time.Duration
	Shell        string
}

// NewCommandDispatcher creates a CommandDispatcher from configuration.
func NewCommandDispatcher(cfg *config.Config) *CommandDispatcher {
	return &CommandDispatcher{
		Commands:     cfg.Update.Commands,
		PostCommands: cfg.Update.PostCommands,
		Dir:          cfg.WorkingDir,
		Env:          cfg.Update.Env,
		Timeout:      cfg.UpdateTimeout(),
		Shell:        cfg.Shell,
	}
}

// Dispatch runs the update commands for one candidate.
func (d *CommandDispatcher) Dispatch(ctx context.Context, c qualify.Candidate) ([]byte, error) {
	return cmdexec.Run(ctx, d.request(d.Commands, cmdexec.BuildReplacements(c.Line, c.Version.String(), c.IsSecurity)))
}

// Finish runs the post-update commands, if any.
func (d *CommandDispatcher) Finish(ctx context.Context) ([]byte, error) {
	if strings.TrimSpace(d.PostCommands) == "" {
		return nil, nil
	}
	return cmdexec.Run(ctx, d.request(d.PostCommands, nil))
}

func (d *CommandDispatcher) request(commands string, replacements map[string]string) cmdexec.Request {
	return cmdexec.Request{
		Commands:     commands,
		Env:          d.Env,
		Dir:          d.Dir,
		Timeout:      d.Timeout,
		Replacements: replacements,
		Shell:        d.Shell,
	}
}
