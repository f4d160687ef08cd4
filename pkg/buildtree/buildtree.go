// Package buildtree reads the supported major lines and their built versions
// from a directory-per-major-line repository layout such as docker-node:
//
//	18/alpine3.19/Dockerfile
//	18/bookworm/Dockerfile
//	20/alpine3.19/Dockerfile
//
// The lexically first entry of each line directory is taken as representative
// of the version that line currently builds.
package buildtree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ajxudir/releasewatch/pkg/cmdexec"
	"github.com/ajxudir/releasewatch/pkg/config"
	"github.com/ajxudir/releasewatch/pkg/lines"
	"github.com/ajxudir/releasewatch/pkg/verbose"
	"github.com/ajxudir/releasewatch/pkg/version"
	"github.com/ajxudir/releasewatch/pkg/warnings"
)

// DefaultVersionPattern matches the Node.js version pinned in a Dockerfile.
const DefaultVersionPattern = `ENV NODE_VERSION[= ]+([0-9][^\s]*)`

// Tree reads supported lines from a build tree.
//
// Fields:
//   - Dir: Root of the build tree
//   - VersionsCommand: Optional command whose stdout lists the lines
//   - VersionCommand: Optional command printing the version of {{path}}
//   - VersionPattern: Regex applied to Dockerfiles when VersionCommand is empty
//   - Shell: Shell for the commands; empty uses the default
//   - Env: Extra environment for the commands
//   - Timeout: Limit for each command
type Tree struct {
	Dir             string
	VersionsCommand string
	VersionCommand  string
	VersionPattern  string
	Shell           string
	Env             map[string]string
	Timeout         time.Duration
}

// New creates a Tree from configuration.
func New(cfg *config.Config) *Tree {
	return &Tree{
		Dir:             cfg.BuildDir(),
		VersionsCommand: cfg.BuildTree.VersionsCommand,
		VersionCommand:  cfg.BuildTree.VersionCommand,
		VersionPattern:  cfg.BuildTree.VersionPattern,
		Shell:           cfg.Shell,
		Env:             cfg.Update.Env,
		Timeout:         cfg.UpdateTimeout(),
	}
}

// Supported returns the built version of every supported line.
//
// It performs the following operations:
//   - Step 1: Lists the lines with Lines
//   - Step 2: Reads each line's version with FullVersion
//
// Parameters:
//   - ctx: Cancels command execution
//
// Returns:
//   - *lines.Map[version.Version]: Built version per line, in Lines order
//   - error: When a line cannot be read or its version does not parse
func (t *Tree) Supported(ctx context.Context) (*lines.Map[version.Version], error) {
	ids, err := t.Lines(ctx)
	if err != nil {
		return nil, err
	}

	result := lines.New[version.Version]()
	for _, id := range ids {
		v, err := t.FullVersion(ctx, id)
		if err != nil {
			return nil, err
		}
		verbose.Printf("Line %s builds %s", id, v)
		result.Set(id, v)
	}
	return result, nil
}

// Lines returns the supported major line ids.
//
// Without VersionsCommand these are the subdirectories of Dir whose names are
// all digits, in ascending numeric order. With VersionsCommand the
// whitespace-separated words of its output are used in the order printed.
func (t *Tree) Lines(ctx context.Context) ([]string, error) {
	if strings.TrimSpace(t.VersionsCommand) != "" {
		out, err := cmdexec.Run(ctx, cmdexec.Request{
			Commands: t.VersionsCommand,
			Dir:      t.Dir,
			Env:      t.Env,
			Timeout:  t.Timeout,
			Shell:    t.Shell,
		})
		if err != nil {
			return nil, fmt.Errorf("list supported lines: %w", err)
		}
		return uniqueFields(string(out)), nil
	}

	entries, err := os.ReadDir(t.Dir)
	if err != nil {
		return nil, fmt.Errorf("list supported lines: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && isDigits(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	return ids, nil
}

// FullVersion reads the version currently built for line.
//
// The lexically first non-hidden entry of Dir/line is inspected. With
// VersionCommand, the command runs in Dir with {{path}} set to
// ./<line>/<entry> and its trimmed output is parsed. Otherwise the entry's
// Dockerfile (or the entry itself when it is a file) is matched against
// VersionPattern. A version whose major differs from line is returned with a
// warning, since no release can ever be proposed for it.
//
// Parameters:
//   - ctx: Cancels command execution
//   - line: Major line id
//
// Returns:
//   - version.Version: The built version
//   - error: When nothing is found or the version does not parse
func (t *Tree) FullVersion(ctx context.Context, line string) (version.Version, error) {
	entry, err := firstEntry(filepath.Join(t.Dir, line))
	if err != nil {
		return version.Version{}, fmt.Errorf("line %s: %w", line, err)
	}

	var raw string
	if strings.TrimSpace(t.VersionCommand) != "" {
		out, err := cmdexec.Run(ctx, cmdexec.Request{
			Commands:     t.VersionCommand,
			Dir:          t.Dir,
			Env:          t.Env,
			Timeout:      t.Timeout,
			Shell:        t.Shell,
			Replacements: map[string]string{"path": "./" + line + "/" + entry.Name()},
		})
		if err != nil {
			return version.Version{}, fmt.Errorf("line %s: read version: %w", line, err)
		}
		raw = strings.TrimSpace(string(out))
	} else {
		target := filepath.Join(t.Dir, line, entry.Name())
		if entry.IsDir() {
			target = filepath.Join(target, "Dockerfile")
		}
		raw, err = t.scan(target)
		if err != nil {
			return version.Version{}, fmt.Errorf("line %s: %w", line, err)
		}
	}

	v, err := version.Parse(raw)
	if err != nil {
		return version.Version{}, fmt.Errorf("line %s: %w", line, err)
	}
	if v.Line() != line {
		warnings.Warnf("Warning: line %s builds %s from major line %s; it will never match a newer release\n", line, v, v.Line())
	}
	return v, nil
}

// scan returns the first capture group of VersionPattern in path.
func (t *Tree) scan(path string) (string, error) {
	pattern := t.VersionPattern
	if pattern == "" {
		pattern = DefaultVersionPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid version pattern: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	m := re.FindSubmatch(data)
	if len(m) < 2 {
		return "", fmt.Errorf("no version matching %q in %s", pattern, path)
	}
	return string(m[1]), nil
}

// firstEntry returns the lexically first non-hidden entry of dir.
func firstEntry(dir string) (os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no entries in %s", dir)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func uniqueFields(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range strings.Fields(s) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
