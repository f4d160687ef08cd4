// Package config loads and validates releasewatch configuration.
//
// Configuration is read from .releasewatch.yml in the working directory (or an
// explicit --config path) and decoded over the embedded defaults. Selected
// values can then be overridden from RELEASEWATCH_* environment variables.
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	WorkingDir string       `yaml:"working_dir,omitempty"`
	Shell      string       `yaml:"shell,omitempty"`
	Artifact   string       `yaml:"artifact"`
	Catalog    CatalogCfg   `yaml:"catalog"`
	BuildTree  BuildTreeCfg `yaml:"build_tree"`
	Update     UpdateCfg    `yaml:"update"`

	// GitHubToken authenticates index requests to GitHub hosts. It is only
	// set from the environment and never written back to YAML.
	GitHubToken string `yaml:"-"`

	// NoTimeout disables command timeouts. Set by --no-timeout.
	NoTimeout bool `yaml:"-"`

	// SourcePath is the file the config was loaded from, empty for defaults.
	SourcePath string `yaml:"-"`
}

// CatalogCfg configures the upstream release indexes.
//
// Fields:
//   - ReleaseIndexURL: JSON index of every published release
//   - AlternateIndexURL: JSON index of alternate builds with file tags
//   - TimeoutSeconds: Per-request timeout
//   - MaxRetries: Retries after the first attempt on transient failures
//   - Skip: Semver constraint; matching releases are never proposed
type CatalogCfg struct {
	ReleaseIndexURL   string `yaml:"release_index_url"`
	AlternateIndexURL string `yaml:"alternate_index_url"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxRetries        int    `yaml:"max_retries"`
	Skip              string `yaml:"skip,omitempty"`
}

// BuildTreeCfg describes how supported lines are read from the repository.
//
// Fields:
//   - Dir: Directory holding one subdirectory per major line
//   - VersionsCommand: Optional command printing the supported lines
//   - VersionCommand: Optional command printing the version of {{path}}
//   - VersionPattern: Regex whose first group captures the built version
type BuildTreeCfg struct {
	Dir             string `yaml:"dir"`
	VersionsCommand string `yaml:"versions_command,omitempty"`
	VersionCommand  string `yaml:"version_command,omitempty"`
	VersionPattern  string `yaml:"version_pattern"`
}

// UpdateCfg configures the update action dispatched per approved line.
//
// Fields:
//   - Commands: Command template run once per line
//   - Env: Extra environment for Commands and PostCommands
//   - TimeoutSeconds: Limit for each command line
//   - PostCommands: Commands run once after all lines were updated
type UpdateCfg struct {
	Commands       string            `yaml:"commands"`
	Env            map[string]string `yaml:"env,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	PostCommands   string            `yaml:"post_commands,omitempty"`
}

// CatalogTimeout returns the per-request timeout for index fetches.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// UpdateTimeout returns the command timeout, or zero when timeouts are
// disabled by NoTimeout.
func (c *Config) UpdateTimeout() time.Duration {
	if c.NoTimeout {
		return 0
	}
	return time.Duration(c.Update.TimeoutSeconds) * time.Second
}

// BuildDir returns the build tree directory resolved against WorkingDir.
func (c *Config) BuildDir() string {
	if filepath.IsAbs(c.BuildTree.Dir) {
		return c.BuildTree.Dir
	}
	return filepath.Join(c.WorkingDir, c.BuildTree.Dir)
}
