package testutil

import (
	"github.com/ajxudir/releasewatch/pkg/config"
)

// ConfigBuilder provides a fluent API for building test configurations
// on top of the built-in defaults.
type ConfigBuilder struct {
	cfg *config.Config
}

// NewConfig creates a builder starting from config.Default with the working
// directory set to ".".
func NewConfig() *ConfigBuilder {
	cfg := config.Default()
	cfg.WorkingDir = "."
	return &ConfigBuilder{cfg: cfg}
}

// WithWorkingDir sets the working directory.
func (b *ConfigBuilder) WithWorkingDir(dir string) *ConfigBuilder {
	b.cfg.WorkingDir = dir
	return b
}

// WithArtifact sets the required alternate build artifact.
func (b *ConfigBuilder) WithArtifact(artifact string) *ConfigBuilder {
	b.cfg.Artifact = artifact
	return b
}

// WithSkip sets the skip constraint.
func (b *ConfigBuilder) WithSkip(constraint string) *ConfigBuilder {
	b.cfg.Catalog.Skip = constraint
	return b
}

// WithIndexURLs points both catalogs at base + "/release" and
// base + "/alternate".
func (b *ConfigBuilder) WithIndexURLs(base string) *ConfigBuilder {
	b.cfg.Catalog.ReleaseIndexURL = base + "/release"
	b.cfg.Catalog.AlternateIndexURL = base + "/alternate"
	return b
}

// WithUpdateCommands sets the per-line update commands.
func (b *ConfigBuilder) WithUpdateCommands(commands string) *ConfigBuilder {
	b.cfg.Update.Commands = commands
	return b
}

// WithPostCommands sets the post-update commands.
func (b *ConfigBuilder) WithPostCommands(commands string) *ConfigBuilder {
	b.cfg.Update.PostCommands = commands
	return b
}

// Build returns the configuration.
func (b *ConfigBuilder) Build() *config.Config {
	return b.cfg
}
