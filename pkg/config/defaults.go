package config

import (
	_ "embed"
)

//go:embed default.yml
var defaultConfigYAML string

//go:embed template.yml
var templateConfigYAML string

// Default returns a fresh copy of the built-in configuration.
//
// The embedded YAML is part of the binary; failing to decode it is a build
// defect, so Default panics in that case.
func Default() *Config {
	cfg := &Config{}
	if err := decodeStrict([]byte(defaultConfigYAML), cfg); err != nil {
		panic("config: invalid embedded defaults: " + err.Error())
	}
	return cfg
}

// GetDefaultConfig returns the embedded default configuration YAML.
func GetDefaultConfig() string {
	return defaultConfigYAML
}

// GetTemplateConfig returns the annotated starter configuration written by
// "releasewatch config init".
func GetTemplateConfig() string {
	return templateConfigYAML
}
