package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajxudir/releasewatch/pkg/verbose"
)

// FileName is the config file looked up in the working directory.
const FileName = ".releasewatch.yml"

// DefaultMaxConfigFileSize caps the size of a config file read from disk.
const DefaultMaxConfigFileSize int64 = 1 << 20

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RELEASEWATCH"

// Load reads the configuration for workDir.
//
// It performs the following operations:
//   - Step 1: Starts from the embedded defaults
//   - Step 2: Decodes configPath, or FileName in workDir when configPath is
//     empty, over the defaults; unknown keys are rejected
//   - Step 3: Keeps a working_dir set by the file, resolving a relative one
//     against the file's directory; otherwise uses workDir, or "."
//
// A missing FileName is not an error. A missing explicit configPath is.
// Environment overrides are applied separately by ApplyEnv.
//
// Parameters:
//   - configPath: Explicit config file, or empty
//   - workDir: Repository directory
//
// Returns:
//   - *Config: The loaded configuration
//   - error: When the file cannot be read or decoded
func Load(configPath, workDir string) (*Config, error) {
	cfg := Default()

	path := configPath
	if path == "" {
		candidate := filepath.Join(workDir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", candidate, err)
		}
	}

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		cfg.SourcePath = path
		verbose.ConfigLoaded(path)
	} else {
		verbose.Info("Using built-in default configuration")
	}

	switch {
	case cfg.WorkingDir != "":
		if path != "" && !filepath.IsAbs(cfg.WorkingDir) {
			cfg.WorkingDir = filepath.Join(filepath.Dir(path), cfg.WorkingDir)
		}
		verbose.Printf("Working directory from %s: %s", path, cfg.WorkingDir)
	case workDir != "":
		cfg.WorkingDir = workDir
	default:
		cfg.WorkingDir = "."
	}

	return cfg, nil
}

// loadFile decodes the YAML file at path into cfg.
func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > DefaultMaxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d bytes)", info.Size(), DefaultMaxConfigFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decodeStrict(data, cfg)
}

// decodeStrict decodes YAML into cfg, rejecting unknown keys. An empty
// document leaves cfg unchanged.
func decodeStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	return nil
}

// LoadDotEnv loads workDir/.env into the process environment if it exists.
// Variables already set in the environment are not overwritten.
//
// Parameters:
//   - workDir: Directory containing the optional .env file
//
// Returns:
//   - error: When the file exists but cannot be parsed
func LoadDotEnv(workDir string) error {
	path := filepath.Join(workDir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	verbose.Printf("Loaded environment from %s", path)
	return nil
}

// NewEnv returns a viper instance bound to the RELEASEWATCH_* variables.
//
// The GitHub token falls back to the plain GITHUB_TOKEN variable that CI
// runners provide.
func NewEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("github_token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("artifact")
	_ = v.BindEnv("release_index_url")
	_ = v.BindEnv("alternate_index_url")
	_ = v.BindEnv("skip")
	return v
}

// ApplyEnv overrides cfg with non-empty values from v.
//
// Parameters:
//   - cfg: Configuration to modify
//   - v: Environment source, usually from NewEnv
func ApplyEnv(cfg *Config, v *viper.Viper) {
	set := func(key string, dst *string) {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			verbose.Printf("Config override from environment: %s", key)
			*dst = s
		}
	}

	set("artifact", &cfg.Artifact)
	set("release_index_url", &cfg.Catalog.ReleaseIndexURL)
	set("alternate_index_url", &cfg.Catalog.AlternateIndexURL)
	set("skip", &cfg.Catalog.Skip)

	if token := strings.TrimSpace(v.GetString("github_token")); token != "" {
		cfg.GitHubToken = token
	}
}

// Marshal renders cfg as YAML. Runtime-only fields such as the token are
// omitted.
func Marshal(cfg *Config) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
