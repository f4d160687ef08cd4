package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-multierror"

	"github.com/ajxudir/releasewatch/pkg/errors"
)

// Validate checks cfg and reports every problem at once.
//
// It performs the following operations:
//   - Requires a non-empty artifact and update command
//   - Requires http(s) index URLs
//   - Rejects negative timeouts and retry counts
//   - Compiles version_pattern and requires a capture group
//   - Parses the skip constraint
//
// Parameters:
//   - cfg: Configuration to check
//
// Returns:
//   - error: *multierror.Error of *errors.ValidationError; nil when valid
func Validate(cfg *Config) error {
	var result *multierror.Error
	add := func(field, message, expected string) {
		ve := errors.NewConfigValidationError(field, message)
		ve.Expected = expected
		result = multierror.Append(result, ve)
	}

	if strings.TrimSpace(cfg.Artifact) == "" {
		add("artifact", "must not be empty", "an artifact tag such as linux-x64-musl")
	}

	if msg := checkURL(cfg.Catalog.ReleaseIndexURL); msg != "" {
		add("catalog.release_index_url", msg, "an http or https URL")
	}
	if msg := checkURL(cfg.Catalog.AlternateIndexURL); msg != "" {
		add("catalog.alternate_index_url", msg, "an http or https URL")
	}

	if cfg.Catalog.TimeoutSeconds < 0 {
		add("catalog.timeout_seconds", fmt.Sprintf("must not be negative, got %d", cfg.Catalog.TimeoutSeconds), "integer >= 0")
	}
	if cfg.Catalog.MaxRetries < 0 {
		add("catalog.max_retries", fmt.Sprintf("must not be negative, got %d", cfg.Catalog.MaxRetries), "integer >= 0")
	}
	if cfg.Catalog.Skip != "" {
		if _, err := semver.NewConstraint(cfg.Catalog.Skip); err != nil {
			add("catalog.skip", fmt.Sprintf("invalid constraint: %v", err), `a semver constraint such as "20.11.0 || >=23.0.0"`)
		}
	}

	if cfg.BuildTree.VersionCommand == "" {
		if re, err := regexp.Compile(cfg.BuildTree.VersionPattern); err != nil {
			add("build_tree.version_pattern", fmt.Sprintf("invalid regex: %v", err), "a Go regular expression")
		} else if re.NumSubexp() < 1 {
			add("build_tree.version_pattern", "must contain a capture group", "the first group captures the version")
		}
	}

	if strings.TrimSpace(cfg.Update.Commands) == "" {
		add("update.commands", "must not be empty", "a command such as ./update.sh {{security_flag}} {{line}}")
	}
	if cfg.Update.TimeoutSeconds < 0 {
		add("update.timeout_seconds", fmt.Sprintf("must not be negative, got %d", cfg.Update.TimeoutSeconds), "integer >= 0")
	}

	if result != nil {
		result.ErrorFormat = formatErrors
	}
	return result.ErrorOrNil()
}

func checkURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "must not be empty"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "missing host"
	}
	return ""
}

func formatErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(msgs, "; "))
}
