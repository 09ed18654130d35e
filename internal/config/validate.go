package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/flemzord/mercury/internal/core"
)

var (
	validFormats = []string{"", "text", "json"}
	validLevels  = []string{"", "debug", "info", "warn", "warning", "error"}
)

// Validate checks the structural validity of a Config.
// It verifies the version field, ensures modules are present,
// checks that all referenced module IDs exist in the registry
// and validates the logging and tracing sections.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: at least one module must be configured"))
	}

	for _, id := range Resolve(cfg) {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
		}
	}

	errs = append(errs, validateLogging(cfg.Logging)...)
	errs = append(errs, validateTracing(cfg.Tracing)...)

	return errors.Join(errs...)
}

func validateLogging(l LoggingConfig) []error {
	var errs []error
	if !slices.Contains(validFormats, strings.ToLower(l.Format)) {
		errs = append(errs, fmt.Errorf("config: logging.format %q is not one of text, json", l.Format))
	}
	if !slices.Contains(validLevels, strings.ToLower(l.Level)) {
		errs = append(errs, fmt.Errorf("config: logging.level %q is not one of debug, info, warn, error", l.Level))
	}
	return errs
}

func validateTracing(t TracingConfig) []error {
	var errs []error
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("config: tracing.sample_ratio %v is outside [0, 1]", t.SampleRatio))
	}
	if strings.Contains(t.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("config: tracing.endpoint %q must be host:port without a scheme", t.Endpoint))
	}
	return errs
}
