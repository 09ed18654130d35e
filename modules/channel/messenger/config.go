package messenger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var configValidator = validator.New()

// Config holds the messenger channel configuration.
type Config struct {
	// UserID is the actor id used for reactions.
	UserID string `yaml:"user_id" validate:"omitempty,numeric"`

	// Metrics toggles the Prometheus collectors. Defaults to true.
	Metrics *bool `yaml:"metrics"`

	// BaseURL enables outgoing actions through an HTTP transport.
	BaseURL string            `yaml:"base_url" validate:"omitempty,http_url"`
	Headers map[string]string `yaml:"headers"`
	Timeout time.Duration     `yaml:"timeout" validate:"gte=0"`
}

// defaults applies default values to unset fields.
func (c *Config) defaults() {
	if c.Metrics == nil {
		enabled := true
		c.Metrics = &enabled
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// validate checks field constraints after defaults have been applied.
func (c *Config) validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("messenger: invalid config: %w", err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("messenger: %s fails %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.Join(errs...)
}

func (c *Config) metricsEnabled() bool {
	return c.Metrics == nil || *c.Metrics
}
