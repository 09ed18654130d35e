// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for mercury.
package config

import "gopkg.in/yaml.v3"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Logging controls the root logger.
	Logging LoggingConfig `yaml:"logging"`

	// Tracing controls OpenTelemetry export. Tracing is off when Endpoint
	// is empty.
	Tracing TracingConfig `yaml:"tracing"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "channel.messenger").
	Modules map[string]yaml.Node `yaml:"modules"`
}

// LoggingConfig selects the log format and minimum level.
type LoggingConfig struct {
	// Format is "text" (default) or "json".
	Format string `yaml:"format"`

	// Level is one of debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`

	// AddSource reports the caller file and line.
	AddSource bool `yaml:"add_source"`
}

// TracingConfig configures the OTLP/HTTP trace exporter.
type TracingConfig struct {
	// Endpoint is the collector host:port, e.g. "localhost:4318".
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces recorded, in [0, 1].
	// Zero means every trace is recorded.
	SampleRatio float64 `yaml:"sample_ratio"`
}
