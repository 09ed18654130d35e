package messenger

import (
	"fmt"
	"log/slog"

	"github.com/flemzord/mercury/internal/core"
	"github.com/flemzord/mercury/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Service names published by the module.
const (
	ServiceNormalizer = "messenger.normalizer"
	ServiceActions    = "messenger.actions"

	// ServiceMetricsRegistry is the shared Prometheus registry, published by
	// the application before modules load.
	ServiceMetricsRegistry = "metrics.registry"
)

func init() {
	core.RegisterModule(&Messenger{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Messenger)(nil)
	_ core.Provisioner  = (*Messenger)(nil)
	_ core.Validator    = (*Messenger)(nil)
)

// Messenger is the "channel.messenger" module. It owns the Normalizer and,
// when a base URL is configured, the Actions helper.
type Messenger struct {
	config     Config
	logger     *slog.Logger
	normalizer *Normalizer
	actions    *Actions
}

// ModuleInfo implements core.Module.
func (m *Messenger) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "channel.messenger",
		New: func() core.Module { return &Messenger{} },
	}
}

// Configure implements core.Configurable.
func (m *Messenger) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("messenger: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Messenger) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	opts := []Option{WithLogger(m.logger)}
	if m.config.metricsEnabled() {
		reg := prometheus.DefaultRegisterer
		if svc, ok := ctx.GetService(ServiceMetricsRegistry); ok {
			if r, ok := svc.(prometheus.Registerer); ok {
				reg = r
			}
		}
		metrics, err := NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("messenger: register metrics: %w", err)
		}
		opts = append(opts, WithMetrics(metrics))
	}
	m.normalizer = NewNormalizer(opts...)
	ctx.RegisterService(ServiceNormalizer, m.normalizer)

	if svc, ok := ctx.GetService(security.ServiceName); ok {
		if r, ok := svc.(*security.Redactor); ok {
			r.AddHeaders(m.config.Headers)
		}
	}

	if m.config.BaseURL != "" {
		client := NewClient(m.config.BaseURL, m.config.Headers, m.config.Timeout)
		m.actions = NewActions(client, m.config.UserID)
		ctx.RegisterService(ServiceActions, m.actions)
		m.logger.Info("messenger actions enabled", "base_url", m.config.BaseURL)
	}
	return nil
}

// Validate implements core.Validator.
func (m *Messenger) Validate() error {
	return m.config.validate()
}

// Normalizer returns the module's normalizer.
func (m *Messenger) Normalizer() *Normalizer {
	return m.normalizer
}
