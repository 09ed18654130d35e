// Package gateway serves mercury over HTTP: payload normalization and
// serialization, stored message lookups, a websocket stream of realtime
// deltas, health and Prometheus metrics. It binds to loopback by default.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/mercury/internal/core"
	"github.com/flemzord/mercury/internal/store"
	"github.com/flemzord/mercury/internal/telemetry"
	"github.com/flemzord/mercury/modules/channel/messenger"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Gateway)(nil)
	_ core.Provisioner  = (*Gateway)(nil)
	_ core.Validator    = (*Gateway)(nil)
	_ core.Starter      = (*Gateway)(nil)
	_ core.Stopper      = (*Gateway)(nil)
)

// Gateway is the gateway.http module. It is a leaf module: nothing imports it.
type Gateway struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	server    *http.Server
	metrics   *Metrics
	startedAt time.Time

	// Resolved at Start from the service registry.
	normalizer *messenger.Normalizer
	store      store.MessageStore
	gatherer   prometheus.Gatherer
	tracer     trace.Tracer
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return fmt.Errorf("gateway: decode config: %w", err)
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger

	reg, gatherer := registryFrom(ctx)
	metrics, err := NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("gateway: register metrics: %w", err)
	}
	g.metrics = metrics
	g.gatherer = gatherer
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	return g.config.validate()
}

// Start implements core.Starter. It resolves its dependencies from the
// service registry and starts the HTTP server. A missing normalizer is
// replaced by a default one; a missing store disables the message routes.
func (g *Gateway) Start() error {
	g.resolveServices()
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String(), "store", g.store != nil)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()
	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

func (g *Gateway) resolveServices() {
	if g.appCtx != nil {
		if svc, ok := g.appCtx.Service(messenger.ServiceNormalizer); ok {
			if n, ok := svc.(*messenger.Normalizer); ok {
				g.normalizer = n
			}
		}
		if svc, ok := g.appCtx.Service(store.ServiceName); ok {
			if s, ok := svc.(store.MessageStore); ok {
				g.store = s
			}
		}
		if svc, ok := g.appCtx.Service(telemetry.ServiceName); ok {
			if tp, ok := svc.(trace.TracerProvider); ok {
				g.tracer = telemetry.Tracer(tp)
			}
		}
	}
	if g.normalizer == nil {
		g.normalizer = messenger.NewNormalizer(messenger.WithLogger(g.logger))
	}
	if g.tracer == nil {
		g.tracer = telemetry.Tracer(nil)
	}
	if g.gatherer == nil {
		g.gatherer = prometheus.DefaultGatherer
	}
}

// registryFrom returns the shared Prometheus registry published by the
// application, falling back to the default registry.
func registryFrom(ctx *core.AppContext) (prometheus.Registerer, prometheus.Gatherer) {
	if svc, ok := ctx.Service(messenger.ServiceMetricsRegistry); ok {
		if r, ok := svc.(*prometheus.Registry); ok {
			return r, r
		}
	}
	return prometheus.DefaultRegisterer, prometheus.DefaultGatherer
}
