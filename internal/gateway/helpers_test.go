package gateway

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flemzord/mercury/internal/store"
	"github.com/flemzord/mercury/modules/channel/messenger"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gopkg.in/yaml.v3"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type testGateway struct {
	*Gateway
	handler  http.Handler
	spans    *tracetest.InMemoryExporter
	registry *prometheus.Registry
	store    *store.InMemoryStore
}

type testOption func(*Gateway)

func withoutStore() testOption {
	return func(g *Gateway) { g.store = nil }
}

func withAuth(a AuthConfig) testOption {
	return func(g *Gateway) { g.config.Auth = a }
}

func withMaxBody(n int64) testOption {
	return func(g *Gateway) { g.config.MaxBodyBytes = n }
}

// newTestGateway wires a Gateway the way Start does, without listening.
func newTestGateway(t *testing.T, opts ...testOption) *testGateway {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	mem := store.NewInMemoryStore()
	g := &Gateway{
		logger:     discardLogger(),
		metrics:    metrics,
		gatherer:   reg,
		normalizer: messenger.NewNormalizer(),
		store:      mem,
		tracer:     tp.Tracer("test"),
		startedAt:  time.Now(),
	}
	g.config.defaults()
	for _, opt := range opts {
		opt(g)
	}

	return &testGateway{
		Gateway:  g,
		handler:  g.buildRouter(),
		spans:    exporter,
		registry: reg,
		store:    mem,
	}
}

func (tg *testGateway) do(t *testing.T, method, target string, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	tg.handler.ServeHTTP(rr, req)
	return rr
}

func (tg *testGateway) spanNames() []string {
	var names []string
	for _, s := range tg.spans.GetSpans() {
		names = append(names, s.Name)
	}
	return names
}

// mustYAMLNode parses YAML text into a *yaml.Node for Configure calls.
func mustYAMLNode(t *testing.T, text string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		t.Fatalf("YAML parse: %v", err)
	}
	if len(node.Content) > 0 {
		return node.Content[0]
	}
	return &node
}
