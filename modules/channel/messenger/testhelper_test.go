package messenger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/flemzord/mercury/pkg/message"
	"github.com/prometheus/client_golang/prometheus"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger returns a logger writing to the returned buffer.
func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func normalize(t *testing.T, source Source, thread Thread, payload string) *message.Message {
	t.Helper()
	n := NewNormalizer(WithLogger(discardLogger()))
	m, err := n.NormalizeRaw(source, thread, []byte(payload))
	if err != nil {
		t.Fatalf("NormalizeRaw(%s): %v", source, err)
	}
	if m == nil {
		t.Fatalf("NormalizeRaw(%s) returned nil message", source)
	}
	return m
}

// assertJSON fails the test when got and want do not decode to the same value.
func assertJSON(t *testing.T, got, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("decode got %q: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("decode want %q: %v", want, err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}
