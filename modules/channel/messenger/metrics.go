package messenger

import (
	"errors"

	"github.com/flemzord/mercury/pkg/message"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the normalizer's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	normalized *prometheus.CounterVec
	failed     *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	unsent     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.normalized, err = registerCounter(reg, "mercury_messages_normalized_total",
		"Messages normalized, by payload source."); err != nil {
		return nil, err
	}
	if m.failed, err = registerCounter(reg, "mercury_normalize_errors_total",
		"Payloads that failed to normalize, by payload source."); err != nil {
		return nil, err
	}
	if m.dropped, err = registerCounter(reg, "mercury_attachments_dropped_total",
		"Attachments skipped because they could not be classified."); err != nil {
		return nil, err
	}
	if m.unsent, err = registerCounter(reg, "mercury_unsent_messages_total",
		"Normalized messages that were deleted for everyone."); err != nil {
		return nil, err
	}
	return m, nil
}

func registerCounter(reg prometheus.Registerer, name, help string) (*prometheus.CounterVec, error) {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{"source"})
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) observe(source Source, msg *message.Message, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.failed.WithLabelValues(string(source)).Inc()
		return
	}
	if msg == nil {
		return
	}
	m.normalized.WithLabelValues(string(source)).Inc()
	if msg.Unsent {
		m.unsent.WithLabelValues(string(source)).Inc()
	}
}

func (m *Metrics) attachmentDropped(source Source) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(string(source)).Inc()
}
