package events

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts events by category, name and type.
type MetricsSink struct {
	counter *prometheus.CounterVec
}

var _ Sink = (*MetricsSink)(nil)

func NewMetricsSink(registerer prometheus.Registerer) (*MetricsSink, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oidc",
		Name:      "auth_events_total",
		Help:      "Audit events raised by the authorization server.",
	}, []string{"category", "name", "type"})

	if err := registerer.Register(counter); err != nil {
		return nil, errors.Wrap(err, "[NewMetricsSink] register counter")
	}
	return &MetricsSink{counter: counter}, nil
}

func (s *MetricsSink) Persist(_ context.Context, evt Event) error {
	s.counter.WithLabelValues(evt.Category, evt.Name, string(evt.EventType)).Inc()
	return nil
}

// Counter exposes the underlying collector.
func (s *MetricsSink) Counter() *prometheus.CounterVec {
	return s.counter
}
