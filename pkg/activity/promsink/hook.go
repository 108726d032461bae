// Package promsink exports component lifecycle activity as Prometheus metrics.
package promsink

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-hooks/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
)

// Hook counts lifecycle events per verb and component and observes render
// durations.
type Hook struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer, namespace string) (*Hook, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hook{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hooks",
			Name:      "events_total",
			Help:      "Component lifecycle events by verb and component.",
		}, []string{"verb", "component"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "hooks",
			Name:      "render_duration_seconds",
			Help:      "Duration of committed render passes.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"component"}),
	}
	for _, collector := range []prometheus.Collector{h.events, h.duration} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("promsink: register: %w", err)
		}
	}
	return h, nil
}

// Notify implements activity.ActivityHook.
func (h *Hook) Notify(_ context.Context, event activity.Event) error {
	if h == nil {
		return nil
	}
	component, _ := event.Metadata["component"].(string)
	if component == "" {
		component = "anonymous"
	}
	h.events.WithLabelValues(event.Verb, component).Inc()

	if event.Verb != activity.VerbInstanceRendered {
		return nil
	}
	if ms, ok := event.Metadata["duration_ms"].(float64); ok {
		h.duration.WithLabelValues(component).Observe((time.Duration(ms * float64(time.Millisecond))).Seconds())
	}
	return nil
}

// Events returns the counter for verb and component, for tests and dashboards
// that read the values in process.
func (h *Hook) Events(verb, component string) prometheus.Counter {
	return h.events.WithLabelValues(verb, component)
}
