package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/odyssey-erp/odyssey-pulse/internal/widget"
)

// WidgetMetrics records widget fetch cycles. It satisfies widget.Observer.
type WidgetMetrics struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

var _ widget.Observer = (*WidgetMetrics)(nil)

func newWidgetMetrics(registerer prometheus.Registerer) *WidgetMetrics {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_widget_fetches_total",
		Help: "Resolved widget fetches by widget and outcome.",
	}, []string{"widget", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_widget_fetch_duration_seconds",
		Help:    "Simulated fetch latency by widget.",
		Buckets: []float64{0.1, 0.25, 0.35, 0.5, 0.65, 0.8, 1, 2},
	}, []string{"widget"})
	inflight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "odyssey_widget_fetches_inflight",
		Help: "Widget fetches issued and not yet resolved.",
	}, []string{"widget"})
	registerer.MustRegister(fetches, duration, inflight)
	return &WidgetMetrics{fetches: fetches, duration: duration, inflight: inflight}
}

// FetchStarted implements widget.Observer.
func (m *WidgetMetrics) FetchStarted(widgetID string) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(widgetID).Inc()
}

// FetchResolved implements widget.Observer. Discarded results count towards
// the outcome total but not the latency histogram.
func (m *WidgetMetrics) FetchResolved(widgetID string, outcome widget.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(widgetID).Dec()
	m.fetches.WithLabelValues(widgetID, string(outcome)).Inc()
	if outcome != widget.OutcomeDiscarded {
		m.duration.WithLabelValues(widgetID).Observe(elapsed.Seconds())
	}
}
