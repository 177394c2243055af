package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the bot.
type Metrics struct {
	ModelFetches *prometheus.CounterVec // labels: model, outcome={success,error}
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}

	UpdatesProcessed prometheus.Counter
	HandlerFaults    prometheus.Counter
	MessagesSent     *prometheus.CounterVec // labels: outcome={success,error}

	ForecastDuration prometheus.Histogram
}

// NewMetrics creates and registers all bot metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ModelFetches,
		m.CacheLookups,
		m.UpdatesProcessed,
		m.HandlerFaults,
		m.MessagesSent,
		m.ForecastDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ModelFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "termica",
			Name:      "model_fetches_total",
			Help:      "Weather model fetch attempts by model and outcome.",
		}, []string{"model", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "termica",
			Name:      "series_cache_lookups_total",
			Help:      "Series cache lookups by result.",
		}, []string{"result"}),
		UpdatesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termica",
			Name:      "updates_processed_total",
			Help:      "Total inbound chat updates handled.",
		}),
		HandlerFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termica",
			Name:      "handler_faults_total",
			Help:      "Message handlers that ended in a recovered fault.",
		}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "termica",
			Name:      "messages_sent_total",
			Help:      "Outbound chat messages by outcome.",
		}, []string{"outcome"}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "termica",
			Name:      "forecast_build_duration_seconds",
			Help:      "Duration of a complete fetch-aggregate-render cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}
