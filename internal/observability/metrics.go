package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	Logins          prometheus.Counter
	WizardsOpen     prometheus.Gauge
	WizardsEvicted  prometheus.Counter
	WizardStep      *prometheus.CounterVec // labels: from, to
	GuardRejections *prometheus.CounterVec // labels: step
	MediaRejected   prometheus.Counter

	// Submission metrics.
	Submissions      *prometheus.CounterVec // labels: outcome={success,validation,failed,timeout,cancelled}
	SubmitAttempts   prometheus.Counter
	SubmitDuration   prometheus.Histogram
	ReceiptsRecorded prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Logins,
		m.WizardsOpen,
		m.WizardsEvicted,
		m.WizardStep,
		m.GuardRejections,
		m.MediaRejected,
		m.Submissions,
		m.SubmitAttempts,
		m.SubmitDuration,
		m.ReceiptsRecorded,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "logins_total",
			Help:      "Total successful logins.",
		}),
		WizardsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shore",
			Name:      "wizards_open",
			Help:      "Report wizards currently open.",
		}),
		WizardsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "wizards_evicted_total",
			Help:      "Report wizards closed after sitting idle.",
		}),
		WizardStep: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "wizard_transitions_total",
			Help:      "Wizard step transitions by source and target step.",
		}, []string{"from", "to"}),
		GuardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "wizard_guard_rejections_total",
			Help:      "Forward navigation attempts refused because required fields were empty.",
		}, []string{"step"}),
		MediaRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "media_rejected_total",
			Help:      "Attached files refused by the media policy.",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "submissions_total",
			Help:      "Report submissions by final outcome.",
		}, []string{"outcome"}),
		SubmitAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "submit_attempts_total",
			Help:      "Individual sink delivery attempts, including retries.",
		}),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shore",
			Name:      "submit_duration_seconds",
			Help:      "Duration of a submission from first attempt to final outcome.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ReceiptsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "receipts_recorded_total",
			Help:      "Receipts added to the dashboard ledger.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shore",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shore",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shore",
			Name:      "geocode_enabled",
			Help:      "1 when reverse geocoding is enabled, 0 otherwise.",
		}),
	}
}
