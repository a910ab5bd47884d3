package roster

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for roster_fetches_total.
const (
	outcomeOK      = "ok"
	outcomeEmpty   = "empty"
	outcomeFailure = "store_unavailable"
)

// Metrics records router activity. A nil *Metrics records nothing.
type Metrics struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stale    prometheus.Counter
}

// NewMetrics creates the router collectors and registers them with reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "fetches_total",
			Help:      "Roster page fetches by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roster",
			Name:      "fetch_duration_seconds",
			Help:      "Store call latency per roster fetch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "stale_results_total",
			Help:      "Results discarded because a newer fetch was dispatched.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.fetches, m.duration, m.stale)
	}

	return m
}

func (m *Metrics) observeFetch(mode Mode, elapsed time.Duration, rows int, err error) {
	if m == nil {
		return
	}

	outcome := outcomeOK
	switch {
	case err != nil:
		outcome = outcomeFailure
	case rows == 0:
		outcome = outcomeEmpty
	}

	m.fetches.WithLabelValues(mode.String(), outcome).Inc()
	m.duration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) observeStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}
