package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cueboard"

// Intent outcomes
const (
	OutcomeApplied  = "applied"
	OutcomeRefused  = "refused"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Recorder is safe to use as a nil pointer, every method is then a no-op.
type Recorder struct {
	intents       *prometheus.CounterVec
	refusals      *prometheus.CounterVec
	matchDuration prometheus.Histogram
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Organizer intents by name and outcome.",
		}, []string{"intent", "outcome"}),
		refusals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refusals_total",
			Help:      "Refused intents by reason.",
		}, []string{"reason"}),
		matchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Table time of closed matches.",
			Buckets:   []float64{300, 600, 900, 1200, 1800, 2700, 3600, 5400},
		}),
	}
	reg.MustRegister(r.intents, r.refusals, r.matchDuration)
	return r
}

func (r *Recorder) Intent(intent, outcome string) {
	if r == nil {
		return
	}
	r.intents.WithLabelValues(intent, outcome).Inc()
}

func (r *Recorder) Refusal(reason string) {
	if r == nil {
		return
	}
	r.refusals.WithLabelValues(reason).Inc()
}

func (r *Recorder) MatchClosed(d time.Duration) {
	if r == nil || d <= 0 {
		return
	}
	r.matchDuration.Observe(d.Seconds())
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
