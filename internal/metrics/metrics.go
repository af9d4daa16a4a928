// Package metrics provides Prometheus instrumentation for the moderator.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts handled updates by event kind.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aufseher_events_total",
		Help: "Number of updates handled",
	}, []string{"kind"})

	// EventErrors counts updates whose handling reported an error.
	EventErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aufseher_event_errors_total",
		Help: "Number of updates whose handling failed",
	}, []string{"kind"})

	// EventDuration records end-to-end handling time of an update.
	EventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aufseher_event_duration_seconds",
		Help:    "Time spent handling an update",
		Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	// VerdictsTotal counts positive verdicts.
	VerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aufseher_verdicts_total",
		Help: "Number of positive verdicts",
	}, []string{"surface", "source", "normalized"})

	// EnforcementSteps counts executor steps by outcome.
	EnforcementSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aufseher_enforcement_steps_total",
		Help: "Enforcement steps attempted",
	}, []string{"step", "result"}) // result = "ok", "error", "exempt", "duplicate"

	// ClassifierRequests counts external classifier calls.
	ClassifierRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aufseher_classifier_requests_total",
		Help: "External classifier calls",
	}, []string{"result"}) // result = "spam", "ham", "error", "cached"
)

// Verdict records a positive verdict.
func Verdict(surface, source string, normalized bool) {
	VerdictsTotal.WithLabelValues(surface, source, strconv.FormatBool(normalized)).Inc()
}

// Step records one enforcement step result.
func Step(step string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EnforcementSteps.WithLabelValues(step, result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
