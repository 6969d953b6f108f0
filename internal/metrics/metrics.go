package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playback",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "playback",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playback",
		Name:      "active_sessions",
		Help:      "Number of currently open playback sessions.",
	})

	StateTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playback",
		Name:      "state_transitions_total",
		Help:      "Total playback lifecycle transitions by from/to phase.",
	}, []string{"from", "to"})

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playback",
		Name:      "commands_total",
		Help:      "Total commands dispatched to native player backends.",
	}, []string{"command"})

	CommandFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playback",
		Name:      "command_failures_total",
		Help:      "Total command dispatch failures by command.",
	}, []string{"command"})

	NativeErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playback",
		Name:      "native_errors_total",
		Help:      "Total error events reported by native player backends.",
	})

	VersionSelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playback",
		Name:      "version_selections_total",
		Help:      "Total version selection decisions by mode (auto, choice, explicit).",
	}, []string{"mode"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ActiveSessions,
		StateTransitionsTotal,
		CommandsTotal,
		CommandFailuresTotal,
		NativeErrorsTotal,
		VersionSelectionsTotal,
	)
}
