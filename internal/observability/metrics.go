// Package observability содержит метрики prometheus движка расписания.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	carryForwardCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetable",
		Subsystem: "tasks",
		Name:      "carried_forward_total",
		Help:      "Number of tasks carried forward to the next occurrence, labeled by week wraparound.",
	}, []string{"wrapped"})

	sessionsStartedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetable",
		Subsystem: "sessions",
		Name:      "started_total",
		Help:      "Number of sessions started.",
	})

	sessionsCompletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetable",
		Subsystem: "sessions",
		Name:      "completed_total",
		Help:      "Number of sessions completed.",
	})

	sessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "timetable",
		Subsystem: "sessions",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of completed sessions.",
		Buckets:   prometheus.ExponentialBuckets(60, 2, 10),
	})

	resolveCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetable",
		Subsystem: "schedule",
		Name:      "current_resolutions_total",
		Help:      "Current activity resolutions, labeled by hit or miss.",
	}, []string{"result"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "timetable",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(carryForwardCounter, sessionsStartedCounter, sessionsCompletedCounter, sessionDuration, resolveCounter, httpRequestDuration)
}

func RecordCarryForward(wrapped bool) {
	carryForwardCounter.WithLabelValues(strconv.FormatBool(wrapped)).Inc()
}

func RecordSessionStarted() {
	sessionsStartedCounter.Inc()
}

func RecordSessionCompleted(durationSeconds float64) {
	sessionsCompletedCounter.Inc()
	if durationSeconds >= 0 {
		sessionDuration.Observe(durationSeconds)
	}
}

func RecordResolution(hit bool) {
	if hit {
		resolveCounter.WithLabelValues("hit").Inc()
		return
	}
	resolveCounter.WithLabelValues("miss").Inc()
}

// ObserveHTTP: route - шаблон маршрута chi, а не сырой путь, чтобы не плодить серии
func ObserveHTTP(method, route string, status int, seconds float64) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
