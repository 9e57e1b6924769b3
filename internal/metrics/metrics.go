package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters the assistant reports
type Metrics struct {
	TurnsTotal      *prometheus.CounterVec
	ToolCallsTotal  *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	SessionsExpired prometheus.Counter
	UpstreamRetries prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

// Global returns the process-wide metrics, registering them on first use
func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "assistant",
				Name:      "turns_total",
				Help:      "Total assistant turns by outcome",
			}, []string{"outcome"}),
			ToolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "assistant",
				Name:      "tool_calls_total",
				Help:      "Total tool invocations by tool name and status",
			}, []string{"tool", "status"}),
			ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "assistant",
				Name:      "active_sessions",
				Help:      "Sessions currently held in memory",
			}),
			SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "assistant",
				Name:      "sessions_expired_total",
				Help:      "Total sessions reclaimed by the idle sweeper",
			}),
			UpstreamRetries: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "assistant",
				Name:      "upstream_retries_total",
				Help:      "Total retried model calls after transient upstream failures",
			}),
		}
		prometheus.MustRegister(
			global.TurnsTotal,
			global.ToolCallsTotal,
			global.ActiveSessions,
			global.SessionsExpired,
			global.UpstreamRetries,
		)
	})
	return global
}
