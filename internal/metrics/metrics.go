// Package metrics exposes coordinator metrics to Prometheus and keeps an
// in-memory timing summary for the /stats endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by the services.
type Metrics struct {
	TasksDispatched      *prometheus.CounterVec
	Results              *prometheus.CounterVec
	Promotions           prometheus.Counter
	ChampionRecomputes   *prometheus.CounterVec
	VerificationFailures prometheus.Counter
	PendingMatches       prometheus.Gauge
	FastClients          prometheus.Gauge
	RequestDuration      *prometheus.HistogramVec
}

// New registers the coordinator metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TasksDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zerosrv",
			Name:      "tasks_dispatched_total",
			Help:      "Tasks handed out to workers, by command.",
		}, []string{"cmd"}),
		Results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zerosrv",
			Name:      "results_total",
			Help:      "Submitted results, by kind (match, selfplay) and outcome.",
		}, []string{"kind", "outcome"}),
		Promotions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "zerosrv",
			Name:      "promotions_total",
			Help:      "Networks promoted to champion.",
		}),
		ChampionRecomputes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zerosrv",
			Name:      "champion_recomputes_total",
			Help:      "Champion hash recomputations, by outcome.",
		}, []string{"outcome"}),
		VerificationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "zerosrv",
			Name:      "verification_failures_total",
			Help:      "Match results rejected by the verification code check.",
		}),
		PendingMatches: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "zerosrv",
			Name:      "pending_matches",
			Help:      "Entries in the pending match queue.",
		}),
		FastClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "zerosrv",
			Name:      "fast_clients",
			Help:      "Workers currently eligible for match tasks.",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zerosrv",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRecompute records a champion hash recomputation attempt.
func (m *Metrics) ObserveRecompute(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ChampionRecomputes.WithLabelValues(outcome).Inc()
}
