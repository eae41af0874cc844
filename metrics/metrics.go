package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label values to keep telemetry consistent/searchable.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder exposes the ranking pipeline's Prometheus collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	placements      *prometheus.CounterVec
	ledgerDuration  prometheus.Histogram
	upstreamFetches *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	events          *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "placements_total",
			Help:      "Tournament placements processed by the ranking ledger, by outcome.",
		}, []string{"outcome"}),
		ledgerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ranking",
			Name:      "ledger_apply_duration_seconds",
			Help:      "Time spent applying one tournament's placements.",
			Buckets:   prometheus.DefBuckets,
		}),
		upstreamFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "upstream_fetches_total",
			Help:      "Match fetches from the tournaments service, by result.",
		}, []string{"result"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ranking",
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Latency of match fetches from the tournaments service.",
			Buckets:   prometheus.DefBuckets,
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "events_handled_total",
			Help:      "Tournament events handled by the event router, by topic and result.",
		}, []string{"topic", "result"}),
	}
	registry.MustRegister(
		r.placements,
		r.ledgerDuration,
		r.upstreamFetches,
		r.upstreamLatency,
		r.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordPlacement counts one placement with its ledger outcome ("applied" or a skip reason).
func (r *Recorder) RecordPlacement(outcome string) {
	if r == nil {
		return
	}
	r.placements.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordLedgerRun(duration time.Duration) {
	if r == nil {
		return
	}
	r.ledgerDuration.Observe(duration.Seconds())
}

func (r *Recorder) RecordUpstreamFetch(duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.upstreamFetches.WithLabelValues(resultLabel(err)).Inc()
	r.upstreamLatency.Observe(duration.Seconds())
}

func (r *Recorder) RecordEvent(topic string, err error) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(topic, resultLabel(err)).Inc()
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
