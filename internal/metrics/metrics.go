package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townhall_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "townhall_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townhall_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	UtterancesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townhall_utterances_processed_total",
			Help: "Total utterances processed through the pipeline",
		},
		[]string{"outcome"}, // "ok", "skipped" or "failed"
	)

	PipelineStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townhall_pipeline_stage_failures_total",
			Help: "Pipeline failures by stage",
		},
		[]string{"stage"},
	)

	TranslationCalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townhall_translation_calls_total",
			Help: "Total translation service calls issued",
		},
	)

	SynthesisCalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townhall_synthesis_calls_total",
			Help: "Total speech synthesis service calls issued",
		},
	)

	PollRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townhall_poll_requests_total",
			Help: "Total poll requests served",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townhall_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
