package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
	StatusTooLong = "too_long"
)

var (
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_messages_ingested_total",
		Help: "The total number of chat messages offered to the archive",
	}, []string{"status"})

	MessageDecryptFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digest_message_decrypt_failures_total",
		Help: "Archived messages skipped because they could not be decrypted",
	})

	SchedulerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_scheduler_ticks_total",
		Help: "Scheduler ticks by outcome",
	}, []string{"status"})

	JobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_jobs_enqueued_total",
		Help: "Digest jobs pushed to the queue",
	}, []string{"kind"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "digest_queue_depth",
		Help: "Number of digest jobs waiting in the queue",
	})

	DigestsPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_posts_total",
		Help: "The total number of digests processed by outcome",
	}, []string{"status"})

	DigestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "digest_job_duration_seconds",
		Help:    "Duration of a digest job from dequeue to delivery",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
	})

	DigestChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "digest_delivery_chunks",
		Help:    "Number of messages a digest was split into",
		Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
	})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "digest_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_llm_attempts_total",
		Help: "Completion attempts by outcome",
	}, []string{"status"})

	LLMCost = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digest_llm_cost_total",
		Help: "Accumulated completion cost reported or estimated per request",
	})

	LLMRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "digest_llm_rate_limit_wait_seconds",
		Help:    "Time spent waiting on the completion rate limiter",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
)
