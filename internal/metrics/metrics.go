// Package metrics объявляет коллекторы Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "autopay_alert"

// Metrics собирает все коллекторы, чтобы их можно было передать зависимостям одним значением.
type Metrics struct {
	AlarmTicks        prometheus.Counter
	AlarmTickFailures prometheus.Counter
	AlarmsRaised      prometheus.Counter
	NoticesRaised     prometheus.Counter
	AlarmPublishFails prometheus.Counter

	AIStreamsStarted  prometheus.Counter
	AIStreamsFinished *prometheus.CounterVec
	AIChunks          prometheus.Counter
	AIGenerations     *prometheus.CounterVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New регистрирует коллекторы в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AlarmTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "alarm", Name: "ticks_total",
			Help: "Completed alarm detector passes.",
		}),
		AlarmTickFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "alarm", Name: "tick_failures_total",
			Help: "Detector passes that could not read from the store.",
		}),
		AlarmsRaised: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "alarm", Name: "raised_total",
			Help: "High priority subscriptions added to an active alarm set.",
		}),
		NoticesRaised: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "alarm", Name: "notices_total",
			Help: "Medium priority notifications shown.",
		}),
		AlarmPublishFails: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "alarm", Name: "publish_failures_total",
			Help: "Alarm events that could not be published to the broker.",
		}),
		AIStreamsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ai", Name: "streams_started_total",
			Help: "Streaming sessions started.",
		}),
		AIStreamsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ai", Name: "streams_finished_total",
			Help: "Streaming sessions that reached a terminal state.",
		}, []string{"status"}),
		AIChunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ai", Name: "chunks_total",
			Help: "Text fragments applied to sessions.",
		}),
		AIGenerations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ai", Name: "generations_total",
			Help: "Non-streaming generations by outcome.",
		}, []string{"outcome"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Cache hits by cache name.",
		}, []string{"cache"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
			Help: "Cache misses by cache name.",
		}, []string{"cache"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// NewNop возвращает коллекторы, зарегистрированные в отдельном реестре.
// Используется в тестах и там, где метрики не экспортируются.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
