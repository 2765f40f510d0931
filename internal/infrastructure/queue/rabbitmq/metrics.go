package rabbitmq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK           = "ok"
	outcomeRequeued     = "requeued"
	outcomeDeadLettered = "dead_lettered"
)

var (
	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revpipe_consumer_messages_total",
			Help: "Messages handled per queue by outcome.",
		},
		[]string{"queue", "outcome"},
	)

	messageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revpipe_consumer_message_duration_seconds",
			Help:    "Time spent applying one message batch.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"queue"},
	)
)
