package kafka

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce       sync.Once
	metricsRegisterer prometheus.Registerer = prometheus.DefaultRegisterer

	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandled       *prometheus.CounterVec
	consumerHandleLatency *prometheus.HistogramVec

	producerMessages *prometheus.CounterVec
	producerBytes    *prometheus.CounterVec
	producerLatency  *prometheus.HistogramVec
)

// SetMetricsRegisterer sets where producer and consumer metrics register.
// It must be called before the first NewProducer or NewConsumer.
func SetMetricsRegisterer(reg prometheus.Registerer) { metricsRegisterer = reg }

func initMetricsOnce() {
	metricsOnce.Do(func() {
		f := promauto.With(metricsRegisterer)
		consumerQueueDepth = f.NewGaugeVec(
			prometheus.GaugeOpts{Name: "cosmicoptic_kafka_consumer_queue_depth", Help: "Number of messages waiting in consumer queue"},
			[]string{"topic"},
		)
		consumerHandled = f.NewCounterVec(
			prometheus.CounterOpts{Name: "cosmicoptic_kafka_consumer_messages_total", Help: "Consumed messages by outcome"},
			[]string{"topic", "outcome"},
		)
		consumerHandleLatency = f.NewHistogramVec(
			prometheus.HistogramOpts{Name: "cosmicoptic_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)

		producerMessages = f.NewCounterVec(
			prometheus.CounterOpts{Name: "cosmicoptic_kafka_producer_messages_total", Help: "Published messages by result"},
			[]string{"topic", "result"},
		)
		producerBytes = f.NewCounterVec(
			prometheus.CounterOpts{Name: "cosmicoptic_kafka_producer_bytes_total", Help: "Uncompressed payload bytes published"},
			[]string{"topic"},
		)
		producerLatency = f.NewHistogramVec(
			prometheus.HistogramOpts{Name: "cosmicoptic_kafka_producer_publish_seconds", Help: "Publish latency", Buckets: prometheus.DefBuckets},
			[]string{"topic"},
		)
	})
}
