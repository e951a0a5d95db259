package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds producer and consumer collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	published       *prometheus.CounterVec
	publishErrors   *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec

	received   *prometheus.CounterVec
	processed  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	dlq        *prometheus.CounterVec
	handleTime *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	topic := []string{"topic"}
	group := []string{"topic", "consumer_group"}
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_messages_published_total", Help: "Messages published.",
		}, topic),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_publish_errors_total", Help: "Failed publish attempts.",
		}, topic),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "kafka_producer_publish_duration_seconds", Help: "Publish latency.", Buckets: prometheus.DefBuckets,
		}, topic),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_received_total", Help: "Messages fetched from the broker.",
		}, group),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_processed_total", Help: "Messages handled successfully.",
		}, group),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_failed_total", Help: "Messages that exhausted retries.",
		}, group),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_messages_duplicate_total", Help: "Messages skipped as already processed.",
		}, group),
		dlq: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_consumer_dlq_published_total", Help: "Messages sent to the dead-letter topic.",
		}, group),
		handleTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "kafka_consumer_processing_duration_seconds", Help: "Handler latency.", Buckets: prometheus.DefBuckets,
		}, group),
	}
	reg.MustRegister(m.published, m.publishErrors, m.publishDuration,
		m.received, m.processed, m.failed, m.duplicates, m.dlq, m.handleTime)
	return m
}

func (m *Metrics) observePublish(topic string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.publishDuration.WithLabelValues(topic).Observe(d.Seconds())
	if err != nil {
		m.publishErrors.WithLabelValues(topic).Inc()
		return
	}
	m.published.WithLabelValues(topic).Inc()
}

func (m *Metrics) incReceived(topic, group string) {
	if m != nil {
		m.received.WithLabelValues(topic, group).Inc()
	}
}

func (m *Metrics) observeHandled(topic, group string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.handleTime.WithLabelValues(topic, group).Observe(d.Seconds())
	if err != nil {
		m.failed.WithLabelValues(topic, group).Inc()
		return
	}
	m.processed.WithLabelValues(topic, group).Inc()
}

func (m *Metrics) incDuplicate(topic, group string) {
	if m != nil {
		m.duplicates.WithLabelValues(topic, group).Inc()
	}
}

func (m *Metrics) incDLQ(topic, group string) {
	if m != nil {
		m.dlq.WithLabelValues(topic, group).Inc()
	}
}
