package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "ecommerce.order.created", Topic("order", "created"))
	assert.Equal(t, "ecommerce.dlq.ecommerce.payment.succeeded", DLQTopic("ecommerce.payment.succeeded"))
}

func TestEvent_RoundTrip(t *testing.T) {
	ev, err := NewEvent("order.created", "ord-1", "order", "order-service", map[string]int{"total": 3})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1").WithMetadata("user_id", "u-1")

	raw, err := ev.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, got.EventID)
	assert.Equal(t, "u-1", got.Metadata["user_id"])

	var payload map[string]int
	require.NoError(t, got.UnmarshalData(&payload))
	assert.Equal(t, 3, payload["total"])
}

func TestUnmarshalEvent_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{"))
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, metrics, quietLogger())

	ev, err := NewEvent("order.created", "ord-1", "order", "order-service", struct{}{})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1")
	require.NoError(t, p.Publish(context.Background(), "ecommerce.order.created", ev))

	msgs := w.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ord-1", string(msgs[0].Key))
	assert.Equal(t, "order.created", headerValue(msgs[0].Headers, "event_type"))
	assert.Equal(t, "corr-1", headerValue(msgs[0].Headers, "correlation_id"))
	assert.NotEmpty(t, headerValue(msgs[0].Headers, "traceparent"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.published.WithLabelValues("ecommerce.order.created")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p := NewProducerWithWriter(&fakeWriter{err: errors.New("leader not available")}, nil, metrics, quietLogger())

	ev, _ := NewEvent("order.canceled", "ord-2", "order", "order-service", nil)
	err := p.Publish(context.Background(), "ecommerce.order.canceled", ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.publishErrors.WithLabelValues("ecommerce.order.canceled")))
}

func TestProducer_NilMetrics(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, nil, nil, quietLogger())
	ev, _ := NewEvent("x", "1", "order", "svc", nil)
	assert.NoError(t, p.Publish(context.Background(), "t", ev))
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}
