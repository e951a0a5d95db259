package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mahbub2001/morgan-backend/internal/config"
	"github.com/Mahbub2001/morgan-backend/internal/notify"
	pkgkafka "github.com/Mahbub2001/morgan-backend/pkg/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPingKafkaWithRetry_StopsOnCanceledContext(t *testing.T) {
	producer := pkgkafka.NewProducerWithWriter(nil, nil, pkgkafka.NewMetrics(prometheus.NewRegistry()), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pingKafkaWithRetry(ctx, producer, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMailer(t *testing.T) {
	t.Run("log sender without relay", func(t *testing.T) {
		m := newMailer(&config.Config{}, prometheus.NewRegistry(), discardLogger())
		assert.IsType(t, &notify.LogSender{}, m)
	})

	t.Run("relay sender when configured", func(t *testing.T) {
		cfg := &config.Config{MailRelayURL: "http://relay.local/send", MailRelayToken: "t"}
		m := newMailer(cfg, prometheus.NewRegistry(), discardLogger())
		assert.IsType(t, &notify.RelaySender{}, m)
	})
}

func TestRateLimiter_DisabledByZeroRate(t *testing.T) {
	assert.Nil(t, rateLimiter(&config.Config{}, discardLogger()))
	assert.NotNil(t, rateLimiter(&config.Config{RateLimitRPS: 5, RateLimitBurst: 10}, discardLogger()))
}
