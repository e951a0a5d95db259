package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Mahbub2001/morgan-backend/internal/auth"
	"github.com/Mahbub2001/morgan-backend/internal/config"
	"github.com/Mahbub2001/morgan-backend/internal/event"
	handler "github.com/Mahbub2001/morgan-backend/internal/handler/http"
	"github.com/Mahbub2001/morgan-backend/internal/notify"
	"github.com/Mahbub2001/morgan-backend/internal/orderid"
	"github.com/Mahbub2001/morgan-backend/internal/repository/postgres"
	redisrepo "github.com/Mahbub2001/morgan-backend/internal/repository/redis"
	"github.com/Mahbub2001/morgan-backend/internal/service"
	"github.com/Mahbub2001/morgan-backend/migrations"
	"github.com/Mahbub2001/morgan-backend/pkg/database"
	"github.com/Mahbub2001/morgan-backend/pkg/health"
	"github.com/Mahbub2001/morgan-backend/pkg/httpclient"
	pkgkafka "github.com/Mahbub2001/morgan-backend/pkg/kafka"
	"github.com/Mahbub2001/morgan-backend/pkg/middleware"
	"github.com/Mahbub2001/morgan-backend/pkg/tracing"
)

const serviceName = "morgan"

// App wires together all dependencies and runs the service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	payments       *pkgkafka.Consumer
	paymentsDone   chan struct{}
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	tokens, err := auth.NewJWTManager(cfg.AccessTokenSecret, cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init jwt: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(reg, pool, serviceName); err != nil {
		pool.Close()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	var rdb *goredis.Client
	if cfg.UsesRedis() {
		rdb, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	}

	// Initialize Kafka producer with connection validation and retry.
	kafkaMetrics := pkgkafka.NewMetrics(reg)
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), kafkaMetrics, logger)
	if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
		logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	store := postgres.NewStore(pool)
	var seq orderid.Sequence = postgres.NewSequence(pool)
	if cfg.OrderSequenceBackend == config.SequenceRedis {
		seq = redisrepo.NewSequence(rdb)
	}

	events := event.NewProducer(producer, logger)
	metrics := service.NewMetrics(reg)
	ledger := service.NewLedger(logger)

	orderService := service.NewOrderService(service.OrderServiceDeps{
		Store:    store,
		Ledger:   ledger,
		Codes:    orderid.NewGenerator(seq),
		Events:   events,
		Mailer:   newMailer(cfg, reg, logger),
		MailFrom: cfg.MailFrom,
		Metrics:  metrics,
		Logger:   logger,
	})
	reviewService := service.NewReviewService(
		postgres.NewUserRepository(pool),
		store.Orders(),
		postgres.NewReviewRepository(pool),
		logger,
	)
	userService := service.NewUserService(postgres.NewUserRepository(pool), tokens, logger)
	productService := service.NewProductService(postgres.NewProductRepository(pool), store, events, logger)
	paymentService := service.NewPaymentService(store.Transactions(), metrics, logger)

	// Payment confirmations arrive on Kafka.
	var processed pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(cfg.EventIdempotencyTTL)
	if rdb != nil {
		processed = redisrepo.NewIdempotencyStore(rdb, cfg.EventIdempotencyTTL)
	}
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	paymentConsumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaConsumerGroup,
		Topic:    event.TopicPaymentSucceeded,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, pkgkafka.IdempotentHandler(processed, event.NewConsumer(paymentService, logger).HandlePaymentSucceeded, logger),
		dlq, kafkaMetrics, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if rdb != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(handler.RouterDeps{
		Orders:         orderService,
		Reviews:        reviewService,
		Users:          userService,
		Products:       productService,
		Health:         healthHandler,
		TokenValidator: tokens.Validator(),
		Metrics:        middleware.NewHTTPMetrics(reg, serviceName),
		Gatherer:       reg,
		CORS:           cors,
		RateLimiter:    rateLimiter(cfg, logger),
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          rdb,
		producer:       producer,
		dlq:            dlq,
		payments:       paymentConsumer,
		paymentsDone:   make(chan struct{}),
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// rateLimiter returns nil when RATE_LIMIT_RPS is zero or negative.
func rateLimiter(cfg *config.Config, logger *slog.Logger) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(middleware.RateLimitConfig{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	}, logger)
}

// newMailer posts through the relay when one is configured and only logs
// otherwise.
func newMailer(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) notify.Sender {
	if cfg.MailRelayURL == "" {
		return notify.NewLogSender(logger)
	}
	client := httpclient.NewBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultBreakerConfig("mail-relay"),
		httpclient.NewBreakerMetrics(reg),
		logger,
	)
	return notify.NewRelaySender(client, cfg.MailRelayURL, cfg.MailRelayToken, logger)
}

// Run starts the HTTP server and the payment consumer, then blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start Kafka consumer. It stops when consumerCtx ends.
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	go func() {
		defer close(a.paymentsDone)
		if err := a.payments.Start(consumerCtx); err != nil {
			errCh <- fmt.Errorf("payment consumer: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopConsumer()
	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Payment consumer
// 3. Kafka producers
// 4. Redis client
// 5. PostgreSQL pool
// 6. Tracer
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (10s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Wait for the consumer to finish its current message (5s budget).
	select {
	case <-a.paymentsDone:
	case <-time.After(5 * time.Second):
		a.logger.Warn("payment consumer did not stop in time")
		if err := a.payments.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	// 3. Flush and close Kafka producers.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.dlq.Close(); err != nil {
		a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Redis.
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	// 6. Flush pending spans.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt < 2 {
			base := time.Duration(1<<uint(attempt)) * time.Second
			jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter
			wait := base + jitter
			logger.Warn("kafka producer ping failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("kafka ping: %w", ctx.Err())
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("kafka producer ping failed after 3 attempts: %w", lastErr)
}
