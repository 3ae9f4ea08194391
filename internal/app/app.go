package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/puros/internal/config"
	"github.com/utafrali/puros/internal/event"
	handler "github.com/utafrali/puros/internal/handler/http"
	"github.com/utafrali/puros/internal/repository"
	"github.com/utafrali/puros/internal/repository/memory"
	"github.com/utafrali/puros/internal/repository/postgres"
	redisrepo "github.com/utafrali/puros/internal/repository/redis"
	"github.com/utafrali/puros/internal/sender"
	"github.com/utafrali/puros/internal/sender/logsender"
	"github.com/utafrali/puros/internal/sender/resend"
	"github.com/utafrali/puros/internal/service"
	"github.com/utafrali/puros/internal/storage"
	"github.com/utafrali/puros/internal/storage/httpstore"
	storagememory "github.com/utafrali/puros/internal/storage/memory"
	"github.com/utafrali/puros/migrations"
	"github.com/utafrali/puros/pkg/database"
	"github.com/utafrali/puros/pkg/health"
	"github.com/utafrali/puros/pkg/httpclient"
	pkgkafka "github.com/utafrali/puros/pkg/kafka"
	"github.com/utafrali/puros/pkg/middleware"
	"github.com/utafrali/puros/pkg/tracing"
)

const serviceName = "puros"

// App wires together all dependencies and runs the Puros API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	reviews        *service.ReviewService
	follows        *service.FollowService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

type repositories struct {
	reviews  repository.ReviewRepository
	likes    repository.LikeRepository
	follows  repository.FollowRepository
	comments repository.CommentRepository
	profiles repository.ProfileRepository
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	repos, err := a.initStorage(ctx, healthHandler)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	// Redis backs the follow-stats cache and notification dedup.
	var (
		statsCache repository.FollowStatsCache
		dedup      pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(cfg.NotifyIdempotencyTTL)
	)
	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		statsCache = redisrepo.NewFollowStatsCache(client)
		dedup = redisrepo.NewIdempotencyStore(client, cfg.NotifyIdempotencyTTL)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		logger.Info("connected to Redis", slog.String("host", cfg.RedisHost), slog.Int("port", cfg.RedisPort))
	}

	// Outbound HTTP with a circuit breaker per downstream.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 32,
	})
	breaker := func(name string) *httpclient.CircuitBreakerClient {
		return httpclient.NewCircuitBreakerClient(baseClient, httpclient.CircuitBreakerConfig{
			Name:         name,
			MaxRequests:  cfg.CBMaxRequests,
			Interval:     time.Duration(cfg.CBInterval) * time.Second,
			Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
			FailureRatio: cfg.CBFailureRatio,
			MinRequests:  cfg.CBMinRequests,
		}, logger)
	}

	var snd sender.Sender = logsender.New(logger)
	if cfg.ResendAPIKey != "" {
		snd = resend.New(resend.Config{
			APIURL: cfg.EmailAPIURL,
			APIKey: cfg.ResendAPIKey,
			From:   cfg.EmailFrom,
		}, breaker("puros-email"), logger)
	}
	logger.Info("notification sink initialized", slog.String("sender", snd.Name()))

	var (
		objects    storage.ObjectStore
		mediaFiles http.Handler
	)
	if cfg.ObjectStoreURL != "" {
		objects = httpstore.New(cfg.ObjectStoreURL, cfg.ObjectStoreKey, breaker("puros-storage"))
	} else {
		mem := storagememory.New(cfg.MediaBaseURL)
		objects, mediaFiles = mem, mem
	}

	notifications := service.NewNotificationService(repos.reviews, repos.follows, repos.profiles, snd,
		service.NotificationConfig{
			BaseURL:     cfg.PublicBaseURL,
			Concurrency: cfg.NotifyConcurrency,
			Dedup:       dedup,
		}, logger)

	// Events go through Kafka when brokers are configured and are handled in
	// process otherwise.
	consumerHandler := event.NewConsumerHandler(notifications, logger)
	eventHandler := pkgkafka.IdempotentHandler(dedup, consumerHandler.Handle, logger)
	var publisher pkgkafka.Publisher
	if cfg.KafkaEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.consumer = event.NewConsumer(cfg.KafkaBrokers, eventHandler, logger)
		publisher = a.producer
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		publisher = event.NewLocalPublisher(eventHandler)
		logger.Info("kafka disabled, handling events in process")
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Build the dependency graph.
	a.reviews = service.NewReviewService(repos.reviews, eventProducer, logger)
	a.follows = service.NewFollowService(repos.follows, statsCache, cfg.FollowStatsTTL, eventProducer, logger)
	svcs := handler.Services{
		Feed:          service.NewFeedService(repos.reviews, logger),
		Reviews:       a.reviews,
		Likes:         service.NewLikeService(repos.reviews, repos.likes, logger),
		Follows:       a.follows,
		Comments:      service.NewCommentService(repos.reviews, repos.comments, logger),
		Profiles:      service.NewProfileService(repos.profiles, repos.reviews, a.follows, logger),
		Media:         service.NewMediaService(objects, logger),
		Notifications: notifications,
	}

	// HTTP router.
	router := handler.NewRouter(svcs, handler.RouterConfig{
		Verifier: middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTAudience),
		RateLimit: middleware.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MaxAge:         300,
		},
		DefaultPerPage: cfg.FeedDefaultPageSize,
		MaxPerPage:     cfg.FeedMaxPageSize,
		MediaFiles:     mediaFiles,
	}, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initStorage opens the relational store named by STORAGE_DRIVER.
func (a *App) initStorage(ctx context.Context, healthHandler *health.Handler) (repositories, error) {
	cfg, logger := a.cfg, a.logger

	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return repositories{
			reviews:  memory.NewReviewRepository(store),
			likes:    memory.NewLikeRepository(store),
			follows:  memory.NewFollowRepository(store),
			comments: memory.NewCommentRepository(store),
			profiles: memory.NewProfileRepository(store),
		}, nil
	}

	pool, err := OpenPostgres(ctx, cfg, logger)
	if err != nil {
		return repositories{}, err
	}
	a.pool = pool

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return repositories{}, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	return repositories{
		reviews:  postgres.NewReviewRepository(pool),
		likes:    postgres.NewLikeRepository(pool),
		follows:  postgres.NewFollowRepository(pool),
		comments: postgres.NewCommentRepository(pool),
		profiles: postgres.NewProfileRepository(pool),
	}, nil
}

// OpenPostgres connects to the configured PostgreSQL database.
func OpenPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	return pool, nil
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and the event consumer and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	consumerDone := make(chan struct{})
	if a.consumer != nil {
		go func() {
			defer close(consumerDone)
			if err := a.consumer.Start(consumerCtx); err != nil {
				a.logger.Error("event consumer stopped", slog.String("error", err.Error()))
			}
		}()
	} else {
		close(consumerDone)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopConsumer()
	<-consumerDone

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Background event publishes started by those requests
// 3. Tracer (flush pending spans)
// 4. Kafka producer, Redis, PostgreSQL
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Let pending review/follow events reach the publisher.
	a.reviews.Wait()
	a.follows.Wait()

	// 3. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close connections.
	errs = append(errs, a.closeResources())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
