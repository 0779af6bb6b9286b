package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/riskwatch/internal/application/usecase"
	"github.com/bibbank/riskwatch/internal/domain/port"
	"github.com/bibbank/riskwatch/internal/domain/service"
	"github.com/bibbank/riskwatch/internal/infrastructure/cache"
	"github.com/bibbank/riskwatch/internal/infrastructure/config"
	"github.com/bibbank/riskwatch/internal/infrastructure/messaging"
	"github.com/bibbank/riskwatch/internal/infrastructure/metrics"
	"github.com/bibbank/riskwatch/internal/infrastructure/paymentsapi"
	"github.com/bibbank/riskwatch/internal/infrastructure/postgres"
	"github.com/bibbank/riskwatch/internal/infrastructure/synthetic"
	grpcpresentation "github.com/bibbank/riskwatch/internal/presentation/grpc"
	"github.com/bibbank/riskwatch/internal/presentation/rest"
	"github.com/bibbank/riskwatch/pkg/auth"
	pkgkafka "github.com/bibbank/riskwatch/pkg/kafka"
	"github.com/bibbank/riskwatch/pkg/observability"
	pgutil "github.com/bibbank/riskwatch/pkg/postgres"
	"github.com/bibbank/riskwatch/pkg/tlsutil"
)

const serviceName = "riskwatch"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Output:      os.Stdout,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: serviceName,
	})
	slog.SetDefault(logger)

	if len(os.Args) > 1 {
		if err := runCommand(os.Args[1:], cfg, logger); err != nil {
			logger.Error("command failed", "command", os.Args[1], "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("riskwatch stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("riskwatch stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting riskwatch",
		slog.String("environment", cfg.Environment),
		slog.String("source", cfg.Source.Kind),
	)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TraceConfig{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    !cfg.IsProduction(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logger.Error("tracer shutdown error", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	meterProvider, metricsHandler, err := observability.InitMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	// PostgreSQL
	if cfg.DB.RunMigrations {
		if err := pgutil.RunMigrations(cfg.DB.URL, cfg.DB.MigrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations applied", "path", cfg.DB.MigrationsPath)
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	pool, err := pgutil.NewPool(connectCtx, pgutil.Config{URL: cfg.DB.URL})
	cancelConnect()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	checks := map[string]rest.Checker{
		"postgres": func(ctx context.Context) error { return pgutil.HealthCheck(ctx, pool) },
	}

	// Redis
	resultCache, redisClient, err := newResultCache(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	// Kafka
	kafkaCfg := pkgkafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		TLS:           cfg.Kafka.TLS,
		SASLEnabled:   cfg.Kafka.SASLEnabled,
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
	}
	publisher, closePublisher, err := newEventPublisher(kafkaCfg, cfg.Kafka.EventsTopic, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	// Domain services and use cases
	scorer := service.NewRiskScorer(
		service.WithLocation(cfg.Scoring.Location),
		service.WithDebitFactor(cfg.Scoring.LabelDebit),
	)
	batchScorer := service.NewBatchScorer(scorer, cfg.Scoring.Concurrency)
	repo := postgres.NewAssessmentRepository(pool)
	recorder := metrics.NewPrometheusRecorder(registry)
	assessor := usecase.NewAssessor(batchScorer, repo, publisher, recorder, time.Now, logger)

	source, err := newTransactionSource(cfg.Source, pool, logger)
	if err != nil {
		return err
	}

	assessPortfolioUC := usecase.NewAssessPortfolio(source, assessor, resultCache, cfg.Scoring.Lookback, logger)
	assessBatchUC := usecase.NewAssessBatch(assessor, cfg.Scoring.MaxBatchSize)
	historyUC := usecase.NewGetPortfolioHistory(repo)
	alertsUC := usecase.NewGetRiskAlerts(repo)
	getAssessmentUC := usecase.NewGetPortfolioAssessment(repo)
	exportUC := usecase.NewExportPortfolioCSV(assessPortfolioUC)

	// Auth
	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:       cfg.Auth.JWTSecret,
		PublicKeyPEM: cfg.Auth.PublicKeyPEM,
		Issuer:       cfg.Auth.Issuer,
	})
	if err != nil {
		return fmt.Errorf("failed to init jwt validation: %w", err)
	}

	// gRPC
	serverTLS := tlsutil.Files{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
	grpcHandler := grpcpresentation.NewRiskServiceHandler(assessPortfolioUC, assessBatchUC, historyUC, getAssessmentUC, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcpresentation.ServerConfig{
		Address:    cfg.GRPCAddress(),
		TLS:        serverTLS,
		Reflection: cfg.GRPCReflection,
	}, grpcHandler, jwtService, logger)
	if err != nil {
		return err
	}

	// HTTP
	riskHandler := rest.NewRiskHandler(assessPortfolioUC, assessBatchUC, historyUC, getAssessmentUC, alertsUC, exportUC, logger)
	healthHandler := rest.NewHealthHandler(serviceName, checks, logger)
	router := rest.NewRouter(rest.RouterConfig{
		Validator: jwtService,
		Metrics:   metricsHandler,
		Logger:    logger,
		RateLimit: cfg.RateLimit,
	}, riskHandler, healthHandler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if serverTLS.Enabled() {
		tlsCfg, err := tlsutil.ServerConfig(serverTLS)
		if err != nil {
			return fmt.Errorf("failed to load HTTP TLS credentials: %w", err)
		}
		httpServer.TLSConfig = tlsCfg
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Start(); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server starting", slog.String("address", cfg.HTTPAddress()), slog.Bool("tls", serverTLS.Enabled()))
		var err error
		if serverTLS.Enabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if kafkaCfg.Enabled() && cfg.Kafka.RequestsTopic != "" {
		consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.RequestsTopic,
			messaging.NewAssessmentRequestHandler(assessPortfolioUC, logger), logger)
		if err != nil {
			return fmt.Errorf("failed to create request consumer: %w", err)
		}
		defer consumer.Close()

		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	logger.Info("riskwatch started",
		slog.String("grpc_address", cfg.GRPCAddress()),
		slog.String("http_address", cfg.HTTPAddress()),
	)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down riskwatch")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		grpcServer.Stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newResultCache connects to Redis when configured. Without a URL results
// are not cached.
func newResultCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (port.ResultCache, *redis.Client, error) {
	if cfg.URL == "" {
		logger.Info("redis not configured, result cache disabled")
		return cache.NopCache{}, nil, nil
	}
	client, err := cache.Connect(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("connected to redis", "ttl", cfg.TTL)
	return cache.NewRedisCache(client, cfg.TTL), client, nil
}

// newEventPublisher publishes to Kafka when brokers are configured and logs
// events otherwise.
func newEventPublisher(cfg pkgkafka.Config, topic string, logger *slog.Logger) (port.EventPublisher, func(), error) {
	if !cfg.Enabled() {
		logger.Info("kafka not configured, events will be logged")
		return messaging.NewLogPublisher(logger), func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	closeFn := func() {
		if err := producer.Close(); err != nil {
			logger.Error("kafka producer close error", "error", err)
		}
	}
	return messaging.NewKafkaPublisher(producer, topic, logger), closeFn, nil
}

func newTransactionSource(cfg config.SourceConfig, pool *pgxpool.Pool, logger *slog.Logger) (port.TransactionSource, error) {
	switch cfg.Kind {
	case config.SourceHTTP:
		clientCfg := paymentsapi.DefaultConfig(cfg.PaymentsAPIURL)
		clientCfg.Token = cfg.PaymentsToken
		clientCfg.Timeout = cfg.PaymentsTimeout

		var opts []paymentsapi.Option
		if cfg.PaymentsCAFile != "" {
			tlsCfg, err := tlsutil.ClientConfig(cfg.PaymentsCAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load payments API CA: %w", err)
			}
			opts = append(opts, paymentsapi.WithHTTPClient(&http.Client{
				Timeout:   cfg.PaymentsTimeout,
				Transport: &http.Transport{TLSClientConfig: tlsCfg},
			}))
		}
		return paymentsapi.NewClient(clientCfg, logger, opts...), nil
	case config.SourceSynthetic:
		return synthetic.NewGenerator(rand.New(rand.NewSource(cfg.SyntheticSeed)), time.Now), nil
	default:
		return postgres.NewTransactionSource(pool), nil
	}
}
