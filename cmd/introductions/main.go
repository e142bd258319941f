package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/introductions/internal/application/health"
	"github.com/aescanero/introductions/internal/application/introductions"
	"github.com/aescanero/introductions/internal/config"
	"github.com/aescanero/introductions/internal/tracing"
	eventsmemory "github.com/aescanero/introductions/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/introductions/pkg/adapters/events/redis"
	"github.com/aescanero/introductions/pkg/adapters/metrics/prometheus"
	memorystorage "github.com/aescanero/introductions/pkg/adapters/storage/memory"
	mongostorage "github.com/aescanero/introductions/pkg/adapters/storage/mongo"
	redisstorage "github.com/aescanero/introductions/pkg/adapters/storage/redis"
	"github.com/aescanero/introductions/pkg/api/grpc"
	"github.com/aescanero/introductions/pkg/api/http"
	"github.com/aescanero/introductions/pkg/api/websocket"
	"github.com/aescanero/introductions/pkg/ports"

	promclient "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting introductions gateway",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("event_backend", cfg.Events.Backend))

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, Version)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	registry := promclient.NewRegistry()
	registry.MustRegister(
		promclient.NewGoCollector(),
		promclient.NewProcessCollector(promclient.ProcessCollectorOpts{}),
	)
	metricsCollector := prometheus.NewCollector(registry)

	// Redis is shared by the redis store and the redis event bus
	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	store, err := newStore(ctx, cfg, redisClient, metricsCollector, logger.Named("store"))
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}

	eventBus := newEventBus(cfg, redisClient, logger.Named("events"))

	// Initialize application components
	manager := introductions.NewManager(
		store,
		eventBus,
		metricsCollector,
		tracing.Tracer(),
		logger.Named("introductions"),
		cfg.Store.Collection,
		cfg.Events.Topic,
	)

	monitor := health.NewMonitor(
		store,
		metricsCollector,
		cfg.Store.HealthCheckInterval,
		cfg.Store.OperationTimeout,
		logger.Named("health"),
	)

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Addr:              cfg.GetHTTPAddr(),
		ReadHeaderTimeout: cfg.Timeouts.ReadHeaderTimeout,
		Introductions:     manager,
		Health:            monitor,
		Gatherer:          registry,
		Tracer:            tracing.Tracer(),
		Logger:            logger.Named("http"),
	})

	streamCtx, stopStream := context.WithCancel(ctx)
	defer stopStream()

	wsHandler := websocket.NewHandler(eventBus, cfg.Events.Topic, logger.Named("websocket"))
	if err := wsHandler.Start(streamCtx); err != nil {
		logger.Fatal("failed to subscribe introduction stream", zap.Error(err))
	}
	httpServer.SetupWebSocket(wsHandler)

	var grpcServer *grpc.Server
	if cfg.GRPCPort > 0 {
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Addr:   cfg.GetGRPCAddr(),
			Logger: logger.Named("grpc"),
		})
		if err != nil {
			logger.Fatal("failed to create gRPC server", zap.Error(err))
		}
		monitor.OnChange(grpcServer.SetServing)
	}

	monitor.Start()

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Start(); err != nil {
				logger.Fatal("gRPC server failed", zap.Error(err))
			}
		}()
	}

	logger.Info("introductions gateway started",
		zap.String("http_addr", cfg.GetHTTPAddr()),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("collection", cfg.Store.Collection))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}
	}

	monitor.Stop()
	stopStream()

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("store close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("introductions gateway shut down complete")
}

// newStore opens the configured store backend. The connection is made once
// and verified before the servers start.
func newStore(ctx context.Context, cfg *config.Config, redisClient *goredis.Client, skipper ports.DocumentSkipper, logger *zap.Logger) (ports.StoreGateway, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMongo:
		gateway, err := mongostorage.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Store.OperationTimeout, logger, skipper)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return gateway, nil
	case config.StoreBackendRedis:
		return redisstorage.NewDocumentStorage(redisClient, cfg.Store.OperationTimeout, logger, skipper), nil
	case config.StoreBackendMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memorystorage.NewInMemoryDocumentStorage(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newEventBus creates the configured event bus
func newEventBus(cfg *config.Config, redisClient *goredis.Client, logger *zap.Logger) ports.EventBus {
	if cfg.Events.Backend == config.EventBackendRedis {
		return eventsredis.NewStreamsEventBus(
			redisClient,
			cfg.Events.ConsumerGroup,
			fmt.Sprintf("introductions-%d", os.Getpid()),
			cfg.Events.StreamMaxLen,
			logger,
		)
	}
	return eventsmemory.NewInMemoryEventBus(logger)
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
