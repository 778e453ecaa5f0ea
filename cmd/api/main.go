package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"backend-scaffold/internal/config"
	hhttp "backend-scaffold/internal/handler/http"
	"backend-scaffold/internal/infra/cache"
	"backend-scaffold/internal/infra/db"
	"backend-scaffold/internal/observability/logging"
	"backend-scaffold/internal/resilience/circuitbreaker"
	"backend-scaffold/internal/resilience/retry"
	"backend-scaffold/internal/supervisor"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", logging.SanitizeError(err)))
		os.Exit(1)
	}

	logger := logging.NewLogger(settings.App.LogLevel)
	if settings.App.Debug {
		logger = logging.NewTextLogger(settings.App.LogLevel)
	}
	slog.SetDefault(logger)

	database, redisCache := initSupervisors(logger, settings)
	defer closeSupervisors(logger, database, redisCache)

	handler := hhttp.NewRouter(hhttp.RouterConfig{
		AppName:     settings.App.Name,
		Version:     settings.App.Version,
		Environment: settings.App.Environment,
		Database:    database,
		Cache:       redisCache,
		Logger:      logger,
	})

	if err := runServer(logger, settings, handler); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		closeSupervisors(logger, database, redisCache)
		os.Exit(1)
	}
}

// supervisorOptions builds the connection policy for one service. Every
// service gets its own breaker so one failing dependency cannot trip another.
func supervisorOptions(logger *slog.Logger, cfg config.SupervisorConfig, service string) supervisor.Options {
	opts := supervisor.DefaultOptions()
	opts.Retry = retry.LinearConfig{MaxAttempts: cfg.MaxRetries, Delay: cfg.RetryDelay}
	opts.Logger = logger
	if cfg.BreakerEnabled {
		opts.Breaker = circuitbreaker.New(circuitbreaker.SupervisorConfig(service))
	}
	return opts
}

// initSupervisors registers both dependencies. No connection is opened
// until the first request or readiness probe needs one.
func initSupervisors(logger *slog.Logger, settings *config.Settings) (*db.Database, *cache.Cache) {
	dbCfg := settings.Database
	database := db.New(db.Config{
		DSN:            dbCfg.DSN(),
		ConnectTimeout: dbCfg.ConnectTimeout,
		Pool: db.PoolConfig{
			PoolSize:        dbCfg.PoolSize,
			MaxOverflow:     dbCfg.MaxOverflow,
			PoolTimeout:     dbCfg.PoolTimeout,
			PoolRecycle:     dbCfg.PoolRecycle,
			ConnMaxIdleTime: dbCfg.ConnMaxIdleTime,
		},
	}, supervisorOptions(logger, settings.Supervisor, db.ServiceName))

	redisCfg := settings.Redis
	redisCache := cache.New(cache.Config{
		Host:                redisCfg.Host,
		Port:                redisCfg.Port,
		Password:            redisCfg.Password,
		DB:                  redisCfg.DB,
		ConnectTimeout:      redisCfg.ConnectTimeout,
		SocketTimeout:       redisCfg.SocketTimeout,
		HealthCheckInterval: redisCfg.HealthCheckInterval,
		PoolSize:            redisCfg.PoolSize,
	}, supervisorOptions(logger, settings.Supervisor, cache.ServiceName))

	logger.Info("connection supervisors registered",
		slog.String("database", logging.RedactDSN(dbCfg.DSN())),
		slog.String("cache", net.JoinHostPort(redisCfg.Host, strconv.Itoa(redisCfg.Port))),
		slog.Int("max_retries", settings.Supervisor.MaxRetries),
		slog.Duration("retry_delay", settings.Supervisor.RetryDelay),
		slog.Bool("breaker_enabled", settings.Supervisor.BreakerEnabled),
	)
	return database, redisCache
}

// closeSupervisors releases both connections. It is safe to call twice.
func closeSupervisors(logger *slog.Logger, database *db.Database, redisCache *cache.Cache) {
	if err := database.Close(); err != nil {
		logger.Error("failed to close database", slog.Any("error", err))
	}
	if err := redisCache.Close(); err != nil {
		logger.Error("failed to close cache", slog.Any("error", err))
	}
}

// runServer serves until SIGINT or SIGTERM, then drains in-flight requests.
func runServer(logger *slog.Logger, settings *config.Settings, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", settings.Server.Addr())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting application",
		slog.String("app", settings.App.Name),
		slog.String("summary", settings.App.Summary),
		slog.String("version", settings.App.Version),
		slog.String("environment", settings.App.Environment),
	)
	return hhttp.Serve(ctx, srv, ln, logger, settings.Server.ShutdownTimeout)
}
