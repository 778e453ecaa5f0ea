package http

import (
	"log/slog"
	"net/http"

	"backend-scaffold/internal/handler/http/pathutil"
	"backend-scaffold/internal/handler/http/requestid"
	"backend-scaffold/internal/observability/tracing"
)

// DefaultMaxBodyBytes caps request bodies when RouterConfig leaves it unset.
const DefaultMaxBodyBytes int64 = 1 << 20

// RouterConfig wires the endpoints to their dependencies.
type RouterConfig struct {
	AppName     string
	Version     string
	Environment string

	Database Checker
	Cache    Checker

	Logger       *slog.Logger
	MaxBodyBytes int64
}

// Routes lists the paths the router serves. Anything else is labelled
// pathutil.Unmatched in metrics.
var Routes = []string{"/", "/health", "/ready", "/metrics"}

// NewRouter returns the service handler with the full middleware chain:
// request ID, tracing, panic recovery, access logging, body limit, metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	mux := http.NewServeMux()
	mux.Handle("/", &RootHandler{AppName: cfg.AppName, Version: cfg.Version, Environment: cfg.Environment})
	mux.Handle("/health", &HealthHandler{})
	mux.Handle("/ready", &ReadyHandler{Database: cfg.Database, Cache: cfg.Cache})
	mux.Handle("/metrics", MetricsHandler())

	return Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		Recover(logger),
		Logging(logger),
		LimitRequestBody(maxBody),
		Metrics(pathutil.NewNormalizer(Routes...)),
	)
}
