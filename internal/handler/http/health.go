// Package http provides the HTTP surface of the service: the root, liveness,
// readiness and metrics endpoints plus the middleware chain.
package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"backend-scaffold/internal/handler/http/respond"
)

// Checker is anything that can report whether a dependency is usable.
// Both connection supervisors satisfy it.
type Checker interface {
	HealthCheck(ctx context.Context) bool
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Message     string `json:"message"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// RootHandler greets clients with basic application info.
type RootHandler struct {
	AppName     string
	Version     string
	Environment string
}

func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respond.JSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	respond.JSON(w, http.StatusOK, RootResponse{
		Message:     "Welcome to " + h.AppName + "!",
		Version:     h.Version,
		Environment: h.Environment,
	})
}

// HealthHandler answers liveness probes. It never touches dependencies.
type HealthHandler struct{}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.NoStore(w)
	respond.JSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status   bool `json:"status"`
	Database bool `json:"database"`
	Cache    bool `json:"cache"`
}

// ReadyHandler answers readiness probes by health-checking the database and
// the cache concurrently. It returns 200 when both are healthy and 503
// otherwise. A dependency that was just recreated reports false for this
// probe and true on the next one.
type ReadyHandler struct {
	Database Checker
	Cache    Checker
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resp ReadyResponse

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		resp.Database = check(ctx, h.Database)
		return nil
	})
	g.Go(func() error {
		resp.Cache = check(ctx, h.Cache)
		return nil
	})
	_ = g.Wait()

	resp.Status = resp.Database && resp.Cache

	code := http.StatusOK
	if !resp.Status {
		code = http.StatusServiceUnavailable
	}
	respond.NoStore(w)
	respond.JSON(w, code, resp)
}

func check(ctx context.Context, c Checker) bool {
	if c == nil {
		return false
	}
	return c.HealthCheck(ctx)
}
