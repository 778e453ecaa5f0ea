// Command probe checks that the database and cache are reachable with the
// service configuration. It prints the readiness report as JSON and exits
// non-zero when any checked service is unhealthy, so it can run as a
// container init or health command.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"backend-scaffold/internal/config"
	"backend-scaffold/internal/infra/cache"
	"backend-scaffold/internal/infra/db"
	"backend-scaffold/internal/observability/logging"
	"backend-scaffold/internal/resilience/retry"
	"backend-scaffold/internal/supervisor"
)

const serviceAll = "all"

var errUnhealthy = errors.New("unhealthy")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Check database and cache connectivity",
		Description: `Connects to the configured services the same way the API does and
reports whether each one answers its health query.

Examples:
  probe
  probe --service database --wait 60s
  probe --env-file deploy/.env`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "service",
				Value: serviceAll,
				Usage: "Service to check: all, database or cache",
				Validator: func(v string) error {
					switch v {
					case serviceAll, db.ServiceName, cache.ServiceName:
						return nil
					}
					return fmt.Errorf("unknown service %q", v)
				},
			},
			&cli.DurationFlag{
				Name:  "wait",
				Usage: "Keep checking with backoff until healthy or this long has passed (0 checks once)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file to load before reading configuration",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := logging.New(os.Stderr, cmd.String("log-level"))
			slog.SetDefault(logger)

			var envFiles []string
			if f := cmd.String("env-file"); f != "" {
				envFiles = append(envFiles, f)
			}
			settings, err := config.Load(envFiles...)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %s", logging.SanitizeError(err))
			}

			checks, closeAll := buildChecks(logger, settings, cmd.String("service"))
			defer closeAll()

			report, err := run(ctx, checks, cmd.Duration("wait"))
			if encErr := writeReport(out, report); encErr != nil {
				return encErr
			}
			return err
		},
	}
}

// check is one named service health query.
type check struct {
	name   string
	health func(ctx context.Context) bool
}

func buildChecks(logger *slog.Logger, settings *config.Settings, service string) ([]check, func()) {
	opts := supervisor.DefaultOptions()
	opts.Retry = retry.LinearConfig{MaxAttempts: settings.Supervisor.MaxRetries, Delay: settings.Supervisor.RetryDelay}
	opts.Logger = logger

	var (
		checks  []check
		closers []func() error
	)

	if service == serviceAll || service == db.ServiceName {
		d := settings.Database
		database := db.New(db.Config{
			DSN:            d.DSN(),
			ConnectTimeout: d.ConnectTimeout,
			Pool: db.PoolConfig{
				PoolSize:        d.PoolSize,
				MaxOverflow:     d.MaxOverflow,
				PoolTimeout:     d.PoolTimeout,
				PoolRecycle:     d.PoolRecycle,
				ConnMaxIdleTime: d.ConnMaxIdleTime,
			},
		}, opts)
		checks = append(checks, check{name: db.ServiceName, health: database.HealthCheck})
		closers = append(closers, database.Close)
	}

	if service == serviceAll || service == cache.ServiceName {
		r := settings.Redis
		redisCache := cache.New(cache.Config{
			Host:                r.Host,
			Port:                r.Port,
			Password:            r.Password,
			DB:                  r.DB,
			ConnectTimeout:      r.ConnectTimeout,
			SocketTimeout:       r.SocketTimeout,
			HealthCheckInterval: r.HealthCheckInterval,
			PoolSize:            r.PoolSize,
		}, opts)
		checks = append(checks, check{name: cache.ServiceName, health: redisCache.HealthCheck})
		closers = append(closers, redisCache.Close)
	}

	return checks, func() {
		for _, c := range closers {
			_ = c()
		}
	}
}

// run evaluates every check. With a positive wait, unhealthy services are
// re-checked with exponential backoff until they recover or wait elapses.
// The returned report always holds the last observation per service.
func run(ctx context.Context, checks []check, wait time.Duration) (map[string]bool, error) {
	report := make(map[string]bool, len(checks))
	evaluate := func() error {
		var failed []string
		for _, c := range checks {
			if healthy, seen := report[c.name]; seen && healthy {
				continue
			}
			report[c.name] = c.health(ctx)
			if !report[c.name] {
				failed = append(failed, c.name)
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%w: %v", errUnhealthy, failed)
		}
		return nil
	}

	if wait <= 0 {
		return report, evaluate()
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	cfg := retry.ProbeConfig()
	cfg.Retryable = func(err error) bool {
		return errors.Is(err, errUnhealthy) && waitCtx.Err() == nil
	}
	return report, retry.WithBackoff(waitCtx, cfg, evaluate)
}

func writeReport(w io.Writer, report map[string]bool) error {
	status := len(report) > 0
	for _, healthy := range report {
		status = status && healthy
	}

	out := struct {
		Status   bool            `json:"status"`
		Services map[string]bool `json:"services"`
	}{Status: status, Services: report}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
