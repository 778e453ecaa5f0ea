package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"backend-scaffold/internal/observability/logging"
	"backend-scaffold/internal/supervisor"
)

// ServiceName labels the database supervisor in logs and metrics.
const ServiceName = "database"

// Config describes how to reach the database and size its pool.
type Config struct {
	DSN            string
	ConnectTimeout time.Duration
	Pool           PoolConfig

	// Pool falls back to DefaultPoolConfig when zero.
	// Open builds the pool. OpenPgx when nil.
	Open Opener
}

// Database supervises the shared *sql.DB engine.
type Database struct {
	sup    *supervisor.Supervisor[*sql.DB]
	cfg    Config
	logger *slog.Logger
}

// New returns a Database with no engine. The engine is created on first use.
func New(cfg Config, opts supervisor.Options) *Database {
	if cfg.Open == nil {
		cfg.Open = OpenPgx
	}
	if cfg.Pool == (PoolConfig{}) {
		cfg.Pool = DefaultPoolConfig()
	}
	res := &engineResource{cfg: cfg}
	sup := supervisor.New[*sql.DB](ServiceName, res, opts)
	res.logger = sup.Logger()

	return &Database{sup: sup, cfg: cfg, logger: sup.Logger()}
}

// Engine returns the verified shared engine.
func (d *Database) Engine(ctx context.Context) (*sql.DB, error) {
	return d.sup.Get(ctx)
}

// WithSession runs fn on a dedicated connection from the engine's pool. The
// connection is acquired within the pool timeout and is always returned to
// the pool, also when fn panics.
func (d *Database) WithSession(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	engine, err := d.Engine(ctx)
	if err != nil {
		return err
	}

	acquireCtx := ctx
	if d.cfg.Pool.PoolTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, d.cfg.Pool.PoolTimeout)
		defer cancel()
	}

	conn, err := engine.Conn(acquireCtx)
	if err != nil {
		return fmt.Errorf("acquire database session: %w", err)
	}
	d.logger.Debug("database session opened")
	defer func() {
		if err := conn.Close(); err != nil {
			d.logger.Warn("failed to close database session",
				slog.String("error", logging.SanitizeError(err)))
			return
		}
		d.logger.Debug("database session closed")
	}()

	return fn(ctx, conn)
}

// HealthCheck reports whether the engine answered SELECT 1. See
// supervisor.Supervisor.HealthCheck.
func (d *Database) HealthCheck(ctx context.Context) bool {
	return d.sup.HealthCheck(ctx)
}

// Close disposes of the engine and its pool.
func (d *Database) Close() error {
	return d.sup.Close()
}

// State returns the lifecycle state of the engine.
func (d *Database) State() supervisor.State {
	return d.sup.State()
}

// Stats returns pool statistics of the live engine. ok is false when no
// engine is held.
func (d *Database) Stats() (stats sql.DBStats, ok bool) {
	engine, live := d.sup.Peek()
	if !live {
		return sql.DBStats{}, false
	}
	return engine.Stats(), true
}

type engineResource struct {
	cfg    Config
	logger *slog.Logger
}

func (r *engineResource) Connect(_ context.Context) (*sql.DB, error) {
	r.logger.Info("creating database engine",
		slog.String("dsn", logging.RedactDSN(r.cfg.DSN)),
		slog.Int("pool_size", r.cfg.Pool.PoolSize),
		slog.Int("max_open_conns", r.cfg.Pool.MaxOpenConns()),
		slog.Duration("pool_recycle", r.cfg.Pool.PoolRecycle))

	engine, err := r.cfg.Open(r.cfg.DSN, r.cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	r.cfg.Pool.Apply(engine)
	return engine, nil
}

func (r *engineResource) Ping(ctx context.Context, engine *sql.DB) error {
	var one int
	if err := engine.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("select 1: %w", err)
	}
	return nil
}

func (r *engineResource) Close(engine *sql.DB) error {
	r.logger.Info("disposing database engine")
	return engine.Close()
}
