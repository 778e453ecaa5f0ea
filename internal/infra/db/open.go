package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// PoolConfig holds database connection pool configuration.
type PoolConfig struct {
	// PoolSize is the number of connections kept open when idle.
	PoolSize int
	// MaxOverflow is how many connections may be opened beyond PoolSize.
	MaxOverflow int
	// PoolTimeout bounds waiting for a free connection in WithSession.
	PoolTimeout time.Duration
	// PoolRecycle is the maximum lifetime of a connection.
	PoolRecycle time.Duration
	// ConnMaxIdleTime closes connections idle for longer. Zero keeps them.
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns the default connection pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		PoolSize:        10,
		MaxOverflow:     20,
		PoolTimeout:     30 * time.Second,
		PoolRecycle:     30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// MaxOpenConns is the hard cap on open connections.
func (c PoolConfig) MaxOpenConns() int {
	return c.PoolSize + c.MaxOverflow
}

// Apply passes the pool bounds through to db.
func (c PoolConfig) Apply(db *sql.DB) {
	db.SetMaxOpenConns(c.MaxOpenConns())
	db.SetMaxIdleConns(c.PoolSize)
	db.SetConnMaxLifetime(c.PoolRecycle)
	db.SetConnMaxIdleTime(c.ConnMaxIdleTime)
}

// Opener builds an unverified *sql.DB for dsn.
type Opener func(dsn string, connectTimeout time.Duration) (*sql.DB, error)

// OpenPgx opens dsn through the pgx database/sql driver. No connection is made
// until the pool is first used.
func OpenPgx(dsn string, connectTimeout time.Duration) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if connectTimeout > 0 {
		connCfg.ConnectTimeout = connectTimeout
	}
	return stdlib.OpenDB(*connCfg), nil
}
