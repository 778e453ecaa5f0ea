// Package cache supervises the shared Redis client.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"backend-scaffold/internal/supervisor"
)

// ServiceName labels the cache supervisor in logs and metrics.
const ServiceName = "cache"

// Config describes how to reach the cache.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	ConnectTimeout      time.Duration
	SocketTimeout       time.Duration
	HealthCheckInterval time.Duration
	PoolSize            int
}

// DefaultConfig returns the local development defaults.
func DefaultConfig() Config {
	return Config{
		Host:                "localhost",
		Port:                6379,
		ConnectTimeout:      5 * time.Second,
		SocketTimeout:       5 * time.Second,
		HealthCheckInterval: 30 * time.Second,
		PoolSize:            10,
	}
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Options converts c to client options.
func (c Config) Options() *redis.Options {
	return &redis.Options{
		Addr:               c.Addr(),
		Password:           c.Password,
		DB:                 c.DB,
		DialTimeout:        c.ConnectTimeout,
		ReadTimeout:        c.SocketTimeout,
		WriteTimeout:       c.SocketTimeout,
		PoolSize:           c.PoolSize,
		IdleCheckFrequency: c.HealthCheckInterval,
	}
}

// Cache supervises the shared *redis.Client.
type Cache struct {
	sup *supervisor.Supervisor[*redis.Client]
}

// New returns a Cache with no client. The client is created on first use.
func New(cfg Config, opts supervisor.Options) *Cache {
	res := &clientResource{cfg: cfg}
	sup := supervisor.New[*redis.Client](ServiceName, res, opts)
	res.logger = sup.Logger()
	return &Cache{sup: sup}
}

// Client returns the verified shared client.
func (c *Cache) Client(ctx context.Context) (*redis.Client, error) {
	return c.sup.Get(ctx)
}

// HealthCheck reports whether the client answered PING.
func (c *Cache) HealthCheck(ctx context.Context) bool {
	return c.sup.HealthCheck(ctx)
}

// Close closes the client and its pool.
func (c *Cache) Close() error {
	return c.sup.Close()
}

// State returns the lifecycle state of the client.
func (c *Cache) State() supervisor.State {
	return c.sup.State()
}

type clientResource struct {
	cfg    Config
	logger *slog.Logger
}

func (r *clientResource) Connect(_ context.Context) (*redis.Client, error) {
	r.logger.Debug("creating redis client",
		slog.String("addr", r.cfg.Addr()),
		slog.Int("db", r.cfg.DB))
	return redis.NewClient(r.cfg.Options()), nil
}

func (r *clientResource) Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping %s: %w", r.cfg.Addr(), err)
	}
	return nil
}

func (r *clientResource) Close(client *redis.Client) error {
	r.logger.Info("closing redis client")
	return client.Close()
}
