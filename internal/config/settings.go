package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"backend-scaffold/internal/observability/logging"
	envconfig "backend-scaffold/pkg/config"
)

// Settings is the complete runtime configuration.
type Settings struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Supervisor SupervisorConfig
}

// AppConfig holds application metadata shown on the root endpoint.
type AppConfig struct {
	Name        string
	Summary     string
	Description string
	Version     string
	Debug       bool
	Environment string
	LogLevel    string
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Addr returns host:port for http.Server.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig holds the database location and pool sizing.
type DatabaseConfig struct {
	// URL takes precedence over the individual fields when set.
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	PoolSize        int
	MaxOverflow     int
	PoolTimeout     time.Duration
	PoolRecycle     time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DSN returns the connection URL, building it from the individual fields
// when DATABASE_URL is not set.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

// RedisConfig holds the cache location and client timeouts.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	ConnectTimeout      time.Duration
	SocketTimeout       time.Duration
	HealthCheckInterval time.Duration
	PoolSize            int
}

// SupervisorConfig holds the connection establishment policy shared by all
// supervisors.
type SupervisorConfig struct {
	MaxRetries     int
	RetryDelay     time.Duration
	BreakerEnabled bool
}

// Load reads a .env file (when present) and the process environment into
// Settings and validates the result. Variables already set in the
// environment take precedence over the file. envFiles replaces the default
// ".env" when given.
func Load(envFiles ...string) (*Settings, error) {
	if err := envconfig.LoadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("load environment file: %w", err)
	}

	s := &Settings{
		App: AppConfig{
			Name:        envconfig.GetEnvString("APP_NAME", "backend-scaffold"),
			Summary:     envconfig.GetEnvString("APP_SUMMARY", ""),
			Description: envconfig.GetEnvString("APP_DESCRIPTION", ""),
			Version:     envconfig.GetEnvString("APP_VERSION", "0.1.0"),
			Debug:       envconfig.GetEnvBool("DEBUG", false),
			Environment: envconfig.GetEnvString("ENVIRONMENT", "development"),
			LogLevel:    envconfig.GetEnvString("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Host:            envconfig.GetEnvString("BACKEND_HOST", "0.0.0.0"),
			Port:            envconfig.GetEnvInt("BACKEND_PORT", 8000),
			ShutdownTimeout: envconfig.GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:             envconfig.GetEnvString("DATABASE_URL", ""),
			Host:            envconfig.GetEnvString("DB_HOST", "localhost"),
			Port:            envconfig.GetEnvInt("DB_PORT", 5432),
			User:            envconfig.GetEnvString("DB_USER", "postgres"),
			Password:        envconfig.GetEnvString("DB_PASSWORD", ""),
			Name:            envconfig.GetEnvString("DB_NAME", "postgres"),
			SSLMode:         envconfig.GetEnvString("DB_SSLMODE", "disable"),
			PoolSize:        envconfig.GetEnvInt("DB_POOL_SIZE", 10),
			MaxOverflow:     envconfig.GetEnvInt("DB_MAX_OVERFLOW", 20),
			PoolTimeout:     envconfig.GetEnvDuration("DB_POOL_TIMEOUT", 30*time.Second),
			PoolRecycle:     envconfig.GetEnvDuration("DB_POOL_RECYCLE", 30*time.Minute),
			ConnMaxIdleTime: envconfig.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
			ConnectTimeout:  envconfig.GetEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Host:                envconfig.GetEnvString("REDIS_HOST", "localhost"),
			Port:                envconfig.GetEnvInt("REDIS_PORT", 6379),
			Password:            envconfig.GetEnvString("REDIS_PASSWORD", ""),
			DB:                  envconfig.GetEnvInt("REDIS_DB", 0),
			ConnectTimeout:      envconfig.GetEnvDuration("REDIS_CONNECT_TIMEOUT", 5*time.Second),
			SocketTimeout:       envconfig.GetEnvDuration("REDIS_SOCKET_TIMEOUT", 5*time.Second),
			HealthCheckInterval: envconfig.GetEnvDuration("REDIS_HEALTH_CHECK_INTERVAL", 30*time.Second),
			PoolSize:            envconfig.GetEnvInt("REDIS_POOL_SIZE", 10),
		},
		Supervisor: SupervisorConfig{
			MaxRetries:     envconfig.GetEnvInt("SUPERVISOR_MAX_RETRIES", 5),
			RetryDelay:     envconfig.GetEnvDuration("SUPERVISOR_RETRY_DELAY", 1500*time.Millisecond),
			BreakerEnabled: envconfig.GetEnvBool("SUPERVISOR_BREAKER_ENABLED", false),
		},
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// Validate checks every field and reports all problems at once.
func (s *Settings) Validate() error {
	var errs []error
	check := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	if strings.TrimSpace(s.App.Name) == "" {
		errs = append(errs, errors.New("APP_NAME cannot be empty"))
	}
	if !validLogLevel(s.App.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", s.App.LogLevel))
	}

	check("BACKEND_PORT", envconfig.ValidatePort(s.Server.Port))
	check("SHUTDOWN_TIMEOUT", envconfig.ValidatePositiveDuration(s.Server.ShutdownTimeout))

	if s.Database.URL == "" {
		check("DB_PORT", envconfig.ValidatePort(s.Database.Port))
		if s.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST cannot be empty when DATABASE_URL is not set"))
		}
	} else if _, err := url.Parse(s.Database.URL); err != nil {
		errs = append(errs, fmt.Errorf("DATABASE_URL is not a valid URL: %s", logging.SanitizeError(err)))
	}
	check("DB_POOL_SIZE", envconfig.ValidateIntRange(s.Database.PoolSize, 1, 1000))
	check("DB_MAX_OVERFLOW", envconfig.ValidateIntRange(s.Database.MaxOverflow, 0, 1000))
	check("DB_POOL_TIMEOUT", envconfig.ValidatePositiveDuration(s.Database.PoolTimeout))
	check("DB_POOL_RECYCLE", envconfig.ValidateNonNegativeDuration(s.Database.PoolRecycle))
	check("DB_CONN_MAX_IDLE_TIME", envconfig.ValidateNonNegativeDuration(s.Database.ConnMaxIdleTime))
	check("DB_CONNECT_TIMEOUT", envconfig.ValidatePositiveDuration(s.Database.ConnectTimeout))

	if s.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST cannot be empty"))
	}
	check("REDIS_PORT", envconfig.ValidatePort(s.Redis.Port))
	check("REDIS_DB", envconfig.ValidateIntRange(s.Redis.DB, 0, 15))
	check("REDIS_CONNECT_TIMEOUT", envconfig.ValidatePositiveDuration(s.Redis.ConnectTimeout))
	check("REDIS_SOCKET_TIMEOUT", envconfig.ValidatePositiveDuration(s.Redis.SocketTimeout))
	check("REDIS_HEALTH_CHECK_INTERVAL", envconfig.ValidateNonNegativeDuration(s.Redis.HealthCheckInterval))
	check("REDIS_POOL_SIZE", envconfig.ValidateIntRange(s.Redis.PoolSize, 1, 1000))

	check("SUPERVISOR_MAX_RETRIES", envconfig.ValidateIntRange(s.Supervisor.MaxRetries, 1, 20))
	check("SUPERVISOR_RETRY_DELAY", envconfig.ValidateDurationRange(s.Supervisor.RetryDelay, 0, time.Minute))

	return errors.Join(errs...)
}

func validLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}
