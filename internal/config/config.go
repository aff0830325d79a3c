// Package config provides centralized configuration management for the
// consolidation service. Settings come from environment variables with
// sensible defaults and are validated on startup so misconfiguration fails
// fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Sources  SourcesConfig
	Refresh  RefreshConfig
	Notify   NotifyConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout must cover a full refresh triggered over HTTP (default: 10m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"10m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds read-only requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	// Driver selects the backend: postgres or sqlite (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string (required for postgres).
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is the database file for the sqlite driver (default: aet.db)
	SQLitePath string `env:"SQLITE_PATH" default:"aet.db"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SourcesConfig selects where tracker rows are read from.
type SourcesConfig struct {
	// CatalogFile is an optional YAML catalog; empty uses the built-in programs
	CatalogFile string `env:"SOURCE_CATALOG_FILE"`

	// Kind is database (rows imported into the store) or csv (default: database)
	Kind string `env:"SOURCE_KIND" default:"database"`

	// CSVDir holds <sourceID>.csv exports when Kind is csv (default: trackers)
	CSVDir string `env:"SOURCE_CSV_DIR" default:"trackers"`
}

// RefreshConfig holds scheduling settings.
type RefreshConfig struct {
	// FrequencyHours is the scheduled refresh interval (default: 2)
	FrequencyHours int `env:"UPDATE_FREQUENCY_HOURS" default:"2"`

	// ScheduleEnabled runs refreshes in the background (default: true)
	ScheduleEnabled bool `env:"REFRESH_SCHEDULE_ENABLED" default:"true"`

	// RunOnStart triggers a refresh as soon as the server starts (default: false)
	RunOnStart bool `env:"REFRESH_RUN_ON_START" default:"false"`

	// Timeout bounds a single refresh (default: 10m)
	Timeout time.Duration `env:"REFRESH_TIMEOUT" default:"10m"`

	// TimeZone formats update times in notifications (default: UTC)
	TimeZone string `env:"REFRESH_TIME_ZONE" default:"UTC"`
}

// Interval returns FrequencyHours as a duration.
func (c *RefreshConfig) Interval() time.Duration {
	return time.Duration(c.FrequencyHours) * time.Hour
}

// NotifyConfig holds outcome notification settings. With no SMTP host,
// notifications are written to the log.
type NotifyConfig struct {
	// Recipients is a comma-separated list of addresses
	Recipients []string `env:"NOTIFY_RECIPIENTS"`

	// SMTPHost is the mail relay host
	SMTPHost string `env:"SMTP_HOST"`

	// SMTPPort is the mail relay port (default: 587)
	SMTPPort int `env:"SMTP_PORT" default:"587"`

	// SMTPUsername enables PLAIN auth when set
	SMTPUsername string `env:"SMTP_USERNAME"`

	// SMTPPassword is the relay password
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// From is the sender address
	From string `env:"SMTP_FROM"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is the number of requests allowed at once (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
