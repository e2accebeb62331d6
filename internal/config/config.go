// Package config loads settings for the command line and the HTTP server
// from environment variables, with defaults, and validates them on startup.
//
// The conversion core never reads the environment; callers pass it what it
// needs.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Convert  ConvertConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"CSVUTF8_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080). PORT is honoured for
	// platforms that inject it.
	Port int `env:"CSVUTF8_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"CSVUTF8_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"CSVUTF8_WRITE_TIMEOUT" default:"5m"`
	IdleTimeout     time.Duration `env:"CSVUTF8_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"CSVUTF8_SHUTDOWN_TIMEOUT" default:"30s"`
}

// UploadConfig bounds what the HTTP server accepts.
type UploadConfig struct {
	// MaxFileSize is the maximum upload size in bytes (default: 100MB)
	MaxFileSize int64 `env:"CSVUTF8_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel conversions (default: 4)
	MaxConcurrent int `env:"CSVUTF8_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a conversion slot (default: 30s)
	MaxWaitTime time.Duration `env:"CSVUTF8_MAX_WAIT_TIME" default:"30s"`

	// TempDir holds uploads and converted files while a request runs
	// (default: the system temp directory)
	TempDir string `env:"CSVUTF8_TEMP_DIR"`
}

// ConvertConfig holds conversion defaults shared by the CLI and server.
type ConvertConfig struct {
	// SampleSize is the detection sample in bytes. It is kept as text so a
	// bad value degrades to the default with a warning instead of failing
	// startup; see ParseSampleSize.
	SampleSize string `env:"CSVUTF8_SAMPLE_SIZE" default:"200000"`

	// Overwrite lets the CLI replace an existing output file (default: false)
	Overwrite bool `env:"CSVUTF8_OVERWRITE" default:"false"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled bool `env:"CSVUTF8_RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute applies per client IP (default: 60)
	RequestsPerMinute int `env:"CSVUTF8_RATE_LIMIT_PER_MINUTE" default:"60"`
}

// SecurityConfig holds response hardening and API access settings.
type SecurityConfig struct {
	// EnableCSP adds a Content-Security-Policy header (default: true)
	EnableCSP bool `env:"CSVUTF8_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards /api routes with the X-API-Key header (default: false)
	RequireAPIKey bool `env:"CSVUTF8_REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys.
	APIKeys string `env:"CSVUTF8_API_KEYS"`

	// TrustedProxies is a comma-separated list of CIDRs or IPs whose
	// X-Real-IP and X-Forwarded-For headers are believed. Empty trusts none.
	TrustedProxies string `env:"CSVUTF8_TRUSTED_PROXIES"`
}

// Keys returns the configured API keys.
func (c *SecurityConfig) Keys() []string { return splitList(c.APIKeys) }

// Proxies returns the configured trusted proxy ranges.
func (c *SecurityConfig) Proxies() []string { return splitList(c.TrustedProxies) }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"CSVUTF8_LOG_LEVEL" envAlt:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"CSVUTF8_LOG_FORMAT" envAlt:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
