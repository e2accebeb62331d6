package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvutf8/internal/core"
)

// DefaultSampleSize is the detection sample used when none or an invalid one
// is configured.
const DefaultSampleSize = core.DefaultSampleSize

// ErrInvalidSampleSize is wrapped by ParseSampleSize errors.
var ErrInvalidSampleSize = errors.New("invalid sample size")

// ParseSampleSize validates a user-supplied sample size. Empty input selects
// the default silently. Anything that is not a positive integer also selects
// the default, together with an error the caller should show as a warning.
func ParseSampleSize(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultSampleSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultSampleSize, fmt.Errorf("%w %q: not an integer, using %d", ErrInvalidSampleSize, raw, DefaultSampleSize)
	}
	if n <= 0 {
		return DefaultSampleSize, fmt.Errorf("%w %d: must be positive, using %d", ErrInvalidSampleSize, n, DefaultSampleSize)
	}
	return n, nil
}

// Load builds a Config from the environment. Unset variables take the
// default from the struct tag; the result is validated before it is returned.
func Load() (*Config, error) {
	var cfg Config
	if err := populate(reflect.ValueOf(&cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// populate fills every tagged field of the struct v, descending into nested
// section structs. Tags: env (variable), envAlt (fallback variable),
// default, and required:"true".
func populate(v reflect.Value) error {
	for _, sf := range reflect.VisibleFields(v.Type()) {
		fv := v.FieldByIndex(sf.Index)
		if !sf.IsExported() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			if err := populate(fv); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := lookup(name, sf.Tag.Get("envAlt"))
		if !ok {
			if sf.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", name)
			}
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := assign(fv.Addr().Interface(), raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
		}
	}
	return nil
}

// lookup returns the first non-blank value among the named variables.
func lookup(names ...string) (string, bool) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, true
		}
	}
	return "", false
}

// assign parses raw into the field behind ptr.
func assign(ptr any, raw string) error {
	var err error
	switch p := ptr.(type) {
	case *string:
		*p = raw
	case *bool:
		*p, err = strconv.ParseBool(raw)
	case *int:
		*p, err = strconv.Atoi(raw)
	case *int64:
		*p, err = strconv.ParseInt(raw, 10, 64)
	case *time.Duration:
		*p, err = time.ParseDuration(raw)
	default:
		return fmt.Errorf("unsupported field type %T", ptr)
	}
	return err
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("CSVUTF8_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		errs = append(errs, "server timeouts must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "CSVUTF8_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "CSVUTF8_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxConcurrent <= 0 {
		errs = append(errs, "CSVUTF8_MAX_CONCURRENT must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		errs = append(errs, "CSVUTF8_MAX_WAIT_TIME must be positive")
	}
	if c.Upload.TempDir != "" {
		if info, err := os.Stat(c.Upload.TempDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Sprintf("CSVUTF8_TEMP_DIR (%q) must be an existing directory", c.Upload.TempDir))
		}
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "CSVUTF8_RATE_LIMIT_PER_MINUTE must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.Keys()) == 0 {
		errs = append(errs, "CSVUTF8_API_KEYS must list at least one key when CSVUTF8_REQUIRE_API_KEY is set")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("CSVUTF8_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("CSVUTF8_LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ParsedSampleSize returns the configured detection sample size, falling back to
// DefaultSampleSize with a warning error when the setting is invalid.
func (c *ConvertConfig) ParsedSampleSize() (int, error) {
	return ParseSampleSize(c.SampleSize)
}

// String returns a one-line summary of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, MaxConcurrent: %d, MaxWaitTime: %s}, ",
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent, c.Upload.MaxWaitTime)
	fmt.Fprintf(&b, "Convert: {SampleSize: %q, Overwrite: %v}, ", c.Convert.SampleSize, c.Convert.Overwrite)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {EnableCSP: %v, RequireAPIKey: %v, APIKeys: %d, TrustedProxies: %d}, ",
		c.Security.EnableCSP, c.Security.RequireAPIKey, len(c.Security.Keys()), len(c.Security.Proxies()))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
