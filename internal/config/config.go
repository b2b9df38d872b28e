// Package config loads runtime settings from an optional .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/photo-sharpness-mcp/internal/sharpness"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PHOTO_SHARPNESS_"

// Config holds every tunable of the service.
type Config struct {
	Threshold   float64       // blur threshold for Assess
	Workers     int           // batch parallelism
	Grid        int           // default focus grid rows and columns
	DBPath      string        // SQLite ledger path, empty disables history
	LogLevel    string        // debug, info, warn, error
	HTTPAddr    string        // HTTP API listen address
	RedisAddr   string        // score cache backend, empty uses memory
	CacheTTL    time.Duration // score cache entry lifetime
	MaxUploadMB int           // HTTP upload limit
	OCRLanguage string        // Tesseract language code
	Settle      time.Duration // watcher debounce
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Threshold:   sharpness.DefaultBlurThreshold,
		Workers:     runtime.NumCPU(),
		Grid:        3,
		LogLevel:    "info",
		HTTPAddr:    ":8080",
		CacheTTL:    24 * time.Hour,
		MaxUploadMB: 20,
		OCRLanguage: "eng",
		Settle:      500 * time.Millisecond,
	}
}

// Load reads envFile (if it exists) into the process environment and then
// builds a Config from Default overlaid with PHOTO_SHARPNESS_* variables.
// An empty envFile means ".env". A missing file is not an error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config using lookup to read variables.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	float("THRESHOLD", &cfg.Threshold)
	integer("WORKERS", &cfg.Workers)
	integer("GRID", &cfg.Grid)
	str("DB", &cfg.DBPath)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("REDIS_ADDR", &cfg.RedisAddr)
	duration("CACHE_TTL", &cfg.CacheTTL)
	integer("MAX_UPLOAD_MB", &cfg.MaxUploadMB)
	str("OCR_LANG", &cfg.OCRLanguage)
	duration("SETTLE", &cfg.Settle)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Threshold < 0:
		return fmt.Errorf("threshold must not be negative, got %v", c.Threshold)
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.Grid < 1 || c.Grid > sharpness.MaxGridCells:
		return fmt.Errorf("grid must be between 1 and %d, got %d", sharpness.MaxGridCells, c.Grid)
	case c.MaxUploadMB < 1:
		return fmt.Errorf("max upload must be at least 1 MB, got %d", c.MaxUploadMB)
	case c.CacheTTL < 0:
		return fmt.Errorf("cache TTL must not be negative, got %v", c.CacheTTL)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
