package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognised by needle.
const (
	EnvHome           = "NEEDLE_HOME"
	EnvEndpoint       = "NEEDLE_ENDPOINT"
	EnvTimeout        = "NEEDLE_TIMEOUT"
	EnvCacheEnabled   = "NEEDLE_CACHE_ENABLED"
	EnvCacheTTL       = "NEEDLE_CACHE_TTL"
	EnvCacheKey       = "NEEDLE_CACHE_KEY"
	EnvStorageBackend = "NEEDLE_STORAGE_BACKEND"
	EnvStorageDir     = "NEEDLE_STORAGE_DIR"
	EnvLogLevel       = "NEEDLE_LOG_LEVEL"
	EnvLogFormat      = "NEEDLE_LOG_FORMAT"
	EnvLogFile        = "NEEDLE_LOG_FILE"
	EnvOutputFormat   = "NEEDLE_OUTPUT"
)

// LoadDotEnv loads .env from the working directory and from the config
// directory. Variables already set in the environment win.
func LoadDotEnv() {
	candidates := []string{".env", filepath.Join(ResolveConfigDir(), ".env")}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// ApplyEnvOverrides copies NEEDLE_* variables onto cfg. Every valid
// variable is applied; invalid ones are skipped and reported together.
func ApplyEnvOverrides(cfg *Config) error {
	var errs []error

	if v, ok := lookup(EnvEndpoint); ok {
		cfg.Service.Endpoint = v
	}
	if v, ok := lookup(EnvTimeout); ok {
		d, err := parseTimeout(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		} else {
			cfg.Service.Timeout = d
		}
	}
	if v, ok := lookup(EnvCacheEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvCacheEnabled, err))
		} else {
			cfg.Cache.Enabled = b
		}
	}
	if v, ok := lookup(EnvCacheTTL); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvCacheTTL, err))
		} else {
			cfg.Cache.TTLSeconds = n
		}
	}
	if v, ok := lookup(EnvCacheKey); ok {
		cfg.Cache.Key = v
	}
	if v, ok := lookup(EnvStorageBackend); ok {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvStorageDir); ok {
		cfg.Storage.Directory = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFile); ok {
		cfg.Logging.File = v
	}
	if v, ok := lookup(EnvOutputFormat); ok {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// parseTimeout accepts a Go duration ("45s") or a bare number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}
