package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/logging"
	"github.com/rshade/needle/internal/storage"
)

// Defaults.
const (
	DefaultEndpoint      = "http://localhost:8000"
	DefaultTimeout       = 30 * time.Second
	DefaultOutputFormat  = "table"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = logging.FormatConsole
	DefaultStorageKind   = storage.BackendFile
	configFileName       = "config.yaml"
	configFilePermission = 0o600
	configDirPermission  = 0o750
)

// Output formats accepted by output.default_format and --output.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatPlain = "plain"
)

// Validation errors.
var (
	ErrInvalidEndpoint     = errors.New("service.endpoint must be an absolute http(s) URL")
	ErrInvalidTimeout      = errors.New("service.timeout must be positive")
	ErrInvalidOutputFormat = errors.New("output.default_format must be table, json or plain")
	ErrInvalidLogFormat    = errors.New("logging.format must be console or json")
	ErrInvalidLogLevel     = errors.New("logging.level must be trace, debug, info, warn or error")
)

// Config is the complete needle configuration.
type Config struct {
	Service ServiceConfig `yaml:"service" json:"service"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Output  OutputConfig  `yaml:"output" json:"output"`
}

// ServiceConfig locates the answer service.
type ServiceConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// CacheConfig controls the query result cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds" json:"ttl_seconds"`
	Key        string `yaml:"key" json:"key"`
}

// StorageConfig selects the key-value backend behind the cache.
type StorageConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Endpoint: DefaultEndpoint,
			Timeout:  DefaultTimeout,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: cache.DefaultTTLSeconds,
			Key:        cache.DefaultStorageKey,
		},
		Storage: StorageConfig{
			Backend: DefaultStorageKind,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Output: OutputConfig{
			DefaultFormat: DefaultOutputFormat,
		},
	}
}

// New builds the effective configuration: defaults, then the global config
// file, then a project overlay found from the working directory, then .env
// files and environment variables. Problems with any layer are logged and
// the layer is skipped.
func New() *Config {
	logger := bootstrapLogger()
	cfg := Default()

	path := ConfigPath()
	if err := ShallowMergeYAML(cfg, path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str("path", path).Msg("ignoring unreadable config file")
	}

	if wd, err := os.Getwd(); err == nil {
		if overlay := FindProjectOverlay(wd); overlay != "" {
			if mergeErr := ShallowMergeYAML(cfg, overlay); mergeErr != nil {
				logger.Warn().Err(mergeErr).Str("path", overlay).Msg("ignoring unreadable project config")
			}
		}
	}

	LoadDotEnv()
	if err := ApplyEnvOverrides(cfg); err != nil {
		logger.Warn().Err(err).Msg("ignoring invalid environment override")
	}
	return cfg
}

// bootstrapLogger reports config problems before the configured logger exists.
func bootstrapLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Str("component", "config").
		Logger()
}

// Load reads a single config file over the defaults. Unlike New it reports
// every error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := ShallowMergeYAML(cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), configDirPermission); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, configFilePermission); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Service.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: got %q", ErrInvalidEndpoint, c.Service.Endpoint)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidTimeout, c.Service.Timeout)
	}
	if err := cache.ValidateTTLSeconds(c.Cache.TTLSeconds); err != nil {
		return fmt.Errorf("cache.ttl_seconds: %w", err)
	}
	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		return fmt.Errorf("storage.backend: %w: %q", storage.ErrUnknownBackend, c.Storage.Backend)
	}
	if !IsValidOutputFormat(c.Output.DefaultFormat) {
		return fmt.Errorf("%w: got %q", ErrInvalidOutputFormat, c.Output.DefaultFormat)
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}

// IsValidOutputFormat reports whether format is a known renderer.
func IsValidOutputFormat(format string) bool {
	switch format {
	case FormatTable, FormatJSON, FormatPlain:
		return true
	default:
		return false
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// StorageOptions returns the options for opening the cache backend.
// An empty directory resolves to the default cache directory.
func (c *Config) StorageOptions() storage.Options {
	dir := c.Storage.Directory
	if dir == "" {
		dir = DefaultStorageDir()
	}
	return storage.Options{Backend: c.Storage.Backend, Directory: dir}
}

// CacheOptions returns the options for building the result cache.
func (c *Config) CacheOptions() []cache.Option {
	return []cache.Option{
		cache.WithEnabled(c.Cache.Enabled),
		cache.WithTTL(c.CacheTTL()),
		cache.WithStorageKey(c.Cache.Key),
	}
}
