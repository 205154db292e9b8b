package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
)

const appDirName = "needle"

// GlobalConfig holds the global configuration instance.
var GlobalConfig *Config        //nolint:gochecknoglobals // Singleton pattern for configuration
var globalConfigMu sync.RWMutex //nolint:gochecknoglobals // Protects globalConfigInit flag
var globalConfigInit bool       //nolint:gochecknoglobals // Tracks if global config has been initialized

// InitGlobalConfig initializes the global configuration.
func InitGlobalConfig() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()

	if globalConfigInit {
		return
	}

	GlobalConfig = New()
	globalConfigInit = true
}

// ResetGlobalConfigForTest resets the global config for testing purposes.
func ResetGlobalConfigForTest() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()

	GlobalConfig = nil
	globalConfigInit = false
}

// GetGlobalConfig returns the global configuration, initializing it if needed.
func GetGlobalConfig() *Config {
	InitGlobalConfig()
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return GlobalConfig
}

// GetDefaultOutputFormat returns the configured default output format.
func GetDefaultOutputFormat() string {
	return GetGlobalConfig().Output.DefaultFormat
}

// ResolveConfigDir returns $NEEDLE_HOME, or the XDG config directory for needle.
func ResolveConfigDir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	return filepath.Join(xdg.ConfigHome, appDirName)
}

// ConfigPath returns the path of the global config file.
func ConfigPath() string {
	return filepath.Join(ResolveConfigDir(), configFileName)
}

// DefaultStorageDir returns where the cache backends keep their files:
// $NEEDLE_HOME/cache, or the XDG cache directory for needle.
func DefaultStorageDir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "cache")
	}
	return filepath.Join(xdg.CacheHome, appDirName)
}

// DefaultLogPath returns the suggested log file location.
func DefaultLogPath() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "logs", "needle.log")
	}
	return filepath.Join(xdg.StateHome, appDirName, "needle.log")
}

// EnsureConfigDir creates the config directory if needed.
func EnsureConfigDir() error {
	dir := ResolveConfigDir()
	if err := os.MkdirAll(dir, configDirPermission); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// EnsureLogDir creates the parent directory of the configured log file.
func EnsureLogDir(cfg *Config) error {
	if cfg.Logging.File == "" {
		return nil
	}
	dir := filepath.Dir(cfg.Logging.File)
	if err := os.MkdirAll(dir, configDirPermission); err != nil {
		return fmt.Errorf("creating log directory %s: %w", dir, err)
	}
	return nil
}
