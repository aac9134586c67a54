// Package config handles application configuration.
//
// Settings come from three layers, later layers winning:
//   - Defaults for the selected network
//   - The key = value config file in the data directory
//   - Command-line flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds the wallet's runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Chronik indexer
	Chronik ChronikConfig

	// Token metadata cache
	Cache CacheConfig

	// Address encoding
	Address AddressConfig

	// Logging
	Log LogConfig

	// Metrics
	Metrics MetricsConfig
}

// ChronikConfig holds indexer endpoint settings.
type ChronikConfig struct {
	URLs    []string      `conf:"chronik.urls"`    // Tried in order for reads; first is used for broadcast.
	Timeout time.Duration `conf:"chronik.timeout"` // Per-request timeout.
	RPS     float64       `conf:"chronik.rps"`     // Client-side rate limit, 0 = unlimited.
	InfoTTL time.Duration `conf:"chronik.infottl"` // Blockchain info cache lifetime.
}

// CacheConfig holds token metadata cache settings.
type CacheConfig struct {
	Enabled bool   `conf:"cache.enabled"`
	Dir     string `conf:"cache.dir"` // Badger directory, default <datadir>/<network>/tokens.
}

// AddressConfig holds CashAddr settings.
type AddressConfig struct {
	Prefix string `conf:"address.prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `conf:"metrics.addr"` // Empty disables the endpoint.
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.xecwallet
//	macOS:   ~/Library/Application Support/XecWallet
//	Windows: %APPDATA%\XecWallet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xecwallet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "XecWallet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "XecWallet")
		}
		return filepath.Join(home, "AppData", "Roaming", "XecWallet")
	default:
		return filepath.Join(home, ".xecwallet")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// TokenCacheDir returns the badger directory of the token metadata cache.
func (c *Config) TokenCacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.NetworkDataDir(), "tokens")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "xecwallet.conf")
}
