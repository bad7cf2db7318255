// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol rules: Defined in genesis, immutable, must match across all nodes
//   - Node settings: Runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime, per-node settings)
// =============================================================================

// Config holds node-specific runtime configuration. These settings can vary
// between nodes without breaking consensus — the gossip transport, sync
// transport, and dashboard surface are external collaborators and are not
// configured here.
type Config struct {
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	Mining MiningConfig
	Log    LogConfig

	// RebuildIndexes forces a rebuild of derived storage indices on startup;
	// not persisted in the config file.
	RebuildIndexes bool
}

// MiningConfig holds block-production settings. Note: whether to mine (and
// with which role) is a node choice; how to validate once finalized is
// protocol.
type MiningConfig struct {
	Enabled      bool   `conf:"mining.enabled"`
	Coinbase     string `conf:"mining.coinbase"`
	ValidatorKey string `conf:"mining.validatorkey"` // path to the node's signing key
	Threads      int    `conf:"mining.threads"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.contrast
//	macOS:   ~/Library/Application Support/Contrast
//	Windows: %APPDATA%\Contrast
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".contrast"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Contrast")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Contrast")
		}
		return filepath.Join(home, "AppData", "Roaming", "Contrast")
	default:
		return filepath.Join(home, ".contrast")
	}
}

// ChainDataDir returns the chain-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// BlocksDir returns the blocks storage directory.
func (c *Config) BlocksDir() string {
	return filepath.Join(c.ChainDataDir(), "blocks")
}

// UTXODir returns the UTXO database directory.
func (c *Config) UTXODir() string {
	return filepath.Join(c.ChainDataDir(), "utxo")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "contrast.conf")
}
