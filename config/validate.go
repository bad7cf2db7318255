package config

import (
	"fmt"

	"github.com/contrast-network/contrast-chain/pkg/types"
)

// Validate checks runtime node config for obvious operator mistakes. It
// never validates protocol rules — those are Genesis's responsibility.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}
	if cfg.Mining.Threads < 0 {
		return fmt.Errorf("mining.threads must not be negative")
	}
	if cfg.Mining.Enabled && cfg.Mining.Coinbase != "" {
		if _, err := types.ParseAddress(cfg.Mining.Coinbase); err != nil {
			return fmt.Errorf("mining.coinbase: %w", err)
		}
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error")
	}
	return nil
}
