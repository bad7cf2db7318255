package node

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/contrast-network/contrast-chain/pkg/crypto"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// loadValidatorKey reads a hex-encoded 32-byte private key from a file.
func loadValidatorKey(path string) (*crypto.PrivateKey, error) {
	path = expandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("validator key file not found: %s (use 'contrast-cli wallet exportkey' to generate one)", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading validator key file: %s", path)
		}
		return nil, fmt.Errorf("read validator key file %s: %w", path, err)
	}

	hexStr := strings.TrimSpace(string(data))
	if len(hexStr) == 0 {
		return nil, fmt.Errorf("validator key file %s is empty", path)
	}

	keyBytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("validator key file %s contains invalid hex (expected 64-char hex-encoded private key): %w", path, err)
	}

	pk, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid validator key in %s (expected 32-byte secp256k1 private key): %w", path, err)
	}
	return pk, nil
}

// resolveCoinbase determines the mining payout address: an explicit
// address string wins, otherwise it falls back to the staking key's
// derived address, if one was loaded.
func resolveCoinbase(coinbaseStr string, stakingKey *crypto.PrivateKey, useDevHash bool) (types.Address, error) {
	if coinbaseStr != "" {
		addr, err := types.ParseAddress(coinbaseStr)
		if err != nil {
			return types.Address{}, fmt.Errorf("invalid coinbase address: %w", err)
		}
		return addr, nil
	}

	if stakingKey != nil {
		return crypto.DeriveAddress(stakingKey.PublicKey(), useDevHash), nil
	}

	return types.Address{}, fmt.Errorf("mining requires a coinbase address or a validator key (to derive one from its public key)")
}

// formatDifficulty returns a human-readable difficulty string (e.g. "1.05M").
func formatDifficulty(d uint64) string {
	switch {
	case d >= 1_000_000_000_000:
		return fmt.Sprintf("%.2fT", float64(d)/1_000_000_000_000)
	case d >= 1_000_000_000:
		return fmt.Sprintf("%.2fG", float64(d)/1_000_000_000)
	case d >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(d)/1_000_000)
	case d >= 1_000:
		return fmt.Sprintf("%.2fK", float64(d)/1_000)
	default:
		return fmt.Sprintf("%d", d)
	}
}
