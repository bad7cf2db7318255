package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/contrast-network/contrast-chain/pkg/crypto"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// =============================================================================
// Protocol Rules (immutable, defined in genesis)
// These MUST match across all nodes or consensus breaks.
// =============================================================================

// Denomination constants.
// 1 coin = 10^12 base units. All on-chain values are in base units.
const (
	Decimals  = 12
	Coin      = 1_000_000_000_000 // 10^12 base units per coin
	MilliCoin = 1_000_000_000     // 10^9
	MicroCoin = 1_000_000         // 10^6
)

// CoinbaseMaturity is the number of blocks a coinbase output must wait
// before it can be spent. Prevents issues during reorgs.
const CoinbaseMaturity uint64 = 20

// Block and transaction size limits (consensus-critical).
const (
	MaxBlockTxs   = 500    // Max transactions per block (including coinbase and PoS reward)
	MaxTxInputs   = 2500   // Max inputs per transaction
	MaxTxOutputs  = 2500   // Max outputs per transaction
	MaxScriptData = 65_536 // unused by the fixed rule set; retained as an absolute output-data ceiling
)

// Genesis holds the genesis block configuration and protocol rules.
// This is immutable after chain launch - changes require a hard fork.
type Genesis struct {
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`
	Symbol    string `json:"symbol,omitempty"`

	Timestamp uint64 `json:"timestamp"`
	ExtraData string `json:"extra_data,omitempty"`

	// Alloc maps bech32 addresses to their genesis balance, in base units.
	Alloc map[string]uint64 `json:"alloc"`

	Protocol ProtocolConfig `json:"protocol"`
}

// ProtocolConfig holds consensus-critical rules. All nodes MUST agree on
// these values. Field names mirror the settings enumerated by the external
// interface this core exposes: TARGET_BLOCK_TIME, MAX_BLOCK_SIZE,
// MAX_SUPPLY, BLOCK_REWARD, MIN_BLOCK_REWARD, HALVING_INTERVAL,
// MIN_FEE_PER_BYTE, SNAPSHOT_INTERVAL, MAX_IN_MEMORY_BLOCKS,
// MAX_KNOWN_PUBKEYS, HEIGHT_TOLERANCE.
type ProtocolConfig struct {
	Consensus ConsensusRules `json:"consensus"`
}

// ConsensusRules defines the hybrid PoS/PoW economics and timing every node
// must agree on bit-for-bit.
type ConsensusRules struct {
	TargetBlockTimeMs uint64 `json:"target_block_time_ms"`

	MaxBlockSize uint64 `json:"max_block_size"`

	MaxSupply       uint64 `json:"max_supply"`
	BlockReward     uint64 `json:"block_reward"`
	MinBlockReward  uint64 `json:"min_block_reward"`
	HalvingInterval uint64 `json:"halving_interval"`

	MinFeePerByte uint64 `json:"min_fee_per_byte"`

	SnapshotInterval   uint64 `json:"snapshot_interval"`
	MaxInMemoryBlocks  int    `json:"max_in_memory_blocks"`
	MaxKnownPubKeys    int    `json:"max_known_pubkeys"`
	HeightTolerance    uint64 `json:"height_tolerance"`
}

// =============================================================================
// Testnet identity
//
// Derived from the well-known BIP-39 test mnemonic (DO NOT use on mainnet):
//
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon art
//
// Derivation path: m/44'/8888'/0'/0/0 (no passphrase)
// =============================================================================

const (
	TestnetMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

	TestnetValidatorPubKey = "030bef68f8657df88098a0546da1712c88b459788bea1a6bbe964004166a25144f"

	TestnetValidatorPrivKey = "1f0717e6e34acc6721021f4dfed54558ec8452452b6195545d06dd348b220091"

	// TestnetAddress is the address (bech32, tctr) derived from TestnetMnemonic.
	// Address = BLAKE3(pubkey)[:20].
	TestnetAddress = "tctr13uayfwq9djh7cd5dagxtuzk3mx7r7sc9r56hhm"
)

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the mainnet genesis configuration.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:   "contrast-mainnet-1",
		ChainName: "Contrast Mainnet",
		Symbol:    "CTR",
		Timestamp: 1770734103, // 2026-02-10
		ExtraData: "Contrast Genesis",
		Alloc: map[string]uint64{
			"ctr1a8tfl79jgres7t90tttkc7ytjmhs5lpdkvjgkw": 100_000 * Coin,
		},
		Protocol: ProtocolConfig{
			Consensus: ConsensusRules{
				TargetBlockTimeMs:  3_000,
				MaxBlockSize:       2_000_000,
				BlockReward:        20 * MilliCoin,
				MinBlockReward:     1 * MicroCoin,
				MaxSupply:          2_000_000 * Coin,
				HalvingInterval:    2_100_000,
				MinFeePerByte:      10_000,
				SnapshotInterval:   100,
				MaxInMemoryBlocks:  1000,
				MaxKnownPubKeys:    1_000_000,
				HeightTolerance:    6,
			},
		},
	}
}

// TestnetGenesis returns the testnet genesis configuration.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "contrast-testnet-1"
	g.ChainName = "Contrast Testnet"
	g.ExtraData = "Contrast Testnet Genesis"

	g.Protocol.Consensus.MinFeePerByte = 10 // very low, for testing

	g.Alloc = map[string]uint64{
		TestnetAddress: 200_000 * Coin,
	}

	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// =============================================================================
// Genesis file I/O
// =============================================================================

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}

	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}

	return nil
}

// Validate checks that the genesis configuration is valid.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}

	c := g.Protocol.Consensus
	if c.TargetBlockTimeMs == 0 {
		return fmt.Errorf("target_block_time_ms must be positive")
	}
	if c.BlockReward == 0 {
		return fmt.Errorf("block_reward must be positive")
	}
	if c.MaxBlockSize == 0 {
		return fmt.Errorf("max_block_size must be positive")
	}
	if c.SnapshotInterval == 0 {
		return fmt.Errorf("snapshot_interval must be positive")
	}

	var totalAlloc uint64
	for addrStr, v := range g.Alloc {
		if _, err := types.ParseAddress(addrStr); err != nil {
			return fmt.Errorf("invalid alloc address %q: %w", addrStr, err)
		}
		totalAlloc += v
	}
	if c.MaxSupply > 0 && totalAlloc > c.MaxSupply {
		return fmt.Errorf("genesis allocations (%d) exceed max_supply (%d)", totalAlloc, c.MaxSupply)
	}

	return nil
}

// Hash returns a BLAKE3 hash of the genesis configuration, used to identify
// the chain and detect genesis mismatches between nodes.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}
