package chain

import (
	"testing"

	"github.com/contrast-network/contrast-chain/config"
	"github.com/contrast-network/contrast-chain/internal/storage"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

func testConfig() *config.Genesis {
	g := config.TestnetGenesis()
	g.Alloc = map[string]uint64{config.TestnetAddress: 200_000 * config.Coin}
	return g
}

func newTestChain(t *testing.T) (*Chain, *block.BlockData) {
	t.Helper()
	genesis, err := CreateGenesisBlock(testConfig())
	if err != nil {
		t.Fatalf("create genesis: %v", err)
	}
	store := NewBlockStore(storage.NewMemory())
	c := New(store, testConfig().Protocol.Consensus)
	if err := c.InitFromGenesis(genesis); err != nil {
		t.Fatalf("init from genesis: %v", err)
	}
	return c, genesis
}

func TestChain_InitFromGenesisSetsTip(t *testing.T) {
	c, genesis := newTestChain(t)
	if c.TipHash() != genesis.Hash {
		t.Errorf("tip = %x, want genesis %x", c.TipHash(), genesis.Hash)
	}
	if c.Height() != 0 {
		t.Errorf("height = %d, want 0", c.Height())
	}
}

func TestChain_AddBlockAndReorg(t *testing.T) {
	c, genesis := newTestChain(t)

	var child block.BlockData
	child = *genesis
	child.Index = 1
	child.PrevHash = genesis.Hash
	child.Hash = types.Hash(child.MinerHash())

	if err := c.AddBlock(&child); err != nil {
		t.Fatalf("add block: %v", err)
	}

	best := c.FindBestBlock()
	if best != child.Hash {
		t.Errorf("expected child to become best block, got %x", best)
	}
	if !c.ShouldReorg(child.Hash) {
		t.Error("expected reorg onto the taller chain")
	}

	if err := c.SetTip(child.Hash); err != nil {
		t.Fatalf("set tip: %v", err)
	}
	if c.TipHash() != child.Hash {
		t.Errorf("tip = %x, want %x", c.TipHash(), child.Hash)
	}
}

func TestChain_LoadFromStoreRebuildsTree(t *testing.T) {
	c, genesis := newTestChain(t)

	var child block.BlockData
	child = *genesis
	child.Index = 1
	child.PrevHash = genesis.Hash
	child.Hash = types.Hash(child.MinerHash())
	if err := c.AddBlock(&child); err != nil {
		t.Fatalf("add block: %v", err)
	}
	if err := c.CommitHeightIndex(&child); err != nil {
		t.Fatalf("commit height index: %v", err)
	}
	if err := c.SetTip(child.Hash); err != nil {
		t.Fatalf("set tip: %v", err)
	}

	reloaded := New(c.store, testConfig().Protocol.Consensus)
	if err := reloaded.LoadFromStore(); err != nil {
		t.Fatalf("load from store: %v", err)
	}
	if reloaded.TipHash() != child.Hash {
		t.Errorf("reloaded tip = %x, want %x", reloaded.TipHash(), child.Hash)
	}
	if reloaded.Height() != 1 {
		t.Errorf("reloaded height = %d, want 1", reloaded.Height())
	}
}
