package chain

import (
	"testing"

	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

func testBlock(index uint64, hashByte, prevByte byte) *block.BlockData {
	var h, p types.Hash
	h[0] = hashByte
	p[0] = prevByte
	return &block.BlockData{Index: index, Hash: h, PrevHash: p}
}

func TestTree_AddBlockLinksAndUpdatesLeaves(t *testing.T) {
	tr := NewTree(0)
	genesis := testBlock(0, 0, 0)
	tr.AddGenesis(genesis)

	child := testBlock(1, 1, 0)
	if _, err := tr.AddBlock(child); err != nil {
		t.Fatalf("add block: %v", err)
	}

	if tr.Has(genesis.Hash) && len(tr.leaves) != 1 {
		t.Fatalf("expected genesis to no longer be a leaf, leaves=%d", len(tr.leaves))
	}
	if _, ok := tr.leaves[child.Hash]; !ok {
		t.Error("expected child to be the new leaf")
	}
}

func TestTree_AddBlockRejectsUnknownParent(t *testing.T) {
	tr := NewTree(0)
	tr.AddGenesis(testBlock(0, 0, 0))

	orphan := testBlock(5, 9, 8)
	_, err := tr.AddBlock(orphan)
	if !types.Is(err, types.ErrInvalidBlockIndex) {
		t.Fatalf("expected ErrInvalidBlockIndex for orphan block, got %v", err)
	}
}

func TestTree_FindBestBlockPrefersGreaterSubtreeScore(t *testing.T) {
	tr := NewTree(0)
	genesis := testBlock(0, 0, 0)
	tr.AddGenesis(genesis)

	shortFork := testBlock(1, 1, 0)
	if _, err := tr.AddBlock(shortFork); err != nil {
		t.Fatalf("add shortFork: %v", err)
	}

	longForkA := testBlock(1, 2, 0)
	if _, err := tr.AddBlock(longForkA); err != nil {
		t.Fatalf("add longForkA: %v", err)
	}
	longForkB := testBlock(2, 3, 2)
	if _, err := tr.AddBlock(longForkB); err != nil {
		t.Fatalf("add longForkB: %v", err)
	}

	best := tr.FindBestBlock()
	if best != longForkB.Hash {
		t.Errorf("expected longer fork tip to win, got %x want %x", best, longForkB.Hash)
	}
}

func TestTree_ShouldReorg(t *testing.T) {
	tr := NewTree(0)
	genesis := testBlock(0, 0, 0)
	tr.AddGenesis(genesis)

	weak := testBlock(1, 1, 0)
	tr.AddBlock(weak)
	strongA := testBlock(1, 2, 0)
	tr.AddBlock(strongA)
	strongB := testBlock(2, 3, 2)
	tr.AddBlock(strongB)

	if !tr.ShouldReorg(weak.Hash, strongB.Hash) {
		t.Error("expected reorg onto the strictly heavier fork")
	}
	if tr.ShouldReorg(strongB.Hash, weak.Hash) {
		t.Error("did not expect reorg onto the strictly lighter fork")
	}
}

func TestTree_EvictionBoundsNonLeafNodes(t *testing.T) {
	tr := NewTree(2)
	tr.AddGenesis(testBlock(0, 0, 0))
	tr.AddBlock(testBlock(1, 1, 0))
	tr.AddBlock(testBlock(2, 2, 1))
	tr.AddBlock(testBlock(3, 3, 2))

	if tr.Len() > 2 {
		t.Errorf("expected tree to stay near its bound, got %d nodes", tr.Len())
	}
	var tip types.Hash
	tip[0] = 3
	if !tr.Has(tip) {
		t.Error("expected current tip to survive eviction")
	}
}
