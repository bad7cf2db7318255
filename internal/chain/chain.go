package chain

import (
	"github.com/contrast-network/contrast-chain/config"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// Chain ties the in-memory block tree (fork choice) to its persistent
// store. It owns no UTXO state itself (that's internal/utxo's Cache,
// digested separately by the node state machine); Chain only
// tracks which blocks exist, how they connect, and which is the current
// tip.
type Chain struct {
	tree  *Tree
	store *BlockStore

	tip types.Hash
}

// New wires an empty Chain around store, bounded to rules.MaxInMemoryBlocks
// tree nodes.
func New(store *BlockStore, rules config.ConsensusRules) *Chain {
	return &Chain{
		tree:  NewTree(rules.MaxInMemoryBlocks),
		store: store,
	}
}

// InitFromGenesis seeds the chain with genesis: persists it, seeds the
// tree, and sets it as the tip. Must be called once on a fresh data
// directory, before any AddBlock call.
func (c *Chain) InitFromGenesis(genesis *block.BlockData) error {
	if err := c.store.PutBlock(genesis); err != nil {
		return err
	}
	if err := c.store.SetHeightIndex(genesis.Index, genesis.Hash); err != nil {
		return err
	}
	if err := c.store.SetCurrentHeight(genesis.Index); err != nil {
		return err
	}
	c.tree.AddGenesis(genesis)
	c.tip = genesis.Hash
	return nil
}

// LoadFromStore reconstructs the in-memory tree from persisted blocks,
// walking forward by height from genesis until a height has no stored
// block. Used on restart, where the tree built by InitFromGenesis/AddBlock
// does not survive process exit.
func (c *Chain) LoadFromStore() error {
	genesis, ok, err := c.store.GetBlockByHeight(0)
	if err != nil {
		return err
	}
	if !ok {
		return types.NewError(types.ErrSnapshotMissing, "no genesis block in store")
	}
	c.tree.AddGenesis(genesis)

	for height := uint64(1); ; height++ {
		b, ok, err := c.store.GetBlockByHeight(height)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if _, err := c.tree.AddBlock(b); err != nil {
			return err
		}
	}

	height, ok := c.store.GetCurrentHeight()
	if !ok {
		return types.NewError(types.ErrSnapshotMissing, "no current height recorded in store")
	}
	tipBlock, ok, err := c.store.GetBlockByHeight(height)
	if err != nil {
		return err
	}
	if !ok {
		return types.NewError(types.ErrSnapshotMissing, "no canonical block at recorded height %d", height)
	}
	c.tip = tipBlock.Hash
	return nil
}

// AddBlock persists b and links it into the tree, without moving the tip
// (fork choice and reorg are the node state machine's responsibility).
func (c *Chain) AddBlock(b *block.BlockData) error {
	if err := c.store.PutBlock(b); err != nil {
		return err
	}
	_, err := c.tree.AddBlock(b)
	return err
}

// SetTip moves the chain's current tip, persisting its height as the
// canonical chain height. The caller must have committed the tip's height
// index first, so a restart can resolve the persisted height back to this
// hash.
func (c *Chain) SetTip(hash types.Hash) error {
	n, ok := c.tree.Get(hash)
	if !ok {
		return types.NewError(types.ErrInvalidBlockIndex, "set tip: block %x not in tree", hash)
	}
	if err := c.store.SetCurrentHeight(n.Height); err != nil {
		return err
	}
	c.tip = hash
	return nil
}

// CommitHeightIndex records b as the canonical block at its height,
// overwriting whatever a losing fork previously occupied that height's
// index entry. Callers commit every block that joins the chosen chain
// this way: a single tip-extending block, or each block replayed along a
// reorg's apply path — a block merely inserted into the tree via AddBlock
// never reaches here until (if ever) it is actually chosen.
func (c *Chain) CommitHeightIndex(b *block.BlockData) error {
	return c.store.SetHeightIndex(b.Index, b.Hash)
}

// TipHash returns the current tip's hash.
func (c *Chain) TipHash() types.Hash {
	return c.tip
}

// Height returns the current tip's height.
func (c *Chain) Height() uint64 {
	n, ok := c.tree.Get(c.tip)
	if !ok {
		return 0
	}
	return n.Height
}

// GetBlock returns the block with the given hash, if persisted.
func (c *Chain) GetBlock(hash types.Hash) (*block.BlockData, bool, error) {
	return c.store.GetBlock(hash)
}

// GetBlockByHeight returns the block at the given height on the currently
// persisted main chain, if any.
func (c *Chain) GetBlockByHeight(height uint64) (*block.BlockData, bool, error) {
	return c.store.GetBlockByHeight(height)
}

// FindBestBlock returns the tree's current best leaf hash.
func (c *Chain) FindBestBlock() types.Hash {
	return c.tree.FindBestBlock()
}

// ShouldReorg reports whether candidateTip is strictly preferred to the
// current tip.
func (c *Chain) ShouldReorg(candidateTip types.Hash) bool {
	return c.tree.ShouldReorg(c.tip, candidateTip)
}

// GetReorgPath returns the blocks to revert and apply to move from the
// current tip to candidateTip.
func (c *Chain) GetReorgPath(candidateTip types.Hash) (revert []types.Hash, apply []types.Hash, err error) {
	return c.tree.GetReorgPath(c.tip, candidateTip)
}

// Has reports whether hash is known to the tree.
func (c *Chain) Has(hash types.Hash) bool {
	return c.tree.Has(hash)
}
