// Package chain implements the block tree and fork-choice rule: a
// tree of known blocks rooted at genesis, with each node tracking its own
// score and the running sum of its subtree's scores, bounded by an LRU of
// MAX_BLOCKS entries.
package chain

import (
	"bytes"

	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// Node is one block tree entry: the block's identity, its link to its
// parent, its own score, and the running sum of its subtree's scores.
type Node struct {
	Hash         types.Hash
	PrevHash     types.Hash
	Height       uint64
	Score        uint64
	SubtreeScore uint64
	Parent       *Node
	Children     []*Node
}

// ScoreOf is the block's score: currently its height, a placeholder — score
// must stay a pure function of BlockData. Any
// future weighting (e.g. legitimacy-adjusted score) replaces only this
// function; the tree/fork-choice logic around it does not change.
func ScoreOf(b *block.BlockData) uint64 {
	return b.Index
}

// Tree is the block tree: every known node indexed by hash, the current
// leaf set, bounded by an LRU of maxBlocks entries.
type Tree struct {
	nodes       map[types.Hash]*Node
	leaves      map[types.Hash]*Node
	insertOrder []types.Hash
	maxBlocks   int
}

// NewTree creates an empty tree bounded to maxBlocks nodes.
func NewTree(maxBlocks int) *Tree {
	return &Tree{
		nodes:     make(map[types.Hash]*Node),
		leaves:    make(map[types.Hash]*Node),
		maxBlocks: maxBlocks,
	}
}

// Has reports whether hash is a known node.
func (t *Tree) Has(hash types.Hash) bool {
	_, ok := t.nodes[hash]
	return ok
}

// Get returns the node for hash, if known.
func (t *Tree) Get(hash types.Hash) (*Node, bool) {
	n, ok := t.nodes[hash]
	return n, ok
}

// Len returns the number of nodes currently tracked.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// AddGenesis seeds the tree with the root node. Must be called exactly
// once, before any AddBlock call.
func (t *Tree) AddGenesis(b *block.BlockData) *Node {
	n := &Node{Hash: b.Hash, PrevHash: b.PrevHash, Height: b.Index, Score: ScoreOf(b)}
	n.SubtreeScore = n.Score
	t.nodes[n.Hash] = n
	t.leaves[n.Hash] = n
	t.insertOrder = append(t.insertOrder, n.Hash)
	return n
}

// AddBlock links b to its parent, updates the leaf set, and propagates
// its score up through every ancestor's SubtreeScore. Returns the
// new node, or an error if b's parent is unknown.
func (t *Tree) AddBlock(b *block.BlockData) (*Node, error) {
	if _, exists := t.nodes[b.Hash]; exists {
		return nil, types.NewError(types.ErrConflicting, "block %x already in tree", b.Hash)
	}
	parent, ok := t.nodes[b.PrevHash]
	if !ok {
		return nil, types.NewError(types.ErrInvalidBlockIndex, "block %x: parent %x not in tree", b.Hash, b.PrevHash)
	}

	n := &Node{Hash: b.Hash, PrevHash: b.PrevHash, Height: b.Index, Score: ScoreOf(b), Parent: parent}
	n.SubtreeScore = n.Score

	parent.Children = append(parent.Children, n)
	delete(t.leaves, parent.Hash)
	t.leaves[n.Hash] = n

	for anc := parent; anc != nil; anc = anc.Parent {
		anc.SubtreeScore += n.Score
	}

	t.nodes[n.Hash] = n
	t.insertOrder = append(t.insertOrder, n.Hash)
	t.evictIfNeeded()

	return n, nil
}

// evictIfNeeded drops the oldest-inserted non-leaf nodes once the tree
// exceeds maxBlocks, bounding memory.
// Leaves are never evicted: fork choice and reorg-path walks need every
// current leaf's ancestry back at least to the most recent common
// ancestor, and a leaf is by definition still reachable from a future
// block.
func (t *Tree) evictIfNeeded() {
	if t.maxBlocks <= 0 {
		return
	}
	i := 0
	for len(t.nodes) > t.maxBlocks && i < len(t.insertOrder) {
		hash := t.insertOrder[i]
		n, ok := t.nodes[hash]
		if !ok {
			i++
			continue
		}
		if _, isLeaf := t.leaves[hash]; isLeaf {
			i++
			continue
		}
		delete(t.nodes, hash)
		if n.Parent != nil {
			for ci, c := range n.Parent.Children {
				if c.Hash == hash {
					n.Parent.Children = append(n.Parent.Children[:ci], n.Parent.Children[ci+1:]...)
					break
				}
			}
		}
		i++
	}
	if i > 0 {
		t.insertOrder = t.insertOrder[i:]
	}
}

// better reports whether a is strictly preferred to b:
// greater SubtreeScore, then greater Height, then lexicographically
// greater hash, for full determinism.
func better(a, b *Node) bool {
	if a.SubtreeScore != b.SubtreeScore {
		return a.SubtreeScore > b.SubtreeScore
	}
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	return bytes.Compare(a.Hash[:], b.Hash[:]) > 0
}

// FindBestBlock returns the leaf with maximum SubtreeScore, ties broken by
// greater height then hash order. Returns the zero hash if
// the tree is empty.
func (t *Tree) FindBestBlock() types.Hash {
	var best *Node
	for _, leaf := range t.leaves {
		if best == nil || better(leaf, best) {
			best = leaf
		}
	}
	if best == nil {
		return types.Hash{}
	}
	return best.Hash
}

// ShouldReorg reports whether candidateTip is strictly better than
// currentTip under the fork-choice order.
func (t *Tree) ShouldReorg(currentTip, candidateTip types.Hash) bool {
	cur, ok1 := t.nodes[currentTip]
	cand, ok2 := t.nodes[candidateTip]
	if !ok2 {
		return false
	}
	if !ok1 {
		return true
	}
	return better(cand, cur)
}
