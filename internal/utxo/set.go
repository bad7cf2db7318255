// Package utxo implements the UTXO cache: the address- and anchor-indexed
// view of every currently-unspent output, plus the finalized-block digest
// protocol that keeps it, the balance tally, and the bounded mining-data
// window consistent.
package utxo

import (
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// MiningDataPoint is one entry of the bounded difficulty-adjustment window:
// a committed block's timing and difficulty.
type MiningDataPoint struct {
	Index        uint64
	Difficulty   uint64
	Timestamp    uint64
	PosTimestamp uint64
}

// Cache is the UTXO cache: address- and anchor-indexed unspent outputs,
// the per-address balance tally, and the bounded mining-data window used
// by difficulty adjustment. It is owned exclusively by the node's task
// loop; nothing else mutates it directly.
type Cache struct {
	addressesUTXOs    map[types.Address][]contrasttx.UTXO
	addressesBalances map[types.Address]uint64
	utxosByAnchor     map[types.Anchor]contrasttx.UTXO

	miningData   []MiningDataPoint
	miningWindow int
}

// DefaultMiningWindow bounds the in-memory blockMiningData sequence used
// by difficulty adjustment.
const DefaultMiningWindow = 128

// New creates an empty UTXO cache.
func New() *Cache {
	return NewWithMiningWindow(DefaultMiningWindow)
}

// NewWithMiningWindow creates an empty cache with a custom mining-data
// window size (mainly for tests that want to observe eviction quickly).
func NewWithMiningWindow(window int) *Cache {
	return &Cache{
		addressesUTXOs:    make(map[types.Address][]contrasttx.UTXO),
		addressesBalances: make(map[types.Address]uint64),
		utxosByAnchor:     make(map[types.Anchor]contrasttx.UTXO),
		miningWindow:      window,
	}
}

// Get returns the UTXO for anchor, if it currently resolves.
func (c *Cache) Get(anchor types.Anchor) (contrasttx.UTXO, bool) {
	u, ok := c.utxosByAnchor[anchor]
	return u, ok
}

// Balance returns the address's current spendable balance.
func (c *Cache) Balance(addr types.Address) uint64 {
	return c.addressesBalances[addr]
}

// UTXOsByAddress returns a copy of the address's UTXO list.
func (c *Cache) UTXOsByAddress(addr types.Address) []contrasttx.UTXO {
	list := c.addressesUTXOs[addr]
	out := make([]contrasttx.UTXO, len(list))
	copy(out, list)
	return out
}

// TotalBalance sums every address's balance, the left-hand side of the
// conservation invariant (balances sum to supply + coinbase).
func (c *Cache) TotalBalance() uint64 {
	var total uint64
	for _, bal := range c.addressesBalances {
		total += bal
	}
	return total
}

// MiningData returns a copy of the bounded mining-data window, oldest first.
func (c *Cache) MiningData() []MiningDataPoint {
	out := make([]MiningDataPoint, len(c.miningData))
	copy(out, c.miningData)
	return out
}

// insert adds a UTXO into both indices and credits the balance.
func (c *Cache) insert(u contrasttx.UTXO) {
	c.addressesUTXOs[u.Address] = append(c.addressesUTXOs[u.Address], u)
	c.addressesBalances[u.Address] += u.Amount
	c.utxosByAnchor[u.Anchor] = u
}

// remove deletes the UTXO at anchor from both indices and debits the
// balance. It is a no-op if the anchor is already absent.
func (c *Cache) remove(anchor types.Anchor) {
	u, ok := c.utxosByAnchor[anchor]
	if !ok {
		return
	}
	delete(c.utxosByAnchor, anchor)
	c.addressesBalances[u.Address] -= u.Amount

	list := c.addressesUTXOs[u.Address]
	for i, cand := range list {
		if cand.Anchor == anchor {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.addressesUTXOs, u.Address)
	} else {
		c.addressesUTXOs[u.Address] = list
	}
}

// pushMiningData appends a data point, evicting the oldest entry once the
// window is full.
func (c *Cache) pushMiningData(p MiningDataPoint) {
	c.miningData = append(c.miningData, p)
	if len(c.miningData) > c.miningWindow {
		c.miningData = c.miningData[len(c.miningData)-c.miningWindow:]
	}
}

// Clone deep-copies the cache — the basis of the snapshot manager's
// point-in-time copies.
func (c *Cache) Clone() *Cache {
	clone := &Cache{
		addressesUTXOs:    make(map[types.Address][]contrasttx.UTXO, len(c.addressesUTXOs)),
		addressesBalances: make(map[types.Address]uint64, len(c.addressesBalances)),
		utxosByAnchor:     make(map[types.Anchor]contrasttx.UTXO, len(c.utxosByAnchor)),
		miningData:        append([]MiningDataPoint(nil), c.miningData...),
		miningWindow:      c.miningWindow,
	}
	for addr, list := range c.addressesUTXOs {
		clone.addressesUTXOs[addr] = append([]contrasttx.UTXO(nil), list...)
	}
	for addr, bal := range c.addressesBalances {
		clone.addressesBalances[addr] = bal
	}
	for anchor, u := range c.utxosByAnchor {
		clone.utxosByAnchor[anchor] = u
	}
	return clone
}

// RestoreFrom overwrites the cache's state with a clone of other — used by
// the snapshot manager's restore path on reorg.
func (c *Cache) RestoreFrom(other *Cache) {
	clone := other.Clone()
	c.addressesUTXOs = clone.addressesUTXOs
	c.addressesBalances = clone.addressesBalances
	c.utxosByAnchor = clone.utxosByAnchor
	c.miningData = clone.miningData
	c.miningWindow = clone.miningWindow
}
