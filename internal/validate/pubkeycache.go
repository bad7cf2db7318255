package validate

import "github.com/contrast-network/contrast-chain/pkg/types"

// PubKeyCache remembers pubKey -> address derivations already confirmed by
// AddressOwnershipConfirmation, so repeat witnesses from the same signer
// skip re-deriving the address. When built with a positive cap it also
// implements a soft-cap/10%-hysteresis FIFO trim itself
// (MAX_KNOWN_PUBKEYS ≈ 10^6): the mempool just owns the long-lived
// instance, it doesn't need to reimplement the eviction policy.
type PubKeyCache struct {
	byPubKey map[string]types.Address
	order    []string
	maxSize  int
}

// NewPubKeyCache creates an unbounded cache (no eviction).
func NewPubKeyCache() *PubKeyCache {
	return NewPubKeyCacheWithCap(0)
}

// NewPubKeyCacheWithCap creates a cache that trims oldest-first once its
// size exceeds maxSize by more than 10%, down to maxSize. maxSize <= 0
// means unbounded.
func NewPubKeyCacheWithCap(maxSize int) *PubKeyCache {
	return &PubKeyCache{byPubKey: make(map[string]types.Address), maxSize: maxSize}
}

// Get returns the cached address for a compressed pubkey, if known.
func (c *PubKeyCache) Get(pubKey []byte) (types.Address, bool) {
	addr, ok := c.byPubKey[string(pubKey)]
	return addr, ok
}

// Put records the address a pubkey was confirmed to derive to.
func (c *PubKeyCache) Put(pubKey []byte, addr types.Address) {
	key := string(pubKey)
	if _, exists := c.byPubKey[key]; !exists {
		c.order = append(c.order, key)
	}
	c.byPubKey[key] = addr
	c.trimIfNeeded()
}

// Len reports the number of cached entries.
func (c *PubKeyCache) Len() int {
	return len(c.byPubKey)
}

// Delete removes an entry.
func (c *PubKeyCache) Delete(pubKey []byte) {
	delete(c.byPubKey, string(pubKey))
}

// trimIfNeeded evicts the oldest entries, FIFO, once the cache has grown
// more than 10% past maxSize, bringing it back down to exactly maxSize.
// The hysteresis band avoids trimming on every single insertion once the
// cache is near capacity.
func (c *PubKeyCache) trimIfNeeded() {
	if c.maxSize <= 0 {
		return
	}
	hysteresisCeiling := c.maxSize + c.maxSize/10
	if len(c.byPubKey) <= hysteresisCeiling {
		return
	}
	for len(c.byPubKey) > c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.byPubKey, oldest)
	}
}
