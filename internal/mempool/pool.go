// Package mempool manages pending transactions waiting for block inclusion:
// admission validates a Tx against the current UTXO snapshot and
// indexes it by id, by fee-per-byte bucket, and by the anchors it spends.
package mempool

import (
	"sync"

	"github.com/contrast-network/contrast-chain/config"
	"github.com/contrast-network/contrast-chain/internal/utxo"
	"github.com/contrast-network/contrast-chain/internal/validate"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// Pool is the mempool: pending transactions indexed by id, by input
// anchor, and by fee-per-byte bucket, plus the shared witness pubkey
// cache. Ownership is exclusive to the node's task loop;
// admission is expected to be serialized by the caller's task queue, so Pool's
// lock only needs to guard against concurrent read-only reporting calls.
type Pool struct {
	mu sync.RWMutex

	txsByID    map[types.TxIDPrefix]*contrasttx.Transaction
	txByAnchor map[types.Anchor]types.TxIDPrefix
	feeBuckets map[contrasttx.FixedPoint6][]*contrasttx.Transaction

	pubKeys *validate.PubKeyCache

	minFeePerByte contrasttx.FixedPoint6
	maxBlockSize  uint64
	maxSupply     uint64
	useDevHash    bool

	height uint64
}

// New creates an empty pool configured from the chain's consensus rules.
// useDevHash selects the cheaper BLAKE3 devnet address derivation over
// the production Argon2id one, matching the network's setting.
func New(rules config.ConsensusRules, useDevHash bool) *Pool {
	return &Pool{
		txsByID:       make(map[types.TxIDPrefix]*contrasttx.Transaction),
		txByAnchor:    make(map[types.Anchor]types.TxIDPrefix),
		feeBuckets:    make(map[contrasttx.FixedPoint6][]*contrasttx.Transaction),
		pubKeys:       validate.NewPubKeyCacheWithCap(rules.MaxKnownPubKeys),
		minFeePerByte: contrasttx.FixedPoint6(rules.MinFeePerByte),
		maxBlockSize:  rules.MaxBlockSize,
		maxSupply:     rules.MaxSupply,
		useDevHash:    useDevHash,
	}
}

// SetHeight records the height of the last digested block, so subsequently
// admitted transactions are checked against the current coinbase-maturity
// window. The node's task loop calls this after every successful digest.
func (p *Pool) SetHeight(height uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.height = height
}

// Count returns the number of transactions currently admitted.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txsByID)
}

// Has reports whether a transaction with the given id is in the pool.
func (p *Pool) Has(id types.TxIDPrefix) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.txsByID[id]
	return ok
}

// Get returns the pooled transaction with the given id, if present.
func (p *Pool) Get(id types.TxIDPrefix) (*contrasttx.Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tx, ok := p.txsByID[id]
	return tx, ok
}

// PushTransaction runs full admission against cache and,
// on success, indexes tx by id, anchor, and fee bucket (step 5).
func (p *Pool) PushTransaction(cache *utxo.Cache, tx *contrasttx.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := validate.IsWellFormedTransaction(cache, tx, false, p.maxSupply, p.height+1, config.CoinbaseMaturity); err != nil {
		return err
	}

	if _, exists := p.txsByID[tx.ID]; exists {
		return types.NewError(types.ErrConflicting, "tx %s already in mempool", tx.IDHex())
	}
	for _, in := range tx.Inputs {
		if conflictID, exists := p.txByAnchor[in.Anchor]; exists {
			return types.NewError(types.ErrConflicting, "tx %s: input anchor %s already spent by mempool tx %x", tx.IDHex(), in.Anchor, conflictID)
		}
	}

	fee, err := validate.RemainingAmount(cache, tx)
	if err != nil {
		return err
	}
	byteWeight := contrasttx.EstimateByteWeight(tx)
	feePerByte, err := contrasttx.NewFeePerByte(fee, byteWeight)
	if err != nil {
		return types.WrapError(types.ErrMalformed, err, "tx %s: computing fee per byte", tx.IDHex())
	}
	if feePerByte < p.minFeePerByte {
		return types.NewError(types.ErrInsufficientFunds, "tx %s: fee per byte %d below minimum %d", tx.IDHex(), feePerByte, p.minFeePerByte)
	}
	tx.FeePerByte = feePerByte
	tx.ByteWeight = byteWeight

	if err := validate.ControlTxOutputRules(tx, fee); err != nil {
		return err
	}
	if err := validate.ControlAllWitnesses(tx); err != nil {
		return err
	}
	if err := validate.AddressOwnershipConfirmation(cache, tx, p.pubKeys, p.useDevHash); err != nil {
		return err
	}

	p.txsByID[tx.ID] = tx
	for _, in := range tx.Inputs {
		p.txByAnchor[in.Anchor] = tx.ID
	}
	p.feeBuckets[feePerByte] = append(p.feeBuckets[feePerByte], tx)

	return nil
}

// ClearTransactionsWhoseUTXOsAreSpent purges any pooled transaction whose
// input anchor no longer resolves against cache.
func (p *Pool) ClearTransactionsWhoseUTXOsAreSpent(cache *utxo.Cache) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stale []types.TxIDPrefix
	for id, tx := range p.txsByID {
		for _, in := range tx.Inputs {
			if _, ok := cache.Get(in.Anchor); !ok {
				stale = append(stale, id)
				break
			}
		}
	}
	for _, id := range stale {
		p.removeLocked(id)
	}
	return len(stale)
}

// DigestFinalizedBlocksTransactions drops any pooled transaction that
// collides, by input anchor, with a non-sentinel transaction newly
// finalized in blocks.
func (p *Pool) DigestFinalizedBlocksTransactions(blocks []*block.BlockData) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for _, b := range blocks {
		for _, tx := range b.NonSentinelTxs() {
			for _, in := range tx.Inputs {
				if id, ok := p.txByAnchor[in.Anchor]; ok {
					p.removeLocked(id)
					removed++
				}
			}
		}
	}
	return removed
}

// removeLocked removes a transaction from all indices. Caller must hold
// p.mu.
func (p *Pool) removeLocked(id types.TxIDPrefix) {
	tx, ok := p.txsByID[id]
	if !ok {
		return
	}
	delete(p.txsByID, id)
	for _, in := range tx.Inputs {
		delete(p.txByAnchor, in.Anchor)
	}

	bucket := p.feeBuckets[tx.FeePerByte]
	for i, candidate := range bucket {
		if candidate.ID == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(p.feeBuckets, tx.FeePerByte)
	} else {
		p.feeBuckets[tx.FeePerByte] = bucket
	}
}
