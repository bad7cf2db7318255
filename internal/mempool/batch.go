package mempool

import (
	"sort"

	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
)

// batchFillTarget is the fraction of maxBlockSize the packer stops at once
// reached, rather than continuing to search for ever-smaller transactions
// to top off the last few bytes.
const batchFillTarget = 0.98

// GetMostLucrativeTransactionsBatch iterates fee buckets from high to low
// fee-per-byte, packing transactions whose cumulative byte weight stays at
// or under maxBlockSize, stopping once the 98% fill target is reached or
// every candidate has been considered.
func (p *Pool) GetMostLucrativeTransactionsBatch() []*contrasttx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.txsByID) == 0 {
		return nil
	}

	buckets := make([]contrasttx.FixedPoint6, 0, len(p.feeBuckets))
	for fee := range p.feeBuckets {
		buckets = append(buckets, fee)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] > buckets[j] })

	fillTarget := uint64(float64(p.maxBlockSize) * batchFillTarget)

	var batch []*contrasttx.Transaction
	var cumulative uint64
	for _, fee := range buckets {
		if cumulative >= fillTarget {
			break
		}
		for _, tx := range p.feeBuckets[fee] {
			weight := uint64(tx.ByteWeight)
			if cumulative+weight > p.maxBlockSize {
				continue
			}
			batch = append(batch, tx)
			cumulative += weight
			if cumulative >= fillTarget {
				break
			}
		}
	}
	return batch
}
