package utxo

import (
	"fmt"

	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// NewStake is a newly created VSS stake output surfaced by a digest, for
// the caller to register with the stake spectrum.
type NewStake struct {
	Address types.Address
	Anchor  types.Anchor
	Amount  uint64
}

// DigestFinalizedBlocks applies each block's transactions to the cache in
// order: consumed anchors are removed, created outputs are
// inserted, and the per-block mining-data point is recorded. After each
// block the conservation invariant is checked; on
// violation the whole batch is discarded and the cache is left untouched
// — callers never observe a partially-applied digest.
func (c *Cache) DigestFinalizedBlocks(blocks []*block.BlockData) ([]NewStake, error) {
	working := c.Clone()
	var stakes []NewStake

	for _, b := range blocks {
		blockStakes, err := working.digestOne(b)
		if err != nil {
			return nil, fmt.Errorf("digest block %d: %w", b.Index, err)
		}
		stakes = append(stakes, blockStakes...)

		expected := b.Supply + b.CoinBase
		if got := working.TotalBalance(); got != expected {
			return nil, types.NewError(types.ErrInvariantViolation,
				"block %d: total balance %d != supply+coinBase %d", b.Index, got, expected)
		}

		working.pushMiningData(MiningDataPoint{
			Index:        b.Index,
			Difficulty:   b.Difficulty,
			Timestamp:    b.Timestamp,
			PosTimestamp: b.PosTimestamp,
		})
	}

	c.RestoreFrom(working)
	return stakes, nil
}

// digestOne applies a single block's transactions, in order, to the
// (already-cloned) working cache.
func (c *Cache) digestOne(b *block.BlockData) ([]NewStake, error) {
	var stakes []NewStake

	for _, tx := range b.Txs {
		if !tx.IsSentinel() {
			consumed := make(map[types.Anchor]struct{}, len(tx.Inputs))
			for _, in := range tx.Inputs {
				if _, dup := consumed[in.Anchor]; dup {
					return nil, types.NewError(types.ErrMalformed, "duplicate input anchor %s in tx %s", in.Anchor, tx.IDHex())
				}
				consumed[in.Anchor] = struct{}{}

				if _, ok := c.Get(in.Anchor); !ok {
					return nil, types.NewError(types.ErrUnresolvedInput, "input anchor %s in tx %s", in.Anchor, tx.IDHex())
				}
				c.remove(in.Anchor)
			}
		}

		for outIdx, out := range tx.Outputs {
			if out.Amount == 0 {
				continue
			}
			u := contrasttx.NewUTXO(out, b.Index, tx.ID, uint32(outIdx))
			u.NewlyMinted = tx.IsSentinel()
			c.insert(u)

			if out.Rule == types.RuleSigOrSlash && outIdx == 0 {
				stakes = append(stakes, NewStake{
					Address: out.Address,
					Anchor:  u.Anchor,
					Amount:  out.Amount,
				})
			}
		}
	}

	return stakes, nil
}
