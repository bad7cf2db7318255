// Package block defines the BlockData type: a block's header fields plus
// its transaction list, and the signature/mining-hash computations derived
// from them.
package block

import (
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// HeaderNonceSize is the byte length of a block's random header nonce.
const HeaderNonceSize = 4

// BlockData is a full block: header fields plus its transaction list. A
// block may carry a PoS-reward transaction and a coinbase transaction
// (genesis has no PoS-reward transaction). Both are identified by their
// sole input's shape (contrasttx.TxInput.Kind), not by position.
type BlockData struct {
	Index        uint64                `json:"index"`
	Supply       uint64                `json:"supply"`
	CoinBase     uint64                `json:"coinBase"`
	Difficulty   uint64                `json:"difficulty"`
	Legitimacy   uint32                `json:"legitimacy"`
	PrevHash     types.Hash            `json:"prevHash"`
	PosTimestamp uint64                `json:"posTimestamp"`
	Timestamp    uint64                `json:"timestamp"`
	Hash         types.Hash            `json:"hash"`
	HeaderNonce  [HeaderNonceSize]byte `json:"headerNonce"`

	Txs []*contrasttx.Transaction `json:"txs"`
}

// PosRewardTx returns the block's PoS-reward transaction, identified by its
// sole PosRef-kind input, or nil if none is present (e.g. genesis).
func (b *BlockData) PosRewardTx() *contrasttx.Transaction {
	for _, tx := range b.Txs {
		if tx.IsPosReward() {
			return tx
		}
	}
	return nil
}

// CoinbaseTx returns the block's coinbase transaction, identified by its
// sole CoinbaseNonce-kind input, or nil if none is present.
func (b *BlockData) CoinbaseTx() *contrasttx.Transaction {
	for _, tx := range b.Txs {
		if tx.IsCoinbase() {
			return tx
		}
	}
	return nil
}

// CoinbaseNonce returns the coinbase transaction's nonce, or the zero nonce
// if the block has no coinbase transaction.
func (b *BlockData) CoinbaseNonce() [contrasttx.CoinbaseNonceSize]byte {
	if cb := b.CoinbaseTx(); cb != nil {
		return cb.Inputs[0].CoinbaseNonce
	}
	return [contrasttx.CoinbaseNonceSize]byte{}
}

// NonSentinelTxs returns the block's transactions excluding coinbase and
// PoS-reward sentinels, in order.
func (b *BlockData) NonSentinelTxs() []*contrasttx.Transaction {
	out := make([]*contrasttx.Transaction, 0, len(b.Txs))
	for _, tx := range b.Txs {
		if !tx.IsSentinel() {
			out = append(out, tx)
		}
	}
	return out
}
