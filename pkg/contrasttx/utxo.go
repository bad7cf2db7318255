package contrasttx

import "github.com/contrast-network/contrast-chain/pkg/types"

// UTXO is an unspent output: the same shape as TxOutput plus the anchor it
// was assigned on creation and whether it was newly minted by a coinbase
// or PoS-reward transaction (relevant only to the maturity check — not
// part of any canonical encoding or signing message).
type UTXO struct {
	TxOutput
	Anchor      types.Anchor `json:"anchor"`
	NewlyMinted bool         `json:"newlyMinted,omitempty"`
}

// NewUTXO assigns an anchor to an output created at the given block height
// by the given transaction, at the given output index.
func NewUTXO(out TxOutput, height uint64, txID types.TxIDPrefix, outputIndex uint32) UTXO {
	return UTXO{
		TxOutput: out,
		Anchor:   types.NewAnchor(height, txID, outputIndex),
	}
}
