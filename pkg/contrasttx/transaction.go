// Package contrasttx defines the transaction data model: the tagged-variant
// TxInput, TxOutput, and the Transaction envelope that ties them together
// with its id and witnesses.
package contrasttx

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/contrast-network/contrast-chain/pkg/types"
)

// IDSize is the byte length of a transaction id (the prefix-8-hex-char form
// used throughout anchors and block data).
const IDSize = types.TxIDPrefixSize

// Transaction is a full transaction: its id, inputs, outputs, and the
// detached witnesses authorizing its inputs.
type Transaction struct {
	ID        types.TxIDPrefix `json:"id"`
	Version   uint32           `json:"version"`
	Inputs    []TxInput        `json:"inputs"`
	Outputs   []TxOutput       `json:"outputs"`
	Witnesses []Witness        `json:"witnesses"`

	// Mempool-only fields, not part of the canonical wire encoding or id.
	FeePerByte FixedPoint6 `json:"feePerByte,omitempty"`
	ByteWeight uint32      `json:"byteWeight,omitempty"`
}

// IsSentinel reports whether this transaction is a coinbase or PoS-reward
// transaction, identified by its sole input's shape rather than position.
func (tx *Transaction) IsSentinel() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].IsSentinel()
}

// IsCoinbase reports whether this is specifically a coinbase transaction.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].Kind == InputCoinbaseNonce
}

// IsPosReward reports whether this is specifically a PoS-reward transaction.
func (tx *Transaction) IsPosReward() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].Kind == InputPosRef
}

// CanonicalEncoding returns the byte representation of (inputs, outputs,
// version) that the transaction id is derived from. Signatures and pubkeys
// are excluded, since the witnesses authorize this exact byte string.
func (tx *Transaction) CanonicalEncoding() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		s := in.String()
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf = binary.LittleEndian.AppendUint64(buf, out.Amount)
		buf = append(buf, out.Address[:]...)
		buf = append(buf, byte(out.Rule))
		buf = binary.LittleEndian.AppendUint64(buf, out.LockUntilHeight)
	}

	buf = binary.LittleEndian.AppendUint32(buf, tx.Version)

	return buf
}

// ComputeID derives the id: the first IDSize bytes of SHA-256 over
// CanonicalEncoding().
func (tx *Transaction) ComputeID() types.TxIDPrefix {
	sum := sha256.Sum256(tx.CanonicalEncoding())
	var prefix types.TxIDPrefix
	copy(prefix[:], sum[:IDSize])
	return prefix
}

// SetID recomputes and stores the transaction id.
func (tx *Transaction) SetID() {
	tx.ID = tx.ComputeID()
}

// IDMatches reports whether the stored id matches the recomputed one.
func (tx *Transaction) IDMatches() bool {
	return tx.ID == tx.ComputeID()
}

// SigningMessage is the message every witness signature is produced over.
// Schnorr signing requires an exact 32-byte digest, while the transaction
// id is only a 4-byte prefix, so the signing message is the full SHA-256
// of the id rather than the id itself.
func (tx *Transaction) SigningMessage() []byte {
	sum := sha256.Sum256(tx.ID[:])
	return sum[:]
}

// IDHex returns the hex-encoded transaction id.
func (tx *Transaction) IDHex() string {
	return hex.EncodeToString(tx.ID[:])
}
