package contrasttx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/contrast-network/contrast-chain/pkg/types"
)

// InputKind tags the variant carried by a TxInput. Inputs are heterogeneous
// (anchor reference vs coinbase nonce vs PoS reference), so the kind is
// dispatched by explicit match rather than inferred from string shape.
type InputKind uint8

const (
	// InputAnchor references a currently-unspent output by its anchor.
	InputAnchor InputKind = iota
	// InputCoinbaseNonce is the sole input of a coinbase transaction: an
	// 8-hex-char nonce with no corresponding UTXO.
	InputCoinbaseNonce
	// InputPosRef is the sole input of a PoS-reward transaction:
	// "<stakedAddress>:<posHash64hex>".
	InputPosRef
)

// CoinbaseNonceSize is the byte length backing an 8-hex-char coinbase nonce.
const CoinbaseNonceSize = 4

// PosHashSize is the byte length of the 64-hex-char PoS hash in a PosRef.
const PosHashSize = 32

// TxInput is the tagged-variant input of a transaction. Exactly one of the
// three shapes is populated, selected by Kind.
type TxInput struct {
	Kind InputKind

	// Anchor populated when Kind == InputAnchor.
	Anchor types.Anchor

	// CoinbaseNonce populated when Kind == InputCoinbaseNonce.
	CoinbaseNonce [CoinbaseNonceSize]byte

	// PosAddress and PosHash populated when Kind == InputPosRef.
	PosAddress types.Address
	PosHash    [PosHashSize]byte
}

// NewAnchorInput builds an InputAnchor-kind input.
func NewAnchorInput(a types.Anchor) TxInput {
	return TxInput{Kind: InputAnchor, Anchor: a}
}

// NewCoinbaseInput builds an InputCoinbaseNonce-kind input.
func NewCoinbaseInput(nonce [CoinbaseNonceSize]byte) TxInput {
	return TxInput{Kind: InputCoinbaseNonce, CoinbaseNonce: nonce}
}

// NewPosRefInput builds an InputPosRef-kind input.
func NewPosRefInput(addr types.Address, posHash [PosHashSize]byte) TxInput {
	return TxInput{Kind: InputPosRef, PosAddress: addr, PosHash: posHash}
}

// IsSentinel reports whether this input is a coinbase or PoS-reward marker
// rather than a reference to a spendable UTXO.
func (in TxInput) IsSentinel() bool {
	return in.Kind == InputCoinbaseNonce || in.Kind == InputPosRef
}

// String renders the canonical wire form of the input.
func (in TxInput) String() string {
	switch in.Kind {
	case InputAnchor:
		return in.Anchor.String()
	case InputCoinbaseNonce:
		return hex.EncodeToString(in.CoinbaseNonce[:])
	case InputPosRef:
		return fmt.Sprintf("%s:%s", in.PosAddress.String(), hex.EncodeToString(in.PosHash[:]))
	default:
		return ""
	}
}

// ParseTxInput dispatches a raw input string to the correct variant.
// An anchor string contains two colons (height:txIDPrefix:outputIndex);
// a PoS reference contains exactly one (address:posHash64hex); anything
// else that decodes as exactly 8 hex characters is a coinbase nonce.
func ParseTxInput(s string) (TxInput, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 3:
		a := types.Anchor(s)
		if _, _, _, err := types.ParseAnchor(a); err != nil {
			return TxInput{}, fmt.Errorf("parse input as anchor: %w", err)
		}
		return NewAnchorInput(a), nil
	case 2:
		addr, err := types.ParseAddress(parts[0])
		if err != nil {
			return TxInput{}, fmt.Errorf("parse PoS input address: %w", err)
		}
		raw, err := hex.DecodeString(parts[1])
		if err != nil || len(raw) != PosHashSize {
			return TxInput{}, fmt.Errorf("malformed PoS input hash %q", parts[1])
		}
		var h [PosHashSize]byte
		copy(h[:], raw)
		return NewPosRefInput(addr, h), nil
	case 1:
		raw, err := hex.DecodeString(parts[0])
		if err != nil || len(raw) != CoinbaseNonceSize {
			return TxInput{}, fmt.Errorf("malformed coinbase nonce %q", parts[0])
		}
		var n [CoinbaseNonceSize]byte
		copy(n[:], raw)
		return NewCoinbaseInput(n), nil
	default:
		return TxInput{}, fmt.Errorf("malformed transaction input %q", s)
	}
}

// MarshalJSON encodes the input as its canonical string form.
func (in TxInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.String())
}

// UnmarshalJSON decodes the canonical string form into the tagged variant.
func (in *TxInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTxInput(s)
	if err != nil {
		return err
	}
	*in = parsed
	return nil
}
