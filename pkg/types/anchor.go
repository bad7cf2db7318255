package types

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// TxIDPrefixSize is the length, in bytes, of the transaction id prefix used
// inside an anchor (8 hex characters).
const TxIDPrefixSize = 4

// TxIDPrefix is the 8-hex-char prefix of a transaction's full id hash.
type TxIDPrefix [TxIDPrefixSize]byte

// String returns the hex encoding of the prefix.
func (p TxIDPrefix) String() string {
	return hex.EncodeToString(p[:])
}

// Anchor is the stable identifier of a created UTXO, canonically rendered
// as "<blockHeight>:<txIDPrefix8hex>:<outputIndex>". It is globally unique
// once assigned.
type Anchor string

// NewAnchor builds the canonical anchor string for an output.
func NewAnchor(height uint64, prefix TxIDPrefix, outputIndex uint32) Anchor {
	return Anchor(fmt.Sprintf("%d:%s:%d", height, prefix.String(), outputIndex))
}

// ParseAnchor splits an anchor string back into its components.
func ParseAnchor(a Anchor) (height uint64, prefix TxIDPrefix, outputIndex uint32, err error) {
	parts := strings.Split(string(a), ":")
	if len(parts) != 3 {
		return 0, prefix, 0, fmt.Errorf("malformed anchor %q: expected 3 colon-separated fields", a)
	}
	height, err = strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, prefix, 0, fmt.Errorf("malformed anchor height %q: %w", parts[0], err)
	}
	raw, err := hex.DecodeString(parts[1])
	if err != nil || len(raw) != TxIDPrefixSize {
		return 0, prefix, 0, fmt.Errorf("malformed anchor tx prefix %q", parts[1])
	}
	copy(prefix[:], raw)
	idx, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, prefix, 0, fmt.Errorf("malformed anchor output index %q: %w", parts[2], err)
	}
	outputIndex = uint32(idx)
	return height, prefix, outputIndex, nil
}

// IsZero reports whether the anchor is the empty string.
func (a Anchor) IsZero() bool {
	return a == ""
}

func (a Anchor) String() string {
	return string(a)
}
