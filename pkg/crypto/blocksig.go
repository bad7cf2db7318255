package crypto

import "crypto/sha256"

// BlockSignature computes the SHA-256 block signature over the canonical
// field concatenation used both as the PoS hash preimage and as the
// Argon2id mining preimage. All participating nodes must agree on this
// byte-for-byte, so it is pinned to SHA-256 rather than left to an
// implementation's choice of general-purpose hash.
func BlockSignature(fields ...[]byte) [32]byte {
	h := sha256.New()
	for _, f := range fields {
		h.Write(f)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// TxsHash hashes the concatenation of transaction id prefixes included in
// a block signature (coinbase, and for the PoS hash also the PoS-reward
// tx, are excluded by the caller before this is invoked).
func TxsHash(idPrefixes [][]byte) [32]byte {
	return BlockSignature(idPrefixes...)
}
