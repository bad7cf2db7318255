package crypto

import "golang.org/x/crypto/argon2"

// Argon2id tuning for the mining hash. These are not consensus-critical in
// the sense of being negotiated on-chain, but every node must run the same
// parameters or will disagree on which blocks are valid, so they are
// compile-time constants rather than configuration.
const (
	powTimeCost   = 1
	powMemoryKiB  = 64 * 1024
	powThreads    = 4
	powOutputSize = 32
)

// MinerHash computes the Argon2id proof-of-work hash over the block
// signature and the nonce material (header nonce concatenated with the
// coinbase nonce). This is the hash the difficulty predicate is evaluated
// against.
func MinerHash(blockSignature [32]byte, headerNonce, coinbaseNonce []byte) [32]byte {
	salt := make([]byte, 0, len(headerNonce)+len(coinbaseNonce))
	salt = append(salt, headerNonce...)
	salt = append(salt, coinbaseNonce...)

	sum := argon2.IDKey(blockSignature[:], salt, powTimeCost, powMemoryKiB, powThreads, powOutputSize)
	var out [32]byte
	copy(out[:], sum)
	return out
}

// bitAt returns bit i of hash, counting from 0 at the most significant bit
// of hash[0] (big-endian bit order). i must be < len(hash)*8.
func bitAt(hash [32]byte, i uint64) uint8 {
	byteIdx := i / 8
	shift := 7 - (i % 8)
	return (hash[byteIdx] >> shift) & 1
}

// MeetsDifficulty reports whether hash satisfies the bit-level proof-of-work
// predicate at the given difficulty. Interpreting hash in big-endian bit
// order as a bit-string: Z = difficulty/16 is the number of required
// leading zero bits, and A = difficulty%16 is a bias adjustment. The hash is
// valid iff its first Z bits are all zero and the next 4 bits, read
// big-endian as an integer in [0,15], are >= A. Every implementation must
// match this byte-for-byte, so bits are walked one at a time rather than
// through byte-level shifting that is easy to get off by one.
func MeetsDifficulty(hash [32]byte, difficulty uint64) bool {
	z := difficulty / 16
	a := difficulty % 16

	totalBits := uint64(len(hash)) * 8
	if z+4 > totalBits {
		return false
	}

	for i := uint64(0); i < z; i++ {
		if bitAt(hash, i) != 0 {
			return false
		}
	}

	var nibble uint64
	for i := uint64(0); i < 4; i++ {
		nibble = (nibble << 1) | uint64(bitAt(hash, z+i))
	}
	return nibble >= a
}
