package vss

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// minQualifyingStake is the spectrum's minimum highest bound before any
// staker is eligible to be drawn as a round legitimacy.
const minQualifyingStake = 1_000_000

// maxUint256 is 2^256 - 1, used to compute the rejection-sampling ceiling
// the same way the PoW target/threshold comparison does.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// CalculateRoundLegitimacies returns the deterministic, block-hash-seeded
// ranking of stakers eligible to produce the next block. The list is empty
// if the spectrum's highest bound has not yet reached minQualifyingStake.
func (s *Spectrum) CalculateRoundLegitimacies(blockHash []byte, maxLen int) []StakeRef {
	rangeVal := s.HighestBound()
	if rangeVal < minQualifyingStake {
		return nil
	}

	seen := make(map[string]struct{})
	var out []StakeRef

	for r := uint64(0); len(out) < maxLen && len(seen) < len(s.bounds); r++ {
		h := drawRejectionSampledHash(r, blockHash, rangeVal)
		mod := new(big.Int).Mod(h, new(big.Int).SetUint64(rangeVal))

		ref, ok := s.lookup(mod.Uint64())
		if !ok {
			continue
		}
		key := string(ref.Anchor)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// drawRejectionSampledHash computes SHA-256(r || blockHash || k) for
// increasing retry counters k until the result falls below the largest
// multiple of rangeVal not exceeding 2^256, so that `H mod rangeVal` is
// uniform over [0, rangeVal) with no modulo bias — the same
// target/threshold comparison style used for the node's PoW difficulty
// check, applied here to an unbiased-draw problem instead.
func drawRejectionSampledHash(round uint64, blockHash []byte, rangeVal uint64) *big.Int {
	ceiling := rejectionCeiling(rangeVal)

	var roundBytes [8]byte
	binary.LittleEndian.PutUint64(roundBytes[:], round)

	for k := uint64(0); ; k++ {
		var kBytes [8]byte
		binary.LittleEndian.PutUint64(kBytes[:], k)

		h := sha256.New()
		h.Write(roundBytes[:])
		h.Write(blockHash)
		h.Write(kBytes[:])
		sum := h.Sum(nil)

		hashInt := new(big.Int).SetBytes(sum)
		if hashInt.Cmp(ceiling) < 0 {
			return hashInt
		}
	}
}

// rejectionCeiling returns (2^256 / rangeVal) * rangeVal, the largest
// multiple of rangeVal not exceeding 2^256.
func rejectionCeiling(rangeVal uint64) *big.Int {
	r := new(big.Int).SetUint64(rangeVal)
	quotient := new(big.Int).Div(new(big.Int).Add(maxUint256, big.NewInt(1)), r)
	return new(big.Int).Mul(quotient, r)
}

// GetAddressLegitimacy returns the index of addr's first appearance in
// ranked (its legitimacy rank, 0 = best), or len(ranked) if addr does not
// appear — the "last rank" sentinel for non-qualifying stakers.
func GetAddressLegitimacy(ranked []StakeRef, addr string) int {
	for i, ref := range ranked {
		if ref.Address.String() == addr {
			return i
		}
	}
	return len(ranked)
}
