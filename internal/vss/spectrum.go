// Package vss implements the Validator Selection Spectrum: a cumulative
// stake-range map used to draw a deterministic, block-hash-seeded ranking
// of stakers ("legitimacies") for block production.
package vss

import (
	"fmt"
	"math"

	"github.com/contrast-network/contrast-chain/pkg/types"
)

// StakeRef identifies the owner and originating UTXO of a stake range.
type StakeRef struct {
	Address types.Address
	Anchor  types.Anchor
}

// bound is one entry of the spectrum: the cumulative upper bound reached by
// stacking this stake on top of all stakes registered before it.
type bound struct {
	upper uint64
	ref   StakeRef
}

// Spectrum is the sparse ordered map from cumulative upper bound to
// StakeRef. Stake is appended in registration order; range is always
// [previous upper bound, upper).
type Spectrum struct {
	bounds []bound
}

// New creates an empty spectrum.
func New() *Spectrum {
	return &Spectrum{}
}

// HighestBound returns the spectrum's current upper bound (0 if empty).
func (s *Spectrum) HighestBound() uint64 {
	if len(s.bounds) == 0 {
		return 0
	}
	return s.bounds[len(s.bounds)-1].upper
}

// Register extends the spectrum with a new stake of amount, owned by ref.
// It fails if the new cumulative bound would reach or exceed maxSupply,
// or if amount would overflow the running total — mirroring the
// overflow-guarded summation pattern used for stake-sufficiency checks
// elsewhere in this tree.
func (s *Spectrum) Register(amount uint64, ref StakeRef, maxSupply uint64) error {
	prev := s.HighestBound()
	if amount > math.MaxUint64-prev {
		return fmt.Errorf("vss: stake registration overflow")
	}
	next := prev + amount
	if next >= maxSupply {
		return fmt.Errorf("vss: stake registration would reach max supply")
	}
	s.bounds = append(s.bounds, bound{upper: next, ref: ref})
	return nil
}

// Clone deep-copies the spectrum — the basis of the snapshot manager's
// point-in-time copies, mirroring `internal/utxo.Cache.Clone`.
func (s *Spectrum) Clone() *Spectrum {
	return &Spectrum{bounds: append([]bound(nil), s.bounds...)}
}

// RestoreFrom overwrites the spectrum's state with a clone of other — used
// by the snapshot manager's restore path on reorg.
func (s *Spectrum) RestoreFrom(other *Spectrum) {
	s.bounds = other.Clone().bounds
}

// lookup returns the StakeRef owning the range containing value, via binary
// search over the sorted cumulative bounds.
func (s *Spectrum) lookup(value uint64) (StakeRef, bool) {
	lo, hi := 0, len(s.bounds)
	for lo < hi {
		mid := (lo + hi) / 2
		if value < s.bounds[mid].upper {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo >= len(s.bounds) {
		return StakeRef{}, false
	}
	return s.bounds[lo].ref, true
}
