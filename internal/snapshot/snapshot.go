// Package snapshot implements the periodic point-in-time copies of the
// UTXO cache and VSS spectrum that reorg restores roll back to,
// rather than replaying undo data block by block.
package snapshot

import (
	"github.com/contrast-network/contrast-chain/internal/utxo"
	"github.com/contrast-network/contrast-chain/internal/vss"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// snapshot is one stored point-in-time copy, keyed by the height it was
// taken after.
type snapshot struct {
	height int64
	utxos  *utxo.Cache
	vss    *vss.Spectrum
}

// Manager owns a bounded set of snapshots keyed by block height, taken
// every SnapshotInterval blocks, and used to restore state on reorg.
// Modeled as an in-memory bounded history rather than a single durable
// checkpoint, since more than one snapshot needs to be held at once.
type Manager struct {
	interval uint64
	maxKept  int

	order []int64
	byH   map[int64]*snapshot
}

// NewManager creates a manager taking a snapshot every interval blocks and
// retaining at most maxKept of them.
func NewManager(interval uint64, maxKept int) *Manager {
	if interval == 0 {
		interval = 1
	}
	if maxKept <= 0 {
		maxKept = 1
	}
	return &Manager{
		interval: interval,
		maxKept:  maxKept,
		byH:      make(map[int64]*snapshot),
	}
}

// ShouldSnapshotAt reports whether height h is a snapshot boundary
// (h mod SNAPSHOT_INTERVAL == 0).
func (m *Manager) ShouldSnapshotAt(h uint64) bool {
	return h%m.interval == 0
}

// TakeSnapshot deep-copies utxoCache and spectrum and stores them keyed by
// height, evicting the oldest snapshot once more than maxKept are held.
func (m *Manager) TakeSnapshot(height uint64, utxoCache *utxo.Cache, spectrum *vss.Spectrum) {
	h := int64(height)
	if _, exists := m.byH[h]; !exists {
		m.order = append(m.order, h)
	}
	m.byH[h] = &snapshot{
		height: h,
		utxos:  utxoCache.Clone(),
		vss:    spectrum.Clone(),
	}
	for len(m.order) > m.maxKept {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.byH, oldest)
	}
}

// RestoreSnapshot overwrites utxoCache and spectrum with the snapshot
// stored at height. Returns ErrSnapshotMissing if no snapshot was taken at
// that exact height; the manager itself does no replay to fill the gap.
func (m *Manager) RestoreSnapshot(height uint64, utxoCache *utxo.Cache, spectrum *vss.Spectrum) error {
	snap, ok := m.byH[int64(height)]
	if !ok {
		return types.NewError(types.ErrSnapshotMissing, "no snapshot stored at height %d", height)
	}
	utxoCache.RestoreFrom(snap.utxos)
	spectrum.RestoreFrom(snap.vss)
	return nil
}

// HasSnapshotAt reports whether a snapshot is currently held for height.
func (m *Manager) HasSnapshotAt(height uint64) bool {
	_, ok := m.byH[int64(height)]
	return ok
}

// NearestSnapshotAtOrBelow returns the highest retained snapshot height at
// or below height, used to pick a common-ancestor fallback when the exact
// common-ancestor height itself was never a snapshot boundary.
func (m *Manager) NearestSnapshotAtOrBelow(height uint64) (uint64, bool) {
	var best int64 = -1
	for h := range m.byH {
		if h <= int64(height) && h > best {
			best = h
		}
	}
	if best < 0 {
		return 0, false
	}
	return uint64(best), true
}
