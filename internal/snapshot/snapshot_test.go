package snapshot

import (
	"testing"

	"github.com/contrast-network/contrast-chain/internal/utxo"
	"github.com/contrast-network/contrast-chain/internal/vss"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func coinbaseTx(reward uint64, to types.Address, nonce byte) *contrasttx.Transaction {
	tx := &contrasttx.Transaction{
		Version: 1,
		Inputs:  []contrasttx.TxInput{contrasttx.NewCoinbaseInput([4]byte{nonce})},
		Outputs: []contrasttx.TxOutput{{Amount: reward, Address: to, Rule: types.RuleSig}},
	}
	tx.SetID()
	return tx
}

func TestManager_ShouldSnapshotAt(t *testing.T) {
	m := NewManager(100, 5)
	if !m.ShouldSnapshotAt(0) || !m.ShouldSnapshotAt(100) || !m.ShouldSnapshotAt(200) {
		t.Error("expected multiples of interval to be snapshot boundaries")
	}
	if m.ShouldSnapshotAt(101) {
		t.Error("did not expect a non-multiple height to be a snapshot boundary")
	}
}

func TestManager_TakeAndRestoreSnapshot(t *testing.T) {
	m := NewManager(1, 5)

	cache := utxo.New()
	a := addr(1)
	genesis := &block.BlockData{Index: 0, Supply: 0, CoinBase: 1000, Txs: []*contrasttx.Transaction{coinbaseTx(1000, a, 1)}}
	if _, err := cache.DigestFinalizedBlocks([]*block.BlockData{genesis}); err != nil {
		t.Fatalf("digest: %v", err)
	}

	spectrum := vss.New()
	if err := spectrum.Register(500, vss.StakeRef{Address: a}, 1_000_000); err != nil {
		t.Fatalf("register stake: %v", err)
	}

	m.TakeSnapshot(0, cache, spectrum)

	// Mutate both live structures past the snapshot point.
	b := addr(2)
	next := &block.BlockData{Index: 1, Supply: 1000, CoinBase: 500, Txs: []*contrasttx.Transaction{coinbaseTx(500, b, 2)}}
	if _, err := cache.DigestFinalizedBlocks([]*block.BlockData{next}); err != nil {
		t.Fatalf("digest: %v", err)
	}
	if err := spectrum.Register(200, vss.StakeRef{Address: b}, 1_000_000); err != nil {
		t.Fatalf("register stake: %v", err)
	}

	if got := cache.TotalBalance(); got != 1500 {
		t.Fatalf("expected mutated cache total 1500, got %d", got)
	}
	if got := spectrum.HighestBound(); got != 700 {
		t.Fatalf("expected mutated spectrum bound 700, got %d", got)
	}

	if err := m.RestoreSnapshot(0, cache, spectrum); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := cache.TotalBalance(); got != 1000 {
		t.Errorf("expected restored cache total 1000, got %d", got)
	}
	if got := spectrum.HighestBound(); got != 500 {
		t.Errorf("expected restored spectrum bound 500, got %d", got)
	}
}

func TestManager_RestoreMissingSnapshotIsFatal(t *testing.T) {
	m := NewManager(100, 5)
	cache := utxo.New()
	spectrum := vss.New()

	err := m.RestoreSnapshot(42, cache, spectrum)
	if !types.Is(err, types.ErrSnapshotMissing) {
		t.Fatalf("expected ErrSnapshotMissing, got %v", err)
	}
}

func TestManager_EvictsOldestBeyondMaxKept(t *testing.T) {
	m := NewManager(1, 2)
	cache := utxo.New()
	spectrum := vss.New()

	m.TakeSnapshot(0, cache, spectrum)
	m.TakeSnapshot(1, cache, spectrum)
	m.TakeSnapshot(2, cache, spectrum)

	if m.HasSnapshotAt(0) {
		t.Error("expected oldest snapshot to be evicted")
	}
	if !m.HasSnapshotAt(1) || !m.HasSnapshotAt(2) {
		t.Error("expected the two most recent snapshots to survive")
	}
}
