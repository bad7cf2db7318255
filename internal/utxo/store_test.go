package utxo

import (
	"testing"

	"github.com/contrast-network/contrast-chain/internal/storage"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
)

func TestStore_PersistAndLoadRoundTrip(t *testing.T) {
	a := addr(1)
	cache := New()
	genesis := &block.BlockData{Index: 0, Supply: 0, CoinBase: 1000, Txs: []*contrasttx.Transaction{coinbaseTx(1000, a, 1)}}
	if _, err := cache.DigestFinalizedBlocks([]*block.BlockData{genesis}); err != nil {
		t.Fatalf("digest: %v", err)
	}

	db := storage.NewMemory()
	store := NewStore(db)
	if err := store.Persist(cache); err != nil {
		t.Fatalf("persist: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := loaded.Balance(a); got != 1000 {
		t.Errorf("reloaded balance = %d, want 1000", got)
	}
	if got, want := loaded.TotalBalance(), cache.TotalBalance(); got != want {
		t.Errorf("reloaded total balance = %d, want %d", got, want)
	}
}

func TestStore_PersistReplacesPriorContents(t *testing.T) {
	a := addr(1)
	db := storage.NewMemory()
	store := NewStore(db)

	cache := New()
	genesis := &block.BlockData{Index: 0, Supply: 0, CoinBase: 1000, Txs: []*contrasttx.Transaction{coinbaseTx(1000, a, 1)}}
	if _, err := cache.DigestFinalizedBlocks([]*block.BlockData{genesis}); err != nil {
		t.Fatalf("digest: %v", err)
	}
	if err := store.Persist(cache); err != nil {
		t.Fatalf("first persist: %v", err)
	}

	empty := New()
	if err := store.Persist(empty); err != nil {
		t.Fatalf("second persist: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TotalBalance() != 0 {
		t.Errorf("persisting an empty cache should clear prior entries, got balance %d", loaded.TotalBalance())
	}
}
