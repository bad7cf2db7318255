package vss

import (
	"testing"

	"github.com/contrast-network/contrast-chain/pkg/types"
)

func TestSpectrumRegisterExtendsBound(t *testing.T) {
	s := New()
	addr1 := types.Address{0x01}
	addr2 := types.Address{0x02}

	if err := s.Register(500_000, StakeRef{Address: addr1, Anchor: "1:aaaaaaaa:0"}, 10_000_000); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register(600_000, StakeRef{Address: addr2, Anchor: "1:bbbbbbbb:0"}, 10_000_000); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if s.HighestBound() != 1_100_000 {
		t.Errorf("HighestBound() = %d, want 1_100_000", s.HighestBound())
	}
}

func TestSpectrumRegisterRejectsMaxSupply(t *testing.T) {
	s := New()
	addr := types.Address{0x01}
	if err := s.Register(100, StakeRef{Address: addr}, 100); err == nil {
		t.Error("expected rejection when bound reaches max supply")
	}
}

func TestSpectrumLookup(t *testing.T) {
	s := New()
	addr1 := types.Address{0x01}
	addr2 := types.Address{0x02}
	ref1 := StakeRef{Address: addr1, Anchor: "1:aaaaaaaa:0"}
	ref2 := StakeRef{Address: addr2, Anchor: "1:bbbbbbbb:0"}

	_ = s.Register(100, ref1, 1_000_000)
	_ = s.Register(100, ref2, 1_000_000)

	got, ok := s.lookup(50)
	if !ok || got != ref1 {
		t.Errorf("lookup(50) = %v, want %v", got, ref1)
	}
	got, ok = s.lookup(150)
	if !ok || got != ref2 {
		t.Errorf("lookup(150) = %v, want %v", got, ref2)
	}
	if _, ok := s.lookup(200); ok {
		t.Error("lookup(200) should miss, out of range")
	}
}
