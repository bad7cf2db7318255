package vss

import (
	"testing"

	"github.com/contrast-network/contrast-chain/pkg/types"
)

func seededSpectrum() *Spectrum {
	s := New()
	addr1 := types.Address{0x01}
	addr2 := types.Address{0x02}
	_ = s.Register(500_000, StakeRef{Address: addr1, Anchor: "1:aaaaaaaa:0"}, 10_000_000)
	_ = s.Register(600_000, StakeRef{Address: addr2, Anchor: "1:bbbbbbbb:0"}, 10_000_000)
	return s
}

func TestCalculateRoundLegitimaciesBelowThreshold(t *testing.T) {
	s := New()
	_ = s.Register(100, StakeRef{Address: types.Address{0x01}, Anchor: "1:aaaaaaaa:0"}, 10_000_000)
	if legit := s.CalculateRoundLegitimacies([]byte("deadbeef"), 100); legit != nil {
		t.Errorf("expected nil legitimacies below qualifying threshold, got %v", legit)
	}
}

func TestCalculateRoundLegitimaciesDeterministic(t *testing.T) {
	hash := []byte("deadbeefdeadbeefdeadbeefdeadbeef")

	s1 := seededSpectrum()
	s2 := seededSpectrum()

	r1 := s1.CalculateRoundLegitimacies(hash, 100)
	r2 := s2.CalculateRoundLegitimacies(hash, 100)

	if len(r1) != len(r2) || len(r1) == 0 {
		t.Fatalf("expected matching non-empty results, got %d and %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i] != r2[i] {
			t.Fatalf("result mismatch at index %d: %v vs %v", i, r1[i], r2[i])
		}
	}
}

func TestCalculateRoundLegitimaciesNoDuplicates(t *testing.T) {
	s := seededSpectrum()
	ranked := s.CalculateRoundLegitimacies([]byte("cafebabecafebabecafebabecafebabe"), 100)

	seen := make(map[string]bool)
	for _, ref := range ranked {
		key := string(ref.Anchor)
		if seen[key] {
			t.Fatalf("duplicate anchor %s in ranked legitimacies", key)
		}
		seen[key] = true
	}
	if len(ranked) > 2 {
		t.Fatalf("only 2 distinct stakers registered, got %d results", len(ranked))
	}
}

func TestCalculateRoundLegitimaciesDifferentHashDiffers(t *testing.T) {
	s := seededSpectrum()
	r1 := s.CalculateRoundLegitimacies([]byte("deadbeefdeadbeefdeadbeefdeadbeef"), 100)
	r2 := s.CalculateRoundLegitimacies([]byte("cafebabecafebabecafebabecafebabe"), 100)

	if len(r1) == 0 || len(r2) == 0 || r1[0] == r2[0] {
		t.Fatalf("expected these block hashes to rank different stakers first, got %v and %v", r1, r2)
	}
}

func TestGetAddressLegitimacyLastRank(t *testing.T) {
	ranked := []StakeRef{{Address: types.Address{0x01}}}
	addr := types.Address{0x02}
	if got := GetAddressLegitimacy(ranked, addr.String()); got != len(ranked) {
		t.Errorf("GetAddressLegitimacy for absent address = %d, want %d", got, len(ranked))
	}
}
