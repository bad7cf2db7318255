package validate

import "testing"

func TestPubKeyCache_TrimsFIFOPastHysteresisBand(t *testing.T) {
	c := NewPubKeyCacheWithCap(10)
	for i := 0; i < 10; i++ {
		c.Put([]byte{byte(i)}, addr(byte(i)))
	}
	if c.Len() != 10 {
		t.Fatalf("expected 10 entries before hysteresis ceiling, got %d", c.Len())
	}

	// 11th entry is still within the 10% hysteresis band (ceiling 11).
	c.Put([]byte{10}, addr(10))
	if c.Len() != 11 {
		t.Fatalf("expected no trim within hysteresis band, got %d", c.Len())
	}

	// 12th entry crosses the ceiling; trims back down to maxSize (10),
	// evicting the oldest (key 0) first.
	c.Put([]byte{11}, addr(11))
	if c.Len() != 10 {
		t.Fatalf("expected trim down to maxSize 10, got %d", c.Len())
	}
	if _, ok := c.Get([]byte{0}); ok {
		t.Error("oldest entry should have been evicted first")
	}
	if _, ok := c.Get([]byte{11}); !ok {
		t.Error("newest entry should still be present")
	}
}

func TestPubKeyCache_UnboundedByDefault(t *testing.T) {
	c := NewPubKeyCache()
	for i := 0; i < 100; i++ {
		c.Put([]byte{byte(i)}, addr(byte(i)))
	}
	if c.Len() != 100 {
		t.Fatalf("expected unbounded cache to retain all entries, got %d", c.Len())
	}
}
