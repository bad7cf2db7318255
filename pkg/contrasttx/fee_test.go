package contrasttx

import "testing"

func TestNewFeePerByte(t *testing.T) {
	rate, err := NewFeePerByte(1000, 500)
	if err != nil {
		t.Fatalf("NewFeePerByte: %v", err)
	}
	if rate.Float64() != 2.0 {
		t.Errorf("rate = %v, want 2.0", rate.Float64())
	}
}

func TestNewFeePerByteZeroWeight(t *testing.T) {
	if _, err := NewFeePerByte(1000, 0); err == nil {
		t.Error("expected error for zero byte weight")
	}
}
