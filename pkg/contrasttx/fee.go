package contrasttx

import "fmt"

// fixedPoint6Scale is the scaling factor for FixedPoint6: a FixedPoint6
// value of N represents N/1_000_000.
const fixedPoint6Scale = 1_000_000

// FixedPoint6 is a fee-per-byte rate stored as an integer with 6 decimal
// places of precision (avoiding floating point in a value every node must
// agree on bit-for-bit).
type FixedPoint6 uint64

// NewFeePerByte computes fee/byteWeight truncated to 6 decimal places.
func NewFeePerByte(fee uint64, byteWeight uint32) (FixedPoint6, error) {
	if byteWeight == 0 {
		return 0, fmt.Errorf("byte weight must be positive")
	}
	scaled := fee * fixedPoint6Scale
	return FixedPoint6(scaled / uint64(byteWeight)), nil
}

// Float64 returns the rate as a float64, for display purposes only.
func (f FixedPoint6) Float64() float64 {
	return float64(f) / fixedPoint6Scale
}

// EstimateByteWeight returns the serialized size (in bytes) of a
// transaction's canonical encoding plus its witnesses, the measure the
// byteWeight field and block packing budget count.
func EstimateByteWeight(tx *Transaction) uint32 {
	size := len(tx.CanonicalEncoding())
	for _, w := range tx.Witnesses {
		size += len(w.Signature) + len(w.PubKey)
	}
	return uint32(size)
}
