package contrasttx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Witness is a detached signature over a transaction id, paired with the
// public key it was produced by. Its wire form is "sigHex:pubKeyHex".
type Witness struct {
	Signature []byte
	PubKey    []byte
}

// String renders the canonical "sigHex:pubKeyHex" wire form.
func (w Witness) String() string {
	return fmt.Sprintf("%s:%s", hex.EncodeToString(w.Signature), hex.EncodeToString(w.PubKey))
}

// ParseWitness decodes the canonical "sigHex:pubKeyHex" wire form.
func ParseWitness(s string) (Witness, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Witness{}, fmt.Errorf("malformed witness %q: expected sigHex:pubKeyHex", s)
	}
	sig, err := hex.DecodeString(parts[0])
	if err != nil {
		return Witness{}, fmt.Errorf("malformed witness signature %q: %w", parts[0], err)
	}
	pub, err := hex.DecodeString(parts[1])
	if err != nil {
		return Witness{}, fmt.Errorf("malformed witness pubkey %q: %w", parts[1], err)
	}
	return Witness{Signature: sig, PubKey: pub}, nil
}

// MarshalJSON encodes the witness as its canonical string form.
func (w Witness) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON decodes the canonical string form into the witness.
func (w *Witness) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseWitness(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
