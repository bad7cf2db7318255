package contrasttx

import (
	"fmt"

	"github.com/contrast-network/contrast-chain/pkg/types"
)

// TxOutput is a single transaction output: an amount, the address
// controlling it, and the spending rule attached to it.
type TxOutput struct {
	Amount  uint64           `json:"amount"`
	Address types.Address    `json:"address"`
	Rule    types.OutputRule `json:"rule"`

	// LockUntilHeight is only meaningful when Rule == RuleLockUntilBlock:
	// the output cannot be spent before this height.
	LockUntilHeight uint64 `json:"lockUntilHeight,omitempty"`
}

// IsSpendableAt reports whether the output's rule allows spending at the
// given chain height. Rules other than LockUntilBlock are always spendable
// here; ownership/signature checks happen separately.
func (o TxOutput) IsSpendableAt(height uint64) bool {
	if o.Rule == types.RuleLockUntilBlock {
		return height >= o.LockUntilHeight
	}
	return true
}

// Validate checks the output's own fields in isolation (amount bounds and
// rule validity); it does not check ownership or context-dependent rules
// like SigOrSlash's first-output/fee-exceeds-amount constraint, which need
// the owning transaction.
func (o TxOutput) Validate(maxSupply uint64) error {
	if o.Amount == 0 {
		return fmt.Errorf("output amount must be positive")
	}
	if o.Amount > maxSupply {
		return fmt.Errorf("output amount %d exceeds max supply %d", o.Amount, maxSupply)
	}
	if !o.Rule.IsValid() {
		return fmt.Errorf("invalid output rule %d", o.Rule)
	}
	return nil
}
