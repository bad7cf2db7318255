// Package validate implements the consensus core's validation rules:
// a set of pure functions checking a Transaction or finalized Block against
// a UTXO cache snapshot, with no hidden state. Every failure is returned as
// a *types.CoreError carrying one of the core error kinds.
package validate

import (
	"fmt"

	"github.com/contrast-network/contrast-chain/config"
	"github.com/contrast-network/contrast-chain/internal/utxo"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/crypto"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// CurrentTxVersion is the only transaction version this validator accepts.
const CurrentTxVersion = 1

// IsWellFormedTransaction checks version, non-empty outputs, amount bounds,
// address/rule validity, input->UTXO resolution (unless coinbase/PoS), id
// match, and, for each resolved input, the LockUntilBlock height gate and
// coinbase/PoS-reward maturity (a newly minted output is not spendable
// until maturity confirmations after the block that created it). Inputs are
// resolved against cache unless isCoinbase is true, since a coinbase's
// sole input is a nonce rather than an anchor. currentHeight is the
// height the transaction would be included at (the candidate/proposed
// block's index), used only for the maturity check.
func IsWellFormedTransaction(cache *utxo.Cache, tx *contrasttx.Transaction, isCoinbase bool, maxSupply uint64, currentHeight uint64, maturity uint64) error {
	if tx.Version != CurrentTxVersion {
		return types.NewError(types.ErrMalformed, "tx %s: unsupported version %d", tx.IDHex(), tx.Version)
	}
	if len(tx.Inputs) == 0 {
		return types.NewError(types.ErrMalformed, "tx %s: no inputs", tx.IDHex())
	}
	if len(tx.Inputs) > config.MaxTxInputs {
		return types.NewError(types.ErrMalformed, "tx %s: %d inputs, max %d", tx.IDHex(), len(tx.Inputs), config.MaxTxInputs)
	}
	if len(tx.Outputs) == 0 {
		return types.NewError(types.ErrMalformed, "tx %s: no outputs", tx.IDHex())
	}
	if len(tx.Outputs) > config.MaxTxOutputs {
		return types.NewError(types.ErrMalformed, "tx %s: %d outputs, max %d", tx.IDHex(), len(tx.Outputs), config.MaxTxOutputs)
	}
	if !tx.IDMatches() {
		return types.NewError(types.ErrMalformed, "tx %s: id does not match canonical encoding", tx.IDHex())
	}

	for i, out := range tx.Outputs {
		if err := out.Validate(maxSupply); err != nil {
			return types.WrapError(types.ErrMalformed, err, "tx %s: output %d", tx.IDHex(), i)
		}
	}

	if isCoinbase || tx.IsSentinel() {
		return nil
	}

	seen := make(map[types.Anchor]struct{}, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if in.Kind != contrasttx.InputAnchor {
			return types.NewError(types.ErrMalformed, "tx %s: input %d: non-sentinel tx must use anchor inputs", tx.IDHex(), i)
		}
		if _, dup := seen[in.Anchor]; dup {
			return types.NewError(types.ErrMalformed, "tx %s: duplicate input anchor %s", tx.IDHex(), in.Anchor)
		}
		seen[in.Anchor] = struct{}{}

		u, ok := cache.Get(in.Anchor)
		if !ok {
			return types.NewError(types.ErrUnresolvedInput, "tx %s: input %d anchor %s", tx.IDHex(), i, in.Anchor)
		}
		if !u.IsSpendableAt(currentHeight) {
			return types.NewError(types.ErrMalformed, "tx %s: input %d anchor %s locked until height %d", tx.IDHex(), i, in.Anchor, u.LockUntilHeight)
		}
		if err := CheckCoinbaseMaturity(u, currentHeight, maturity); err != nil {
			return types.WrapError(types.ErrImmatureCoinbase, err, "tx %s: input %d", tx.IDHex(), i)
		}
	}

	return nil
}

// CheckCoinbaseMaturity rejects spending a coinbase or PoS-reward output
// before it has accumulated maturity confirmations, so a reorg cannot
// resurrect a spend of freshly minted coins the surviving chain never
// matured. Outputs that are not newly minted are always spendable here;
// other spending rules (signature, lock height) are checked separately.
func CheckCoinbaseMaturity(u contrasttx.UTXO, currentHeight uint64, maturity uint64) error {
	if !u.NewlyMinted {
		return nil
	}
	mintHeight, _, _, err := types.ParseAnchor(u.Anchor)
	if err != nil {
		return fmt.Errorf("parsing anchor of newly minted utxo %s: %w", u.Anchor, err)
	}
	if matureAt := mintHeight + maturity; currentHeight < matureAt {
		return fmt.Errorf("utxo %s matures at height %d, spent at %d", u.Anchor, matureAt, currentHeight)
	}
	return nil
}

// RemainingAmount computes sum(inputs.amount) - sum(outputs.amount), the
// transaction's fee. Fails with ErrInsufficientFunds if outputs exceed
// inputs. Sentinel transactions (coinbase/PoS-reward) have no resolvable
// input amount and are not valid arguments to this function.
func RemainingAmount(cache *utxo.Cache, tx *contrasttx.Transaction) (uint64, error) {
	var inTotal uint64
	for _, in := range tx.Inputs {
		u, ok := cache.Get(in.Anchor)
		if !ok {
			return 0, types.NewError(types.ErrUnresolvedInput, "tx %s: input anchor %s", tx.IDHex(), in.Anchor)
		}
		inTotal += u.Amount
	}

	var outTotal uint64
	for _, out := range tx.Outputs {
		outTotal += out.Amount
	}

	if outTotal > inTotal {
		return 0, types.NewError(types.ErrInsufficientFunds, "tx %s: inputs %d < outputs %d", tx.IDHex(), inTotal, outTotal)
	}
	return inTotal - outTotal, nil
}

// ControlTxOutputRules enforces the SigOrSlash output[0]-only constraint:
// a SigOrSlash output may only occupy index 0, and doing so requires the
// transaction's fee to exceed that output's amount (the stake the slasher
// forfeits if dishonest).
func ControlTxOutputRules(tx *contrasttx.Transaction, fee uint64) error {
	for i, out := range tx.Outputs {
		if out.Rule != types.RuleSigOrSlash {
			continue
		}
		if i != 0 {
			return types.NewError(types.ErrMalformed, "tx %s: SigOrSlash output only allowed at index 0, found at %d", tx.IDHex(), i)
		}
		if fee <= out.Amount {
			return types.NewError(types.ErrMalformed, "tx %s: SigOrSlash requires fee %d > stake amount %d", tx.IDHex(), fee, out.Amount)
		}
	}
	return nil
}

// ControlAllWitnesses verifies every witness signature against the
// transaction's signing message (its id).
func ControlAllWitnesses(tx *contrasttx.Transaction) error {
	if len(tx.Witnesses) != len(tx.Inputs) {
		return types.NewError(types.ErrMalformed, "tx %s: %d witnesses for %d inputs", tx.IDHex(), len(tx.Witnesses), len(tx.Inputs))
	}
	msg := tx.SigningMessage()
	for i, w := range tx.Witnesses {
		if !crypto.VerifySignature(msg, w.Signature, w.PubKey) {
			return types.NewError(types.ErrMalformed, "tx %s: witness %d: invalid signature", tx.IDHex(), i)
		}
	}
	return nil
}

// AddressOwnershipConfirmation derives an address from each witness's
// pubkey and confirms it matches the owning address of the UTXO its
// corresponding input spends, consulting/populating pubKeyCache to skip
// re-deriving addresses for pubkeys already confirmed. useDevHash selects
// the cheaper BLAKE3 devnet derivation in place of the Argon2id production
// one (config.go wires this from the node's network setting).
func AddressOwnershipConfirmation(cache *utxo.Cache, tx *contrasttx.Transaction, pubKeyCache *PubKeyCache, useDevHash bool) error {
	if len(tx.Witnesses) != len(tx.Inputs) {
		return types.NewError(types.ErrMalformed, "tx %s: %d witnesses for %d inputs", tx.IDHex(), len(tx.Witnesses), len(tx.Inputs))
	}
	for i, in := range tx.Inputs {
		if in.Kind != contrasttx.InputAnchor {
			continue
		}
		w := tx.Witnesses[i]

		addr, ok := pubKeyCache.Get(w.PubKey)
		if !ok {
			addr = crypto.DeriveAddress(w.PubKey, useDevHash)
			pubKeyCache.Put(w.PubKey, addr)
		}

		u, ok := cache.Get(in.Anchor)
		if !ok {
			return types.NewError(types.ErrUnresolvedInput, "tx %s: input %d anchor %s", tx.IDHex(), i, in.Anchor)
		}
		if addr != u.Address {
			return types.NewError(types.ErrMalformed, "tx %s: input %d: witness pubkey does not own anchor %s", tx.IDHex(), i, in.Anchor)
		}
	}
	return nil
}

// IsFinalizedBlockDoubleSpending reports whether the anchors consumed
// across all non-sentinel transactions in b are unique and all currently
// resolve in cache. Accepts exactly when digesting the block would keep
// every anchor unique and every input resolvable.
func IsFinalizedBlockDoubleSpending(cache *utxo.Cache, b *block.BlockData) error {
	seen := make(map[types.Anchor]struct{})
	for _, tx := range b.NonSentinelTxs() {
		for _, in := range tx.Inputs {
			if _, dup := seen[in.Anchor]; dup {
				return types.NewError(types.ErrMalformed, "block %d: anchor %s double-spent within block", b.Index, in.Anchor)
			}
			seen[in.Anchor] = struct{}{}

			if _, ok := cache.Get(in.Anchor); !ok {
				return types.NewError(types.ErrUnresolvedInput, "block %d: anchor %s", b.Index, in.Anchor)
			}
		}
	}
	return nil
}

// FullTransactionValidation composes the above checks in order and returns
// the first failure as a single structured error. currentHeight and
// maturity are forwarded to IsWellFormedTransaction's coinbase-maturity
// check.
func FullTransactionValidation(cache *utxo.Cache, pubKeyCache *PubKeyCache, tx *contrasttx.Transaction, isCoinbase bool, useDevHash bool, maxSupply uint64, currentHeight uint64, maturity uint64) error {
	if err := IsWellFormedTransaction(cache, tx, isCoinbase, maxSupply, currentHeight, maturity); err != nil {
		return err
	}
	if isCoinbase || tx.IsSentinel() {
		return nil
	}

	fee, err := RemainingAmount(cache, tx)
	if err != nil {
		return err
	}
	if err := ControlTxOutputRules(tx, fee); err != nil {
		return err
	}
	if err := ControlAllWitnesses(tx); err != nil {
		return err
	}
	if err := AddressOwnershipConfirmation(cache, tx, pubKeyCache, useDevHash); err != nil {
		return err
	}
	return nil
}
