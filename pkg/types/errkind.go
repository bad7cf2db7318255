package types

import (
	"errors"
	"fmt"
)

// ErrKind tags the structured error kinds the consensus core distinguishes
// mempool/digest callers switch on Kind rather than string-matching
// messages, while the task queue's skip-log still matches substrings of
// Error() for backward-compatible logging policy.
type ErrKind uint8

const (
	// ErrMalformed: bad field shape, invalid/duplicate anchor, bad id,
	// bad signature format. Reject the offending Tx/block; no state change.
	ErrMalformed ErrKind = iota
	// ErrConflicting: two mempool Txs share an input anchor, or a Tx
	// collides with an existing mempool Tx by id.
	ErrConflicting
	// ErrInsufficientFunds: sum(inputs) < sum(outputs) + fee.
	ErrInsufficientFunds
	// ErrUnresolvedInput: an input anchor does not resolve in the current
	// UTXO cache snapshot (treated as already spent).
	ErrUnresolvedInput
	// ErrInvalidBlockIndex: proposed index != lastIndex+1 at digest time.
	ErrInvalidBlockIndex
	// ErrHashNonConform: the Argon2 result fails the difficulty predicate,
	// or the recomputed hash does not match the block's declared hash.
	ErrHashNonConform
	// ErrInvalidCoinbase: coinbase amount != the expected reward.
	ErrInvalidCoinbase
	// ErrInvariantViolation: post-digest balance total != supply+coinBase.
	// Fatal unless a snapshot restore can recover.
	ErrInvariantViolation
	// ErrSnapshotMissing: reorg cannot restore the common ancestor. Fatal.
	ErrSnapshotMissing
	// ErrUnavailable: sync peer timeout or empty result; retried with backoff.
	ErrUnavailable
	// ErrImmatureCoinbase: a transaction spends a coinbase or PoS-reward
	// output before it has reached COINBASE_MATURITY confirmations.
	ErrImmatureCoinbase
)

// String returns the kind's name as it appears in CoreError.Error().
func (k ErrKind) String() string {
	switch k {
	case ErrMalformed:
		return "Malformed"
	case ErrConflicting:
		return "Conflicting"
	case ErrInsufficientFunds:
		return "InsufficientFunds"
	case ErrUnresolvedInput:
		return "UnresolvedInput"
	case ErrInvalidBlockIndex:
		return "InvalidBlockIndex"
	case ErrHashNonConform:
		return "HashNonConform"
	case ErrInvalidCoinbase:
		return "InvalidCoinbase"
	case ErrInvariantViolation:
		return "InvariantViolation"
	case ErrSnapshotMissing:
		return "SnapshotMissing"
	case ErrUnavailable:
		return "Unavailable"
	case ErrImmatureCoinbase:
		return "ImmatureCoinbase"
	default:
		return "Unknown"
	}
}

// CoreError is the one error shape every validation, digest, and
// state-machine failure in the core is returned as, so callers can switch
// on Kind instead of matching message substrings.
type CoreError struct {
	Kind ErrKind
	msg  string
	err  error
}

// NewError builds a CoreError with a formatted message.
func NewError(kind ErrKind, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// WrapError builds a CoreError wrapping an underlying error.
func WrapError(kind ErrKind, err error, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

func (e *CoreError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *CoreError) Unwrap() error {
	return e.err
}

// KindOf reports the ErrKind carried by err, if err is or wraps a
// *CoreError.
func KindOf(err error) (ErrKind, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// Is reports whether err is a CoreError of the given kind.
func Is(err error, kind ErrKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
