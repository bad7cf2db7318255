package types

// OutputRule identifies the spending condition attached to a transaction
// output. Contrast's scripting surface is this small fixed set, never a
// general VM.
type OutputRule uint8

const (
	// RuleSig requires a single valid signature from the output's address.
	RuleSig OutputRule = iota
	// RuleSigOrSlash marks the output as a VSS stake: spendable by its
	// owner's signature, or (future work — see StakeRef slashing) subject
	// to forfeiture. Only valid on output index 0 of a transaction whose
	// fee exceeds the output amount.
	RuleSigOrSlash
	// RuleLockUntilBlock makes the output unspendable before a given
	// height, carried in TxOutput.LockUntilHeight.
	RuleLockUntilBlock
	// RuleMultiSigCreate creates a multi-signature spending condition.
	RuleMultiSigCreate
	// RuleP2PExchange marks an output intended for a peer-to-peer
	// exchange handoff.
	RuleP2PExchange
)

// String returns a human-readable rule name.
func (r OutputRule) String() string {
	switch r {
	case RuleSig:
		return "Sig"
	case RuleSigOrSlash:
		return "SigOrSlash"
	case RuleLockUntilBlock:
		return "LockUntilBlock"
	case RuleMultiSigCreate:
		return "MultiSigCreate"
	case RuleP2PExchange:
		return "P2PExchange"
	default:
		return "Unknown"
	}
}

// IsValid reports whether r is one of the recognized rule values.
func (r OutputRule) IsValid() bool {
	return r <= RuleP2PExchange
}
