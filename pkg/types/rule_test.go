package types

import "testing"

func TestOutputRuleString(t *testing.T) {
	tests := []struct {
		rule OutputRule
		want string
	}{
		{RuleSig, "Sig"},
		{RuleSigOrSlash, "SigOrSlash"},
		{RuleLockUntilBlock, "LockUntilBlock"},
		{RuleMultiSigCreate, "MultiSigCreate"},
		{RuleP2PExchange, "P2PExchange"},
		{OutputRule(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.rule.String(); got != tt.want {
			t.Errorf("OutputRule(%d).String() = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestOutputRuleIsValid(t *testing.T) {
	if !RuleP2PExchange.IsValid() {
		t.Error("RuleP2PExchange should be valid")
	}
	if OutputRule(5).IsValid() {
		t.Error("OutputRule(5) should not be valid")
	}
}
