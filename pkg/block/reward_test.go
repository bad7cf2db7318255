package block

import (
	"testing"

	"github.com/contrast-network/contrast-chain/config"
)

func testRules() config.ConsensusRules {
	return config.ConsensusRules{
		MaxSupply:       1_000_000,
		BlockReward:     1_000,
		MinBlockReward:  1,
		HalvingInterval: 100,
	}
}

func TestCalculateNextCoinbaseRewardNoHalving(t *testing.T) {
	rules := testRules()
	reward := CalculateNextCoinbaseReward(0, 0, rules)
	if reward != 1_000 {
		t.Fatalf("reward = %d, want 1000", reward)
	}
}

func TestCalculateNextCoinbaseRewardHalves(t *testing.T) {
	rules := testRules()
	reward := CalculateNextCoinbaseReward(99, 0, rules)
	if reward != 500 {
		t.Fatalf("reward at halving boundary = %d, want 500", reward)
	}
	reward = CalculateNextCoinbaseReward(199, 0, rules)
	if reward != 250 {
		t.Fatalf("reward at second halving = %d, want 250", reward)
	}
}

func TestCalculateNextCoinbaseRewardFloorsAtMin(t *testing.T) {
	rules := testRules()
	reward := CalculateNextCoinbaseReward(100_000, 0, rules)
	if reward != rules.MinBlockReward {
		t.Fatalf("reward after many halvings = %d, want min %d", reward, rules.MinBlockReward)
	}
}

func TestCalculateNextCoinbaseRewardCapsAtMaxSupply(t *testing.T) {
	rules := testRules()
	reward := CalculateNextCoinbaseReward(0, rules.MaxSupply-400, rules)
	if reward != 400 {
		t.Fatalf("capped reward = %d, want 400", reward)
	}
	reward = CalculateNextCoinbaseReward(0, rules.MaxSupply, rules)
	if reward != 0 {
		t.Fatalf("reward at max supply = %d, want 0", reward)
	}
}
