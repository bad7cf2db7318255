package block

import (
	"testing"

	"github.com/contrast-network/contrast-chain/config"
)

func TestNextDifficultyNoHistory(t *testing.T) {
	d := NextDifficulty(nil, config.ConsensusRules{TargetBlockTimeMs: 3000})
	if d != 1 {
		t.Fatalf("difficulty with no history = %d, want 1", d)
	}
}

func TestNextDifficultySinglePointCarriesForward(t *testing.T) {
	window := []DifficultyPoint{{Index: 5, Difficulty: 64, Timestamp: 1000}}
	d := NextDifficulty(window, config.ConsensusRules{TargetBlockTimeMs: 3000})
	if d != 64 {
		t.Fatalf("difficulty = %d, want 64 carried forward", d)
	}
}

func TestNextDifficultyStableWhenOnTarget(t *testing.T) {
	rules := config.ConsensusRules{TargetBlockTimeMs: 1000}
	window := []DifficultyPoint{
		{Index: 0, Difficulty: 160, Timestamp: 0},
		{Index: 1, Difficulty: 160, Timestamp: 1000},
		{Index: 2, Difficulty: 160, Timestamp: 2000},
	}
	d := NextDifficulty(window, rules)
	if d != 160 {
		t.Fatalf("difficulty = %d, want 160 unchanged when exactly on target", d)
	}
}

func TestNextDifficultyRisesWhenBlocksTooFast(t *testing.T) {
	rules := config.ConsensusRules{TargetBlockTimeMs: 1000}
	window := []DifficultyPoint{
		{Index: 0, Difficulty: 100, Timestamp: 0},
		{Index: 1, Difficulty: 100, Timestamp: 200},
		{Index: 2, Difficulty: 100, Timestamp: 400},
	}
	d := NextDifficulty(window, rules)
	if d <= 100 {
		t.Fatalf("difficulty = %d, want > 100 when blocks arrive faster than target", d)
	}
}

func TestNextDifficultyClampedToFourX(t *testing.T) {
	rules := config.ConsensusRules{TargetBlockTimeMs: 1000}
	window := []DifficultyPoint{
		{Index: 0, Difficulty: 100, Timestamp: 0},
		{Index: 1, Difficulty: 100, Timestamp: 1},
	}
	d := NextDifficulty(window, rules)
	if d > 400 {
		t.Fatalf("difficulty = %d, want clamped to at most 4x (400)", d)
	}
}

func TestNextDifficultyNeverZero(t *testing.T) {
	rules := config.ConsensusRules{TargetBlockTimeMs: 1000}
	window := []DifficultyPoint{
		{Index: 0, Difficulty: 1, Timestamp: 0},
		{Index: 1, Difficulty: 1, Timestamp: 100_000},
	}
	d := NextDifficulty(window, rules)
	if d < 1 {
		t.Fatalf("difficulty = %d, must never drop below 1", d)
	}
}
