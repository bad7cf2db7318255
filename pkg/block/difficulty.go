package block

import (
	"math/big"

	"github.com/contrast-network/contrast-chain/config"
)

// DifficultyPoint is the minimal timing/difficulty record the moving-window
// adjustment needs — the same shape as internal/utxo.Cache.MiningData's
// points, restated here so this package does not import internal/utxo
// (which itself imports pkg/block).
type DifficultyPoint struct {
	Index      uint64
	Difficulty uint64
	Timestamp  uint64
}

// NextDifficulty computes the difficulty for the next candidate block from
// a moving window of recent block timings, retargeting toward the
// configured target block time. window must be ordered oldest-first, matching
// internal/utxo.Cache.MiningData's return order. With fewer than two
// points the most recent difficulty is carried forward unchanged (and 1
// if there is no history at all yet, i.e. the block right after genesis).
//
// The elapsed span across the window is clamped to [expected/4, expected*4]
// before scaling the old difficulty, so a single wildly off interval can't
// swing difficulty by more than 4x in either direction, and the result
// never drops below 1.
func NextDifficulty(window []DifficultyPoint, rules config.ConsensusRules) uint64 {
	if len(window) == 0 {
		return 1
	}
	last := window[len(window)-1]
	if len(window) < 2 {
		if last.Difficulty == 0 {
			return 1
		}
		return last.Difficulty
	}

	first := window[0]
	actual := int64(last.Timestamp) - int64(first.Timestamp)
	expected := int64(len(window)-1) * int64(rules.TargetBlockTimeMs)

	return calcNextDifficulty(last.Difficulty, actual, expected)
}

// calcNextDifficulty retargets currentDiff by the ratio expected/actual,
// clamping actual to within 4x of expected on either side so no single
// retarget period can move difficulty more than 4x. currentDiff of 0
// (genesis) retargets from 1 instead, since a zero difficulty can only
// ever scale to zero.
func calcNextDifficulty(currentDiff uint64, actualTimeSpan, expectedTimeSpan int64) uint64 {
	if currentDiff == 0 {
		currentDiff = 1
	}
	if actualTimeSpan <= 0 {
		actualTimeSpan = 1
	}
	if expectedTimeSpan <= 0 {
		expectedTimeSpan = 1
	}

	minSpan := expectedTimeSpan / 4
	if minSpan == 0 {
		minSpan = 1
	}
	maxSpan := expectedTimeSpan * 4
	if actualTimeSpan < minSpan {
		actualTimeSpan = minSpan
	}
	if actualTimeSpan > maxSpan {
		actualTimeSpan = maxSpan
	}

	cur := new(big.Int).SetUint64(currentDiff)
	exp := new(big.Int).SetInt64(expectedTimeSpan)
	act := new(big.Int).SetInt64(actualTimeSpan)

	result := new(big.Int).Mul(cur, exp)
	result.Div(result, act)

	if result.Sign() <= 0 || !result.IsUint64() {
		return 1
	}
	d := result.Uint64()
	if d < 1 {
		d = 1
	}
	return d
}
