package block

import "github.com/contrast-network/contrast-chain/config"

// CalculateNextCoinbaseReward computes the coinbase reward owed to the
// block produced after prevIndex: halvings = floor((prevIndex+1) /
// HALVING_INTERVAL), reward = max(BLOCK_REWARD >> halvings,
// MIN_BLOCK_REWARD), capped so that newSupply+reward never exceeds
// MAX_SUPPLY. newSupply is the running total *before* this block's own
// reward is added (prevBlock.supply + prevBlock.coinBase — the supply-
// accounting convention this tree standardizes on so conservation holds
// by construction at every height).
func CalculateNextCoinbaseReward(prevIndex uint64, newSupply uint64, rules config.ConsensusRules) uint64 {
	var halvings uint64
	if rules.HalvingInterval > 0 {
		halvings = (prevIndex + 1) / rules.HalvingInterval
	}

	var reward uint64
	if halvings < 64 {
		reward = rules.BlockReward >> halvings
	}
	if reward < rules.MinBlockReward {
		reward = rules.MinBlockReward
	}

	if rules.MaxSupply > 0 {
		if newSupply >= rules.MaxSupply {
			return 0
		}
		if remaining := rules.MaxSupply - newSupply; reward > remaining {
			reward = remaining
		}
	}
	return reward
}
