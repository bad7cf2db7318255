package chain

import "github.com/contrast-network/contrast-chain/pkg/types"

// GetReorgPath walks both currentTip and candidateTip back to their common
// ancestor and returns the blocks to revert (currentTip's branch, in
// descending height order, common ancestor excluded) and the blocks to
// apply (candidateTip's branch, in ascending height order, common ancestor
// excluded). The common ancestor is the deepest hash present on both
// backward walks.
func (t *Tree) GetReorgPath(currentTip, candidateTip types.Hash) (revert []types.Hash, apply []types.Hash, err error) {
	curNode, ok := t.nodes[currentTip]
	if !ok {
		return nil, nil, types.NewError(types.ErrInvalidBlockIndex, "reorg: current tip %x not in tree", currentTip)
	}
	candNode, ok := t.nodes[candidateTip]
	if !ok {
		return nil, nil, types.NewError(types.ErrInvalidBlockIndex, "reorg: candidate tip %x not in tree", candidateTip)
	}

	onCurrentChain := make(map[types.Hash]bool)
	for n := curNode; n != nil; n = n.Parent {
		onCurrentChain[n.Hash] = true
	}

	var ancestor *Node
	var applyChain []types.Hash
	for n := candNode; n != nil; n = n.Parent {
		if onCurrentChain[n.Hash] {
			ancestor = n
			break
		}
		applyChain = append(applyChain, n.Hash)
	}
	if ancestor == nil {
		return nil, nil, types.NewError(types.ErrInvalidBlockIndex, "reorg: no common ancestor between %x and %x", currentTip, candidateTip)
	}

	for i, j := 0, len(applyChain)-1; i < j; i, j = i+1, j-1 {
		applyChain[i], applyChain[j] = applyChain[j], applyChain[i]
	}

	var revertChain []types.Hash
	for n := curNode; n != nil && n.Hash != ancestor.Hash; n = n.Parent {
		revertChain = append(revertChain, n.Hash)
	}

	return revertChain, applyChain, nil
}
