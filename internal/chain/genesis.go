package chain

import (
	"sort"

	"github.com/contrast-network/contrast-chain/config"
	"github.com/contrast-network/contrast-chain/internal/validate"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// CreateGenesisBlock builds the height-0 block from gen's allocation table:
// a single coinbase transaction paying each allocated address, at
// difficulty 0 (difficulty=0 trivially satisfies MeetsDifficulty, so
// genesis needs no mining), adapted from a merkle-root header layout
// to this chain's flat txsHash block signature (pkg/block/hash.go) and
// its tagged-variant coinbase input.
func CreateGenesisBlock(gen *config.Genesis) (*block.BlockData, error) {
	addrs := make([]string, 0, len(gen.Alloc))
	for addr := range gen.Alloc {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	var outputs []contrasttx.TxOutput
	var supply uint64
	for _, addrStr := range addrs {
		addr, err := types.ParseAddress(addrStr)
		if err != nil {
			return nil, types.WrapError(types.ErrMalformed, err, "genesis alloc address %q", addrStr)
		}
		amount := gen.Alloc[addrStr]
		outputs = append(outputs, contrasttx.TxOutput{Amount: amount, Address: addr, Rule: types.RuleSig})
		supply += amount
	}

	coinbase := &contrasttx.Transaction{
		Version: validate.CurrentTxVersion,
		Inputs:  []contrasttx.TxInput{contrasttx.NewCoinbaseInput([contrasttx.CoinbaseNonceSize]byte{})},
		Outputs: outputs,
	}
	coinbase.SetID()

	b := &block.BlockData{
		Index:        0,
		Supply:       0,
		CoinBase:     supply,
		Difficulty:   0,
		Legitimacy:   0,
		PrevHash:     types.Hash{},
		PosTimestamp: gen.Timestamp,
		Timestamp:    gen.Timestamp,
		Txs:          []*contrasttx.Transaction{coinbase},
	}
	b.Hash = types.Hash(b.MinerHash())

	return b, nil
}
