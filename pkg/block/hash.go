package block

import (
	"encoding/binary"

	"github.com/contrast-network/contrast-chain/pkg/crypto"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// txsHash is the SHA-256 of the concatenation of the included transaction
// ids. It excludes the coinbase transaction always, and, when computing the
// PoS hash, also excludes the PoS-reward transaction.
func txsHash(b *BlockData, isPosHash bool) [32]byte {
	ids := make([][]byte, 0, len(b.Txs))
	for _, tx := range b.Txs {
		if tx.IsCoinbase() {
			continue
		}
		if isPosHash && tx.IsPosReward() {
			continue
		}
		id := tx.ID
		ids = append(ids, id[:])
	}
	return crypto.TxsHash(ids)
}

// SigningFields returns the canonical field concatenation blockSignature
// hashes: index||supply||coinBase||difficulty||legitimacy||prevHash||
// posTimestamp||txsHash[||timestamp]. timestamp is included only when
// isPosHash is false — the PoS hash is computed before timestamp is known.
func (b *BlockData) SigningFields(isPosHash bool) [][]byte {
	var idx, supply, coinBase, diff, legit, posTs, ts [8]byte
	binary.LittleEndian.PutUint64(idx[:], b.Index)
	binary.LittleEndian.PutUint64(supply[:], b.Supply)
	binary.LittleEndian.PutUint64(coinBase[:], b.CoinBase)
	binary.LittleEndian.PutUint64(diff[:], b.Difficulty)
	binary.LittleEndian.PutUint32(legit[:4], b.Legitimacy)
	binary.LittleEndian.PutUint64(posTs[:], b.PosTimestamp)

	th := txsHash(b, isPosHash)

	fields := [][]byte{
		idx[:], supply[:], coinBase[:], diff[:], legit[:4],
		b.PrevHash[:], posTs[:], th[:],
	}
	if !isPosHash {
		binary.LittleEndian.PutUint64(ts[:], b.Timestamp)
		fields = append(fields, ts[:])
	}
	return fields
}

// Signature computes blockSignature: SHA-256 over SigningFields.
func (b *BlockData) Signature(isPosHash bool) [32]byte {
	return crypto.BlockSignature(b.SigningFields(isPosHash)...)
}

// MinerHash computes the Argon2id hash over the block's (non-PoS)
// signature and its header/coinbase nonce pair — the value the difficulty
// predicate is checked against.
func (b *BlockData) MinerHash() [32]byte {
	sig := b.Signature(false)
	cbNonce := b.CoinbaseNonce()
	return crypto.MinerHash(sig, b.HeaderNonce[:], cbNonce[:])
}

// MeetsDifficulty reports whether the block's MinerHash satisfies its
// declared difficulty.
func (b *BlockData) MeetsDifficulty() bool {
	return crypto.MeetsDifficulty(b.MinerHash(), b.Difficulty)
}

// VerifyHash confirms that b.Hash matches the recomputed MinerHash and that
// it satisfies the difficulty predicate — the check the "HashNonConform"
// error kind reports a violation of.
func (b *BlockData) VerifyHash() bool {
	h := b.MinerHash()
	if types.Hash(h) != b.Hash {
		return false
	}
	return crypto.MeetsDifficulty(h, b.Difficulty)
}
