package chain

import (
	"encoding/json"
	"strconv"

	"github.com/contrast-network/contrast-chain/internal/storage"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// Persisted key layout. Three key families plus one pointer:
//
//	height-<u64>  -> canonical block hash at that height
//	<hash>        -> serialized BlockData
//	info-<hash>   -> serialized BlockInfo (header-only projection)
//	currentHeight -> ASCII decimal chain height
//
// Undo-log and cumulative-difficulty keys are deliberately absent: the
// snapshot manager owns rollback, not per-block undo data.
var (
	prefixHeight     = "height-"
	prefixInfo       = "info-"
	keyCurrentHeight = []byte("currentHeight")
)

// BlockInfo is the header-only projection of a block persisted alongside
// the full BlockData, so external query surfaces can read headers without
// decoding transaction lists.
type BlockInfo struct {
	Index        uint64     `json:"index"`
	Supply       uint64     `json:"supply"`
	CoinBase     uint64     `json:"coinBase"`
	Difficulty   uint64     `json:"difficulty"`
	Legitimacy   uint32     `json:"legitimacy"`
	PrevHash     types.Hash `json:"prevHash"`
	PosTimestamp uint64     `json:"posTimestamp"`
	Timestamp    uint64     `json:"timestamp"`
	Hash         types.Hash `json:"hash"`
	TxCount      int        `json:"txCount"`
}

func infoOf(b *block.BlockData) BlockInfo {
	return BlockInfo{
		Index:        b.Index,
		Supply:       b.Supply,
		CoinBase:     b.CoinBase,
		Difficulty:   b.Difficulty,
		Legitimacy:   b.Legitimacy,
		PrevHash:     b.PrevHash,
		PosTimestamp: b.PosTimestamp,
		Timestamp:    b.Timestamp,
		Hash:         b.Hash,
		TxCount:      len(b.Txs),
	}
}

// BlockStore persists finalized blocks by hash and by height, plus the
// current chain height pointer.
type BlockStore struct {
	db storage.DB
}

// NewBlockStore wraps db as a BlockStore.
func NewBlockStore(db storage.DB) *BlockStore {
	return &BlockStore{db: db}
}

func heightKey(height uint64) []byte {
	return []byte(prefixHeight + strconv.FormatUint(height, 10))
}

func blockKey(hash types.Hash) []byte {
	return hash[:]
}

func infoKey(hash types.Hash) []byte {
	key := make([]byte, 0, len(prefixInfo)+len(hash))
	key = append(key, prefixInfo...)
	key = append(key, hash[:]...)
	return key
}

// PutBlock persists b indexed by hash only, plus its header projection.
// The height index tracks the canonical chain, not every block the tree
// has ever seen — a block can be inserted here while sitting on a losing
// fork and must never clobber the height a competing, already-canonical
// block occupies. SetHeightIndex records that mapping separately, once a
// block is actually on the chosen chain.
func (s *BlockStore) PutBlock(b *block.BlockData) error {
	data, err := json.Marshal(b)
	if err != nil {
		return types.WrapError(types.ErrMalformed, err, "encoding block %x", b.Hash)
	}
	if err := s.db.Put(blockKey(b.Hash), data); err != nil {
		return err
	}
	info, err := json.Marshal(infoOf(b))
	if err != nil {
		return types.WrapError(types.ErrMalformed, err, "encoding block info %x", b.Hash)
	}
	return s.db.Put(infoKey(b.Hash), info)
}

// SetHeightIndex records hash as the canonical block at height, overwriting
// whatever a prior fork may have left there. Called only for blocks on the
// currently-chosen chain (tip extension or reorg replay), never for a
// block merely inserted into the tree.
func (s *BlockStore) SetHeightIndex(height uint64, hash types.Hash) error {
	return s.db.Put(heightKey(height), hash[:])
}

// GetBlock loads the block stored under hash, if any.
func (s *BlockStore) GetBlock(hash types.Hash) (*block.BlockData, bool, error) {
	data, err := s.db.Get(blockKey(hash))
	if err != nil {
		return nil, false, nil
	}
	var b block.BlockData
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, false, types.WrapError(types.ErrMalformed, err, "decoding block %x", hash)
	}
	return &b, true, nil
}

// GetBlockInfo loads the header-only projection stored under hash, if any.
// Query surfaces use this to serve header lookups without decoding the
// block's transaction list.
func (s *BlockStore) GetBlockInfo(hash types.Hash) (*BlockInfo, bool, error) {
	data, err := s.db.Get(infoKey(hash))
	if err != nil {
		return nil, false, nil
	}
	var info BlockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, false, types.WrapError(types.ErrMalformed, err, "decoding block info %x", hash)
	}
	return &info, true, nil
}

// GetBlockByHeight loads the canonical block at height, if any.
func (s *BlockStore) GetBlockByHeight(height uint64) (*block.BlockData, bool, error) {
	hashBytes, err := s.db.Get(heightKey(height))
	if err != nil {
		return nil, false, nil
	}
	var hash types.Hash
	copy(hash[:], hashBytes)
	return s.GetBlock(hash)
}

// HasBlock reports whether hash is persisted.
func (s *BlockStore) HasBlock(hash types.Hash) bool {
	ok, err := s.db.Has(blockKey(hash))
	return err == nil && ok
}

// SetCurrentHeight persists the canonical chain height as an ASCII decimal
// integer.
func (s *BlockStore) SetCurrentHeight(height uint64) error {
	return s.db.Put(keyCurrentHeight, []byte(strconv.FormatUint(height, 10)))
}

// GetCurrentHeight returns the persisted chain height, if one has been set.
func (s *BlockStore) GetCurrentHeight() (uint64, bool) {
	data, err := s.db.Get(keyCurrentHeight)
	if err != nil {
		return 0, false
	}
	height, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, false
	}
	return height, true
}
