// Package node ties every other package in this tree into the running
// state machine: a single task queue draining pushed
// transactions and proposed blocks against one mutable pair of UTXO
// cache + VSS spectrum, producing new candidates whenever the node's own
// stake wins a round.
package node

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/contrast-network/contrast-chain/config"
	"github.com/contrast-network/contrast-chain/internal/chain"
	"github.com/contrast-network/contrast-chain/internal/events"
	"github.com/contrast-network/contrast-chain/internal/log"
	"github.com/contrast-network/contrast-chain/internal/mempool"
	"github.com/contrast-network/contrast-chain/internal/miner"
	"github.com/contrast-network/contrast-chain/internal/snapshot"
	"github.com/contrast-network/contrast-chain/internal/storage"
	"github.com/contrast-network/contrast-chain/internal/taskqueue"
	"github.com/contrast-network/contrast-chain/internal/utxo"
	"github.com/contrast-network/contrast-chain/internal/validate"
	"github.com/contrast-network/contrast-chain/internal/vss"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/crypto"
	"github.com/contrast-network/contrast-chain/pkg/types"
	"github.com/rs/zerolog"
)

// maxRankedLegitimacies bounds how many stakers CalculateRoundLegitimacies
// ranks per round — the node only ever needs to know its own rank.
const maxRankedLegitimacies = 100

// snapshotsRetained bounds the in-memory snapshot history the reorg path
// can fall back to.
const snapshotsRetained = 8

// syncMaxAttempts and syncInitialBackoff parameterize SyncWithKnownPeers'
// retry policy: a handful of attempts with exponential backoff before
// giving up for this task-queue turn.
const (
	syncMaxAttempts    = 3
	syncInitialBackoff = 2 * time.Second
)

// Gossip is the external transport collaborator a node broadcasts its own
// candidates and transactions through. Left unimplemented here: wiring a
// concrete gossip layer onto this interface is out of this core's scope.
type Gossip interface {
	BroadcastCandidate(b *block.BlockData) error
	BroadcastTransaction(tx *contrasttx.Transaction) error
}

// SyncClient is the external transport collaborator SyncWithKnownPeers
// uses to catch the node up with its peers' chain state.
type SyncClient interface {
	GetStatus(ctx context.Context) (height uint64, tip types.Hash, err error)
	GetBlocks(ctx context.Context, fromHeight uint64) ([]*block.BlockData, error)
}

// Node is the fully wired state machine: one task queue draining into one
// mutable (utxoCache, spectrum) pair, backed by a persisted block tree and
// periodic snapshots for reorg rollback.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	rules   config.ConsensusRules

	useDevHash bool
	logger     zerolog.Logger

	db          storage.DB
	chain       *chain.Chain
	utxoCache   *utxo.Cache
	utxoStore   *utxo.Store
	spectrum    *vss.Spectrum
	pool        *mempool.Pool
	pubKeys     *validate.PubKeyCache
	snapshotMgr *snapshot.Manager
	queue       *taskqueue.Queue
	bus         *events.Bus

	minerEngine  *miner.Miner
	isMiner      bool
	minerAddress types.Address

	hasStake       bool
	stakingKey     *crypto.PrivateKey
	stakingAddress types.Address

	gossip     Gossip
	syncClient SyncClient

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens storage under cfg.DataDir, loads (or creates) the chain, and
// wires every package in this tree into a ready-to-Start Node.
func New(cfg *config.Config) (*Node, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// ── 1. Address HRP ──────────────────────────────────────────────
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	// ── 2. Logger ────────────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		if err := os.MkdirAll(cfg.LogsDir(), 0o755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = cfg.LogsDir() + "/contrastd.log"
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := log.WithComponent("node")

	// ── 3. Genesis / consensus rules ────────────────────────────────
	genesis := config.GenesisFor(cfg.Network)
	rules := genesis.Protocol.Consensus
	logger.Info().
		Str("chain_id", genesis.ChainID).
		Str("network", string(cfg.Network)).
		Uint64("target_block_time_ms", rules.TargetBlockTimeMs).
		Msg("starting contrast node")

	// ── 4. Storage ───────────────────────────────────────────────────
	if err := os.MkdirAll(cfg.ChainDataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating chain data dir: %w", err)
	}
	db, err := storage.NewBadger(cfg.ChainDataDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.ChainDataDir(), err)
	}
	logger.Info().Str("path", cfg.ChainDataDir()).Msg("database opened")

	n, err := newFromStorage(cfg, genesis, rules, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return n, nil
}

// newFromStorage performs every remaining setup step once db is open,
// split out from New so tests can supply a storage.MemoryDB directly.
func newFromStorage(cfg *config.Config, genesis *config.Genesis, rules config.ConsensusRules, db storage.DB, logger zerolog.Logger) (*Node, error) {
	useDevHash := cfg.Network != config.Mainnet

	// ── 5. Chain: load or init from genesis ─────────────────────────
	blockStore := chain.NewBlockStore(db)
	ch := chain.New(blockStore, rules)

	_, hasGenesis, err := blockStore.GetBlockByHeight(0)
	if err != nil {
		return nil, fmt.Errorf("reading genesis from store: %w", err)
	}
	if !hasGenesis {
		built, err := chain.CreateGenesisBlock(genesis)
		if err != nil {
			return nil, fmt.Errorf("building genesis block: %w", err)
		}
		if err := ch.InitFromGenesis(built); err != nil {
			return nil, fmt.Errorf("initializing chain from genesis: %w", err)
		}
		logger.Info().Msg("chain initialized from genesis")
	} else {
		if err := ch.LoadFromStore(); err != nil {
			return nil, fmt.Errorf("loading chain from store: %w", err)
		}
		logger.Info().Uint64("height", ch.Height()).Str("tip", ch.TipHash().String()).Msg("chain resumed from database")
	}

	n := &Node{
		cfg:         cfg,
		genesis:     genesis,
		rules:       rules,
		useDevHash:  useDevHash,
		logger:      logger,
		db:          db,
		chain:       ch,
		utxoStore:   utxo.NewStore(db),
		pubKeys:     validate.NewPubKeyCacheWithCap(int(rules.MaxKnownPubKeys)),
		snapshotMgr: snapshot.NewManager(rules.SnapshotInterval, snapshotsRetained),
		bus:         events.New(),
	}

	// ── 6. Rebuild UTXO cache + VSS spectrum by replaying every block ─
	// utxoStore.Persist/Load round-trips the UTXO set, but the spectrum
	// has no equivalent persisted form — a Load()-only fast path would
	// restart with a correct UTXO set and an empty spectrum, silently
	// breaking VSS continuity. A full replay rebuilds both consistently,
	// at the cost of startup time proportional to chain height.
	n.utxoCache = utxo.New()
	n.spectrum = vss.New()
	if err := n.replayInto(n.utxoCache, n.spectrum, 0, ch.Height()); err != nil {
		return nil, fmt.Errorf("rebuilding utxo/vss state: %w", err)
	}
	n.snapshotMgr.TakeSnapshot(ch.Height(), n.utxoCache, n.spectrum)
	logger.Info().Uint64("height", ch.Height()).Uint64("balance_total", n.utxoCache.TotalBalance()).Msg("utxo state rebuilt")

	// ── 7. Mempool ───────────────────────────────────────────────────
	n.pool = mempool.New(rules, useDevHash)
	n.pool.SetHeight(ch.Height())

	// ── 8. Staking key (candidate production eligibility) ───────────
	if cfg.Mining.ValidatorKey != "" {
		key, err := loadValidatorKey(cfg.Mining.ValidatorKey)
		if err != nil {
			return nil, fmt.Errorf("loading validator key %s: %w", cfg.Mining.ValidatorKey, err)
		}
		n.stakingKey = key
		n.stakingAddress = crypto.DeriveAddress(key.PublicKey(), useDevHash)
		n.hasStake = true
		logger.Info().Str("address", n.stakingAddress.String()).Msg("validator key loaded")
	}

	// ── 9. Miner (PoW half of block production) ──────────────────────
	if cfg.Mining.Enabled {
		minerAddr, err := resolveCoinbase(cfg.Mining.Coinbase, n.stakingKey, useDevHash)
		if err != nil {
			return nil, fmt.Errorf("resolving mining coinbase: %w", err)
		}
		n.minerAddress = minerAddr
		n.isMiner = true
		workers := cfg.Mining.Threads
		if workers < 1 {
			workers = 1
		}
		n.minerEngine = miner.New(minerAddr, rules, workers, n.bus, n)
		logger.Info().Str("coinbase", minerAddr.String()).Int("threads", workers).Msg("mining enabled")
	}

	n.queue = taskqueue.New(n, nil)
	if n.minerEngine != nil {
		n.minerEngine.SetProceedGate(n.queue.CanProceedMining)
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())

	return n, nil
}

// SetGossip wires an optional outbound transport for candidates and
// transactions the node itself produces or admits.
func (n *Node) SetGossip(g Gossip) { n.gossip = g }

// SetSyncClient wires an optional peer catch-up client SyncWithKnownPeers
// drives.
func (n *Node) SetSyncClient(c SyncClient) { n.syncClient = c }

// Height returns the chain's current tip height.
func (n *Node) Height() uint64 { return n.chain.Height() }

// TipHash returns the chain's current tip hash.
func (n *Node) TipHash() types.Hash { return n.chain.TipHash() }

// Bus exposes the node's out-event channels for a dashboard-style
// subscriber.
func (n *Node) Bus() *events.Bus { return n.bus }

// Start launches the task queue's drain loop and, if mining is enabled,
// the miner's worker loop. It does not block.
func (n *Node) Start() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.queue.Run(n.ctx)
	}()

	if n.minerEngine != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.minerEngine.Run(n.ctx)
		}()
	}

	n.queue.Enqueue(taskqueue.NewSyncWithKnownPeers(), false)
	n.logger.Info().Msg("node started")
}

// Stop cancels the background loops, waits for them to exit, and best-
// effort checkpoints the UTXO set before closing storage.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()

	if err := n.utxoStore.Persist(n.utxoCache); err != nil {
		n.logger.Warn().Err(err).Msg("checkpointing utxo store failed")
	}
	if err := n.db.Close(); err != nil {
		n.logger.Warn().Err(err).Msg("closing storage failed")
	}
	n.logger.Info().Msg("node stopped")
}

// PushTransaction implements taskqueue.Handler: admits tx to the mempool
// against live state and, on success, announces it.
func (n *Node) PushTransaction(tx *contrasttx.Transaction) error {
	if err := n.pool.PushTransaction(n.utxoCache, tx); err != nil {
		return err
	}
	n.bus.PublishTransactionBroadcasted(tx)
	if n.gossip != nil {
		if err := n.gossip.BroadcastTransaction(tx); err != nil {
			n.logger.Warn().Err(err).Str("tx", tx.IDHex()).Msg("broadcasting transaction failed")
		}
	}
	return nil
}

// SubmitMinedBlock implements miner.Submitter: a solved block re-enters
// through the same DigestPowProposal pipeline a gossiped block would,
// jumping the queue since the node itself just spent CPU producing it.
func (n *Node) SubmitMinedBlock(b *block.BlockData) {
	n.queue.Enqueue(taskqueue.NewDigestPowProposal(b), true)
}

// DigestPowProposal implements taskqueue.Handler: validates a
// proposed block against its declared parent, admits it into the block
// tree, reorgs onto it if it becomes the best leaf, and attempts to
// produce the node's own next candidate.
func (n *Node) DigestPowProposal(b *block.BlockData) error {
	parent, ok, err := n.chain.GetBlock(b.PrevHash)
	if err != nil {
		return err
	}
	if !ok {
		n.queue.Enqueue(taskqueue.NewSyncWithKnownPeers(), false)
		return types.NewError(types.ErrInvalidBlockIndex, "proposal %s: unknown parent %s", b.Hash, b.PrevHash)
	}
	if b.Index != parent.Index+1 {
		return types.NewError(types.ErrInvalidBlockIndex, "proposal %s: index %d != parent %d + 1", b.Hash, b.Index, parent.Index)
	}
	if b.Timestamp < b.PosTimestamp+1 {
		return types.NewError(types.ErrMalformed, "proposal %s: timestamp %d precedes posTimestamp %d + 1", b.Hash, b.Timestamp, b.PosTimestamp)
	}
	if b.PosTimestamp < parent.PosTimestamp {
		return types.NewError(types.ErrMalformed, "proposal %s: posTimestamp %d regresses below parent's %d", b.Hash, b.PosTimestamp, parent.PosTimestamp)
	}
	if !b.VerifyHash() {
		return types.NewError(types.ErrHashNonConform, "proposal %s fails hash/difficulty check", b.Hash)
	}

	expectedSupply := parent.Supply + parent.CoinBase
	expectedReward := block.CalculateNextCoinbaseReward(parent.Index, expectedSupply, n.rules)
	if b.Supply != expectedSupply || b.CoinBase != expectedReward {
		return types.NewError(types.ErrInvalidCoinbase, "proposal %s: supply/coinbase %d/%d != expected %d/%d",
			b.Hash, b.Supply, b.CoinBase, expectedSupply, expectedReward)
	}

	if b.PrevHash == n.chain.TipHash() {
		cacheClone := n.utxoCache.Clone()
		spectrumClone := n.spectrum.Clone()
		if err := n.validateAndDigestOne(cacheClone, spectrumClone, b); err != nil {
			return err
		}
		if err := n.chain.AddBlock(b); err != nil {
			return err
		}
		n.commitTip(cacheClone, spectrumClone, b)
	} else {
		// Off-tip: only the parent-relative checks above apply at insertion
		// time. Full economic validation of this branch is deferred to
		// reorg-time replay below — if it never becomes the best leaf it
		// is never validated further, and it can never touch live state.
		if err := n.chain.AddBlock(b); err != nil {
			return err
		}
	}

	if best := n.chain.FindBestBlock(); best != n.chain.TipHash() {
		if err := n.performReorg(best); err != nil {
			n.logger.Error().Err(err).Str("candidate", best.String()).Msg("reorg aborted, staying on current tip")
		}
	}

	n.produceCandidate()
	return nil
}

// SyncWithKnownPeers implements taskqueue.Handler: catches the node up
// with a configured peer, retrying with exponential backoff.
func (n *Node) SyncWithKnownPeers() error {
	if n.syncClient == nil {
		return types.NewError(types.ErrUnavailable, "sync: no sync client configured")
	}

	backoff := syncInitialBackoff
	var lastErr error
	for attempt := 0; attempt < syncMaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		ctx := n.ctx
		_, remoteTip, err := n.syncClient.GetStatus(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if remoteTip == n.chain.TipHash() {
			return nil
		}

		blocks, err := n.syncClient.GetBlocks(ctx, n.chain.Height()+1)
		if err != nil {
			lastErr = err
			continue
		}
		for _, b := range blocks {
			if err := n.DigestPowProposal(b); err != nil && !types.Is(err, types.ErrInvalidBlockIndex) {
				lastErr = err
				break
			}
		}
		return nil
	}
	return types.WrapError(types.ErrUnavailable, lastErr, "sync: exhausted %d attempts", syncMaxAttempts)
}

// validateAndDigestOne runs full transaction validation and digests b
// into cache/spectrum. Shared by the tip-extending fast path, reorg
// replay, and startup replay, so every block is held to the same bar
// regardless of which path admitted it.
func (n *Node) validateAndDigestOne(cache *utxo.Cache, spectrum *vss.Spectrum, b *block.BlockData) error {
	if err := validate.IsFinalizedBlockDoubleSpending(cache, b); err != nil {
		return err
	}
	for _, tx := range b.Txs {
		if err := validate.FullTransactionValidation(cache, n.pubKeys, tx, tx.IsCoinbase(), n.useDevHash, n.rules.MaxSupply, b.Index, config.CoinbaseMaturity); err != nil {
			return err
		}
	}

	spent := collectSpentUTXOs(cache, b)

	stakes, err := cache.DigestFinalizedBlocks([]*block.BlockData{b})
	if err != nil {
		return err
	}
	for _, s := range spent {
		n.bus.PublishUtxoSpent(s.Anchor, s.Address)
	}
	for _, st := range stakes {
		if err := spectrum.Register(st.Amount, vss.StakeRef{Address: st.Address, Anchor: st.Anchor}, n.rules.MaxSupply); err != nil {
			n.logger.Debug().Err(err).Str("address", st.Address.String()).Msg("stake registration skipped")
		}
	}
	return nil
}

// commitTip promotes cache/spectrum to live state after a tip-extending
// digest, updating every dependent subsystem.
func (n *Node) commitTip(cache *utxo.Cache, spectrum *vss.Spectrum, b *block.BlockData) {
	n.utxoCache = cache
	n.spectrum = spectrum

	if err := n.chain.CommitHeightIndex(b); err != nil {
		n.logger.Error().Err(err).Msg("persisting height index failed")
	}
	if err := n.chain.SetTip(b.Hash); err != nil {
		n.logger.Error().Err(err).Msg("persisting new tip failed")
	}

	n.pool.ClearTransactionsWhoseUTXOsAreSpent(cache)
	n.pool.DigestFinalizedBlocksTransactions([]*block.BlockData{b})
	n.pool.SetHeight(b.Index)

	if n.snapshotMgr.ShouldSnapshotAt(b.Index) {
		n.snapshotMgr.TakeSnapshot(b.Index, cache, spectrum)
	}

	n.bus.PublishFinalizedBlock(b)
	for _, addr := range affectedAddresses(b) {
		n.bus.PublishBalanceUpdate(addr, cache.Balance(addr))
	}
}

// spentUTXO pairs a consumed anchor with the address that owned it, for
// the onUtxoSpent out-event.
type spentUTXO struct {
	Anchor  types.Anchor
	Address types.Address
}

// collectSpentUTXOs resolves every anchor b's non-sentinel transactions
// consume against cache as it stands immediately before digest — the only
// point at which those UTXOs are still present to resolve an owning
// address from.
func collectSpentUTXOs(cache *utxo.Cache, b *block.BlockData) []spentUTXO {
	var out []spentUTXO
	for _, tx := range b.Txs {
		if tx.IsSentinel() {
			continue
		}
		for _, in := range tx.Inputs {
			if u, ok := cache.Get(in.Anchor); ok {
				out = append(out, spentUTXO{Anchor: in.Anchor, Address: u.Address})
			}
		}
	}
	return out
}

// affectedAddresses collects every address with a stake in a finalized
// block's transactions, for the BalanceUpdate out-event.
func affectedAddresses(b *block.BlockData) []types.Address {
	seen := make(map[types.Address]struct{})
	var out []types.Address
	for _, tx := range b.Txs {
		for _, o := range tx.Outputs {
			if _, ok := seen[o.Address]; !ok {
				seen[o.Address] = struct{}{}
				out = append(out, o.Address)
			}
		}
	}
	return out
}

// replayInto digests every persisted block in [from, to] into cache and
// spectrum, in order. Used both to rebuild state at startup and to
// reconstruct state at an arbitrary height during reorg.
func (n *Node) replayInto(cache *utxo.Cache, spectrum *vss.Spectrum, from, to uint64) error {
	for h := from; h <= to; h++ {
		b, ok, err := n.chain.GetBlockByHeight(h)
		if err != nil {
			return err
		}
		if !ok {
			return types.NewError(types.ErrSnapshotMissing, "missing block at height %d", h)
		}
		if err := n.validateAndDigestOne(cache, spectrum, b); err != nil {
			return fmt.Errorf("replaying height %d: %w", h, err)
		}
	}
	return nil
}

// stateAtHeight reconstructs the (utxoCache, spectrum) pair as of height,
// restoring the nearest snapshot at or below it and replaying forward.
func (n *Node) stateAtHeight(height uint64) (*utxo.Cache, *vss.Spectrum, error) {
	cache := utxo.New()
	spectrum := vss.New()

	if n.snapshotMgr.HasSnapshotAt(height) {
		if err := n.snapshotMgr.RestoreSnapshot(height, cache, spectrum); err != nil {
			return nil, nil, err
		}
		return cache, spectrum, nil
	}

	from := uint64(0)
	if nearest, ok := n.snapshotMgr.NearestSnapshotAtOrBelow(height); ok {
		if err := n.snapshotMgr.RestoreSnapshot(nearest, cache, spectrum); err != nil {
			return nil, nil, err
		}
		from = nearest + 1
	}

	if err := n.replayInto(cache, spectrum, from, height); err != nil {
		return nil, nil, err
	}
	return cache, spectrum, nil
}

// performReorg moves live state from the current tip to newTip, replaying
// every block on the new best branch from their common ancestor. On any
// validation failure the reorg is aborted and the current tip is kept
// untouched — a block admitted into the tree but never chosen as best is
// never held to full economic validation.
func (n *Node) performReorg(newTip types.Hash) error {
	revert, apply, err := n.chain.GetReorgPath(newTip)
	if err != nil {
		return err
	}
	if len(revert) == 0 && len(apply) == 0 {
		return nil
	}

	var ancestorHash types.Hash
	if len(revert) > 0 {
		last, ok, err := n.chain.GetBlock(revert[len(revert)-1])
		if err != nil {
			return err
		}
		if !ok {
			return types.NewError(types.ErrSnapshotMissing, "reorg: missing revert-path block")
		}
		ancestorHash = last.PrevHash
	} else {
		first, ok, err := n.chain.GetBlock(apply[0])
		if err != nil {
			return err
		}
		if !ok {
			return types.NewError(types.ErrSnapshotMissing, "reorg: missing apply-path block")
		}
		ancestorHash = first.PrevHash
	}

	ancestor, ok, err := n.chain.GetBlock(ancestorHash)
	if err != nil {
		return err
	}
	if !ok {
		return types.NewError(types.ErrSnapshotMissing, "reorg: unknown common ancestor %s", ancestorHash)
	}

	cache, spectrum, err := n.stateAtHeight(ancestor.Index)
	if err != nil {
		return types.WrapError(types.ErrSnapshotMissing, err, "reorg: reconstructing state at height %d", ancestor.Index)
	}

	applied := make([]*block.BlockData, 0, len(apply))
	for _, hash := range apply {
		b, ok, err := n.chain.GetBlock(hash)
		if err != nil {
			return err
		}
		if !ok {
			return types.NewError(types.ErrSnapshotMissing, "reorg: missing apply block %s", hash)
		}
		if err := n.validateAndDigestOne(cache, spectrum, b); err != nil {
			return fmt.Errorf("reorg: block %d invalid on replay: %w", b.Index, err)
		}
		if n.snapshotMgr.ShouldSnapshotAt(b.Index) {
			n.snapshotMgr.TakeSnapshot(b.Index, cache, spectrum)
		}
		applied = append(applied, b)
	}

	for _, b := range applied {
		if err := n.chain.CommitHeightIndex(b); err != nil {
			n.logger.Error().Err(err).Uint64("height", b.Index).Msg("persisting height index failed during reorg")
		}
	}

	if err := n.chain.SetTip(newTip); err != nil {
		return err
	}
	n.utxoCache = cache
	n.spectrum = spectrum

	n.pool.ClearTransactionsWhoseUTXOsAreSpent(cache)
	if len(applied) > 0 {
		n.pool.DigestFinalizedBlocksTransactions(applied)
		n.pool.SetHeight(applied[len(applied)-1].Index)
	} else {
		n.pool.SetHeight(ancestor.Index)
	}

	if tipBlock, ok, err := n.chain.GetBlock(newTip); err == nil && ok {
		n.bus.PublishFinalizedBlock(tipBlock)
	}
	n.logger.Warn().
		Int("reverted", len(revert)).
		Int("applied", len(apply)).
		Uint64("new_height", ancestor.Index+uint64(len(apply))).
		Msg("reorg completed")
	return nil
}

// produceCandidate builds and announces the node's own next candidate
// block, if its staking address appears anywhere in this round's
// legitimacy ranking. A no-op for a node with no staking key configured.
func (n *Node) produceCandidate() {
	if !n.hasStake {
		return
	}

	tipHash := n.chain.TipHash()
	tip, ok, err := n.chain.GetBlock(tipHash)
	if err != nil || !ok {
		n.logger.Warn().Msg("produceCandidate: tip block unavailable")
		return
	}

	ranked := n.spectrum.CalculateRoundLegitimacies(tipHash[:], maxRankedLegitimacies)
	legitimacy := vss.GetAddressLegitimacy(ranked, n.stakingAddress.String())
	if legitimacy >= len(ranked) {
		n.logger.Debug().Msg("produceCandidate: not qualified this round")
		return
	}

	points := make([]block.DifficultyPoint, 0, len(n.utxoCache.MiningData()))
	for _, p := range n.utxoCache.MiningData() {
		points = append(points, block.DifficultyPoint{Index: p.Index, Difficulty: p.Difficulty, Timestamp: p.Timestamp})
	}
	difficulty := block.NextDifficulty(points, n.rules)

	newSupply := tip.Supply + tip.CoinBase
	reward := block.CalculateNextCoinbaseReward(tip.Index, newSupply, n.rules)
	posShare := reward / 2

	// Fees paid by the packed transactions are destroyed by their own
	// digest (outputs < inputs), so the block's sentinels must re-mint
	// them or the post-digest conservation check fails. The PoS-reward
	// output carries them: the miner's coinbase share is fixed at
	// CoinBase - CoinBase/2 by convention, computable from the header
	// alone, so everything variable lands here. A transaction whose fee no
	// longer resolves went stale under this tip and is dropped from the
	// batch rather than guessed at.
	batch := n.pool.GetMostLucrativeTransactionsBatch()
	var fees uint64
	txs := batch[:0]
	for _, tx := range batch {
		fee, err := validate.RemainingAmount(n.utxoCache, tx)
		if err != nil {
			continue
		}
		fees += fee
		txs = append(txs, tx)
	}

	candidate := &block.BlockData{
		Index:        tip.Index + 1,
		Supply:       newSupply,
		CoinBase:     reward,
		Difficulty:   difficulty,
		Legitimacy:   uint32(legitimacy),
		PrevHash:     tipHash,
		PosTimestamp: uint64(time.Now().UnixMilli()),
		Txs:          txs,
	}

	// The PoS hash excludes the PoS-reward tx itself (txsHash), so it can
	// be computed here, before that transaction exists, and embedded as
	// its sole input.
	posHash := candidate.Signature(true)
	posTx := &contrasttx.Transaction{
		Version: validate.CurrentTxVersion,
		Inputs:  []contrasttx.TxInput{contrasttx.NewPosRefInput(n.stakingAddress, posHash)},
		Outputs: []contrasttx.TxOutput{{Amount: posShare + fees, Address: n.stakingAddress, Rule: types.RuleSigOrSlash}},
	}
	posTx.SetID()
	candidate.Txs = append([]*contrasttx.Transaction{posTx}, candidate.Txs...)

	n.bus.PublishNewCandidate(candidate)
	if n.minerEngine != nil {
		// The miner appends its own coinbase transaction, paying itself
		// CoinBase - CoinBase/2; a candidate built here must never carry
		// one.
		n.minerEngine.PushCandidate(candidate, true)
	}
	if n.gossip != nil {
		if err := n.gossip.BroadcastCandidate(candidate); err != nil {
			n.logger.Warn().Err(err).Msg("broadcasting candidate failed")
		}
	}
}
