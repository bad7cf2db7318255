// Package miner implements the proof-of-work half of block production:
// given a stream of candidate blocks assigned legitimacy by the
// node's VSS round, it repeatedly attempts a single Argon2id hash per
// worker slot over a freshly drawn nonce pair, and hands any block that
// meets its difficulty back to the node through the Submitter interface.
package miner

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/contrast-network/contrast-chain/config"
	"github.com/contrast-network/contrast-chain/internal/events"
	"github.com/contrast-network/contrast-chain/internal/log"
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/crypto"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// hashTimeWindow bounds the rolling mean the hashrate estimator computes
// over (a rolling mean over the last N hash times).
const hashTimeWindow = 32

// idlePoll is how long the mining loop waits for a worker result before
// looping back to re-check candidates and the preshoted block; the
// mining loop yields between attempts.
const idlePoll = 10 * time.Millisecond

// betFractionMin and betFractionMax bound the randomized per-height
// timestamp offset as a fraction of TARGET_BLOCK_TIME.
const (
	betFractionMin = 0.4
	betFractionMax = 0.8
)

// Submitter receives a block the miner has solved. The node implements
// this by enqueuing a DigestPowProposal task so the
// solved block is validated and digested through the normal pipeline
// just like one arriving from a peer.
type Submitter interface {
	SubmitMinedBlock(b *block.BlockData)
}

// workerResult is what a single Argon2id attempt reports back to the
// mining loop.
type workerResult struct {
	block    *block.BlockData
	conforms bool
}

// candidateKey identifies a candidate for pushCandidate's dedup rule.
type candidateKey struct {
	index      uint64
	legitimacy uint32
}

// Miner holds one miner's candidate pool, in-flight worker slots, and
// rolling hashrate estimate. The zero value is not usable; construct with
// New.
type Miner struct {
	mu sync.Mutex

	address         types.Address
	heightTolerance uint64
	rules           config.ConsensusRules

	candidates        []*block.BlockData
	highestBlockIndex uint64
	bets              map[uint64]uint32

	preshotedPowBlock *block.BlockData

	workerSlots int
	busy        int

	hashTimes    [hashTimeWindow]time.Duration
	hashTimeN    int
	hashTimeNext int

	bus       *events.Bus
	submitter Submitter
	resultCh  chan workerResult
	wg        sync.WaitGroup

	proceedGate func() bool
}

// New creates a Miner paying out to address, bounded to workerSlots
// concurrent Argon2id attempts, publishing hashrate updates to bus and
// handing solved blocks to submitter.
func New(address types.Address, rules config.ConsensusRules, workerSlots int, bus *events.Bus, submitter Submitter) *Miner {
	if workerSlots < 1 {
		workerSlots = 1
	}
	return &Miner{
		address:         address,
		heightTolerance: rules.HeightTolerance,
		rules:           rules,
		bets:            make(map[uint64]uint32),
		workerSlots:     workerSlots,
		bus:             bus,
		submitter:       submitter,
		resultCh:        make(chan workerResult, workerSlots),
	}
}

// SetProceedGate wires the "canProceedMining" signal: while gate
// returns false (the task queue has pending work), the mining loop yields
// CPU instead of dispatching new attempts, so the single state-mutating
// goroutine never contends with a miner worker. A nil gate (the default)
// always proceeds.
func (m *Miner) SetProceedGate(gate func() bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proceedGate = gate
}

// canProceed reports whether the mining loop may dispatch new attempts
// right now.
func (m *Miner) canProceed() bool {
	m.mu.Lock()
	gate := m.proceedGate
	m.mu.Unlock()
	return gate == nil || gate()
}

// PushCandidate adds a newly legitimacy-ranked block to the candidate
// pool, deduplicating by (index, legitimacy). A candidate at a new
// highest height discards the stale preshoted block and draws a fresh
// bet for that height. useBetTimestamp is accepted for parity with the
// original pushCandidate signature; this core always uses the bet when
// preparing an attempt, so it has no additional effect here.
func (m *Miner) PushCandidate(b *block.BlockData, useBetTimestamp bool) {
	_ = useBetTimestamp

	m.mu.Lock()
	defer m.mu.Unlock()

	key := candidateKey{index: b.Index, legitimacy: b.Legitimacy}
	for _, c := range m.candidates {
		if (candidateKey{index: c.Index, legitimacy: c.Legitimacy}) == key {
			return
		}
	}

	if b.Index > m.highestBlockIndex {
		m.highestBlockIndex = b.Index
		m.preshotedPowBlock = nil
		m.bets[b.Index] = m.drawBet()
	}

	m.candidates = append(m.candidates, cloneBlock(b))
	m.pruneCandidatesLocked()
}

// pruneCandidatesLocked drops candidates more than heightTolerance below
// the highest known height. Caller must hold m.mu.
func (m *Miner) pruneCandidatesLocked() {
	if m.highestBlockIndex < m.heightTolerance {
		return
	}
	floor := m.highestBlockIndex - m.heightTolerance
	kept := m.candidates[:0]
	for _, c := range m.candidates {
		if c.Index >= floor {
			kept = append(kept, c)
		}
	}
	m.candidates = kept
}

// drawBet produces a uniformly random millisecond offset in
// [0.4, 0.8] x TARGET_BLOCK_TIME. Caller must hold m.mu.
func (m *Miner) drawBet() uint32 {
	lo := uint64(betFractionMin * float64(m.rules.TargetBlockTimeMs))
	hi := uint64(betFractionMax * float64(m.rules.TargetBlockTimeMs))
	if hi <= lo {
		return uint32(lo)
	}
	span := hi - lo
	n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(span))
	if err != nil {
		return uint32(lo)
	}
	return uint32(lo + n.Uint64())
}

// Run drains worker results and dispatches new attempts until ctx is
// cancelled. Stopping the miner (cancelling ctx) lets any in-flight
// Argon2id attempt finish — those are not interruptible — then
// waits for all worker goroutines to return before Run itself returns.
func (m *Miner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.wg.Wait()
			return
		default:
		}

		m.checkPreshoted()
		if m.canProceed() {
			m.tryDispatch(ctx)
		}

		select {
		case res := <-m.resultCh:
			m.handleResult(res)
		case <-time.After(idlePoll):
		case <-ctx.Done():
			m.wg.Wait()
			return
		}
	}
}

// checkPreshoted submits and clears the preshoted block once its
// embedded timestamp is no longer in the future.
func (m *Miner) checkPreshoted() {
	m.mu.Lock()
	pre := m.preshotedPowBlock
	if pre == nil || pre.Timestamp > nowMs() {
		m.mu.Unlock()
		return
	}
	m.preshotedPowBlock = nil
	m.mu.Unlock()

	m.submitter.SubmitMinedBlock(pre)
}

// tryDispatch prepares and dispatches one attempt per free worker slot.
func (m *Miner) tryDispatch(ctx context.Context) {
	for {
		attempt, ok := m.prepareNextAttempt()
		if !ok {
			return
		}
		m.wg.Add(1)
		go m.runWorker(ctx, attempt)
	}
}

// prepareNextAttempt selects the minimum-legitimacy candidate at the
// highest known height, reserves a worker slot, and builds a ready-to-hash
// attempt. Returns ok=false if no slot is free or no candidate qualifies.
func (m *Miner) prepareNextAttempt() (*block.BlockData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busy >= m.workerSlots {
		return nil, false
	}

	var best *block.BlockData
	for _, c := range m.candidates {
		if c.Index != m.highestBlockIndex {
			continue
		}
		if best == nil || c.Legitimacy < best.Legitimacy {
			best = c
		}
	}
	if best == nil {
		return nil, false
	}

	bet := m.bets[best.Index]
	attempt, err := prepareAttempt(best, bet, m.address)
	if err != nil {
		log.Miner.Error().Err(err).Uint64("index", best.Index).Msg("prepare attempt")
		return nil, false
	}

	m.busy++
	return attempt, true
}

// prepareAttempt clones candidate, sets its timestamp, draws fresh header
// and coinbase nonces, and assigns the coinbase reward to address.
// The coinbase share is fixed by convention at CoinBase - CoinBase/2,
// computable from the header alone: the PoS-reward transaction the node
// already placed in candidate.Txs[0] mints its own CoinBase/2 share plus
// the packed transactions' fees, so the split balances the per-block
// conservation check without the miner ever needing UTXO-cache or mempool
// access. The miner only ever changes who receives the coinbase output
// and which nonces seal the block, never the amounts.
func prepareAttempt(candidate *block.BlockData, bet uint32, address types.Address) (*block.BlockData, error) {
	attempt := cloneBlock(candidate)

	minTimestamp := attempt.PosTimestamp + 1 + uint64(bet)
	if now := nowMs(); now > minTimestamp {
		attempt.Timestamp = now
	} else {
		attempt.Timestamp = minTimestamp
	}

	headerNonce, err := randomNonce()
	if err != nil {
		return nil, err
	}
	attempt.HeaderNonce = headerNonce

	coinbaseNonce, err := randomNonce()
	if err != nil {
		return nil, err
	}

	powShare := attempt.CoinBase - attempt.CoinBase/2

	coinbase := &contrasttx.Transaction{
		Version: 1,
		Inputs:  []contrasttx.TxInput{contrasttx.NewCoinbaseInput(coinbaseNonce)},
		Outputs: []contrasttx.TxOutput{{
			Amount:  powShare,
			Address: address,
			Rule:    types.RuleSig,
		}},
	}
	coinbase.SetID()

	attempt.Txs = insertCoinbase(attempt.Txs, coinbase)
	return attempt, nil
}

// insertCoinbase drops any stale coinbase placeholder and inserts the
// freshly built one immediately after the PoS-reward transaction, leaving
// every other transaction's relative order untouched (txsHash only
// excludes sentinels by kind, so their order still matters to the hash).
func insertCoinbase(txs []*contrasttx.Transaction, coinbase *contrasttx.Transaction) []*contrasttx.Transaction {
	out := make([]*contrasttx.Transaction, 0, len(txs)+1)
	inserted := false
	for _, tx := range txs {
		if tx.IsCoinbase() {
			continue
		}
		out = append(out, tx)
		if !inserted && tx.IsPosReward() {
			out = append(out, coinbase)
			inserted = true
		}
	}
	if !inserted {
		out = append([]*contrasttx.Transaction{coinbase}, out...)
	}
	return out
}

// runWorker computes the single Argon2id attempt for attempt and reports
// the result, timing the hash for the rolling hashrate estimator.
func (m *Miner) runWorker(ctx context.Context, attempt *block.BlockData) {
	defer m.wg.Done()

	start := time.Now()
	hash := attempt.MinerHash()
	m.recordHashTime(time.Since(start))

	conforms := crypto.MeetsDifficulty(hash, attempt.Difficulty)
	attempt.Hash = types.Hash(hash)

	select {
	case m.resultCh <- workerResult{block: attempt, conforms: conforms}:
	case <-ctx.Done():
	}
}

// handleResult frees the worker slot and, on a conforming hash, submits
// the block immediately or stores it as preshoted if its timestamp is
// still in the future.
func (m *Miner) handleResult(res workerResult) {
	m.mu.Lock()
	m.busy--
	m.mu.Unlock()

	if !res.conforms {
		return
	}

	if res.block.Timestamp <= nowMs() {
		m.submitter.SubmitMinedBlock(res.block)
		return
	}

	m.mu.Lock()
	m.preshotedPowBlock = res.block
	m.mu.Unlock()
}

// recordHashTime folds elapsed into the rolling window and republishes the
// hashrate estimate (the hashrate estimator's onHashRateUpdated out-event).
func (m *Miner) recordHashTime(elapsed time.Duration) {
	m.mu.Lock()
	m.hashTimes[m.hashTimeNext] = elapsed
	m.hashTimeNext = (m.hashTimeNext + 1) % hashTimeWindow
	if m.hashTimeN < hashTimeWindow {
		m.hashTimeN++
	}

	var total time.Duration
	for i := 0; i < m.hashTimeN; i++ {
		total += m.hashTimes[i]
	}
	n := m.hashTimeN
	m.mu.Unlock()

	if n == 0 || total <= 0 {
		return
	}
	meanSeconds := (total / time.Duration(n)).Seconds()
	if meanSeconds <= 0 {
		return
	}
	m.bus.PublishHashRate(1 / meanSeconds)
}

// cloneBlock copies a block candidate's header fields and its transaction
// slice, so a worker can change its copy's header and transaction list
// without touching the node's candidate pool. The *Transaction values
// themselves are shared with the original, not copied.
func cloneBlock(b *block.BlockData) *block.BlockData {
	clone := *b
	clone.Txs = append([]*contrasttx.Transaction(nil), b.Txs...)
	return &clone
}

// randomNonce draws a 4-byte nonce suitable for either the header or
// coinbase nonce slot.
func randomNonce() ([contrasttx.CoinbaseNonceSize]byte, error) {
	var n [contrasttx.CoinbaseNonceSize]byte
	if _, err := rand.Read(n[:]); err != nil {
		return n, err
	}
	return n, nil
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}
