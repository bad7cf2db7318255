// Package events implements the node's observability out-events: a
// set of typed, best-effort channels the dashboard collaborator may listen
// on. The core never blocks waiting for a subscriber — publishing an event
// to a full channel drops the oldest queued event to make room, rather
// than stalling the task queue; publish latency is bounded and never
// suspends the loop.
package events

import (
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
	"github.com/contrast-network/contrast-chain/pkg/types"
)

// busCapacity bounds each out-event channel. A slow or absent subscriber
// can fall behind by at most this many events before older ones are
// dropped.
const busCapacity = 64

// NewCandidate is published when the node broadcasts a newly built
// candidate block (onBroadcastNewCandidate).
type NewCandidate struct {
	Block *block.BlockData
}

// FinalizedBlock is published when a proposal is fully digested and
// accepted onto the chosen chain (onBroadcastFinalizedBlock).
type FinalizedBlock struct {
	Block *block.BlockData
}

// HashRate is published by the miner's rolling estimator
// (onHashRateUpdated), in hashes per second.
type HashRate struct {
	HashesPerSecond float64
}

// BalanceUpdate is published whenever an address's tallied balance changes
// as a result of a digest (onBalanceUpdated).
type BalanceUpdate struct {
	Address types.Address
	Balance uint64
}

// TransactionBroadcasted is published when a transaction is admitted to
// the mempool and would be relayed onward (onTransactionBroadcasted).
type TransactionBroadcasted struct {
	Tx *contrasttx.Transaction
}

// UtxoSpent is published when a digest consumes a UTXO
// (onUtxoSpent).
type UtxoSpent struct {
	Anchor  types.Anchor
	Address types.Address
}

// Bus fans out the six out-event kinds over buffered channels. The zero
// value is not usable; construct with New.
type Bus struct {
	newCandidate  chan NewCandidate
	finalized     chan FinalizedBlock
	hashRate      chan HashRate
	balance       chan BalanceUpdate
	txBroadcasted chan TransactionBroadcasted
	utxoSpent     chan UtxoSpent
}

// New creates a Bus with all six channels buffered to busCapacity.
func New() *Bus {
	return &Bus{
		newCandidate:  make(chan NewCandidate, busCapacity),
		finalized:     make(chan FinalizedBlock, busCapacity),
		hashRate:      make(chan HashRate, busCapacity),
		balance:       make(chan BalanceUpdate, busCapacity),
		txBroadcasted: make(chan TransactionBroadcasted, busCapacity),
		utxoSpent:     make(chan UtxoSpent, busCapacity),
	}
}

// NewCandidates returns the read side of the onBroadcastNewCandidate
// channel, for a dashboard-style subscriber.
func (b *Bus) NewCandidates() <-chan NewCandidate { return b.newCandidate }

// FinalizedBlocks returns the read side of the onBroadcastFinalizedBlock
// channel.
func (b *Bus) FinalizedBlocks() <-chan FinalizedBlock { return b.finalized }

// HashRates returns the read side of the onHashRateUpdated channel.
func (b *Bus) HashRates() <-chan HashRate { return b.hashRate }

// BalanceUpdates returns the read side of the onBalanceUpdated channel.
func (b *Bus) BalanceUpdates() <-chan BalanceUpdate { return b.balance }

// TransactionsBroadcasted returns the read side of the
// onTransactionBroadcasted channel.
func (b *Bus) TransactionsBroadcasted() <-chan TransactionBroadcasted { return b.txBroadcasted }

// UtxosSpent returns the read side of the onUtxoSpent channel.
func (b *Bus) UtxosSpent() <-chan UtxoSpent { return b.utxoSpent }

// PublishNewCandidate emits onBroadcastNewCandidate.
func (b *Bus) PublishNewCandidate(blk *block.BlockData) {
	publish(b.newCandidate, NewCandidate{Block: blk})
}

// PublishFinalizedBlock emits onBroadcastFinalizedBlock.
func (b *Bus) PublishFinalizedBlock(blk *block.BlockData) {
	publish(b.finalized, FinalizedBlock{Block: blk})
}

// PublishHashRate emits onHashRateUpdated.
func (b *Bus) PublishHashRate(hashesPerSecond float64) {
	publish(b.hashRate, HashRate{HashesPerSecond: hashesPerSecond})
}

// PublishBalanceUpdate emits onBalanceUpdated.
func (b *Bus) PublishBalanceUpdate(addr types.Address, balance uint64) {
	publish(b.balance, BalanceUpdate{Address: addr, Balance: balance})
}

// PublishTransactionBroadcasted emits onTransactionBroadcasted.
func (b *Bus) PublishTransactionBroadcasted(tx *contrasttx.Transaction) {
	publish(b.txBroadcasted, TransactionBroadcasted{Tx: tx})
}

// PublishUtxoSpent emits onUtxoSpent.
func (b *Bus) PublishUtxoSpent(anchor types.Anchor, addr types.Address) {
	publish(b.utxoSpent, UtxoSpent{Anchor: anchor, Address: addr})
}

// publish is a non-blocking send that drops the oldest queued event to
// make room when the channel is full, so a stalled subscriber never backs
// up into the publisher.
func publish[T any](ch chan T, ev T) {
	for {
		select {
		case ch <- ev:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
