// Package taskqueue implements the single-consumer FIFO that serializes
// all state-mutating work: transaction admission, finalized-block
// digest, and sync requests all funnel through one cooperative loop so the
// node's state (UTXO cache, mempool, VSS, tree, snapshots) is never
// touched by more than one goroutine at a time.
package taskqueue

import (
	"github.com/contrast-network/contrast-chain/pkg/block"
	"github.com/contrast-network/contrast-chain/pkg/contrasttx"
)

// Kind distinguishes the three task shapes the node's state machine
// drains from the queue.
type Kind int

const (
	KindPushTransaction Kind = iota
	KindDigestPowProposal
	KindSyncWithKnownPeers
)

// String names the kind for logging and metrics.
func (k Kind) String() string {
	switch k {
	case KindPushTransaction:
		return "PushTransaction"
	case KindDigestPowProposal:
		return "DigestPowProposal"
	case KindSyncWithKnownPeers:
		return "SyncWithKnownPeers"
	default:
		return "Unknown"
	}
}

// Handler is implemented by the node state machine: one method per task
// kind, each returning the structured error the queue's skip-log and
// counters key off of.
type Handler interface {
	PushTransaction(tx *contrasttx.Transaction) error
	DigestPowProposal(b *block.BlockData) error
	SyncWithKnownPeers() error
}

// Task is one queued unit of work. Exactly one of Tx/Block is populated,
// matching Kind.
type Task struct {
	Kind  Kind
	Tx    *contrasttx.Transaction
	Block *block.BlockData
}

// NewPushTransaction builds a PushTransaction task.
func NewPushTransaction(tx *contrasttx.Transaction) Task {
	return Task{Kind: KindPushTransaction, Tx: tx}
}

// NewDigestPowProposal builds a DigestPowProposal task.
func NewDigestPowProposal(b *block.BlockData) Task {
	return Task{Kind: KindDigestPowProposal, Block: b}
}

// NewSyncWithKnownPeers builds a SyncWithKnownPeers task.
func NewSyncWithKnownPeers() Task {
	return Task{Kind: KindSyncWithKnownPeers}
}

// run dispatches the task to the matching Handler method.
func (t Task) run(h Handler) error {
	switch t.Kind {
	case KindPushTransaction:
		return h.PushTransaction(t.Tx)
	case KindDigestPowProposal:
		return h.DigestPowProposal(t.Block)
	case KindSyncWithKnownPeers:
		return h.SyncWithKnownPeers()
	default:
		return nil
	}
}
