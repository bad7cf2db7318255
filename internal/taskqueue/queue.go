package taskqueue

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/contrast-network/contrast-chain/internal/log"
)

// idleSleep is how long the cooperative loop rests between polls when the
// queue is empty, so the task loop yields rather than busy-spinning.
const idleSleep = 10 * time.Millisecond

// DefaultSkipLog lists the error-kind prefixes (as rendered by
// *types.CoreError.Error(), "<Kind>: ...") the queue swallows rather than
// logging as failures, because they represent expected races rather than
// bugs: two mempool pushes racing for the same anchor (Conflicting), a
// digest whose input was already spent by a block that landed first
// (UnresolvedInput), or two proposals racing for the same height
// (InvalidBlockIndex).
var DefaultSkipLog = []string{
	"Conflicting:",
	"UnresolvedInput:",
	"InvalidBlockIndex:",
}

// Counters tallies how many tasks of each kind were processed, swallowed
// via the skip-log, or logged as genuine failures.
type Counters struct {
	Processed uint64
	Skipped   uint64
	Errored   uint64
}

// Queue is the single-consumer FIFO. Enqueue is safe to call from any
// goroutine; only Run's own goroutine ever pops or executes tasks.
type Queue struct {
	mu         sync.Mutex
	items      []Task
	syncQueued bool
	counters   map[Kind]*Counters

	handler Handler
	skipLog []string
}

// New creates a Queue dispatching to handler, swallowing errors matching
// skipLog (nil selects DefaultSkipLog).
func New(handler Handler, skipLog []string) *Queue {
	if skipLog == nil {
		skipLog = DefaultSkipLog
	}
	return &Queue{
		counters: map[Kind]*Counters{
			KindPushTransaction:    {},
			KindDigestPowProposal:  {},
			KindSyncWithKnownPeers: {},
		},
		handler: handler,
		skipLog: skipLog,
	}
}

// Enqueue adds t to the back of the queue, or the front if firstPlace is
// set (the node uses this to digest a block it mined itself ahead of
// other queued work). A SyncWithKnownPeers task is dropped if one is
// already queued or executing, per the queue's dedup rule.
func (q *Queue) Enqueue(t Task, firstPlace bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t.Kind == KindSyncWithKnownPeers {
		if q.syncQueued {
			return
		}
		q.syncQueued = true
	}

	if firstPlace {
		q.items = append([]Task{t}, q.items...)
	} else {
		q.items = append(q.items, t)
	}
}

// Len reports the number of tasks currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// CanProceedMining reports whether the miner may spend CPU on a mining
// attempt right now. It is cleared whenever work is pending, so the
// single state-mutating goroutine never has to contend with a miner
// worker for CPU.
func (q *Queue) CanProceedMining() bool {
	return q.Len() == 0
}

// Counters returns a snapshot of the per-kind counters.
func (q *Queue) Counters(k Kind) Counters {
	q.mu.Lock()
	defer q.mu.Unlock()
	return *q.counters[k]
}

// Run drains the queue until ctx is cancelled, executing one task at a
// time and sleeping idleSleep between polls when empty.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok := q.pop()
		if !ok {
			time.Sleep(idleSleep)
			continue
		}
		q.execute(task)
	}
}

func (q *Queue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Task{}, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

func (q *Queue) execute(t Task) {
	err := t.run(q.handler)

	q.mu.Lock()
	if t.Kind == KindSyncWithKnownPeers {
		q.syncQueued = false
	}
	counters := q.counters[t.Kind]
	switch {
	case err == nil:
		counters.Processed++
	case q.matchesSkipLogLocked(err.Error()):
		counters.Skipped++
	default:
		counters.Errored++
	}
	q.mu.Unlock()

	switch {
	case err == nil:
		return
	case q.matchesSkipLog(err.Error()):
		log.TaskQueue.Debug().Err(err).Str("kind", t.Kind.String()).Msg("swallowed expected error")
	default:
		log.TaskQueue.Error().Err(err).Str("kind", t.Kind.String()).Msg("task failed")
	}
}

func (q *Queue) matchesSkipLog(msg string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.matchesSkipLogLocked(msg)
}

// matchesSkipLogLocked requires the caller to hold q.mu.
func (q *Queue) matchesSkipLogLocked(msg string) bool {
	for _, substr := range q.skipLog {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
