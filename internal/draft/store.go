package draft

import (
	"fmt"
	"sync"

	"github.com/draftops/draftops/internal/protocol"
)

// DefaultMaxHistory is how many snapshots the store retains for rollback.
const DefaultMaxHistory = 100

// Store owns the current snapshot and a bounded ring of recent ones.
//
// Writes are single-writer: only the ingest goroutine calls Apply and only
// the recovery coordinator calls Rollback, never concurrently with each
// other. The mutex exists so external readers can grab Current from any
// goroutine; the snapshots themselves are immutable, so a reader can hold
// one for as long as it likes.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
	history []*Snapshot // oldest first, current is always the last entry
	max     int
}

func NewStore(initial *Snapshot, maxHistory int) *Store {
	if maxHistory < 1 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		current: initial,
		history: []*Snapshot{initial},
		max:     maxHistory,
	}
}

// Current returns the latest snapshot.
func (st *Store) Current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Apply runs the pure transform against the current snapshot and, when the
// event produced a new one, advances the store and retains it for rollback.
// The new (or unchanged) snapshot is returned alongside any rejection.
func (st *Store) Apply(ev protocol.DraftEvent) (*Snapshot, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next, err := Apply(st.current, ev)
	if err != nil {
		return st.current, err
	}
	if next != st.current {
		st.current = next
		st.history = append(st.history, next)
		if len(st.history) > st.max {
			st.history = st.history[len(st.history)-st.max:]
		}
	}
	return st.current, nil
}

// Rollback returns the store to the retained snapshot with the given
// sequence number and drops everything after it. Used only by recovery;
// ordinary event flow never rolls back.
func (st *Store) Rollback(seq uint64) (*Snapshot, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for i := len(st.history) - 1; i >= 0; i-- {
		if st.history[i].SequenceNumber == seq {
			st.history = st.history[:i+1]
			st.current = st.history[i]
			return st.current, nil
		}
	}
	return nil, fmt.Errorf("rollback to seq %d: %w", seq, ErrSequenceEvicted)
}

// HistoryLen reports how many snapshots are currently retained.
func (st *Store) HistoryLen() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.history)
}
