package state

import (
	"sync"

	"camwatch/internal/event"
	"camwatch/internal/logging"
)

// DefaultLedgerCapacity bounds the match ledger when no explicit
// capacity is configured.
const DefaultLedgerCapacity = 50

// PersistFunc receives the full ledger contents after every mutation.
// A persistence failure is the callback's problem to log; the in-memory
// ledger stays authoritative either way.
type PersistFunc func(records []event.MatchRecord)

// Ledger is the deduplicated, most-recent-first, capacity-bounded
// collection of identity match records. The identity key is SubjectID:
// a repeat match for a known subject replaces the record in place and
// moves it to the head rather than appending a duplicate.
type Ledger struct {
	mu       sync.RWMutex
	records  []event.MatchRecord // head = most recent
	capacity int
	persist  PersistFunc
}

// NewLedger creates a Ledger bounded to capacity records. Non-positive
// capacities fall back to DefaultLedgerCapacity. persist may be nil.
func NewLedger(capacity int, persist PersistFunc) *Ledger {
	if capacity <= 0 {
		capacity = DefaultLedgerCapacity
	}
	return &Ledger{
		capacity: capacity,
		persist:  persist,
	}
}

// Rehydrate replaces the ledger contents from a persisted snapshot,
// truncating to capacity. Called once at cold start before any live
// events arrive; it does not trigger a persist of its own.
func (l *Ledger) Rehydrate(records []event.MatchRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = l.records[:0]
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.SubjectID == "" || seen[r.SubjectID] {
			continue
		}
		seen[r.SubjectID] = true
		l.records = append(l.records, r)
		if len(l.records) == l.capacity {
			break
		}
	}
	logging.Debug("Ledger rehydrated with %d records", len(l.records))
}

// Upsert inserts a match record at the head, or, if the subject is
// already present, replaces that record and moves it to the head. The
// ledger is then truncated to capacity, evicting the oldest by order.
func (l *Ledger) Upsert(rec event.MatchRecord) {
	l.mu.Lock()

	for i, r := range l.records {
		if r.SubjectID == rec.SubjectID {
			l.records = append(l.records[:i], l.records[i+1:]...)
			break
		}
	}
	l.records = append([]event.MatchRecord{rec}, l.records...)
	if len(l.records) > l.capacity {
		l.records = l.records[:l.capacity]
	}
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	if l.persist != nil {
		l.persist(snapshot)
	}
}

// List returns the ledger contents, most recent first.
func (l *Ledger) List() []event.MatchRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Len returns the current number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Clear empties the ledger. This is the only path that removes entries
// other than capacity eviction; there is no automatic expiry.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.records = l.records[:0]
	l.mu.Unlock()

	if l.persist != nil {
		l.persist(nil)
	}
}

func (l *Ledger) snapshotLocked() []event.MatchRecord {
	out := make([]event.MatchRecord, len(l.records))
	copy(out, l.records)
	return out
}
