package state

import (
	"sync"
	"time"

	"camwatch/internal/event"
)

// DefaultTagTTL is how long an alert tag stays set before it decays
// back to normal.
const DefaultTagTTL = 10 * time.Second

type tagEntry struct {
	tag   event.Tag
	timer *time.Timer
	gen   uint64 // bumped on every Set; stale timer callbacks check it
}

// TagStore maps a tracker ID to its current tag. An alert tag decays to
// normal after the configured TTL; re-tagging an already-alerted tracker
// resets the timer rather than stacking a second one, so there is at
// most one live timer per tracker ID.
//
// Tracker ID reuse by the upstream tracker is not this store's concern;
// it is a pure keyed map with no identity-lifetime awareness.
type TagStore struct {
	mu      sync.Mutex
	entries map[int]*tagEntry
	ttl     time.Duration
	stopped bool
}

// NewTagStore creates a TagStore with the given decay TTL.
// Non-positive TTLs fall back to DefaultTagTTL.
func NewTagStore(ttl time.Duration) *TagStore {
	if ttl <= 0 {
		ttl = DefaultTagTTL
	}
	return &TagStore{
		entries: make(map[int]*tagEntry),
		ttl:     ttl,
	}
}

// Set records a tag for a tracker ID. Setting alert arms (or re-arms)
// the decay timer; setting normal cancels any pending timer and applies
// immediately. Reads issued after Set returns always see the new value.
func (s *TagStore) Set(trackerID int, tag event.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	e, ok := s.entries[trackerID]
	if !ok {
		e = &tagEntry{}
		s.entries[trackerID] = e
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	e.tag = tag
	e.gen++
	if tag == event.TagAlert {
		gen := e.gen
		e.timer = time.AfterFunc(s.ttl, func() { s.expire(trackerID, gen) })
	}
}

// Get returns the current tag for a tracker ID, or false if the tracker
// has never been tagged.
func (s *TagStore) Get(trackerID int) (event.Tag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[trackerID]
	if !ok {
		return "", false
	}
	return e.tag, true
}

// expire is the timer callback. A callback that lost the race with a
// re-set carries a stale generation and is a no-op.
func (s *TagStore) expire(trackerID int, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[trackerID]
	if !ok || e.gen != gen {
		return
	}
	e.tag = event.TagNormal
	e.timer = nil
}

// Stop cancels all pending decay timers. The store refuses further
// mutation afterwards; used at teardown.
func (s *TagStore) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.gen++ // invalidate in-flight callbacks
	}
}
