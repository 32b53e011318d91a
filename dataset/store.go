package dataset

import "sync"

// Store holds the current snapshot. Readers always see a complete snapshot:
// the swap is atomic under the lock and snapshots are immutable.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the live snapshot, or nil before the first load.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Swap installs a new snapshot and returns the previous one.
func (s *Store) Swap(snap *Snapshot) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.snap
	s.snap = snap
	return old
}
