package syncclient

import (
	"sync"

	"github.com/huntsync/server/internal/models"
)

// UpdaterFunc computes the next snapshot from the current one. It
// receives a private copy and may mutate it freely.
type UpdaterFunc func(models.ProgressSnapshot) models.ProgressSnapshot

// Store holds the session's authoritative progress state. All
// mutation flows through Seed and apply so the synchronizer's debounce
// and rollback stay centralized; there are no ambient globals.
type Store struct {
	mu       sync.RWMutex
	snapshot models.ProgressSnapshot
	stopIDs  []string

	nextSubID int
	subs      map[int]func(models.ProgressSnapshot)
}

// NewStore creates an empty Store for the given stop list
func NewStore(stopIDs []string) *Store {
	return &Store{
		snapshot: models.ProgressSnapshot{},
		stopIDs:  append([]string(nil), stopIDs...),
		subs:     make(map[int]func(models.ProgressSnapshot)),
	}
}

// Seed replaces local state without scheduling a persist. Used when
// loading from the consolidated read and after revalidation.
func (s *Store) Seed(snapshot models.ProgressSnapshot) {
	if snapshot == nil {
		snapshot = models.ProgressSnapshot{}
	}
	s.mu.Lock()
	s.snapshot = snapshot.Clone()
	s.mu.Unlock()
	s.notify()
}

// SetStops replaces the known stop list used for derived values
func (s *Store) SetStops(stopIDs []string) {
	s.mu.Lock()
	s.stopIDs = append([]string(nil), stopIDs...)
	s.mu.Unlock()
}

// Snapshot returns an independent copy of the current state
func (s *Store) Snapshot() models.ProgressSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// apply installs the updater's result as the new local state and
// returns the new snapshot. The caller schedules persistence.
func (s *Store) apply(fn UpdaterFunc) models.ProgressSnapshot {
	s.mu.Lock()
	next := fn(s.snapshot.Clone())
	if next == nil {
		next = models.ProgressSnapshot{}
	}
	s.snapshot = next
	result := next.Clone()
	s.mu.Unlock()
	s.notify()
	return result
}

// Subscribe registers a callback invoked after every state change.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn func(models.ProgressSnapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	snapshot := s.snapshot.Clone()
	callbacks := make([]func(models.ProgressSnapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		callbacks = append(callbacks, fn)
	}
	s.mu.RUnlock()

	for _, fn := range callbacks {
		fn(snapshot)
	}
}

// CompletedCount returns how many known stops are done
func (s *Store) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.CompletedCount(s.stopIDs)
}

// PercentComplete returns completion as 0-100, 0 for an empty stop list
func (s *Store) PercentComplete() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.PercentComplete(s.stopIDs)
}
