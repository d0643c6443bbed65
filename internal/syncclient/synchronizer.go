package syncclient

import (
	"context"
	"sync"
	"time"

	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/observability"
)

const (
	// DefaultDebounce is how long a burst of updates coalesces before
	// a single persist fires
	DefaultDebounce = time.Second

	// DefaultRevalidateInterval is the background poll period that
	// pulls teammate changes into the store
	DefaultRevalidateInterval = 30 * time.Second
)

// Synchronizer debounces local updates into full-snapshot persists and
// periodically revalidates against the server. Persistence is last
// write wins at snapshot granularity: a revalidation can discard a
// teammate's very recent unsynced edit. That trade-off is deliberate
// for a short-lived event app; per-field merging is out of scope.
type Synchronizer struct {
	store  *Store
	client *Client

	orgID     string
	teamID    string
	huntID    string
	sessionID string

	debounce     time.Duration
	pollInterval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	baseline models.ProgressSnapshot // last known-good, rollback target
	closed   bool

	pollCancel context.CancelFunc
	pollDone   chan struct{}

	onError func(error)
	logger  *observability.Logger
}

// SynchronizerOptions tunes debounce and poll timing
type SynchronizerOptions struct {
	Debounce           time.Duration
	RevalidateInterval time.Duration
	// OnError receives persistence errors after rollback completes.
	// Persist failures are reported, never retried automatically.
	OnError func(error)
}

// NewSynchronizer creates a Synchronizer bound to one team's snapshot
func NewSynchronizer(store *Store, client *Client, orgID, teamID, huntID, sessionID string, opts SynchronizerOptions) *Synchronizer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.RevalidateInterval <= 0 {
		opts.RevalidateInterval = DefaultRevalidateInterval
	}
	return &Synchronizer{
		store:        store,
		client:       client,
		orgID:        orgID,
		teamID:       teamID,
		huntID:       huntID,
		sessionID:    sessionID,
		debounce:     opts.Debounce,
		pollInterval: opts.RevalidateInterval,
		baseline:     store.Snapshot(),
		onError:      opts.OnError,
		logger:       observability.GetLogger(),
	}
}

// Seed fetches the consolidated read and replaces local state without
// scheduling a persist
func (s *Synchronizer) Seed(ctx context.Context) error {
	active, err := s.client.GetActive(ctx, s.orgID, s.teamID, s.huntID)
	if err != nil {
		return err
	}

	s.store.SetStops(models.StopIDs(active.Locations))
	s.store.Seed(active.Progress)

	s.mu.Lock()
	s.baseline = s.store.Snapshot()
	s.mu.Unlock()
	return nil
}

// Update applies the updater optimistically and schedules a debounced
// persist. Each call cancels and replaces any still-pending timer, so
// a burst of updates produces exactly one write holding the final
// state.
func (s *Synchronizer) Update(fn UpdaterFunc) {
	s.store.apply(fn)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.persist)
}

// Flush persists immediately, superseding any pending timer. Used on
// teardown and by captures that must not wait out the debounce.
func (s *Synchronizer) Flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.persist()
}

// persist sends the full current snapshot. On success it revalidates
// to absorb concurrent teammate writes; on failure it rolls local
// state back to the last known-good snapshot and reports the error.
func (s *Synchronizer) persist() {
	snapshot := s.store.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.client.PutProgress(ctx, s.orgID, s.teamID, s.huntID, snapshot, s.sessionID); err != nil {
		s.mu.Lock()
		rollback := s.baseline.Clone()
		s.mu.Unlock()

		s.store.Seed(rollback)
		s.logger.Warnf("progress persist failed, rolled back: %v", err)
		s.reportError(&PersistenceError{Err: err})
		return
	}

	s.mu.Lock()
	s.baseline = snapshot
	s.mu.Unlock()

	if err := s.Revalidate(ctx); err != nil {
		// The save itself landed; a failed follow-up fetch just delays
		// convergence until the next poll
		s.logger.Warnf("post-persist revalidation failed: %v", err)
	}
}

// Revalidate re-fetches the server snapshot and replaces local state
// wholesale. This is the only multi-device convergence mechanism.
func (s *Synchronizer) Revalidate(ctx context.Context) error {
	snapshot, err := s.client.GetProgress(ctx, s.orgID, s.teamID, s.huntID)
	if err != nil {
		return err
	}

	s.store.Seed(snapshot)

	s.mu.Lock()
	s.baseline = s.store.Snapshot()
	s.mu.Unlock()
	return nil
}

// StartRevalidation begins the background poll. Stops when ctx is
// canceled or the synchronizer is closed.
func (s *Synchronizer) StartRevalidation(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.pollCancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.pollCancel = cancel
	done := make(chan struct{})
	s.pollDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Revalidate(ctx); err != nil {
					s.logger.Debugf("revalidation poll failed: %v", err)
				}
			}
		}
	}()
}

// Close cancels any pending debounce timer and stops the poller so no
// stray late write fires after teardown
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	cancel := s.pollCancel
	done := s.pollDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Store returns the underlying progress store
func (s *Synchronizer) Store() *Store {
	return s.store
}

func (s *Synchronizer) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
