package services

import (
	"context"
	"sync"
	"time"

	"github.com/huntsync/server/internal/observability"
	"github.com/huntsync/server/internal/repository"
)

// SweepStatus reports the orphan sweep's last run
type SweepStatus struct {
	Running        bool      `json:"running"`
	LastRun        time.Time `json:"lastRun,omitempty"`
	OrphansRemoved int       `json:"orphansRemoved"`
	Errors         []string  `json:"errors,omitempty"`
}

// MaintenanceService periodically removes orphaned photos: rows marked
// during a failed compensation whose stored file could not be deleted
// at the time. The sweep retries the file delete and drops the row once
// the file is gone.
type MaintenanceService struct {
	photoRepo      repository.PhotoRepo
	storageService *PhotoStorageService
	interval       time.Duration
	logger         *observability.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	ticker   *time.Ticker
	status   SweepStatus
}

// NewMaintenanceService creates the orphan sweeper. A non-positive
// interval defaults to one hour.
func NewMaintenanceService(photoRepo repository.PhotoRepo, storageService *PhotoStorageService, interval time.Duration) *MaintenanceService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &MaintenanceService{
		photoRepo:      photoRepo,
		storageService: storageService,
		interval:       interval,
		logger:         observability.GetLogger(),
	}
}

// Start begins the background sweep loop and runs one sweep immediately
func (s *MaintenanceService) Start() {
	s.mu.Lock()
	if s.ticker != nil {
		s.mu.Unlock()
		return
	}
	s.stopChan = make(chan struct{})
	s.ticker = time.NewTicker(s.interval)
	s.mu.Unlock()

	s.logger.Infof("orphan sweep started, interval %s", s.interval)

	go s.sweep()
	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.sweep()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop halts the sweep loop
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
	close(s.stopChan)
}

// Status returns a copy of the last sweep's outcome
func (s *MaintenanceService) Status() SweepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.status
	status.Errors = append([]string(nil), s.status.Errors...)
	return status
}

// RunNow triggers an immediate sweep
func (s *MaintenanceService) RunNow() {
	go s.sweep()
}

func (s *MaintenanceService) sweep() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.status.Running = true
	s.mu.Unlock()

	started := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, errs := s.removeOrphans(ctx)

	s.mu.Lock()
	s.running = false
	s.status = SweepStatus{
		LastRun:        started,
		OrphansRemoved: removed,
		Errors:         errs,
	}
	s.mu.Unlock()

	if removed > 0 || len(errs) > 0 {
		s.logger.Infof("orphan sweep removed %d photos, %d errors", removed, len(errs))
	}
}

func (s *MaintenanceService) removeOrphans(ctx context.Context) (int, []string) {
	photos, err := s.photoRepo.ListOrphaned(ctx)
	if err != nil {
		return 0, []string{"listing orphaned photos: " + err.Error()}
	}

	var errs []string
	removed := 0
	for _, photo := range photos {
		if s.storageService.Exists(photo.StoredPath) && !s.storageService.Delete(photo.StoredPath) {
			// File still on disk and still undeletable; retry next sweep
			errs = append(errs, "deleting file "+photo.StoredPath)
			continue
		}
		if _, err := s.photoRepo.Delete(ctx, photo.ID); err != nil {
			errs = append(errs, "deleting photo row "+photo.ID+": "+err.Error())
			continue
		}
		removed++
	}
	return removed, errs
}
