package services

import (
	"context"
	"fmt"
	"time"

	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/repository"
)

// ProgressService validates and stores team progress snapshots. A save
// replaces the stored record unconditionally (last write wins at
// snapshot granularity).
type ProgressService struct {
	progressRepo repository.ProgressRepo
	locationRepo repository.LocationRepo
}

// NewProgressService creates a new ProgressService
func NewProgressService(progressRepo repository.ProgressRepo, locationRepo repository.LocationRepo) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		locationRepo: locationRepo,
	}
}

// Get returns the team's snapshot, empty map when nothing is saved yet
func (s *ProgressService) Get(ctx context.Context, orgID, teamID, huntID string) (models.ProgressSnapshot, error) {
	return s.progressRepo.Get(ctx, orgID, teamID, huntID)
}

// Save validates the snapshot against the hunt's stop list and the
// done/photo invariant, then overwrites the stored record.
func (s *ProgressService) Save(ctx context.Context, orgID, teamID, huntID string, snapshot models.ProgressSnapshot, sessionID string) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	known, err := s.knownStops(ctx, orgID, huntID)
	if err != nil {
		return err
	}
	for stopID := range snapshot {
		if !known[stopID] {
			return models.ErrUnknownStop
		}
	}

	if err := s.progressRepo.Put(ctx, orgID, teamID, huntID, snapshot, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}
	return nil
}

func (s *ProgressService) knownStops(ctx context.Context, orgID, huntID string) (map[string]bool, error) {
	stops, err := s.locationRepo.ListByHunt(ctx, orgID, huntID)
	if err != nil {
		return nil, fmt.Errorf("loading stop list: %w", err)
	}
	known := make(map[string]bool, len(stops))
	for _, stop := range stops {
		known[stop.ID] = true
	}
	return known, nil
}

// ValidateStop checks that a stop belongs to the hunt. Returns
// ErrUnknownStop otherwise.
func (s *ProgressService) ValidateStop(ctx context.Context, orgID, huntID, stopID string) error {
	known, err := s.knownStops(ctx, orgID, huntID)
	if err != nil {
		return err
	}
	if !known[stopID] {
		return models.ErrUnknownStop
	}
	return nil
}

// SetStopCompleted marks one stop done with its photo reference as a
// single read-modify-write. Used by the orchestrated upload path so
// done, photoReference and completedAt land together. The stop is
// validated against the hunt's stop list; a stop Save would reject must
// never enter the stored snapshot through this path either.
func (s *ProgressService) SetStopCompleted(ctx context.Context, orgID, teamID, huntID, stopID, photoReference, sessionID string) error {
	if err := s.ValidateStop(ctx, orgID, huntID, stopID); err != nil {
		return err
	}

	snapshot, err := s.progressRepo.Get(ctx, orgID, teamID, huntID)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	snapshot[stopID] = models.CompletedStop(snapshot[stopID], photoReference, time.Now().UTC())

	if err := s.progressRepo.Put(ctx, orgID, teamID, huntID, snapshot, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}
	return nil
}
