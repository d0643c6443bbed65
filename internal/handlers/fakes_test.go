package handlers

import (
	"context"
	"time"

	"github.com/huntsync/server/internal/models"
)

type fakeTeamRepo struct {
	teams map[string]*models.Team // keyed by code lookup hash
}

func (r *fakeTeamRepo) GetByCodeLookupHash(_ context.Context, lookupHash string) (*models.Team, error) {
	return r.teams[lookupHash], nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id string) (*models.Team, error) {
	for _, team := range r.teams {
		if team.ID == id {
			return team, nil
		}
	}
	return nil, nil
}

func (r *fakeTeamRepo) Add(_ context.Context, team *models.Team) error {
	r.teams[team.CodeLookupHash] = team
	return nil
}

type fakeLockRepo struct {
	locks map[string]*models.TeamLock // keyed by team id
}

func (r *fakeLockRepo) GetByTeam(_ context.Context, teamID string) (*models.TeamLock, error) {
	return r.locks[teamID], nil
}

func (r *fakeLockRepo) GetByToken(_ context.Context, lockToken string) (*models.TeamLock, error) {
	for _, lock := range r.locks {
		if lock.LockToken == lockToken {
			return lock, nil
		}
	}
	return nil, nil
}

func (r *fakeLockRepo) UpsertIfAvailable(_ context.Context, lock *models.TeamLock, now time.Time) (bool, error) {
	existing := r.locks[lock.TeamID]
	if existing != nil && !existing.IsExpired(now) && !existing.HeldBy(lock.DeviceFingerprint) {
		return false, nil
	}
	r.locks[lock.TeamID] = lock
	return true, nil
}

func (r *fakeLockRepo) DeleteByToken(_ context.Context, lockToken string) (bool, error) {
	for teamID, lock := range r.locks {
		if lock.LockToken == lockToken {
			delete(r.locks, teamID)
			return true, nil
		}
	}
	return false, nil
}

type fakeProgressRepo struct {
	snapshots map[string]models.ProgressSnapshot
	puts      int
	putErr    error
}

func progressKey(orgID, teamID, huntID string) string {
	return orgID + "/" + teamID + "/" + huntID
}

func (r *fakeProgressRepo) Get(_ context.Context, orgID, teamID, huntID string) (models.ProgressSnapshot, error) {
	if snapshot, ok := r.snapshots[progressKey(orgID, teamID, huntID)]; ok {
		return snapshot.Clone(), nil
	}
	return models.ProgressSnapshot{}, nil
}

func (r *fakeProgressRepo) Put(_ context.Context, orgID, teamID, huntID string, snapshot models.ProgressSnapshot, _ string, _ time.Time) error {
	if r.putErr != nil {
		return r.putErr
	}
	r.snapshots[progressKey(orgID, teamID, huntID)] = snapshot.Clone()
	r.puts++
	return nil
}

type fakePhotoRepo struct {
	photos  map[string]*models.StopPhoto
	added   []*models.StopPhoto // every Add, survives Delete
	markErr error
}

func newFakePhotoRepo() *fakePhotoRepo {
	return &fakePhotoRepo{photos: map[string]*models.StopPhoto{}}
}

func (r *fakePhotoRepo) GetByID(_ context.Context, id string) (*models.StopPhoto, error) {
	return r.photos[id], nil
}

func (r *fakePhotoRepo) Add(_ context.Context, photo *models.StopPhoto) error {
	r.photos[photo.ID] = photo
	r.added = append(r.added, photo)
	return nil
}

func (r *fakePhotoRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.photos[id]; !ok {
		return false, nil
	}
	delete(r.photos, id)
	return true, nil
}

func (r *fakePhotoRepo) MarkOrphaned(_ context.Context, id string) error {
	if r.markErr != nil {
		return r.markErr
	}
	if photo, ok := r.photos[id]; ok {
		photo.Orphaned = true
	}
	return nil
}

func (r *fakePhotoRepo) ListOrphaned(_ context.Context) ([]*models.StopPhoto, error) {
	var orphans []*models.StopPhoto
	for _, photo := range r.photos {
		if photo.Orphaned {
			orphans = append(orphans, photo)
		}
	}
	return orphans, nil
}

type fakeLocationRepo struct {
	stops []*models.Stop
}

func (r *fakeLocationRepo) ListByHunt(_ context.Context, _, _ string) ([]*models.Stop, error) {
	return r.stops, nil
}

func (r *fakeLocationRepo) Add(_ context.Context, stop *models.Stop) error {
	r.stops = append(r.stops, stop)
	return nil
}
