package syncclient

import (
	"testing"
	"time"

	"github.com/huntsync/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func completedState() models.StopState {
	now := time.Now().UTC()
	return models.StopState{
		Done:           true,
		PhotoReference: strPtr("proof.jpg"),
		CompletedAt:    &now,
	}
}

func TestStore_Seed(t *testing.T) {
	t.Run("replaces state and notifies subscribers", func(t *testing.T) {
		store := NewStore([]string{"stop-1", "stop-2"})

		var seen []models.ProgressSnapshot
		unsubscribe := store.Subscribe(func(s models.ProgressSnapshot) {
			seen = append(seen, s)
		})
		defer unsubscribe()

		store.Seed(models.ProgressSnapshot{"stop-1": {RevealedHints: 1}})

		require.Len(t, seen, 1)
		assert.Equal(t, 1, seen[0]["stop-1"].RevealedHints)
		assert.Equal(t, 1, store.Snapshot()["stop-1"].RevealedHints)
	})

	t.Run("nil snapshot becomes empty map", func(t *testing.T) {
		store := NewStore(nil)
		store.Seed(nil)

		snapshot := store.Snapshot()
		assert.NotNil(t, snapshot)
		assert.Empty(t, snapshot)
	})

	t.Run("seeded snapshot is copied, not shared", func(t *testing.T) {
		store := NewStore(nil)
		source := models.ProgressSnapshot{"stop-1": {RevealedHints: 1}}

		store.Seed(source)
		source["stop-2"] = models.StopState{}

		assert.Len(t, store.Snapshot(), 1)
	})
}

func TestStore_Apply(t *testing.T) {
	t.Run("updater sees current state and installs the result", func(t *testing.T) {
		store := NewStore([]string{"stop-1"})
		store.Seed(models.ProgressSnapshot{"stop-1": {RevealedHints: 1}})

		result := store.apply(func(s models.ProgressSnapshot) models.ProgressSnapshot {
			state := s["stop-1"]
			state.RevealedHints++
			s["stop-1"] = state
			return s
		})

		assert.Equal(t, 2, result["stop-1"].RevealedHints)
		assert.Equal(t, 2, store.Snapshot()["stop-1"].RevealedHints)
	})

	t.Run("updater mutations do not leak into prior snapshots", func(t *testing.T) {
		store := NewStore(nil)
		store.Seed(models.ProgressSnapshot{"stop-1": {RevealedHints: 1}})
		before := store.Snapshot()

		store.apply(func(s models.ProgressSnapshot) models.ProgressSnapshot {
			s["stop-1"] = models.StopState{RevealedHints: 9}
			return s
		})

		assert.Equal(t, 1, before["stop-1"].RevealedHints)
	})

	t.Run("nil result becomes empty map", func(t *testing.T) {
		store := NewStore(nil)
		store.Seed(models.ProgressSnapshot{"stop-1": {}})

		store.apply(func(models.ProgressSnapshot) models.ProgressSnapshot {
			return nil
		})

		assert.Empty(t, store.Snapshot())
	})
}

func TestStore_Subscribe(t *testing.T) {
	t.Run("unsubscribed callback stops firing", func(t *testing.T) {
		store := NewStore(nil)

		calls := 0
		unsubscribe := store.Subscribe(func(models.ProgressSnapshot) { calls++ })

		store.Seed(models.ProgressSnapshot{})
		unsubscribe()
		store.Seed(models.ProgressSnapshot{})

		assert.Equal(t, 1, calls)
	})
}

func TestStore_DerivedValues(t *testing.T) {
	t.Run("counts done stops in the hunt's list", func(t *testing.T) {
		store := NewStore([]string{"stop-1", "stop-2", "stop-3"})
		store.Seed(models.ProgressSnapshot{
			"stop-1": completedState(),
			"stop-2": {RevealedHints: 1},
		})

		assert.Equal(t, 1, store.CompletedCount())
		assert.InDelta(t, 100.0/3.0, store.PercentComplete(), 0.001)
	})

	t.Run("empty stop list yields zero percent", func(t *testing.T) {
		store := NewStore(nil)
		store.Seed(models.ProgressSnapshot{"stop-1": completedState()})

		assert.Zero(t, store.PercentComplete())
	})
}
