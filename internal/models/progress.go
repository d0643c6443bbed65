package models

import (
	"time"
)

// StopState is the per-stop progress record inside a team's snapshot
type StopState struct {
	Done           bool       `json:"done"`
	PhotoReference *string    `json:"photoReference"`
	CompletedAt    *time.Time `json:"completedAt"`
	RevealedHints  int        `json:"revealedHints"`
	Notes          *string    `json:"notes,omitempty"`
}

// ProgressSnapshot maps stop id to its state. It is the unit of
// persistence: a save replaces the entire stored snapshot, never a
// partial merge.
type ProgressSnapshot map[string]StopState

// Validate checks the snapshot's internal consistency. A stop marked
// done must carry a photo reference and completion time; hint counts
// cannot be negative.
func (s ProgressSnapshot) Validate() error {
	for stopID, state := range s {
		if stopID == "" {
			return ErrEmptyStopID
		}
		if state.RevealedHints < 0 {
			return ErrNegativeHints
		}
		if state.Done {
			if state.PhotoReference == nil || *state.PhotoReference == "" {
				return ErrDoneWithoutPhoto
			}
			if state.CompletedAt == nil {
				return ErrDoneWithoutTimestamp
			}
		}
	}
	return nil
}

// Clone returns an independent copy of the snapshot
func (s ProgressSnapshot) Clone() ProgressSnapshot {
	out := make(ProgressSnapshot, len(s))
	for stopID, state := range s {
		out[stopID] = state.clone()
	}
	return out
}

func (st StopState) clone() StopState {
	out := st
	if st.PhotoReference != nil {
		ref := *st.PhotoReference
		out.PhotoReference = &ref
	}
	if st.CompletedAt != nil {
		at := *st.CompletedAt
		out.CompletedAt = &at
	}
	if st.Notes != nil {
		n := *st.Notes
		out.Notes = &n
	}
	return out
}

// CompletedCount returns how many of the given stops are done
func (s ProgressSnapshot) CompletedCount(stopIDs []string) int {
	count := 0
	for _, id := range stopIDs {
		if state, ok := s[id]; ok && state.Done {
			count++
		}
	}
	return count
}

// PercentComplete returns completion as 0-100 against the stop list.
// An empty stop list yields 0, never a division by zero.
func (s ProgressSnapshot) PercentComplete(stopIDs []string) float64 {
	if len(stopIDs) == 0 {
		return 0
	}
	return float64(s.CompletedCount(stopIDs)) / float64(len(stopIDs)) * 100
}

// CompletedStop builds the state written when a capture succeeds.
// Done, photo reference and completion time are set together so the
// snapshot never observes a done stop without its photo.
func CompletedStop(prior StopState, photoReference string, completedAt time.Time) StopState {
	next := prior.clone()
	next.Done = true
	next.PhotoReference = &photoReference
	next.CompletedAt = &completedAt
	return next
}

// Progress errors
var (
	ErrEmptyStopID          = ProgressError{"stop id cannot be empty"}
	ErrNegativeHints        = ProgressError{"revealed hints cannot be negative"}
	ErrDoneWithoutPhoto     = ProgressError{"a completed stop must have a photo reference"}
	ErrDoneWithoutTimestamp = ProgressError{"a completed stop must have a completion time"}
	ErrUnknownStop          = ProgressError{"snapshot references a stop that is not part of this hunt"}
)

type ProgressError struct {
	Message string
}

func (e ProgressError) Error() string {
	return e.Message
}
