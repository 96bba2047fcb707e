package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RepetitionResult-specific validation errors
var (
	// ErrResultIDEmpty is returned when a result ID is empty or nil.
	ErrResultIDEmpty = errors.New("repetition result ID cannot be empty")

	// ErrResultEntryIDEmpty is returned when a result's schedule entry ID is empty or nil.
	ErrResultEntryIDEmpty = errors.New("repetition result entry ID cannot be empty")
)

// RepetitionResult is the immutable audit record of one completed schedule
// entry. Exactly one result is written per completed entry, including
// entries auto-expired by the sweeper; results are never mutated or deleted.
type RepetitionResult struct {
	ID          uuid.UUID `json:"id"`
	EntryID     uuid.UUID `json:"entry_id"`
	UserID      uuid.UUID `json:"user_id"`
	MaterialID  uuid.UUID `json:"material_id"`
	WasSuccess  bool      `json:"was_success"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewRepetitionResult creates the audit record for a completed entry.
func NewRepetitionResult(entry *ScheduleEntry, success bool, completedAt time.Time) (*RepetitionResult, error) {
	result := &RepetitionResult{
		ID:          uuid.New(),
		EntryID:     entry.ID,
		UserID:      entry.UserID,
		MaterialID:  entry.MaterialID,
		WasSuccess:  success,
		CompletedAt: completedAt,
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// Validate checks if the RepetitionResult has valid data.
func (r *RepetitionResult) Validate() error {
	if r.ID == uuid.Nil {
		return ErrResultIDEmpty
	}

	if r.EntryID == uuid.Nil {
		return ErrResultEntryIDEmpty
	}

	return nil
}
