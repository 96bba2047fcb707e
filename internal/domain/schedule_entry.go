package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RepetitionKind is the symbolic label of one step in the forgetting-curve
// sequence. It is a pure function of the stage index (see the ebbinghaus
// package) and must never disagree with it.
type RepetitionKind string

// Possible repetition kind values, in stage order.
const (
	KindImmediate RepetitionKind = "immediate"
	KindShortTerm RepetitionKind = "short_term"
	KindEvening   RepetitionKind = "evening"
	KindDay1      RepetitionKind = "day_1"
	KindDay3      RepetitionKind = "day_3"
	KindDay7      RepetitionKind = "day_7"
	KindDay14     RepetitionKind = "day_14"
	KindDay30     RepetitionKind = "day_30"
	KindMonthly   RepetitionKind = "monthly"
)

// IntradayKinds are valid only on their scheduled calendar day. Once the
// day rolls over they are the expiry sweeper's responsibility, not "due".
var IntradayKinds = []RepetitionKind{KindImmediate, KindShortTerm, KindEvening}

// LongHorizonKinds stay actionable every day until acted on.
var LongHorizonKinds = []RepetitionKind{KindDay1, KindDay3, KindDay7, KindDay14, KindDay30, KindMonthly}

// IsIntraday reports whether the kind is only exposed on its creation day.
func (k RepetitionKind) IsIntraday() bool {
	return k == KindImmediate || k == KindShortTerm || k == KindEvening
}

// IsLongHorizon reports whether the kind remains due across days.
func (k RepetitionKind) IsLongHorizon() bool {
	switch k {
	case KindDay1, KindDay3, KindDay7, KindDay14, KindDay30, KindMonthly:
		return true
	default:
		return false
	}
}

// IsValid reports whether the kind is one of the known values.
func (k RepetitionKind) IsValid() bool {
	return k.IsIntraday() || k.IsLongHorizon()
}

// ScheduleEntry-specific validation errors
var (
	// ErrEntryIDEmpty is returned when a schedule entry ID is empty or nil.
	ErrEntryIDEmpty = errors.New("schedule entry ID cannot be empty")

	// ErrEntryMaterialIDEmpty is returned when an entry's material ID is empty or nil.
	ErrEntryMaterialIDEmpty = errors.New("schedule entry material ID cannot be empty")

	// ErrEntryUserIDEmpty is returned when an entry's user ID is empty or nil.
	ErrEntryUserIDEmpty = errors.New("schedule entry user ID cannot be empty")

	// ErrEntryScheduledAtZero is returned when an entry has no scheduled instant.
	ErrEntryScheduledAtZero = errors.New("schedule entry scheduled time cannot be zero")
)

// ScheduleEntry is one pending or completed reminder instance for a
// material. At most one incomplete entry may exist per (user, material)
// pair at any time outside the initial three-entry window; every mutation
// that creates a new entry deletes the incomplete ones first.
type ScheduleEntry struct {
	ID            uuid.UUID      `json:"id"`
	MaterialID    uuid.UUID      `json:"material_id"`
	UserID        uuid.UUID      `json:"user_id"`
	ScheduledDate time.Time      `json:"scheduled_date"` // calendar date, midnight UTC
	ScheduledAt   time.Time      `json:"scheduled_at"`   // exact timezone-resolved instant
	Kind          RepetitionKind `json:"kind"`
	Stage         int            `json:"stage"`
	IsCompleted   bool           `json:"is_completed"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// DateOf normalizes an instant to its calendar date in the instant's own
// location, represented as midnight UTC. Schedule entry dates are always
// stored and compared in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewScheduleEntry creates a pending entry for the given material. The
// scheduled date is derived from scheduledAt's calendar day in the
// location scheduledAt carries, so the caller must pass an instant already
// resolved into the learner's timezone.
func NewScheduleEntry(
	materialID, userID uuid.UUID,
	stage int,
	kind RepetitionKind,
	scheduledAt time.Time,
) (*ScheduleEntry, error) {
	entry := &ScheduleEntry{
		ID:            uuid.New(),
		MaterialID:    materialID,
		UserID:        userID,
		ScheduledDate: DateOf(scheduledAt),
		ScheduledAt:   scheduledAt,
		Kind:          kind,
		Stage:         stage,
		IsCompleted:   false,
		CreatedAt:     time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the ScheduleEntry has valid data.
func (e *ScheduleEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEntryIDEmpty
	}

	if e.MaterialID == uuid.Nil {
		return ErrEntryMaterialIDEmpty
	}

	if e.UserID == uuid.Nil {
		return ErrEntryUserIDEmpty
	}

	if e.Stage < 0 {
		return ErrInvalidStage
	}

	if !e.Kind.IsValid() {
		return ErrInvalidRepetitionKind
	}

	if e.ScheduledAt.IsZero() {
		return ErrEntryScheduledAtZero
	}

	return nil
}
