// Package schedule implements the repetition scheduling engine: material
// creation with its initial reminder fan-out, completion and failure
// transitions, due/overdue queries, and the intraday expiry sweep. All
// invariants live here; transports and timers only call in.
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
)

// Service-specific errors
var (
	// ErrUserNotFound indicates the requested user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrMaterialNotFound indicates the requested material doesn't exist or
	// is not visible to the caller.
	ErrMaterialNotFound = errors.New("material not found")

	// ErrEntryNotFound indicates the requested schedule entry doesn't exist.
	ErrEntryNotFound = errors.New("schedule entry not found")

	// ErrEntryNotOwned indicates the schedule entry belongs to another user.
	ErrEntryNotOwned = errors.New("schedule entry not owned by user")

	// ErrAlreadyCompleted indicates the entry was completed before this
	// attempt. Callers treat it as an idempotent no-op: the first completion
	// won and nothing was changed.
	ErrAlreadyCompleted = errors.New("schedule entry already completed")

	// ErrNoDueEntries indicates the user has nothing due on the requested day.
	ErrNoDueEntries = errors.New("no due entries")
)

// DueItem pairs a due schedule entry with the material it reminds about.
// Callers that render reminders need the content; callers that filter
// deactivated materials need the flags.
type DueItem struct {
	Entry    *domain.ScheduleEntry `json:"entry"`
	Material *domain.Material      `json:"material"`
}

// MaterialHistory is the full repetition record of one material: every
// schedule entry ever created for it, in schedule order, and the audit
// results of the completed ones, in completion order.
type MaterialHistory struct {
	Material *domain.Material           `json:"material"`
	Entries  []*domain.ScheduleEntry    `json:"entries"`
	Results  []*domain.RepetitionResult `json:"results"`
}

// Service defines the operations of the scheduling engine.
type Service interface {
	// RegisterUser creates a learner with the given timezone name. An
	// unresolvable timezone is kept as-is and substituted with the default
	// at scheduling time.
	RegisterUser(ctx context.Context, username, firstName, timezone string) (*domain.User, error)

	// CreateMaterial stores a new material for the user and creates its
	// initial schedule: exactly three intraday entries (immediate, twenty
	// minutes later, and the coming evening). Returns the material and the
	// entries in stage order.
	CreateMaterial(ctx context.Context, userID uuid.UUID, content string) (*domain.Material, []*domain.ScheduleEntry, error)

	// CompleteRepetition marks the entry as successfully repeated and
	// advances the material one stage: the entry is completed (idempotent
	// compare-and-swap; a lost race returns ErrAlreadyCompleted), an audit
	// result is written, any stale incomplete entries for the material are
	// deleted, and the single next entry is created. Returns the next entry.
	CompleteRepetition(ctx context.Context, userID, entryID uuid.UUID) (*domain.ScheduleEntry, error)

	// MarkFailed records a failed repetition: the entry is completed with a
	// failure result, the material's stage steps back one (floored at zero)
	// and the next attempt is scheduled for tomorrow morning. Returns the
	// next entry.
	MarkFailed(ctx context.Context, userID, entryID uuid.UUID) (*domain.ScheduleEntry, error)

	// GetDueSet returns what is due on target's calendar date, at most one
	// item per material, ordered by (date, stage, creation time). A nil
	// userID queries all users; with a concrete userID an empty result is
	// reported as ErrNoDueEntries.
	GetDueSet(ctx context.Context, userID *uuid.UUID, target time.Time) ([]*DueItem, error)

	// GetOverdueSet returns the long-horizon entries scheduled on or before
	// yesterday relative to now. Every entry is reported; overdue sets are
	// not deduplicated.
	GetOverdueSet(ctx context.Context, userID *uuid.UUID, now time.Time) ([]*DueItem, error)

	// SweepExpiredIntraday completes every intraday entry whose day has
	// passed as a failure, recording an audit result for each, then applies
	// the failure rollback once per affected material so it re-enters the
	// schedule with the usual next-morning retry. Returns how many entries
	// were swept.
	SweepExpiredIntraday(ctx context.Context) (int, error)

	// ListMaterials returns the user's materials ordered by creation time,
	// optionally restricted to active ones, together with the matching
	// count.
	ListMaterials(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*domain.Material, int, error)

	// GetMaterialHistory returns the material's full repetition record.
	// Materials of other users are reported as ErrMaterialNotFound.
	GetMaterialHistory(ctx context.Context, userID, materialID uuid.UUID) (*MaterialHistory, error)

	// DeactivateMaterial soft-deletes the user's material. Its schedule
	// history stays intact; the dispatcher stops reminding about it.
	DeactivateMaterial(ctx context.Context, userID, materialID uuid.UUID) error

	// GetDailyStatistics returns the user's counters for the given calendar
	// day.
	GetDailyStatistics(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.UserStatistics, error)
}
