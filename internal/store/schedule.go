package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
)

// ScheduleEntryStore defines persistence operations for schedule entries.
//
// The engine owns the single-pending invariant: before any new entry is
// created for a material, DeleteIncomplete removes the incomplete ones in
// the same transaction. Complete is a compare-and-swap so that two
// concurrent completion attempts on the same entry cannot both succeed.
//
// All query methods order results by (scheduled date, stage, creation
// time) so rendering is deterministic.
type ScheduleEntryStore interface {
	// Create saves a new pending entry.
	Create(ctx context.Context, entry *domain.ScheduleEntry) error

	// GetByID retrieves an entry by ID.
	// Returns ErrScheduleEntryNotFound if the entry does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleEntry, error)

	// DeleteIncomplete removes every incomplete entry for the (user,
	// material) pair and reports how many were removed. Removing zero rows
	// is not an error.
	DeleteIncomplete(ctx context.Context, userID, materialID uuid.UUID) (int64, error)

	// Complete marks the entry completed at completedAt, but only when it
	// still exists, belongs to userID and is not yet completed.
	// Returns ErrScheduleEntryNotFound otherwise; the caller treats that as
	// an idempotent no-op.
	Complete(ctx context.Context, id, userID uuid.UUID, completedAt time.Time) error

	// FindDue returns the incomplete entries due on the target calendar
	// date: intraday kinds scheduled exactly on it, long-horizon kinds
	// scheduled on or before it. A nil userID queries all users.
	FindDue(ctx context.Context, userID *uuid.UUID, target time.Time) ([]*domain.ScheduleEntry, error)

	// FindOverdue returns the incomplete long-horizon entries scheduled on
	// or before the given date. Intraday kinds are never overdue; they
	// expire instead. A nil userID queries all users.
	FindOverdue(ctx context.Context, userID *uuid.UUID, lastDate time.Time) ([]*domain.ScheduleEntry, error)

	// FindExpiredIntraday returns the incomplete intraday entries scheduled
	// strictly before the given date, across all users.
	FindExpiredIntraday(ctx context.Context, before time.Time) ([]*domain.ScheduleEntry, error)

	// ListByMaterial returns every entry (completed or not) for a material.
	ListByMaterial(ctx context.Context, materialID uuid.UUID) ([]*domain.ScheduleEntry, error)

	// WithTx returns a ScheduleEntryStore bound to the given transaction.
	WithTx(tx *sql.Tx) ScheduleEntryStore
}
