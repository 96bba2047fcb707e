package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
)

// UserStatsStore defines persistence operations for per-day user
// statistics. Counters are upserted inside the same transaction as the
// mutation that caused them.
type UserStatsStore interface {
	// IncrementDaily adds the given deltas to the user's counters for the
	// calendar day, creating the row when it does not exist yet.
	IncrementDaily(
		ctx context.Context,
		userID uuid.UUID,
		day time.Time,
		successDelta, failedDelta, materialsDelta int,
	) error

	// GetDaily returns the user's counters for the calendar day.
	// Returns ErrNotFound if no row exists for that day.
	GetDaily(ctx context.Context, userID uuid.UUID, day time.Time) (*domain.UserStatistics, error)

	// WithTx returns a UserStatsStore bound to the given transaction.
	WithTx(tx *sql.Tx) UserStatsStore
}
