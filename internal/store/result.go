package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
)

// RepetitionResultStore defines persistence operations for the immutable
// audit records of completed schedule entries. Results are insert-only.
type RepetitionResultStore interface {
	// Create saves a new result.
	Create(ctx context.Context, result *domain.RepetitionResult) error

	// GetByEntry retrieves the result recorded for a schedule entry.
	// Returns ErrRepetitionResultNotFound if none exists.
	GetByEntry(ctx context.Context, entryID uuid.UUID) (*domain.RepetitionResult, error)

	// ListByMaterial returns all results for a material ordered by
	// completion time.
	ListByMaterial(ctx context.Context, materialID uuid.UUID) ([]*domain.RepetitionResult, error)

	// WithTx returns a RepetitionResultStore bound to the given transaction.
	WithTx(tx *sql.Tx) RepetitionResultStore
}
