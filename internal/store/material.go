package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
)

// MaterialStore defines persistence operations for study materials.
// Materials are never deleted by the engine; Deactivate clears the active
// flag and leaves the schedule history intact.
type MaterialStore interface {
	// Create saves a new material.
	Create(ctx context.Context, material *domain.Material) error

	// GetByID retrieves a material by ID.
	// Returns ErrMaterialNotFound if the material does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Material, error)

	// Update saves changes to an existing material (stage, last-success,
	// active flag).
	// Returns ErrMaterialNotFound if the material does not exist.
	Update(ctx context.Context, material *domain.Material) error

	// ListByUser returns the user's materials ordered by creation time,
	// optionally restricted to active ones.
	ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*domain.Material, error)

	// Deactivate clears the active flag on the user's material.
	// Returns ErrMaterialNotFound if no such material exists for the user.
	Deactivate(ctx context.Context, userID, materialID uuid.UUID) error

	// CountByUser returns the number of the user's materials, optionally
	// restricted to active ones.
	CountByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) (int, error)

	// WithTx returns a MaterialStore bound to the given transaction.
	WithTx(tx *sql.Tx) MaterialStore
}
