package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	// Create saves a new user.
	// Returns ErrDuplicate if a user with the same ID already exists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// Update saves changes to an existing user.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error

	// ListActive returns all users with the active flag set, ordered by
	// creation time.
	ListActive(ctx context.Context) ([]*domain.User, error)

	// WithTx returns a UserStore bound to the given transaction.
	WithTx(tx *sql.Tx) UserStore
}
