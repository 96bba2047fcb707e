package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrMaterialNotFound indicates that the requested material does not exist in the store.
	ErrMaterialNotFound = fmt.Errorf("%w: material", ErrNotFound)

	// ErrScheduleEntryNotFound indicates that the requested schedule entry does
	// not exist, or exists but is already completed. Compare-and-swap
	// completion reports both cases identically so that double submissions
	// degrade to a safe no-op.
	ErrScheduleEntryNotFound = fmt.Errorf("%w: schedule entry", ErrNotFound)

	// ErrRepetitionResultNotFound indicates that the requested repetition result
	// does not exist in the store.
	ErrRepetitionResultNotFound = fmt.Errorf("%w: repetition result", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
