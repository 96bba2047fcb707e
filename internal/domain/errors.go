package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidStage is returned when a repetition stage is negative.
	ErrInvalidStage = errors.New("stage must be greater than or equal to 0")

	// ErrInvalidRepetitionKind is returned when a repetition kind string is
	// not one of the known kinds.
	ErrInvalidRepetitionKind = errors.New("invalid repetition kind")

	// ErrKindStageMismatch is returned when a schedule entry's kind does not
	// agree with the kind derived from its stage.
	ErrKindStageMismatch = errors.New("repetition kind does not match stage")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
