package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	// ErrUserIDEmpty is returned when a user ID is empty or nil.
	ErrUserIDEmpty = errors.New("user ID cannot be empty")

	// ErrUserTimezoneEmpty is returned when a user's timezone name is empty.
	ErrUserTimezoneEmpty = errors.New("user timezone cannot be empty")
)

// User represents a learner who owns study materials.
// Timezone holds an IANA zone name (e.g. "Asia/Yekaterinburg"); an
// unresolvable name is substituted with the configured default at the
// timezone resolver boundary, never rejected here.
type User struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username,omitempty"`
	FirstName        string    `json:"first_name,omitempty"`
	Timezone         string    `json:"timezone"`
	NotificationTime string    `json:"notification_time"` // "HH:MM" local wall time
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewUser creates a new User with the given timezone name.
// It generates a new UUID for the user ID and sets the creation timestamp.
func NewUser(username, timezone string) (*User, error) {
	user := &User{
		ID:               uuid.New(),
		Username:         username,
		Timezone:         timezone,
		NotificationTime: "07:00",
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Timezone == "" {
		return ErrUserTimezoneEmpty
	}

	return nil
}
