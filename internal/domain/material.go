package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Material-specific validation errors
var (
	// ErrMaterialIDEmpty is returned when a material ID is empty or nil.
	ErrMaterialIDEmpty = errors.New("material ID cannot be empty")

	// ErrMaterialUserIDEmpty is returned when a material's user ID is empty or nil.
	ErrMaterialUserIDEmpty = errors.New("material user ID cannot be empty")

	// ErrMaterialContentEmpty is returned when a material's content is empty.
	ErrMaterialContentEmpty = errors.New("material content cannot be empty")
)

// Material is one unit of study content following the forgetting-curve
// schedule. CurrentStage is only ever advanced or rolled back by the
// schedule service's transition functions and always equals the stage of
// the material's single incomplete schedule entry; callers must never set
// it directly.
type Material struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Content       string     `json:"content"`
	CurrentStage  int        `json:"current_stage"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewMaterial creates a new Material owned by the given user.
// The material starts at stage 0 with no recorded success.
func NewMaterial(userID uuid.UUID, content string, createdAt time.Time) (*Material, error) {
	material := &Material{
		ID:           uuid.New(),
		UserID:       userID,
		Content:      content,
		CurrentStage: 0,
		IsActive:     true,
		CreatedAt:    createdAt,
	}

	if err := material.Validate(); err != nil {
		return nil, err
	}

	return material, nil
}

// Validate checks if the Material has valid data.
func (m *Material) Validate() error {
	if m.ID == uuid.Nil {
		return ErrMaterialIDEmpty
	}

	if m.UserID == uuid.Nil {
		return ErrMaterialUserIDEmpty
	}

	if m.Content == "" {
		return ErrMaterialContentEmpty
	}

	if m.CurrentStage < 0 {
		return ErrInvalidStage
	}

	return nil
}
