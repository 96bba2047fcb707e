package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
)

// RegisterUserRequest is the request body for user registration.
type RegisterUserRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Timezone  string `json:"timezone" validate:"required"`
}

// CreateMaterialRequest is the request body for material creation.
type CreateMaterialRequest struct {
	Content string `json:"content" validate:"required"`
}

// CreateMaterialResponse returns the created material together with its
// initial schedule entries in stage order.
type CreateMaterialResponse struct {
	Material *domain.Material        `json:"material"`
	Entries  []*domain.ScheduleEntry `json:"entries"`
}

// EntryTransitionResponse reports the outcome of completing or failing
// an entry: the single pending entry that replaced it.
type EntryTransitionResponse struct {
	NextEntry *domain.ScheduleEntry `json:"next_entry"`
}

// MaterialListResponse returns a user's materials with the matching count.
type MaterialListResponse struct {
	Materials []*domain.Material `json:"materials"`
	Total     int                `json:"total"`
}

// SweepResponse reports how many expired entries a sweep closed.
type SweepResponse struct {
	Swept int `json:"swept"`
}

// UserStatisticsResponse is the per-day counter view for one user.
type UserStatisticsResponse struct {
	UserID              uuid.UUID `json:"user_id"`
	Date                time.Time `json:"date"`
	SuccessfulRepeats   int       `json:"successful_repeats"`
	FailedRepeats       int       `json:"failed_repeats"`
	TotalMaterialsAdded int       `json:"total_materials_added"`
}
