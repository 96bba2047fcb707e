package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStatistics holds per-day counters for one user: how many
// repetitions succeeded, how many failed (including auto-expired ones)
// and how many materials were added. One row exists per (user, date).
type UserStatistics struct {
	UserID              uuid.UUID `json:"user_id"`
	Date                time.Time `json:"date"` // calendar date, midnight UTC
	SuccessfulRepeats   int       `json:"successful_repetitions"`
	FailedRepeats       int       `json:"failed_repetitions"`
	TotalMaterialsAdded int       `json:"total_materials_added"`
	UpdatedAt           time.Time `json:"updated_at"`
}
