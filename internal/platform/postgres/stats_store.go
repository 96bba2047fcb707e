package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/logger"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/store"
)

// UserStatsStore implements store.UserStatsStore on PostgreSQL. The
// daily counters are maintained with INSERT ... ON CONFLICT so the
// increment is a single atomic statement.
type UserStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewUserStatsStore creates a PostgreSQL implementation of
// store.UserStatsStore. If logger is nil, a default logger will be used.
func NewUserStatsStore(db store.DBTX, log *slog.Logger) *UserStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &UserStatsStore{
		db:     db,
		logger: log.With(slog.String("component", "user_stats_store")),
	}
}

// Ensure UserStatsStore implements store.UserStatsStore
var _ store.UserStatsStore = (*UserStatsStore)(nil)

// WithTx returns a UserStatsStore bound to the given transaction.
func (s *UserStatsStore) WithTx(tx *sql.Tx) store.UserStatsStore {
	return &UserStatsStore{db: tx, logger: s.logger}
}

// IncrementDaily implements store.UserStatsStore.IncrementDaily.
func (s *UserStatsStore) IncrementDaily(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
	successDelta, failedDelta, materialsDelta int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO user_statistics (user_id, date, successful_repeats, failed_repeats, total_materials_added, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, date) DO UPDATE
		SET successful_repeats = user_statistics.successful_repeats + EXCLUDED.successful_repeats,
		    failed_repeats = user_statistics.failed_repeats + EXCLUDED.failed_repeats,
		    total_materials_added = user_statistics.total_materials_added + EXCLUDED.total_materials_added,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		userID,
		domain.DateOf(day),
		successDelta,
		failedDelta,
		materialsDelta,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to increment daily statistics",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	return nil
}

// GetDaily implements store.UserStatsStore.GetDaily.
func (s *UserStatsStore) GetDaily(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
) (*domain.UserStatistics, error) {
	query := `
		SELECT user_id, date, successful_repeats, failed_repeats, total_materials_added, updated_at
		FROM user_statistics
		WHERE user_id = $1 AND date = $2
	`

	var stats domain.UserStatistics
	err := s.db.QueryRowContext(ctx, query, userID, domain.DateOf(day)).Scan(
		&stats.UserID,
		&stats.Date,
		&stats.SuccessfulRepeats,
		&stats.FailedRepeats,
		&stats.TotalMaterialsAdded,
		&stats.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, MapError(err)
	}

	stats.Date = domain.DateOf(stats.Date.UTC())
	return &stats, nil
}
