package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/logger"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/store"
)

// RepetitionResultStore implements store.RepetitionResultStore on
// PostgreSQL. Results are insert-only; there is no update path.
type RepetitionResultStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewRepetitionResultStore creates a PostgreSQL implementation of
// store.RepetitionResultStore. If logger is nil, a default logger will
// be used.
func NewRepetitionResultStore(db store.DBTX, log *slog.Logger) *RepetitionResultStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &RepetitionResultStore{
		db:     db,
		logger: log.With(slog.String("component", "repetition_result_store")),
	}
}

// Ensure RepetitionResultStore implements store.RepetitionResultStore
var _ store.RepetitionResultStore = (*RepetitionResultStore)(nil)

// WithTx returns a RepetitionResultStore bound to the given transaction.
func (s *RepetitionResultStore) WithTx(tx *sql.Tx) store.RepetitionResultStore {
	return &RepetitionResultStore{db: tx, logger: s.logger}
}

const resultColumns = `id, entry_id, user_id, material_id, was_success, completed_at`

// Create implements store.RepetitionResultStore.Create.
func (s *RepetitionResultStore) Create(ctx context.Context, result *domain.RepetitionResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO repetition_results (id, entry_id, user_id, material_id, was_success, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		result.ID,
		result.EntryID,
		result.UserID,
		result.MaterialID,
		result.WasSuccess,
		result.CompletedAt,
	)
	if err != nil {
		log.Error("failed to create repetition result",
			slog.String("error", err.Error()),
			slog.String("entry_id", result.EntryID.String()))
		return MapError(err)
	}

	log.Debug("repetition result recorded",
		slog.String("entry_id", result.EntryID.String()),
		slog.Bool("was_success", result.WasSuccess))
	return nil
}

// GetByEntry implements store.RepetitionResultStore.GetByEntry.
func (s *RepetitionResultStore) GetByEntry(
	ctx context.Context,
	entryID uuid.UUID,
) (*domain.RepetitionResult, error) {
	query := `SELECT ` + resultColumns + ` FROM repetition_results WHERE entry_id = $1`

	var result domain.RepetitionResult
	err := s.db.QueryRowContext(ctx, query, entryID).Scan(
		&result.ID,
		&result.EntryID,
		&result.UserID,
		&result.MaterialID,
		&result.WasSuccess,
		&result.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrRepetitionResultNotFound
		}
		return nil, MapError(err)
	}

	return &result, nil
}

// ListByMaterial implements store.RepetitionResultStore.ListByMaterial.
func (s *RepetitionResultStore) ListByMaterial(
	ctx context.Context,
	materialID uuid.UUID,
) ([]*domain.RepetitionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + resultColumns + `
		FROM repetition_results
		WHERE material_id = $1
		ORDER BY completed_at
	`

	rows, err := s.db.QueryContext(ctx, query, materialID)
	if err != nil {
		log.Error("failed to list repetition results",
			slog.String("error", err.Error()),
			slog.String("material_id", materialID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	results := []*domain.RepetitionResult{}
	for rows.Next() {
		var result domain.RepetitionResult
		if err := rows.Scan(
			&result.ID,
			&result.EntryID,
			&result.UserID,
			&result.MaterialID,
			&result.WasSuccess,
			&result.CompletedAt,
		); err != nil {
			return nil, MapError(err)
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return results, nil
}
