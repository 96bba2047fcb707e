package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/logger"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/store"
)

// ScheduleEntryStore implements store.ScheduleEntryStore on PostgreSQL.
// The due/overdue/expiry queries are built with squirrel because their
// predicates vary (owner-or-all, kind sets, date comparisons); fixed
// statements stay plain SQL.
type ScheduleEntryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewScheduleEntryStore creates a PostgreSQL implementation of
// store.ScheduleEntryStore. If logger is nil, a default logger will be used.
func NewScheduleEntryStore(db store.DBTX, log *slog.Logger) *ScheduleEntryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &ScheduleEntryStore{
		db:     db,
		logger: log.With(slog.String("component", "schedule_entry_store")),
	}
}

// Ensure ScheduleEntryStore implements store.ScheduleEntryStore
var _ store.ScheduleEntryStore = (*ScheduleEntryStore)(nil)

// WithTx returns a ScheduleEntryStore bound to the given transaction.
func (s *ScheduleEntryStore) WithTx(tx *sql.Tx) store.ScheduleEntryStore {
	return &ScheduleEntryStore{db: tx, logger: s.logger}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const entryColumns = `id, material_id, user_id, scheduled_date, scheduled_at, kind, stage, is_completed, completed_at, created_at`

var entryColumnList = []string{
	"id", "material_id", "user_id", "scheduled_date", "scheduled_at",
	"kind", "stage", "is_completed", "completed_at", "created_at",
}

// Create implements store.ScheduleEntryStore.Create.
func (s *ScheduleEntryStore) Create(ctx context.Context, entry *domain.ScheduleEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("schedule entry validation failed during create",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO schedule_entries
			(id, material_id, user_id, scheduled_date, scheduled_at, kind, stage, is_completed, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.MaterialID,
		entry.UserID,
		entry.ScheduledDate,
		entry.ScheduledAt,
		string(entry.Kind),
		entry.Stage,
		entry.IsCompleted,
		entry.CompletedAt,
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create schedule entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()),
			slog.String("material_id", entry.MaterialID.String()))
		return MapError(err)
	}

	log.Debug("schedule entry created",
		slog.String("entry_id", entry.ID.String()),
		slog.String("kind", string(entry.Kind)),
		slog.Int("stage", entry.Stage),
		slog.Time("scheduled_at", entry.ScheduledAt))
	return nil
}

// GetByID implements store.ScheduleEntryStore.GetByID.
func (s *ScheduleEntryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM schedule_entries WHERE id = $1`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrScheduleEntryNotFound
		}
		return nil, MapError(err)
	}

	return entry, nil
}

// DeleteIncomplete implements store.ScheduleEntryStore.DeleteIncomplete.
func (s *ScheduleEntryStore) DeleteIncomplete(
	ctx context.Context,
	userID, materialID uuid.UUID,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM schedule_entries
		WHERE user_id = $1 AND material_id = $2 AND is_completed = FALSE
	`

	result, err := s.db.ExecContext(ctx, query, userID, materialID)
	if err != nil {
		log.Error("failed to delete incomplete entries",
			slog.String("error", err.Error()),
			slog.String("material_id", materialID.String()))
		return 0, MapError(err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}

	if deleted > 0 {
		log.Debug("deleted incomplete entries",
			slog.String("material_id", materialID.String()),
			slog.Int64("count", deleted))
	}
	return deleted, nil
}

// Complete implements store.ScheduleEntryStore.Complete. The WHERE clause
// is the compare-and-swap: only one concurrent caller can flip
// is_completed, every other caller sees zero rows affected.
func (s *ScheduleEntryStore) Complete(
	ctx context.Context,
	id, userID uuid.UUID,
	completedAt time.Time,
) error {
	query := `
		UPDATE schedule_entries
		SET is_completed = TRUE, completed_at = $1
		WHERE id = $2 AND user_id = $3 AND is_completed = FALSE
	`

	result, err := s.db.ExecContext(ctx, query, completedAt, id, userID)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrScheduleEntryNotFound)
}

// FindDue implements store.ScheduleEntryStore.FindDue.
func (s *ScheduleEntryStore) FindDue(
	ctx context.Context,
	userID *uuid.UUID,
	target time.Time,
) ([]*domain.ScheduleEntry, error) {
	target = domain.DateOf(target)

	builder := psql.Select(entryColumnList...).
		From("schedule_entries").
		Where(sq.Eq{"is_completed": false}).
		Where(sq.Or{
			// Intraday kinds are due only on their exact day.
			sq.And{
				sq.Eq{"kind": kindStrings(domain.IntradayKinds)},
				sq.Eq{"scheduled_date": target},
			},
			// Long-horizon kinds stay due until acted on.
			sq.And{
				sq.Eq{"kind": kindStrings(domain.LongHorizonKinds)},
				sq.LtOrEq{"scheduled_date": target},
			},
		}).
		OrderBy("scheduled_date", "stage", "created_at")

	if userID != nil {
		builder = builder.Where(sq.Eq{"user_id": *userID})
	}

	return s.queryEntries(ctx, builder)
}

// FindOverdue implements store.ScheduleEntryStore.FindOverdue.
func (s *ScheduleEntryStore) FindOverdue(
	ctx context.Context,
	userID *uuid.UUID,
	lastDate time.Time,
) ([]*domain.ScheduleEntry, error) {
	builder := psql.Select(entryColumnList...).
		From("schedule_entries").
		Where(sq.Eq{"is_completed": false}).
		Where(sq.Eq{"kind": kindStrings(domain.LongHorizonKinds)}).
		Where(sq.LtOrEq{"scheduled_date": domain.DateOf(lastDate)}).
		OrderBy("scheduled_date", "stage", "created_at")

	if userID != nil {
		builder = builder.Where(sq.Eq{"user_id": *userID})
	}

	return s.queryEntries(ctx, builder)
}

// FindExpiredIntraday implements store.ScheduleEntryStore.FindExpiredIntraday.
func (s *ScheduleEntryStore) FindExpiredIntraday(
	ctx context.Context,
	before time.Time,
) ([]*domain.ScheduleEntry, error) {
	builder := psql.Select(entryColumnList...).
		From("schedule_entries").
		Where(sq.Eq{"is_completed": false}).
		Where(sq.Eq{"kind": kindStrings(domain.IntradayKinds)}).
		Where(sq.Lt{"scheduled_date": domain.DateOf(before)}).
		OrderBy("scheduled_date", "stage", "created_at")

	return s.queryEntries(ctx, builder)
}

// ListByMaterial implements store.ScheduleEntryStore.ListByMaterial.
func (s *ScheduleEntryStore) ListByMaterial(
	ctx context.Context,
	materialID uuid.UUID,
) ([]*domain.ScheduleEntry, error) {
	builder := psql.Select(entryColumnList...).
		From("schedule_entries").
		Where(sq.Eq{"material_id": materialID}).
		OrderBy("scheduled_date", "stage", "created_at")

	return s.queryEntries(ctx, builder)
}

func (s *ScheduleEntryStore) queryEntries(
	ctx context.Context,
	builder sq.SelectBuilder,
) ([]*domain.ScheduleEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query schedule entries", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.ScheduleEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, MapError(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return entries, nil
}

func scanEntry(row rowScanner) (*domain.ScheduleEntry, error) {
	var entry domain.ScheduleEntry
	var kind string
	var completedAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.MaterialID,
		&entry.UserID,
		&entry.ScheduledDate,
		&entry.ScheduledAt,
		&kind,
		&entry.Stage,
		&entry.IsCompleted,
		&completedAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.RepetitionKind(kind)
	entry.ScheduledDate = domain.DateOf(entry.ScheduledDate.UTC())
	if completedAt.Valid {
		t := completedAt.Time
		entry.CompletedAt = &t
	}

	return &entry, nil
}

func kindStrings(kinds []domain.RepetitionKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
