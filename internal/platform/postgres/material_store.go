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

// MaterialStore implements store.MaterialStore on PostgreSQL.
type MaterialStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewMaterialStore creates a PostgreSQL implementation of
// store.MaterialStore. If logger is nil, a default logger will be used.
func NewMaterialStore(db store.DBTX, log *slog.Logger) *MaterialStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &MaterialStore{
		db:     db,
		logger: log.With(slog.String("component", "material_store")),
	}
}

// Ensure MaterialStore implements store.MaterialStore
var _ store.MaterialStore = (*MaterialStore)(nil)

// WithTx returns a MaterialStore bound to the given transaction.
func (s *MaterialStore) WithTx(tx *sql.Tx) store.MaterialStore {
	return &MaterialStore{db: tx, logger: s.logger}
}

const materialColumns = `id, user_id, content, current_stage, last_success_at, is_active, created_at`

// Create implements store.MaterialStore.Create.
func (s *MaterialStore) Create(ctx context.Context, material *domain.Material) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := material.Validate(); err != nil {
		log.Warn("material validation failed during create",
			slog.String("error", err.Error()),
			slog.String("material_id", material.ID.String()))
		return err
	}

	query := `
		INSERT INTO materials (id, user_id, content, current_stage, last_success_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		material.ID,
		material.UserID,
		material.Content,
		material.CurrentStage,
		material.LastSuccessAt,
		material.IsActive,
		material.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create material",
			slog.String("error", err.Error()),
			slog.String("material_id", material.ID.String()),
			slog.String("user_id", material.UserID.String()))
		return MapError(err)
	}

	log.Info("material created",
		slog.String("material_id", material.ID.String()),
		slog.String("user_id", material.UserID.String()))
	return nil
}

// GetByID implements store.MaterialStore.GetByID.
func (s *MaterialStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Material, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1`

	material, err := scanMaterial(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrMaterialNotFound
		}
		log.Error("failed to get material",
			slog.String("error", err.Error()),
			slog.String("material_id", id.String()))
		return nil, MapError(err)
	}

	return material, nil
}

// Update implements store.MaterialStore.Update.
func (s *MaterialStore) Update(ctx context.Context, material *domain.Material) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := material.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE materials
		SET content = $1, current_stage = $2, last_success_at = $3, is_active = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		material.Content,
		material.CurrentStage,
		material.LastSuccessAt,
		material.IsActive,
		material.ID,
	)
	if err != nil {
		log.Error("failed to update material",
			slog.String("error", err.Error()),
			slog.String("material_id", material.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrMaterialNotFound)
}

// ListByUser implements store.MaterialStore.ListByUser.
func (s *MaterialStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	activeOnly bool,
) ([]*domain.Material, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + materialColumns + ` FROM materials WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list materials",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	materials := []*domain.Material{}
	for rows.Next() {
		material, err := scanMaterial(rows)
		if err != nil {
			return nil, MapError(err)
		}
		materials = append(materials, material)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return materials, nil
}

// Deactivate implements store.MaterialStore.Deactivate.
func (s *MaterialStore) Deactivate(ctx context.Context, userID, materialID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE materials
		SET is_active = FALSE
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, materialID, userID)
	if err != nil {
		log.Error("failed to deactivate material",
			slog.String("error", err.Error()),
			slog.String("material_id", materialID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrMaterialNotFound)
}

// CountByUser implements store.MaterialStore.CountByUser.
func (s *MaterialStore) CountByUser(
	ctx context.Context,
	userID uuid.UUID,
	activeOnly bool,
) (int, error) {
	query := `SELECT COUNT(*) FROM materials WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, MapError(err)
	}

	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (*domain.Material, error) {
	var material domain.Material
	var lastSuccessAt sql.NullTime

	err := row.Scan(
		&material.ID,
		&material.UserID,
		&material.Content,
		&material.CurrentStage,
		&lastSuccessAt,
		&material.IsActive,
		&material.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastSuccessAt.Valid {
		t := lastSuccessAt.Time
		material.LastSuccessAt = &t
	}

	return &material, nil
}
