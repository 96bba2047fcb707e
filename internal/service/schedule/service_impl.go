package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain/ebbinghaus"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/logger"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/store"
)

// txStores bundles the stores rebound to one transaction.
type txStores struct {
	users     store.UserStore
	materials store.MaterialStore
	entries   store.ScheduleEntryStore
	results   store.RepetitionResultStore
	stats     store.UserStatsStore
}

type serviceImpl struct {
	db        *sql.DB
	users     store.UserStore
	materials store.MaterialStore
	entries   store.ScheduleEntryStore
	results   store.RepetitionResultStore
	stats     store.UserStatsStore
	ebb       ebbinghaus.Service
	logger    *slog.Logger

	// nowFn returns the current time; injectable for tests.
	nowFn func() time.Time
}

// NewService creates the scheduling engine. db may be nil, in which case
// mutations run without a surrounding transaction (used with the
// in-memory stores in tests); every other dependency is required.
func NewService(
	db *sql.DB,
	users store.UserStore,
	materials store.MaterialStore,
	entries store.ScheduleEntryStore,
	results store.RepetitionResultStore,
	stats store.UserStatsStore,
	ebb ebbinghaus.Service,
	log *slog.Logger,
) Service {
	if users == nil {
		panic("users store cannot be nil")
	}
	if materials == nil {
		panic("materials store cannot be nil")
	}
	if entries == nil {
		panic("entries store cannot be nil")
	}
	if results == nil {
		panic("results store cannot be nil")
	}
	if stats == nil {
		panic("stats store cannot be nil")
	}
	if ebb == nil {
		panic("ebbinghaus service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		db:        db,
		users:     users,
		materials: materials,
		entries:   entries,
		results:   results,
		stats:     stats,
		ebb:       ebb,
		logger:    log.With(slog.String("component", "schedule_service")),
		nowFn:     time.Now,
	}
}

// Ensure serviceImpl implements Service
var _ Service = (*serviceImpl)(nil)

// runInTx executes fn against transaction-bound stores. Without a
// database handle the base stores are used directly; the in-memory
// implementations serialize internally.
func (s *serviceImpl) runInTx(ctx context.Context, fn func(ctx context.Context, st txStores) error) error {
	if s.db == nil {
		return fn(ctx, txStores{
			users:     s.users,
			materials: s.materials,
			entries:   s.entries,
			results:   s.results,
			stats:     s.stats,
		})
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, txStores{
			users:     s.users.WithTx(tx),
			materials: s.materials.WithTx(tx),
			entries:   s.entries.WithTx(tx),
			results:   s.results.WithTx(tx),
			stats:     s.stats.WithTx(tx),
		})
	})
}

func (s *serviceImpl) RegisterUser(
	ctx context.Context,
	username, firstName, timezone string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(username, timezone)
	if err != nil {
		return nil, err
	}
	user.FirstName = firstName

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("timezone", user.Timezone))
	return user, nil
}

func (s *serviceImpl) CreateMaterial(
	ctx context.Context,
	userID uuid.UUID,
	content string,
) (*domain.Material, []*domain.ScheduleEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.nowFn().UTC()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	material, err := domain.NewMaterial(userID, content, now)
	if err != nil {
		return nil, nil, err
	}

	// The initial fan-out: the only moment a material may hold more than
	// one incomplete entry. Stage 0 is due immediately; stages 1 and 2
	// follow the transition table.
	shortTermAt, _ := s.ebb.NextRepetition(now, 0, user.Timezone, nil)
	eveningAt, _ := s.ebb.NextRepetition(now, 1, user.Timezone, nil)

	plan := []struct {
		stage int
		at    time.Time
	}{
		{0, now},
		{1, shortTermAt},
		{2, eveningAt},
	}

	entries := make([]*domain.ScheduleEntry, 0, len(plan))
	err = s.runInTx(ctx, func(ctx context.Context, st txStores) error {
		if err := st.materials.Create(ctx, material); err != nil {
			return fmt.Errorf("failed to create material: %w", err)
		}

		if _, err := st.entries.DeleteIncomplete(ctx, userID, material.ID); err != nil {
			return fmt.Errorf("failed to clear pending entries: %w", err)
		}

		for _, step := range plan {
			entry, err := domain.NewScheduleEntry(
				material.ID,
				userID,
				step.stage,
				ebbinghaus.StageKind(step.stage),
				step.at,
			)
			if err != nil {
				return err
			}
			if err := st.entries.Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to create schedule entry: %w", err)
			}
			entries = append(entries, entry)
		}

		if err := st.stats.IncrementDaily(ctx, userID, now, 0, 0, 1); err != nil {
			return fmt.Errorf("failed to update statistics: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info("material created with initial schedule",
		slog.String("material_id", material.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("entries", len(entries)))
	return material, entries, nil
}

func (s *serviceImpl) CompleteRepetition(
	ctx context.Context,
	userID, entryID uuid.UUID,
) (*domain.ScheduleEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.nowFn().UTC()

	entry, err := s.getOwnedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	var next *domain.ScheduleEntry
	err = s.runInTx(ctx, func(ctx context.Context, st txStores) error {
		// CAS first: if another caller completed the entry between our read
		// and this update, nothing below runs.
		if err := st.entries.Complete(ctx, entryID, userID, now); err != nil {
			if errors.Is(err, store.ErrScheduleEntryNotFound) {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("failed to complete entry: %w", err)
		}

		result, err := domain.NewRepetitionResult(entry, true, now)
		if err != nil {
			return err
		}
		if err := st.results.Create(ctx, result); err != nil {
			return fmt.Errorf("failed to record result: %w", err)
		}

		material, err := st.materials.GetByID(ctx, entry.MaterialID)
		if err != nil {
			if errors.Is(err, store.ErrMaterialNotFound) {
				return ErrMaterialNotFound
			}
			return fmt.Errorf("failed to get material: %w", err)
		}

		user, err := st.users.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		material.LastSuccessAt = &now
		dueAt, nextStage := s.ebb.NextRepetition(
			material.CreatedAt,
			entry.Stage,
			user.Timezone,
			material.LastSuccessAt,
		)

		next, err = s.replacePending(ctx, st, material, nextStage, dueAt)
		if err != nil {
			return err
		}

		if err := st.stats.IncrementDaily(ctx, userID, now, 1, 0, 0); err != nil {
			return fmt.Errorf("failed to update statistics: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("repetition completed",
		slog.String("entry_id", entryID.String()),
		slog.Int("stage", entry.Stage),
		slog.Int("next_stage", next.Stage),
		slog.Time("next_due", next.ScheduledAt))
	return next, nil
}

func (s *serviceImpl) MarkFailed(
	ctx context.Context,
	userID, entryID uuid.UUID,
) (*domain.ScheduleEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.nowFn().UTC()

	entry, err := s.getOwnedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	var next *domain.ScheduleEntry
	err = s.runInTx(ctx, func(ctx context.Context, st txStores) error {
		if err := st.entries.Complete(ctx, entryID, userID, now); err != nil {
			if errors.Is(err, store.ErrScheduleEntryNotFound) {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("failed to complete entry: %w", err)
		}

		result, err := domain.NewRepetitionResult(entry, false, now)
		if err != nil {
			return err
		}
		if err := st.results.Create(ctx, result); err != nil {
			return fmt.Errorf("failed to record result: %w", err)
		}

		material, err := st.materials.GetByID(ctx, entry.MaterialID)
		if err != nil {
			if errors.Is(err, store.ErrMaterialNotFound) {
				return ErrMaterialNotFound
			}
			return fmt.Errorf("failed to get material: %w", err)
		}

		user, err := st.users.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		// Roll back from the material's stage, not the entry's: during the
		// initial fan-out the pending entries carry stages 0..2 while the
		// material is still at stage 0, and failing one of them must not
		// overshoot.
		dueAt, nextStage := s.ebb.FailedRepetition(now, material.CurrentStage, user.Timezone)

		next, err = s.replacePending(ctx, st, material, nextStage, dueAt)
		if err != nil {
			return err
		}

		if err := st.stats.IncrementDaily(ctx, userID, now, 0, 1, 0); err != nil {
			return fmt.Errorf("failed to update statistics: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("repetition failed, stage rolled back",
		slog.String("entry_id", entryID.String()),
		slog.Int("next_stage", next.Stage),
		slog.Time("next_due", next.ScheduledAt))
	return next, nil
}

// replacePending enforces the single-pending invariant: inside the
// caller's transaction it deletes every incomplete entry for the
// material, creates the one next entry and brings the material's stage
// in line with it.
func (s *serviceImpl) replacePending(
	ctx context.Context,
	st txStores,
	material *domain.Material,
	nextStage int,
	dueAt time.Time,
) (*domain.ScheduleEntry, error) {
	if _, err := st.entries.DeleteIncomplete(ctx, material.UserID, material.ID); err != nil {
		return nil, fmt.Errorf("failed to clear pending entries: %w", err)
	}

	next, err := domain.NewScheduleEntry(
		material.ID,
		material.UserID,
		nextStage,
		ebbinghaus.StageKind(nextStage),
		dueAt,
	)
	if err != nil {
		return nil, err
	}
	if err := st.entries.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create next entry: %w", err)
	}

	material.CurrentStage = nextStage
	if err := st.materials.Update(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to update material: %w", err)
	}

	return next, nil
}

// getOwnedEntry loads an entry and verifies ownership.
func (s *serviceImpl) getOwnedEntry(
	ctx context.Context,
	userID, entryID uuid.UUID,
) (*domain.ScheduleEntry, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrScheduleEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	if entry.UserID != userID {
		return nil, ErrEntryNotOwned
	}

	return entry, nil
}

func (s *serviceImpl) GetDueSet(
	ctx context.Context,
	userID *uuid.UUID,
	target time.Time,
) ([]*DueItem, error) {
	entries, err := s.entries.FindDue(ctx, userID, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query due entries: %w", err)
	}

	// The store already orders by (date, stage, created_at); keeping only
	// the first entry per material preserves that order while healing any
	// duplicated pending entries.
	items := []*DueItem{}
	seen := map[uuid.UUID]bool{}
	for _, entry := range entries {
		if seen[entry.MaterialID] {
			continue
		}
		seen[entry.MaterialID] = true

		material, err := s.materials.GetByID(ctx, entry.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("failed to get material: %w", err)
		}
		items = append(items, &DueItem{Entry: entry, Material: material})
	}

	if userID != nil && len(items) == 0 {
		return nil, ErrNoDueEntries
	}
	return items, nil
}

func (s *serviceImpl) GetOverdueSet(
	ctx context.Context,
	userID *uuid.UUID,
	now time.Time,
) ([]*DueItem, error) {
	yesterday := domain.DateOf(now).AddDate(0, 0, -1)

	entries, err := s.entries.FindOverdue(ctx, userID, yesterday)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue entries: %w", err)
	}

	items := []*DueItem{}
	for _, entry := range entries {
		material, err := s.materials.GetByID(ctx, entry.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("failed to get material: %w", err)
		}
		items = append(items, &DueItem{Entry: entry, Material: material})
	}
	return items, nil
}

func (s *serviceImpl) SweepExpiredIntraday(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.nowFn().UTC()

	expired, err := s.entries.FindExpiredIntraday(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to query expired entries: %w", err)
	}

	swept := 0
	seen := map[uuid.UUID]bool{}
	affected := []uuid.UUID{}
	for _, entry := range expired {
		entry := entry
		err := s.runInTx(ctx, func(ctx context.Context, st txStores) error {
			if err := st.entries.Complete(ctx, entry.ID, entry.UserID, now); err != nil {
				if errors.Is(err, store.ErrScheduleEntryNotFound) {
					// Completed or deleted since the read; nothing to sweep.
					return nil
				}
				return fmt.Errorf("failed to complete expired entry: %w", err)
			}

			result, err := domain.NewRepetitionResult(entry, false, now)
			if err != nil {
				return err
			}
			if err := st.results.Create(ctx, result); err != nil {
				return fmt.Errorf("failed to record expiry result: %w", err)
			}

			if err := st.stats.IncrementDaily(ctx, entry.UserID, now, 0, 1, 0); err != nil {
				return fmt.Errorf("failed to update statistics: %w", err)
			}

			swept++
			return nil
		})
		if err != nil {
			log.Error("failed to sweep expired entry",
				slog.String("error", err.Error()),
				slog.String("entry_id", entry.ID.String()))
			continue
		}
		if !seen[entry.MaterialID] {
			seen[entry.MaterialID] = true
			affected = append(affected, entry.MaterialID)
		}
	}

	// An expired entry counts as a failed repetition, so each affected
	// material gets the usual failure rollback and a next-morning retry.
	// Without this a material whose entries all expired would hold zero
	// pending entries and vanish from every future due set.
	for _, materialID := range affected {
		err := s.runInTx(ctx, func(ctx context.Context, st txStores) error {
			return s.rescheduleAfterExpiry(ctx, st, materialID, now)
		})
		if err != nil {
			log.Error("failed to reschedule swept material",
				slog.String("error", err.Error()),
				slog.String("material_id", materialID.String()))
		}
	}

	if swept > 0 {
		log.Info("expired intraday entries swept",
			slog.Int("count", swept),
			slog.Int("materials_rescheduled", len(affected)))
	}
	return swept, nil
}

// rescheduleAfterExpiry applies the failure rollback to a material whose
// intraday entry was swept. The rollback runs once per material no matter
// how many of its entries expired.
func (s *serviceImpl) rescheduleAfterExpiry(
	ctx context.Context,
	st txStores,
	materialID uuid.UUID,
	now time.Time,
) error {
	material, err := st.materials.GetByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, store.ErrMaterialNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get material: %w", err)
	}
	// Deactivated materials keep their history but get no new entries.
	if !material.IsActive {
		return nil
	}

	user, err := st.users.GetByID(ctx, material.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	dueAt, nextStage := s.ebb.FailedRepetition(now, material.CurrentStage, user.Timezone)
	_, err = s.replacePending(ctx, st, material, nextStage, dueAt)
	return err
}

func (s *serviceImpl) ListMaterials(
	ctx context.Context,
	userID uuid.UUID,
	activeOnly bool,
) ([]*domain.Material, int, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("failed to get user: %w", err)
	}

	materials, err := s.materials.ListByUser(ctx, userID, activeOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list materials: %w", err)
	}

	total, err := s.materials.CountByUser(ctx, userID, activeOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count materials: %w", err)
	}
	return materials, total, nil
}

func (s *serviceImpl) GetMaterialHistory(
	ctx context.Context,
	userID, materialID uuid.UUID,
) (*MaterialHistory, error) {
	material, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, store.ErrMaterialNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}

	// Another user's material is indistinguishable from a missing one.
	if material.UserID != userID {
		return nil, ErrMaterialNotFound
	}

	entries, err := s.entries.ListByMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	results, err := s.results.ListByMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return &MaterialHistory{Material: material, Entries: entries, Results: results}, nil
}

func (s *serviceImpl) DeactivateMaterial(
	ctx context.Context,
	userID, materialID uuid.UUID,
) error {
	if err := s.materials.Deactivate(ctx, userID, materialID); err != nil {
		if errors.Is(err, store.ErrMaterialNotFound) {
			return ErrMaterialNotFound
		}
		return fmt.Errorf("failed to deactivate material: %w", err)
	}
	return nil
}

func (s *serviceImpl) GetDailyStatistics(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
) (*domain.UserStatistics, error) {
	stats, err := s.stats.GetDaily(ctx, userID, day)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No activity that day reads as all-zero counters.
			return &domain.UserStatistics{UserID: userID, Date: domain.DateOf(day)}, nil
		}
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return stats, nil
}
