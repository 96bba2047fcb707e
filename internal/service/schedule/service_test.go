package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain/ebbinghaus"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/memory"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/timezone"
)

type testEnv struct {
	svc       *serviceImpl
	users     *memory.UserStore
	materials *memory.MaterialStore
	entries   *memory.ScheduleEntryStore
	results   *memory.RepetitionResultStore
	stats     *memory.UserStatsStore
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	resolver, err := timezone.NewResolver("UTC", nil)
	require.NoError(t, err)

	env := &testEnv{
		users:     memory.NewUserStore(),
		materials: memory.NewMaterialStore(),
		entries:   memory.NewScheduleEntryStore(),
		results:   memory.NewRepetitionResultStore(),
		stats:     memory.NewUserStatsStore(),
	}

	svc := NewService(
		nil,
		env.users,
		env.materials,
		env.entries,
		env.results,
		env.stats,
		ebbinghaus.NewService(resolver),
		nil,
	)
	env.svc = svc.(*serviceImpl)
	env.svc.nowFn = func() time.Time { return now }

	return env
}

func (e *testEnv) registerUser(t *testing.T, tz string) *domain.User {
	t.Helper()
	user, err := e.svc.RegisterUser(context.Background(), "learner", "Test", tz)
	require.NoError(t, err)
	return user
}

func entryByStage(t *testing.T, entries []*domain.ScheduleEntry, stage int) *domain.ScheduleEntry {
	t.Helper()
	for _, entry := range entries {
		if entry.Stage == stage {
			return entry
		}
	}
	t.Fatalf("no entry with stage %d", stage)
	return nil
}

func (e *testEnv) pendingEntries(t *testing.T, materialID uuid.UUID) []*domain.ScheduleEntry {
	t.Helper()
	all, err := e.entries.ListByMaterial(context.Background(), materialID)
	require.NoError(t, err)

	pending := []*domain.ScheduleEntry{}
	for _, entry := range all {
		if !entry.IsCompleted {
			pending = append(pending, entry)
		}
	}
	return pending
}

func TestCreateMaterialInitialSchedule(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, entries, err := env.svc.CreateMaterial(context.Background(), user.ID, "the krebs cycle")
	require.NoError(t, err)

	assert.Equal(t, 0, material.CurrentStage)
	assert.Nil(t, material.LastSuccessAt)
	require.Len(t, entries, 3)

	immediate := entryByStage(t, entries, 0)
	assert.Equal(t, domain.KindImmediate, immediate.Kind)
	assert.True(t, immediate.ScheduledAt.Equal(now))

	shortTerm := entryByStage(t, entries, 1)
	assert.Equal(t, domain.KindShortTerm, shortTerm.Kind)
	assert.True(t, shortTerm.ScheduledAt.Equal(now.Add(20*time.Minute)))

	evening := entryByStage(t, entries, 2)
	assert.Equal(t, domain.KindEvening, evening.Kind)
	assert.True(t, evening.ScheduledAt.Equal(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)))

	stats, err := env.svc.GetDailyStatistics(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMaterialsAdded)
}

func TestCreateMaterialUnknownUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))

	_, _, err := env.svc.CreateMaterial(context.Background(), uuid.New(), "anything")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCompleteRepetitionAdvancesStage(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, entries, err := env.svc.CreateMaterial(context.Background(), user.ID, "ohm's law")
	require.NoError(t, err)

	evening := entryByStage(t, entries, 2)
	next, err := env.svc.CompleteRepetition(context.Background(), user.ID, evening.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, next.Stage)
	assert.Equal(t, domain.KindDay1, next.Kind)
	assert.True(t, next.ScheduledAt.Equal(time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)))

	// Completing one entry must leave exactly one pending entry: the other
	// two initial entries are deleted, the follow-up created.
	pending := env.pendingEntries(t, material.ID)
	require.Len(t, pending, 1)
	assert.Equal(t, next.ID, pending[0].ID)

	updated, err := env.materials.GetByID(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.CurrentStage)
	require.NotNil(t, updated.LastSuccessAt)
	assert.True(t, updated.LastSuccessAt.Equal(now))

	stats, err := env.svc.GetDailyStatistics(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SuccessfulRepeats)
}

func TestCompleteRepetitionIsIdempotent(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, entries, err := env.svc.CreateMaterial(context.Background(), user.ID, "photosynthesis")
	require.NoError(t, err)

	evening := entryByStage(t, entries, 2)
	_, err = env.svc.CompleteRepetition(context.Background(), user.ID, evening.ID)
	require.NoError(t, err)

	// Second attempt loses the compare-and-swap and changes nothing.
	_, err = env.svc.CompleteRepetition(context.Background(), user.ID, evening.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	pending := env.pendingEntries(t, material.ID)
	assert.Len(t, pending, 1)

	results, err := env.results.ListByMaterial(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	stats, err := env.svc.GetDailyStatistics(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SuccessfulRepeats)
}

func TestCompleteRepetitionOwnership(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	owner := env.registerUser(t, "UTC")
	intruder, err := env.svc.RegisterUser(context.Background(), "other", "Other", "UTC")
	require.NoError(t, err)

	_, entries, err := env.svc.CreateMaterial(context.Background(), owner.ID, "secret")
	require.NoError(t, err)

	_, err = env.svc.CompleteRepetition(context.Background(), intruder.ID, entries[0].ID)
	assert.ErrorIs(t, err, ErrEntryNotOwned)

	_, err = env.svc.CompleteRepetition(context.Background(), owner.ID, uuid.New())
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestMarkFailedRollsBackOneStage(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, entries, err := env.svc.CreateMaterial(context.Background(), user.ID, "irregular verbs")
	require.NoError(t, err)

	// Advance to stage 3 first.
	evening := entryByStage(t, entries, 2)
	pending, err := env.svc.CompleteRepetition(context.Background(), user.ID, evening.ID)
	require.NoError(t, err)
	require.Equal(t, 3, pending.Stage)

	next, err := env.svc.MarkFailed(context.Background(), user.ID, pending.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, next.Stage)
	assert.Equal(t, domain.KindEvening, next.Kind)
	// Failure reschedules for tomorrow morning regardless of stage.
	assert.True(t, next.ScheduledAt.Equal(time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)))

	updated, err := env.materials.GetByID(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentStage)

	results, err := env.results.ListByMaterial(context.Background(), material.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	failures := 0
	for _, result := range results {
		if !result.WasSuccess {
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	stats, err := env.svc.GetDailyStatistics(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SuccessfulRepeats)
	assert.Equal(t, 1, stats.FailedRepeats)
}

func TestMarkFailedFloorsAtStageZero(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, entries, err := env.svc.CreateMaterial(context.Background(), user.ID, "stubborn fact")
	require.NoError(t, err)

	next, err := env.svc.MarkFailed(context.Background(), user.ID, entries[0].ID)
	require.NoError(t, err)

	assert.Equal(t, 0, next.Stage)
	assert.Equal(t, domain.KindImmediate, next.Kind)

	updated, err := env.materials.GetByID(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentStage)
}

func TestGetDueSetDeduplicatesPerMaterial(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "duplicated")
	require.NoError(t, err)

	// Inject a duplicate pending entry behind the service's back; the due
	// query must self-heal by reporting the material once.
	rogue, err := domain.NewScheduleEntry(material.ID, user.ID, 3, domain.KindDay1, now)
	require.NoError(t, err)
	require.NoError(t, env.entries.Create(context.Background(), rogue))

	items, err := env.svc.GetDueSet(context.Background(), &user.ID, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, material.ID, items[0].Material.ID)
}

func TestGetDueSetIntradayOnlyOnExactDay(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "old material")
	require.NoError(t, err)

	// Yesterday's evening entry: intraday, so no longer due.
	staleEvening, err := domain.NewScheduleEntry(
		material.ID, user.ID, 2, domain.KindEvening,
		now.AddDate(0, 0, -1),
	)
	require.NoError(t, err)

	// Three-day-old long-horizon entry: still due.
	otherMaterial, err := domain.NewMaterial(user.ID, "older material", now.AddDate(0, 0, -5))
	require.NoError(t, err)
	require.NoError(t, env.materials.Create(context.Background(), otherMaterial))
	staleDay, err := domain.NewScheduleEntry(
		otherMaterial.ID, user.ID, 3, domain.KindDay1,
		now.AddDate(0, 0, -3),
	)
	require.NoError(t, err)

	_, err = env.entries.DeleteIncomplete(context.Background(), user.ID, material.ID)
	require.NoError(t, err)
	require.NoError(t, env.entries.Create(context.Background(), staleEvening))
	require.NoError(t, env.entries.Create(context.Background(), staleDay))

	items, err := env.svc.GetDueSet(context.Background(), &user.ID, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, staleDay.ID, items[0].Entry.ID)
}

func TestGetDueSetEmptyForUser(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	_, err := env.svc.GetDueSet(context.Background(), &user.ID, now)
	assert.ErrorIs(t, err, ErrNoDueEntries)
}

func TestGetOverdueSet(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "overdue one")
	require.NoError(t, err)
	_, err = env.entries.DeleteIncomplete(context.Background(), user.ID, material.ID)
	require.NoError(t, err)

	overdueEntry, err := domain.NewScheduleEntry(
		material.ID, user.ID, 4, domain.KindDay3,
		now.AddDate(0, 0, -2),
	)
	require.NoError(t, err)
	require.NoError(t, env.entries.Create(context.Background(), overdueEntry))

	// Today's long-horizon entry is due but not overdue.
	freshMaterial, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "fresh one")
	require.NoError(t, err)
	_, err = env.entries.DeleteIncomplete(context.Background(), user.ID, freshMaterial.ID)
	require.NoError(t, err)
	todayEntry, err := domain.NewScheduleEntry(
		freshMaterial.ID, user.ID, 3, domain.KindDay1, now,
	)
	require.NoError(t, err)
	require.NoError(t, env.entries.Create(context.Background(), todayEntry))

	items, err := env.svc.GetOverdueSet(context.Background(), &user.ID, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, overdueEntry.ID, items[0].Entry.ID)
}

func TestSweepExpiredIntraday(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "missed evening")
	require.NoError(t, err)
	_, err = env.entries.DeleteIncomplete(context.Background(), user.ID, material.ID)
	require.NoError(t, err)

	expired, err := domain.NewScheduleEntry(
		material.ID, user.ID, 2, domain.KindEvening,
		now.AddDate(0, 0, -1),
	)
	require.NoError(t, err)
	require.NoError(t, env.entries.Create(context.Background(), expired))

	// Today's intraday entry must survive the sweep.
	todayMaterial, todayEntries, err := env.svc.CreateMaterial(context.Background(), user.ID, "today's")
	require.NoError(t, err)

	swept, err := env.svc.SweepExpiredIntraday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	reloaded, err := env.entries.GetByID(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsCompleted)

	results, err := env.results.ListByMaterial(context.Background(), material.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].WasSuccess)

	assert.Len(t, env.pendingEntries(t, todayMaterial.ID), len(todayEntries))

	stats, err := env.svc.GetDailyStatistics(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FailedRepeats)
}

func TestSweepReschedulesExpiredMaterial(t *testing.T) {
	t.Parallel()
	created := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, created)
	user := env.registerUser(t, "UTC")

	material, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "ignored all day")
	require.NoError(t, err)

	// The day rolls over with all three intraday entries untouched.
	nextDay := created.AddDate(0, 0, 1)
	env.svc.nowFn = func() time.Time { return nextDay }

	swept, err := env.svc.SweepExpiredIntraday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, swept)

	// The sweep counts as a failure, so the material re-enters the
	// schedule with a single next-morning retry instead of vanishing.
	pending := env.pendingEntries(t, material.ID)
	require.Len(t, pending, 1)
	assert.Equal(t, 0, pending[0].Stage)
	assert.Equal(t, domain.KindImmediate, pending[0].Kind)
	assert.True(t, pending[0].ScheduledAt.Equal(time.Date(2026, 3, 12, 7, 0, 0, 0, time.UTC)))

	updated, err := env.materials.GetByID(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentStage)

	items, err := env.svc.GetDueSet(context.Background(), &user.ID, time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, material.ID, items[0].Material.ID)
}

func TestSweepLeavesDeactivatedMaterialUnscheduled(t *testing.T) {
	t.Parallel()
	created := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, created)
	user := env.registerUser(t, "UTC")

	material, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "abandoned")
	require.NoError(t, err)
	require.NoError(t, env.svc.DeactivateMaterial(context.Background(), user.ID, material.ID))

	env.svc.nowFn = func() time.Time { return created.AddDate(0, 0, 1) }

	swept, err := env.svc.SweepExpiredIntraday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, swept)
	assert.Empty(t, env.pendingEntries(t, material.ID))
}

func TestMarkFailedDuringInitialFanOut(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, entries, err := env.svc.CreateMaterial(context.Background(), user.ID, "tricky one")
	require.NoError(t, err)

	// Failing the stage-2 evening entry while the material is still at
	// stage 0 rolls back from the material's stage, so the retry restarts
	// the progression rather than landing on stage 1.
	evening := entryByStage(t, entries, 2)
	next, err := env.svc.MarkFailed(context.Background(), user.ID, evening.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, next.Stage)
	assert.Equal(t, domain.KindImmediate, next.Kind)
	assert.True(t, next.ScheduledAt.Equal(time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)))

	updated, err := env.materials.GetByID(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentStage)
	assert.Len(t, env.pendingEntries(t, material.ID), 1)
}

func TestListMaterials(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	first, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "kept")
	require.NoError(t, err)
	second, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "retired")
	require.NoError(t, err)
	require.NoError(t, env.svc.DeactivateMaterial(context.Background(), user.ID, second.ID))

	all, total, err := env.svc.ListMaterials(context.Background(), user.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, total)

	active, total, err := env.svc.ListMaterials(context.Background(), user.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, first.ID, active[0].ID)

	_, _, err = env.svc.ListMaterials(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetMaterialHistory(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, entries, err := env.svc.CreateMaterial(context.Background(), user.ID, "chronicled")
	require.NoError(t, err)
	_, err = env.svc.CompleteRepetition(context.Background(), user.ID, entryByStage(t, entries, 2).ID)
	require.NoError(t, err)

	history, err := env.svc.GetMaterialHistory(context.Background(), user.ID, material.ID)
	require.NoError(t, err)

	assert.Equal(t, material.ID, history.Material.ID)
	// One completed entry plus the pending follow-up.
	assert.Len(t, history.Entries, 2)
	assert.Len(t, history.Results, 1)

	// Another user's view is indistinguishable from a missing material.
	other, err := env.svc.RegisterUser(context.Background(), "other", "Other", "UTC")
	require.NoError(t, err)
	_, err = env.svc.GetMaterialHistory(context.Background(), other.ID, material.ID)
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestDeactivateMaterial(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	material, _, err := env.svc.CreateMaterial(context.Background(), user.ID, "retired")
	require.NoError(t, err)

	require.NoError(t, env.svc.DeactivateMaterial(context.Background(), user.ID, material.ID))

	updated, err := env.materials.GetByID(context.Background(), material.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	err = env.svc.DeactivateMaterial(context.Background(), user.ID, uuid.New())
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestTimezoneFallbackStillSchedules(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	// An unresolvable timezone name is kept on the user and substituted
	// with the resolver's fallback at scheduling time.
	user := env.registerUser(t, "Not/AZone")

	_, entries, err := env.svc.CreateMaterial(context.Background(), user.ID, "anywhere on earth")
	require.NoError(t, err)

	evening := entryByStage(t, entries, 2)
	assert.True(t, evening.ScheduledAt.Equal(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)))
}

func TestGetDailyStatisticsZeroDay(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)
	user := env.registerUser(t, "UTC")

	stats, err := env.svc.GetDailyStatistics(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SuccessfulRepeats)
	assert.Equal(t, 0, stats.FailedRepeats)
	assert.Equal(t, 0, stats.TotalMaterialsAdded)
}
