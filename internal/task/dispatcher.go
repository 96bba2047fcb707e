package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/events"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/service/schedule"
)

// DispatcherConfig carries the timer settings the dispatcher needs.
type DispatcherConfig struct {
	// NotificationTime is the local wall time ("HH:MM") of the daily cycle.
	NotificationTime string

	// OverdueEvery is the interval between periodic overdue checks.
	OverdueEvery time.Duration

	// Location anchors both timers; daily notification fires at
	// NotificationTime in this zone.
	Location *time.Location
}

// Dispatcher runs the reminder cycles on gocron timers and emits the
// results as events. It holds no scheduling logic of its own: every
// decision about what is due belongs to the schedule service.
type Dispatcher struct {
	scheduler *gocron.Scheduler
	svc       schedule.Service
	emitter   events.EventEmitter
	cfg       DispatcherConfig
	logger    *slog.Logger

	// nowFn returns the current time; injectable for tests.
	nowFn func() time.Time
}

// NewDispatcher creates a dispatcher with the given engine and emitter.
func NewDispatcher(
	svc schedule.Service,
	emitter events.EventEmitter,
	cfg DispatcherConfig,
	log *slog.Logger,
) *Dispatcher {
	if svc == nil {
		panic("schedule service cannot be nil")
	}
	if emitter == nil {
		panic("event emitter cannot be nil")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		scheduler: gocron.NewScheduler(cfg.Location),
		svc:       svc,
		emitter:   emitter,
		cfg:       cfg,
		logger:    log.With(slog.String("component", "dispatcher")),
		nowFn:     time.Now,
	}
}

// Start registers both timers and runs the scheduler asynchronously.
func (d *Dispatcher) Start(ctx context.Context) error {
	if _, err := d.scheduler.Every(1).Day().At(d.cfg.NotificationTime).Do(func() {
		d.RunDailyCycle(ctx)
	}); err != nil {
		return err
	}

	if _, err := d.scheduler.Every(d.cfg.OverdueEvery).Do(func() {
		d.RunOverdueCycle(ctx)
	}); err != nil {
		return err
	}

	d.scheduler.StartAsync()
	d.logger.Info("dispatcher started",
		slog.String("notification_time", d.cfg.NotificationTime),
		slog.Duration("overdue_every", d.cfg.OverdueEvery))
	return nil
}

// Stop halts the timers. In-flight cycles run to completion.
func (d *Dispatcher) Stop() {
	d.scheduler.Stop()
	d.logger.Info("dispatcher stopped")
}

// RunDailyCycle performs one reminder cycle: sweep expired intraday
// entries, read today's due set across all users and emit one daily
// event per user that has something actionable.
func (d *Dispatcher) RunDailyCycle(ctx context.Context) {
	now := d.nowFn()

	swept, err := d.svc.SweepExpiredIntraday(ctx)
	if err != nil {
		d.logger.Error("expiry sweep failed", slog.String("error", err.Error()))
		// The due read still proceeds; a failed sweep only means some
		// expired entries show up one cycle late.
	}

	items, err := d.svc.GetDueSet(ctx, nil, now)
	if err != nil {
		d.logger.Error("due set query failed", slog.String("error", err.Error()))
		return
	}

	emitted := d.emitPerUser(ctx, events.TypeDaily, items)
	d.logger.Info("daily cycle finished",
		slog.Int("swept", swept),
		slog.Int("due_items", len(items)),
		slog.Int("events_emitted", emitted))
}

// RunOverdueCycle emits an overdue event per user with long-horizon
// entries left from previous days.
func (d *Dispatcher) RunOverdueCycle(ctx context.Context) {
	now := d.nowFn()

	items, err := d.svc.GetOverdueSet(ctx, nil, now)
	if err != nil {
		d.logger.Error("overdue set query failed", slog.String("error", err.Error()))
		return
	}

	emitted := d.emitPerUser(ctx, events.TypeOverdue, items)
	if emitted > 0 {
		d.logger.Info("overdue cycle finished",
			slog.Int("overdue_items", len(items)),
			slog.Int("events_emitted", emitted))
	}
}

// emitPerUser groups items by owner, drops deactivated materials and
// emits one event per user. Returns the number of events emitted.
func (d *Dispatcher) emitPerUser(
	ctx context.Context,
	eventType string,
	items []*schedule.DueItem,
) int {
	byUser := map[uuid.UUID][]*schedule.DueItem{}
	order := []uuid.UUID{}
	for _, item := range items {
		if !item.Material.IsActive {
			continue
		}
		userID := item.Entry.UserID
		if _, ok := byUser[userID]; !ok {
			order = append(order, userID)
		}
		byUser[userID] = append(byUser[userID], item)
	}

	emitted := 0
	for _, userID := range order {
		event := events.NewReminderEvent(eventType, userID, byUser[userID])
		if err := d.emitter.EmitEvent(ctx, event); err != nil {
			d.logger.Error("failed to emit reminder event",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("event_type", eventType))
			continue
		}
		emitted++
	}
	return emitted
}
