package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/api"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/config"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain/ebbinghaus"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/events"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/logger"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/postgres"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/timezone"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/service/schedule"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/task"
)

// application holds the wired components of the running server.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	db         *sql.DB
	scheduler  schedule.Service
	dispatcher *task.Dispatcher
	handler    *api.ScheduleHandler
}

// newApplication loads configuration and wires every component:
// config -> logger -> database -> migrations -> stores -> engine ->
// dispatcher -> HTTP handler.
func newApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("default_timezone", cfg.Schedule.DefaultTimezone),
		slog.String("notification_time", cfg.Schedule.NotificationTime))

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, err
	}

	resolver, err := timezone.NewResolver(cfg.Schedule.DefaultTimezone, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create timezone resolver: %w", err)
	}

	userStore := postgres.NewUserStore(db, appLogger)
	materialStore := postgres.NewMaterialStore(db, appLogger)
	entryStore := postgres.NewScheduleEntryStore(db, appLogger)
	resultStore := postgres.NewRepetitionResultStore(db, appLogger)
	statsStore := postgres.NewUserStatsStore(db, appLogger)

	scheduler := schedule.NewService(
		db,
		userStore,
		materialStore,
		entryStore,
		resultStore,
		statsStore,
		ebbinghaus.NewService(resolver),
		appLogger,
	)

	emitter := events.NewInMemoryEventEmitter(appLogger)
	emitter.RegisterHandler(newLogReminderHandler(appLogger))

	dispatcher := task.NewDispatcher(scheduler, emitter, task.DispatcherConfig{
		NotificationTime: cfg.Schedule.NotificationTime,
		OverdueEvery:     time.Duration(cfg.Dispatcher.OverdueCheckHours) * time.Hour,
		Location:         resolver.Fallback(),
	}, appLogger)

	return &application{
		config:     cfg,
		logger:     appLogger,
		db:         db,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		handler:    api.NewScheduleHandler(scheduler, appLogger),
	}, nil
}

// run starts the dispatcher and serves HTTP until shutdown.
func (app *application) run(ctx context.Context) error {
	if err := app.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	return app.startHTTPServer(ctx, app.buildRouter())
}

// cleanup releases held resources in reverse wiring order.
func (app *application) cleanup() {
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}

// logReminderHandler is the default delivery transport: it logs each
// reminder event. Real transports (a bot, a mailer) register next to it.
type logReminderHandler struct {
	logger *slog.Logger
}

func newLogReminderHandler(log *slog.Logger) *logReminderHandler {
	return &logReminderHandler{logger: log.With(slog.String("component", "reminder_log"))}
}

func (h *logReminderHandler) HandleEvent(_ context.Context, event *events.ReminderEvent) error {
	h.logger.Info("reminder event",
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID.String()),
		slog.Int("items", len(event.Items)))
	return nil
}
