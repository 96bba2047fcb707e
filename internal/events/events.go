package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain/ebbinghaus"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/service/schedule"
)

// Reminder event types.
const (
	// TypeDaily is the regular notification-time reminder cycle.
	TypeDaily = "daily"

	// TypeOverdue is the periodic overdue re-notification.
	TypeOverdue = "overdue"
)

// ReminderItem is one material a user should repeat now. It carries
// everything a delivery transport needs to render a reminder; transports
// never reach back into the stores.
type ReminderItem struct {
	EntryID    uuid.UUID `json:"entry_id"`
	MaterialID uuid.UUID `json:"material_id"`
	Content    string    `json:"content"`
	Stage      int       `json:"stage"`
	Kind       string    `json:"kind"`
	StageHint  string    `json:"stage_hint"`
	DueAt      time.Time `json:"due_at"`
}

// ReminderEvent is the dispatcher's output: the set of reminders for one
// user produced by one cycle.
type ReminderEvent struct {
	ID        uuid.UUID      `json:"id"`
	Type      string         `json:"type"`
	UserID    uuid.UUID      `json:"user_id"`
	Items     []ReminderItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewReminderEvent builds an event of the given type from the user's due
// items.
func NewReminderEvent(eventType string, userID uuid.UUID, items []*schedule.DueItem) *ReminderEvent {
	reminders := make([]ReminderItem, 0, len(items))
	for _, item := range items {
		reminders = append(reminders, ReminderItem{
			EntryID:    item.Entry.ID,
			MaterialID: item.Material.ID,
			Content:    item.Material.Content,
			Stage:      item.Entry.Stage,
			Kind:       string(item.Entry.Kind),
			StageHint:  ebbinghaus.StageDescription(item.Entry.Stage),
			DueAt:      item.Entry.ScheduledAt,
		})
	}

	return &ReminderEvent{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Items:     reminders,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler processes reminder events. Implementations must be safe
// for concurrent use; the dispatcher may emit from multiple timers.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ReminderEvent) error
}

// EventEmitter publishes reminder events to registered handlers without
// knowing who they are.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *ReminderEvent) error
}
