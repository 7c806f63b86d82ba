// Package events публикует доменные события расписания после фиксации транзакции.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TaskCarried      Type = "task.carried"
	TaskCompleted    Type = "task.completed"
	SessionStarted   Type = "session.started"
	SessionCompleted Type = "session.completed"
)

type Event struct {
	ID          uuid.UUID `json:"event_id"`
	Type        Type      `json:"event_type"`
	AggregateID uuid.UUID `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload"`
}

func New(eventType Type, aggregateID uuid.UUID, occurredAt time.Time, payload any) Event {
	return Event{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  occurredAt,
		Payload:     payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop используется, когда брокеры не настроены
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

type TaskCarriedPayload struct {
	OriginalTaskID uuid.UUID `json:"original_task_id"`
	NewTaskID      uuid.UUID `json:"new_task_id"`
	FromActivityID uuid.UUID `json:"from_activity_id"`
	ToActivityID   uuid.UUID `json:"to_activity_id"`
	Wrapped        bool      `json:"wrapped"`
	Description    string    `json:"description"`
}

type SessionPayload struct {
	SessionID  uuid.UUID `json:"session_id"`
	ActivityID uuid.UUID `json:"activity_id"`
	Completed  bool      `json:"completed"`
}

type TaskCompletedPayload struct {
	TaskID      uuid.UUID `json:"task_id"`
	ActivityID  uuid.UUID `json:"activity_id"`
	CompletedAt time.Time `json:"completed_at"`
}
