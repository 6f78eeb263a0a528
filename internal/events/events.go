package events

import "time"

// DomainEvent is an outbound message for external collaborators
// (notifications, analytics). Events are queued after a successful commit and
// never participate in it.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

type SessionStartedEvent struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	DeviceID    string    `json:"device_id"`
	WarehouseID string    `json:"warehouse_id"`
	StartedAt   time.Time `json:"started_at"`
}

func (e *SessionStartedEvent) EventType() string     { return "session.started" }
func (e *SessionStartedEvent) OccurredAt() time.Time { return e.StartedAt }

type SessionEndedEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"` // "ended" or "idle_timeout"
	EndedAt   time.Time `json:"ended_at"`
}

func (e *SessionEndedEvent) EventType() string     { return "session.ended" }
func (e *SessionEndedEvent) OccurredAt() time.Time { return e.EndedAt }

// TaskCompletedEvent is emitted once per committed task; its type follows the
// task kind, e.g. "picking.completed".
type TaskCompletedEvent struct {
	TaskID      string                 `json:"task_id"`
	Kind        string                 `json:"kind"`
	SessionID   string                 `json:"session_id"`
	UserID      string                 `json:"user_id"`
	WarehouseID string                 `json:"warehouse_id"`
	Movements   int                    `json:"movements"`
	Summary     map[string]interface{} `json:"summary,omitempty"`
	CompletedAt time.Time              `json:"completed_at"`
}

func (e *TaskCompletedEvent) EventType() string     { return e.Kind + ".completed" }
func (e *TaskCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

type InventoryAdjustedEvent struct {
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	LocationID  string    `json:"location_id"`
	Delta       int       `json:"delta"`
	Reference   string    `json:"reference"`
	AdjustedAt  time.Time `json:"adjusted_at"`
}

func (e *InventoryAdjustedEvent) EventType() string     { return "inventory.adjusted" }
func (e *InventoryAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }
