package sessions

import (
	"context"
	"time"

	"warehouse/internal/tasks"
	custom_error "warehouse/pkg/errors"
)

var (
	ErrSessionNotFound = custom_error.NotFound(
		"session_not_found",
		"Session not found or expired",
		"Sesja nie istnieje lub wygasła")
	ErrTaskConflict = custom_error.Conflict(
		"task_conflict",
		"Session already has an active task",
		"Sesja ma już aktywne zadanie")
	ErrNoActiveTask = custom_error.NotFound(
		"no_active_task",
		"Session has no active task",
		"Sesja nie ma aktywnego zadania")
	ErrSessionExpired = custom_error.New(
		custom_error.ClassSessionExpired,
		"session_expired",
		"Session expired, its task was discarded",
		"Sesja wygasła, zadanie zostało odrzucone")
)

// Session binds one (user, device) pair to at most one active task.
type Session struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	DeviceID       string     `json:"device_id"`
	WarehouseID    string     `json:"warehouse_id"`
	StartedAt      time.Time  `json:"started_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ActiveTask     tasks.Task `json:"-"`
}

// Store persists sessions with expiry. Implementations must treat Put as a
// full replace; the manager is the single writer per session.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	// Expired returns sessions whose last activity is before the cutoff, so
	// the sweeper can cancel their tasks before removal.
	Expired(ctx context.Context, cutoff time.Time) ([]*Session, error)
}
