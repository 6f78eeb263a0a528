package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"warehouse/internal/events"
	"warehouse/internal/tasks"
)

const DefaultIdleTimeout = 30 * time.Minute

// Manager owns session lifecycle and is the only component that attaches,
// advances or detaches a task. Idle sessions are swept: their task is
// cancelled through the cancel hook (a pure discard plus reservation
// release), then the session is removed.
type Manager struct {
	store    Store
	timeout  time.Duration
	events   *events.Publisher
	logger   *zap.Logger
	onCancel func(task tasks.Task)

	// attachMu closes the check-then-put window in Attach, so two devices
	// racing to start a task cannot both pass the nil check. Cross-instance
	// deployments still rely on routing one session to one instance.
	attachMu sync.Mutex
}

func NewManager(store Store, timeout time.Duration, publisher *events.Publisher, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Manager{
		store:   store,
		timeout: timeout,
		events:  publisher,
		logger:  logger,
	}
}

// SetCancelHook installs the coordinator's task-cancel callback. Must be set
// before the sweeper runs.
func (m *Manager) SetCancelHook(fn func(task tasks.Task)) {
	m.onCancel = fn
}

func (m *Manager) Start(ctx context.Context, userID, deviceID, warehouseID string) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		DeviceID:       deviceID,
		WarehouseID:    warehouseID,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := m.store.Put(ctx, session); err != nil {
		return nil, err
	}
	m.events.Emit(&events.SessionStartedEvent{
		SessionID:   session.ID,
		UserID:      userID,
		DeviceID:    deviceID,
		WarehouseID: warehouseID,
		StartedAt:   now,
	})
	return session, nil
}

// Get also expires lazily: a session read after its idle deadline is swept on
// the spot, so a device that outlived its timeout learns it expired instead of
// racing the background sweeper.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if time.Since(session.LastActivityAt) > m.timeout {
		m.expire(ctx, session, "idle_timeout")
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (m *Manager) ActiveTask(ctx context.Context, id string) (tasks.Task, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.ActiveTask == nil {
		return nil, ErrNoActiveTask
	}
	return session.ActiveTask, nil
}

// Attach binds a task to the session; a second task while one is active is a
// TaskConflict.
func (m *Manager) Attach(ctx context.Context, id string, task tasks.Task) error {
	m.attachMu.Lock()
	defer m.attachMu.Unlock()

	session, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if session.ActiveTask != nil {
		return ErrTaskConflict
	}
	session.ActiveTask = task
	session.LastActivityAt = time.Now()
	return m.store.Put(ctx, session)
}

// Update replaces the task state after a step and refreshes the activity
// clock.
func (m *Manager) Update(ctx context.Context, id string, task tasks.Task) error {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	session.ActiveTask = task
	session.LastActivityAt = time.Now()
	return m.store.Put(ctx, session)
}

// Detach removes the completed task from the session.
func (m *Manager) Detach(ctx context.Context, id string) error {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	session.ActiveTask = nil
	session.LastActivityAt = time.Now()
	return m.store.Put(ctx, session)
}

// End cancels any active task and removes the session.
func (m *Manager) End(ctx context.Context, id string) error {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	m.cancelTask(session)
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.events.Emit(&events.SessionEndedEvent{
		SessionID: session.ID,
		UserID:    session.UserID,
		Reason:    "ended",
		EndedAt:   time.Now(),
	})
	return nil
}

// Sweep removes idle sessions. Cancellation is a pure discard: staged task
// effects were never applied, only held reservations need releasing.
func (m *Manager) Sweep(ctx context.Context) int {
	expired, err := m.store.Expired(ctx, time.Now().Add(-m.timeout))
	if err != nil {
		m.logger.Error("session sweep failed", zap.Error(err))
		return 0
	}
	for _, session := range expired {
		m.expire(ctx, session, "idle_timeout")
		m.logger.Info("idle session swept", zap.String("session_id", session.ID))
	}
	return len(expired)
}

// expire cancels the session's task and removes it, emitting the ended event.
func (m *Manager) expire(ctx context.Context, session *Session, reason string) {
	m.cancelTask(session)
	if err := m.store.Delete(ctx, session.ID); err != nil {
		m.logger.Error("failed to delete expired session", zap.String("session_id", session.ID), zap.Error(err))
		return
	}
	m.events.Emit(&events.SessionEndedEvent{
		SessionID: session.ID,
		UserID:    session.UserID,
		Reason:    reason,
		EndedAt:   time.Now(),
	})
}

// Run sweeps on an interval until the context is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func (m *Manager) cancelTask(session *Session) {
	if session.ActiveTask == nil {
		return
	}
	if m.onCancel != nil {
		m.onCancel(session.ActiveTask)
	}
	m.logger.Info("task cancelled",
		zap.String("session_id", session.ID),
		zap.String("task_id", session.ActiveTask.ID()),
		zap.String("kind", string(session.ActiveTask.Kind())),
	)
}
