package sessions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"warehouse/internal/events"
	"warehouse/internal/tasks"
)

type recordingSink struct {
	types chan string
}

func (s *recordingSink) Deliver(event events.DomainEvent) {
	s.types <- event.EventType()
}

func newTestManager(timeout time.Duration) (*Manager, *recordingSink) {
	sink := &recordingSink{types: make(chan string, 32)}
	publisher := events.NewPublisher(sink, 32, zap.NewNop())
	return NewManager(NewMemoryStore(), timeout, publisher, zap.NewNop()), sink
}

type stubTask struct {
	TaskID string `json:"task_id"`
	Slots  []string
}

func (t stubTask) ID() string              { return t.TaskID }
func (t stubTask) Kind() tasks.Kind        { return tasks.KindPutaway }
func (t stubTask) Step() string            { return tasks.StepScanProduct }
func (t stubTask) StartedAt() time.Time    { return time.Time{} }
func (t stubTask) WarehouseID() string     { return "WH1" }
func (t stubTask) Reservations() []string  { return t.Slots }
func (t stubTask) HandleStep(ctx context.Context, env tasks.Env, in tasks.StepInput) (tasks.Task, tasks.StepResult) {
	return t, tasks.StepResult{}
}

func TestAttachSecondTaskConflicts(t *testing.T) {
	m, _ := newTestManager(time.Minute)
	ctx := context.Background()

	session, err := m.Start(ctx, "user-1", "device-1", "WH1")
	assert.NoError(t, err)

	assert.NoError(t, m.Attach(ctx, session.ID, stubTask{TaskID: "t1"}))
	assert.ErrorIs(t, m.Attach(ctx, session.ID, stubTask{TaskID: "t2"}), ErrTaskConflict)

	active, err := m.ActiveTask(ctx, session.ID)
	assert.NoError(t, err)
	assert.Equal(t, "t1", active.ID())
}

func TestDetachClearsActiveTask(t *testing.T) {
	m, _ := newTestManager(time.Minute)
	ctx := context.Background()

	session, _ := m.Start(ctx, "user-1", "device-1", "WH1")
	assert.NoError(t, m.Attach(ctx, session.ID, stubTask{TaskID: "t1"}))
	assert.NoError(t, m.Detach(ctx, session.ID))

	_, err := m.ActiveTask(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNoActiveTask)
}

func TestSweepCancelsIdleSessionTask(t *testing.T) {
	m, sink := newTestManager(10 * time.Millisecond)
	ctx := context.Background()

	var cancelled []string
	m.SetCancelHook(func(task tasks.Task) {
		cancelled = append(cancelled, task.ID())
	})

	session, _ := m.Start(ctx, "user-1", "device-1", "WH1")
	assert.NoError(t, m.Attach(ctx, session.ID, stubTask{TaskID: "t1", Slots: []string{"L1"}}))

	time.Sleep(30 * time.Millisecond)
	swept := m.Sweep(ctx)
	assert.Equal(t, 1, swept)
	assert.Equal(t, []string{"t1"}, cancelled)

	_, err := m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// session.started then session.ended with the idle reason
	assert.Equal(t, "session.started", <-sink.types)
	assert.Equal(t, "session.ended", <-sink.types)
}

func TestSweepLeavesActiveSessionsAlone(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	ctx := context.Background()

	session, _ := m.Start(ctx, "user-1", "device-1", "WH1")
	assert.Zero(t, m.Sweep(ctx))

	got, err := m.Get(ctx, session.ID)
	assert.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestEndCancelsTaskAndRemovesSession(t *testing.T) {
	m, _ := newTestManager(time.Minute)
	ctx := context.Background()

	var cancelled int
	m.SetCancelHook(func(tasks.Task) { cancelled++ })

	session, _ := m.Start(ctx, "user-1", "device-1", "WH1")
	assert.NoError(t, m.Attach(ctx, session.ID, stubTask{TaskID: "t1"}))
	assert.NoError(t, m.End(ctx, session.ID))
	assert.Equal(t, 1, cancelled)

	_, err := m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetExpiresIdleSessionLazily(t *testing.T) {
	m, sink := newTestManager(10 * time.Millisecond)
	ctx := context.Background()

	var released []string
	m.SetCancelHook(func(task tasks.Task) {
		released = append(released, task.Reservations()...)
	})

	session, _ := m.Start(ctx, "user-1", "device-1", "WH1")
	assert.NoError(t, m.Attach(ctx, session.ID, stubTask{TaskID: "t1", Slots: []string{"L1"}}))

	time.Sleep(30 * time.Millisecond)

	_, err := m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, []string{"L1"}, released)

	// the lazy sweep already removed it; a second read is a plain miss
	_, err = m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, "session.started", <-sink.types)
	assert.Equal(t, "session.ended", <-sink.types)
}

func TestAttachConcurrentExactlyOneWins(t *testing.T) {
	m, _ := newTestManager(time.Minute)
	ctx := context.Background()

	session, err := m.Start(ctx, "user-1", "device-1", "WH1")
	assert.NoError(t, err)

	const workers = 16
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			errs <- m.Attach(ctx, session.ID, stubTask{TaskID: fmt.Sprintf("t%d", n)})
		}(i)
	}

	var wins, conflicts int
	for i := 0; i < workers; i++ {
		if err := <-errs; err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrTaskConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)
}
