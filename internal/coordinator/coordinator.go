package coordinator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"warehouse/internal/catalog"
	"warehouse/internal/events"
	"warehouse/internal/ledger"
	"warehouse/internal/locations"
	"warehouse/internal/sessions"
	"warehouse/internal/tasks"
	"warehouse/pkg/models"
)

// Coordinator is the single entry point for step traffic. It resolves the
// session, lets the task state machine validate the step, and on completion
// commits the staged batch: one ledger apply plus the occupancy updates. Only
// a successful commit detaches the task; a rejected apply leaves the task at
// its last valid step for an operator-initiated retry.
type Coordinator struct {
	sessions *sessions.Manager
	ledger   ledger.Ledger
	registry locations.Registry
	catalog  catalog.Catalog
	events   *events.Publisher
	logger   *zap.Logger

	// commitMu serializes completion commits so the apply and its occupancy
	// sync form one unit. Lock hold time is one commit, never an operator
	// think-pause.
	commitMu sync.Mutex
}

func New(manager *sessions.Manager, l ledger.Ledger, registry locations.Registry, cat catalog.Catalog, publisher *events.Publisher, logger *zap.Logger) *Coordinator {
	c := &Coordinator{
		sessions: manager,
		ledger:   l,
		registry: registry,
		catalog:  cat,
		events:   publisher,
		logger:   logger,
	}
	manager.SetCancelHook(c.releaseReservations)
	return c
}

func (c *Coordinator) env() tasks.Env {
	return tasks.Env{
		Ledger:   c.ledger,
		Registry: c.registry,
		Catalog:  c.catalog,
	}
}

// StartTask builds a task from the request and attaches it to the session.
func (c *Coordinator) StartTask(ctx context.Context, sessionID string, spec tasks.Spec) (tasks.Task, error) {
	session, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.ActiveTask != nil {
		return nil, sessions.ErrTaskConflict
	}

	task, err := tasks.Build(ctx, c.env(), session.WarehouseID, session.UserID, spec)
	if err != nil {
		return nil, err
	}
	if err := c.sessions.Attach(ctx, sessionID, task); err != nil {
		// attach lost a race with another device call; discard the fresh task
		c.releaseReservations(task)
		return nil, err
	}
	return task, nil
}

// Advance routes one step input to the session's active task.
func (c *Coordinator) Advance(ctx context.Context, sessionID string, in tasks.StepInput) (tasks.StepResult, error) {
	session, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return tasks.StepResult{}, err
	}
	if session.ActiveTask == nil {
		return tasks.StepResult{}, sessions.ErrNoActiveTask
	}

	next, result := session.ActiveTask.HandleStep(ctx, c.env(), in)

	if !result.Completed {
		// store the successor state even on a mismatch so the activity clock
		// moves; a failed step returns the same state it was given
		if err := c.sessions.Update(ctx, sessionID, next); err != nil {
			return tasks.StepResult{}, err
		}
		return result, nil
	}

	if err := c.commit(ctx, result.Effects); err != nil {
		// task stays attached at its complete step; nothing was applied
		c.logger.Warn("task completion rejected",
			zap.String("task_id", next.ID()),
			zap.String("kind", string(next.Kind())),
			zap.Error(err),
		)
		if updateErr := c.sessions.Update(ctx, sessionID, next); updateErr != nil {
			return tasks.StepResult{}, updateErr
		}
		return tasks.StepResult{}, err
	}

	if err := c.sessions.Detach(ctx, sessionID); err != nil {
		return tasks.StepResult{}, err
	}
	c.emitCompletion(session, next, result)
	return result, nil
}

// Cancel discards the session's active task without applying anything.
func (c *Coordinator) Cancel(ctx context.Context, sessionID string) error {
	task, err := c.sessions.ActiveTask(ctx, sessionID)
	if err != nil {
		return err
	}
	c.releaseReservations(task)
	return c.sessions.Detach(ctx, sessionID)
}

// commit applies the staged batch. The ledger apply is atomic on its own;
// occupancy updates follow it under the same commit lock and are derived
// state, re-synced from ledger reality.
func (c *Coordinator) commit(ctx context.Context, effects *tasks.StagedEffects) error {
	if effects == nil {
		return nil
	}
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	if len(effects.Movements) > 0 {
		if err := c.ledger.Apply(ctx, effects.Movements); err != nil {
			return err
		}
	}
	for _, locationID := range effects.MarkOccupied {
		if err := c.registry.MarkOccupied(ctx, locationID); err != nil {
			c.logger.Error("failed to mark location occupied", zap.String("location_id", locationID), zap.Error(err))
		}
	}
	for _, locationID := range effects.SyncOccupancy {
		c.syncOccupancy(ctx, locationID)
	}
	return nil
}

// syncOccupancy re-derives is_occupied from whether the location still holds
// stock. Mixed-allowed locations are exempt from the invariant.
func (c *Coordinator) syncOccupancy(ctx context.Context, locationID string) {
	loc, err := c.registry.Get(ctx, locationID)
	if err != nil {
		c.logger.Error("failed to load location for occupancy sync", zap.String("location_id", locationID), zap.Error(err))
		return
	}
	if loc.MixedAllowed {
		return
	}
	warehouseID := loc.WarehouseID
	occupied, err := c.ledger.HasStock(ctx, warehouseID, locationID)
	if err != nil {
		c.logger.Error("failed to check stock for occupancy sync", zap.String("location_id", locationID), zap.Error(err))
		return
	}
	if occupied == loc.IsOccupied {
		return
	}
	if err := c.registry.SetOccupied(ctx, locationID, occupied); err != nil {
		c.logger.Error("failed to sync location occupancy", zap.String("location_id", locationID), zap.Error(err))
	}
}

func (c *Coordinator) emitCompletion(session *sessions.Session, task tasks.Task, result tasks.StepResult) {
	now := time.Now()
	summary := map[string]interface{}{}
	for key, value := range result.Data {
		summary[key] = value
	}
	c.events.Emit(&events.TaskCompletedEvent{
		TaskID:      task.ID(),
		Kind:        string(task.Kind()),
		SessionID:   session.ID,
		UserID:      session.UserID,
		WarehouseID: session.WarehouseID,
		Movements:   len(result.Effects.Movements),
		Summary:     summary,
		CompletedAt: now,
	})
	for _, movement := range result.Effects.Movements {
		if movement.Type != models.MovementAdjustment {
			continue
		}
		locationID := ""
		if movement.ToLocationID != nil {
			locationID = *movement.ToLocationID
		}
		c.events.Emit(&events.InventoryAdjustedEvent{
			ProductID:   movement.ProductID,
			WarehouseID: movement.WarehouseID,
			LocationID:  locationID,
			Delta:       movement.Quantity,
			Reference:   movement.Reference,
			AdjustedAt:  now,
		})
	}
}

// releaseReservations frees destination slots a cancelled task reserved but
// never filled.
func (c *Coordinator) releaseReservations(task tasks.Task) {
	for _, locationID := range task.Reservations() {
		if err := c.registry.Release(context.Background(), locationID); err != nil {
			c.logger.Error("failed to release reservation",
				zap.String("task_id", task.ID()),
				zap.String("location_id", locationID),
				zap.Error(err),
			)
		}
	}
}
