package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"warehouse/pkg/models"
)

func startAdjustment(t *testing.T, f *fixture) Task {
	t.Helper()
	task, err := Build(context.Background(), f.env, "WH1", "user-1", Spec{
		Kind:        KindAdjustment,
		ProductCode: "111",
		Location:    "A-01-01",
	})
	assert.NoError(t, err)
	return task
}

func TestAdjustmentRequiresReason(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	task := startAdjustment(t, f)
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})

	_, result := task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(7)})
	assert.False(t, result.Success)
	assert.Equal(t, "reason_required", result.Code)
}

func TestAdjustmentDeltaDerivedAtCompletion(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 10)
	ctx := context.Background()

	task := startAdjustment(t, f)
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, result := task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(7), Reason: "damaged"})
	assert.True(t, result.Success)

	// stock moves between entry and confirm; the delta follows the snapshot
	// taken at completion time
	f.stock("P1", "A1", 5)

	_, result = task.HandleStep(ctx, f.env, StepInput{Confirm: true})
	assert.True(t, result.Completed)
	assert.Equal(t, -8, result.Data["delta"])

	m := result.Effects.Movements[0]
	assert.Equal(t, models.MovementAdjustment, m.Type)
	assert.Equal(t, -8, m.Quantity)
}

func TestAdjustmentNoDeltaNoMovement(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 7)
	ctx := context.Background()

	task := startAdjustment(t, f)
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(7), Reason: "recount"})
	_, result := task.HandleStep(ctx, f.env, StepInput{Confirm: true})

	assert.True(t, result.Completed)
	assert.Empty(t, result.Effects.Movements)
	assert.Equal(t, 0, result.Data["delta"])
}
