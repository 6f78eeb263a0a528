package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"warehouse/pkg/models"
)

func startCycleCount(t *testing.T, f *fixture, visibility VarianceVisibility) Task {
	t.Helper()
	task, err := Build(context.Background(), f.env, "WH1", "user-1", Spec{
		Kind:               KindCycleCount,
		Location:           "A-01-01",
		VarianceVisibility: visibility,
	})
	assert.NoError(t, err)
	return task
}

func TestCycleCountBlindHidesVarianceUntilCompletion(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 20)
	ctx := context.Background()

	task := startCycleCount(t, f, "")
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})

	// counted 15 against a system quantity of 20; blind mode says nothing
	task, result := task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(15)})
	assert.True(t, result.Success)
	assert.NotContains(t, result.Data, "variance")

	task, result = task.HandleStep(ctx, f.env, StepInput{Done: true})
	assert.NotContains(t, result.Data, "variances")

	_, result = task.HandleStep(ctx, f.env, StepInput{Confirm: true})
	assert.True(t, result.Completed)

	variances := result.Data["variances"].([]map[string]interface{})
	assert.Len(t, variances, 1)
	assert.Equal(t, -5, variances[0]["variance"])

	assert.Len(t, result.Effects.Movements, 1)
	m := result.Effects.Movements[0]
	assert.Equal(t, models.MovementAdjustment, m.Type)
	assert.Equal(t, -5, m.Quantity)
	assert.Equal(t, "A1", *m.ToLocationID)
}

func TestCycleCountImmediateVisibilityShowsVariance(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 20)
	ctx := context.Background()

	task := startCycleCount(t, f, VarianceImmediate)
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})

	_, result := task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(18)})
	assert.True(t, result.Success)
	assert.Equal(t, -2, result.Data["variance"])
}

func TestCycleCountMatchingCountProducesNoMovement(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 20)
	ctx := context.Background()

	task := startCycleCount(t, f, "")
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(20)})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Done: true})
	_, result := task.HandleStep(ctx, f.env, StepInput{Confirm: true})

	assert.True(t, result.Completed)
	assert.Empty(t, result.Effects.Movements)
}

func TestCycleCountRejectsDoubleCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	task := startCycleCount(t, f, "")
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(4)})

	_, result := task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	assert.False(t, result.Success)
	assert.Equal(t, "already_counted", result.Code)
}

func TestCycleCountWrongLocation(t *testing.T) {
	f := newFixture()

	task := startCycleCount(t, f, "")
	_, result := task.HandleStep(context.Background(), f.env, StepInput{LocationCode: "B-02-01"})
	assert.False(t, result.Success)
	assert.Equal(t, "wrong_location", result.Code)
}
