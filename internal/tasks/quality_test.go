package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"warehouse/pkg/models"
)

func startInspection(t *testing.T, f *fixture) Task {
	t.Helper()
	task, err := Build(context.Background(), f.env, "WH1", "user-1", Spec{
		Kind:        KindQualityInspection,
		ProductCode: "111",
		Location:    "A-01-01",
		LotNumber:   "LOT-7",
		Checklist:   []string{"Packaging intact?", "Labels readable?"},
	})
	assert.NoError(t, err)
	return task
}

func TestQualityInspectionPassReleases(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 12)
	ctx := context.Background()

	task := startInspection(t, f)
	task, result := task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	assert.True(t, result.Success)
	assert.Equal(t, "Packaging intact?", result.Data["question"])

	task, _ = task.HandleStep(ctx, f.env, StepInput{Answer: boolPtr(true)})
	task, result = task.HandleStep(ctx, f.env, StepInput{Answer: boolPtr(true)})
	assert.Equal(t, false, result.Data["failed"])

	_, result = task.HandleStep(ctx, f.env, StepInput{Confirm: true})
	assert.True(t, result.Completed)
	assert.Equal(t, "released", result.Data["disposition"])
	assert.Empty(t, result.Effects.Movements)
}

func TestQualityInspectionFailQuarantinesAvailableStock(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 12)
	ctx := context.Background()

	task := startInspection(t, f)
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Answer: boolPtr(true)})
	task, result := task.HandleStep(ctx, f.env, StepInput{Answer: boolPtr(false)})
	assert.Equal(t, true, result.Data["failed"])

	_, result = task.HandleStep(ctx, f.env, StepInput{Confirm: true})
	assert.True(t, result.Completed)
	assert.Equal(t, "quarantined", result.Data["disposition"])

	assert.Len(t, result.Effects.Movements, 1)
	m := result.Effects.Movements[0]
	assert.Equal(t, models.MovementHold, m.Type)
	assert.Equal(t, 12, m.Quantity)
	assert.Equal(t, "LOT-7", *m.LotNumber)
	assert.Equal(t, "A1", *m.FromLocationID)
}

func TestQualityInspectionAnswerRequired(t *testing.T) {
	f := newFixture()

	task := startInspection(t, f)
	task, _ = task.HandleStep(context.Background(), f.env, StepInput{Barcode: "111"})

	_, result := task.HandleStep(context.Background(), f.env, StepInput{})
	assert.False(t, result.Success)
	assert.Equal(t, "answer_required", result.Code)
}
