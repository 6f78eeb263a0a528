package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskCodecRestoresConcreteType(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	task := startPutaway(t, f)
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})

	data, err := MarshalTask(task)
	assert.NoError(t, err)

	restored, err := UnmarshalTask(data)
	assert.NoError(t, err)

	assert.IsType(t, PutawayTask{}, restored)
	assert.Equal(t, task.ID(), restored.ID())
	assert.Equal(t, KindPutaway, restored.Kind())
	assert.Equal(t, StepScanLocation, restored.Step())
	assert.Equal(t, "WH1", restored.WarehouseID())

	// the restored task keeps working mid-flight
	next, result := restored.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	assert.True(t, result.Success)
	assert.Equal(t, StepComplete, next.Step())
}

func TestTaskCodecPreservesProgress(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 20)
	ctx := context.Background()

	task := startCycleCount(t, f, "")
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(15)})

	data, err := MarshalTask(task)
	assert.NoError(t, err)
	restored, err := UnmarshalTask(data)
	assert.NoError(t, err)

	count := restored.(CycleCountTask)
	assert.Len(t, count.Counts, 1)
	assert.Equal(t, -5, count.Counts[0].Variance)
}

func TestUnmarshalUnknownKind(t *testing.T) {
	_, err := UnmarshalTask([]byte(`{"kind":"teleport","payload":{}}`))
	assert.Error(t, err)
}
