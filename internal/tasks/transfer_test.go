package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"warehouse/pkg/models"
)

func startTransfer(t *testing.T, f *fixture, toWarehouse string) Task {
	t.Helper()
	task, err := Build(context.Background(), f.env, "WH1", "user-1", Spec{
		Kind:          KindTransfer,
		ProductCode:   "111",
		FromLocation:  "A-01-01",
		ToWarehouseID: toWarehouse,
	})
	assert.NoError(t, err)
	return task
}

func TestTransferFullWalk(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 10)
	ctx := context.Background()

	task := startTransfer(t, f, "")
	assert.Equal(t, StepScanSource, task.Step())

	task, result := task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	assert.True(t, result.Success)

	task, result = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	assert.True(t, result.Success)

	task, result = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(6)})
	assert.True(t, result.Success)
	assert.Equal(t, StepScanDestination, task.Step())

	task, result = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-02"})
	assert.True(t, result.Success)
	assert.Equal(t, []string{"A2"}, task.Reservations())

	_, result = task.HandleStep(ctx, f.env, StepInput{Confirm: true})
	assert.True(t, result.Completed)

	m := result.Effects.Movements[0]
	assert.Equal(t, models.MovementTransfer, m.Type)
	assert.Equal(t, "A1", *m.FromLocationID)
	assert.Equal(t, "A2", *m.ToLocationID)
	assert.Equal(t, 6, m.Quantity)
	assert.Nil(t, m.ToWarehouseID)
}

func TestTransferQuantityAboveAvailableRetries(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 4)
	ctx := context.Background()

	task := startTransfer(t, f, "")
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})

	next, result := task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(5)})
	assert.False(t, result.Success)
	assert.Equal(t, "insufficient_quantity", result.Code)
	assert.Equal(t, StepEnterQuantity, next.Step())
}

func TestTransferDestinationMustDiffer(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 4)
	ctx := context.Background()

	task := startTransfer(t, f, "")
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(2)})

	_, result := task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	assert.False(t, result.Success)
	assert.Equal(t, "same_location", result.Code)
}

func TestTransferCrossWarehouseCarriesDestination(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 10)
	f.registry.Seed(models.Location{ID: "W2-R1", Code: "R-01-01", WarehouseID: "WH2", Zone: "R"})
	ctx := context.Background()

	task := startTransfer(t, f, "WH2")
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(3)})

	// destination codes resolve against the target warehouse
	task, result := task.HandleStep(ctx, f.env, StepInput{LocationCode: "R-01-01"})
	assert.True(t, result.Success)

	_, result = task.HandleStep(ctx, f.env, StepInput{Confirm: true})
	assert.True(t, result.Completed)

	m := result.Effects.Movements[0]
	assert.Equal(t, "WH2", *m.ToWarehouseID)
	assert.Equal(t, "W2-R1", *m.ToLocationID)
}

func TestTransferOccupiedDestinationRetries(t *testing.T) {
	f := newFixture()
	f.stock("P1", "A1", 10)
	ctx := context.Background()

	assert.NoError(t, f.registry.Reserve(ctx, "A2"))

	task := startTransfer(t, f, "")
	task, _ = task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-01"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(2)})

	next, result := task.HandleStep(ctx, f.env, StepInput{LocationCode: "A-01-02"})
	assert.False(t, result.Success)
	assert.Equal(t, "location_occupied", result.Code)
	assert.Empty(t, next.Reservations())
}
