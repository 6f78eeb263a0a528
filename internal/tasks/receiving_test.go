package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"warehouse/pkg/models"
)

func startReceiving(t *testing.T, f *fixture) Task {
	t.Helper()
	task, err := Build(context.Background(), f.env, "WH1", "user-1", Spec{
		Kind:          KindReceiving,
		SourceOrderID: "PO-100",
		DockLocation:  "DOCK-01",
		Expected: []ExpectedLine{
			{ProductCode: "111", Quantity: 10},
		},
	})
	assert.NoError(t, err)
	return task
}

func TestReceivingWrongOrderRetriesSameStep(t *testing.T) {
	f := newFixture()
	task := startReceiving(t, f)
	ctx := context.Background()

	next, result := task.HandleStep(ctx, f.env, StepInput{Barcode: "PO-999"})
	assert.False(t, result.Success)
	assert.Equal(t, "wrong_order", result.Code)
	assert.Equal(t, StepAwaitingPO, result.NextStep)
	assert.Equal(t, StepAwaitingPO, next.Step())
	assert.NotEmpty(t, result.MessageLocal)
}

func TestReceivingHappyPathWithVariance(t *testing.T) {
	f := newFixture()
	task := startReceiving(t, f)
	ctx := context.Background()

	task, result := task.HandleStep(ctx, f.env, StepInput{Barcode: "PO-100"})
	assert.True(t, result.Success)
	assert.Equal(t, StepScanProduct, task.Step())

	task, result = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	assert.True(t, result.Success)
	assert.Equal(t, StepEnterQuantity, task.Step())

	// received 12 against 10 expected; over-receipt is variance, not an error
	task, result = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(12)})
	assert.True(t, result.Success)
	assert.Equal(t, StepScanProduct, task.Step())

	task, result = task.HandleStep(ctx, f.env, StepInput{Done: true})
	assert.True(t, result.Success)
	assert.Equal(t, StepComplete, task.Step())

	_, result = task.HandleStep(ctx, f.env, StepInput{Confirm: true})
	assert.True(t, result.Success)
	assert.True(t, result.Completed)

	assert.Len(t, result.Effects.Movements, 1)
	m := result.Effects.Movements[0]
	assert.Equal(t, models.MovementIn, m.Type)
	assert.Equal(t, "P1", m.ProductID)
	assert.Equal(t, 12, m.Quantity)
	assert.Equal(t, "DOCK", *m.ToLocationID)
	assert.Equal(t, task.ID(), m.Reference)

	variances := result.Data["variances"].([]map[string]interface{})
	assert.Len(t, variances, 1)
	assert.Equal(t, 2, variances[0]["variance"])
}

func TestReceivingUnexpectedItemNeedsConfirm(t *testing.T) {
	f := newFixture()
	task := startReceiving(t, f)
	ctx := context.Background()

	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "PO-100"})

	// P2 is not on the order
	next, result := task.HandleStep(ctx, f.env, StepInput{Barcode: "222"})
	assert.False(t, result.Success)
	assert.Equal(t, "unexpected_item", result.Code)
	assert.Equal(t, StepScanProduct, next.Step())

	task, result = task.HandleStep(ctx, f.env, StepInput{Barcode: "222", Confirm: true})
	assert.True(t, result.Success)
	assert.Equal(t, StepEnterQuantity, task.Step())

	task, _ = task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(3)})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Done: true})
	_, result = task.HandleStep(ctx, f.env, StepInput{Confirm: true})
	assert.True(t, result.Completed)

	variances := result.Data["variances"].([]map[string]interface{})
	found := false
	for _, v := range variances {
		if v["sku"] == "SKU-2" {
			found = true
			assert.Equal(t, true, v["unexpected"])
		}
	}
	assert.True(t, found)
}

func TestReceivingUnknownBarcode(t *testing.T) {
	f := newFixture()
	task := startReceiving(t, f)
	ctx := context.Background()

	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "PO-100"})
	_, result := task.HandleStep(ctx, f.env, StepInput{Barcode: "does-not-exist"})
	assert.False(t, result.Success)
	assert.Equal(t, "unknown_barcode", result.Code)
}

func TestReceivingInvalidQuantity(t *testing.T) {
	f := newFixture()
	task := startReceiving(t, f)
	ctx := context.Background()

	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "PO-100"})
	task, _ = task.HandleStep(ctx, f.env, StepInput{Barcode: "111"})
	_, result := task.HandleStep(ctx, f.env, StepInput{Quantity: intPtr(0)})
	assert.False(t, result.Success)
	assert.Equal(t, "invalid_quantity", result.Code)
}
