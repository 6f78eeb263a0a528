package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"warehouse/pkg/models"
)

// AdjustmentTask sets an absolute on-hand quantity for one (product,
// location) pair. The ledger entry carries the derived delta, which may be
// negative.
type AdjustmentTask struct {
	meta
	ProductID      string `json:"product_id"`
	ProductSKU     string `json:"product_sku"`
	LocationID     string `json:"location_id"`
	LocationCode   string `json:"location_code"`
	TargetQuantity *int   `json:"target_quantity,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func (t AdjustmentTask) Reservations() []string { return nil }

func (t AdjustmentTask) HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult) {
	switch t.CurrentStep {
	case StepScanLocation:
		if in.LocationCode != t.LocationCode {
			return t, retry(StepScanLocation, "wrong_location",
				fmt.Sprintf("Wrong location, go to %s", t.LocationCode),
				fmt.Sprintf("Zła lokalizacja, idź do %s", t.LocationCode))
		}
		t.CurrentStep = StepScanProduct
		return t, proceed(StepScanProduct, fmt.Sprintf("Scan %s", t.ProductSKU), fmt.Sprintf("Zeskanuj %s", t.ProductSKU))

	case StepScanProduct:
		product, mismatch := resolveProduct(ctx, env, StepScanProduct, in.Barcode)
		if mismatch != nil {
			return t, *mismatch
		}
		if product.ID != t.ProductID {
			return t, retry(StepScanProduct, "wrong_product",
				fmt.Sprintf("Expected %s, scanned %s", t.ProductSKU, product.SKU),
				fmt.Sprintf("Oczekiwano %s, zeskanowano %s", t.ProductSKU, product.SKU))
		}
		t.CurrentStep = StepEnterQuantity
		return t, proceed(StepEnterQuantity, "Enter the new absolute quantity with a reason",
			"Podaj nową bezwzględną ilość wraz z powodem")

	case StepEnterQuantity:
		if in.Quantity == nil || *in.Quantity < 0 {
			return t, retry(StepEnterQuantity, "invalid_quantity",
				"Target quantity must be zero or more",
				"Ilość docelowa musi wynosić zero lub więcej")
		}
		if in.Reason == "" {
			return t, retry(StepEnterQuantity, "reason_required",
				"An adjustment requires a reason code",
				"Korekta wymaga podania powodu")
		}
		target := *in.Quantity
		t.TargetQuantity = &target
		t.Reason = in.Reason
		t.CurrentStep = StepComplete
		return t, proceed(StepComplete, "Confirm the adjustment to finish", "Potwierdź korektę, aby zakończyć")

	case StepComplete:
		if !in.Confirm {
			return t, retry(StepComplete, "confirm_required",
				"Confirm the adjustment to finish the task",
				"Potwierdź korektę, aby zakończyć zadanie")
		}
		return t, t.complete(ctx, env)
	}
	return t, wrongStepInput(t.CurrentStep)
}

func (t AdjustmentTask) complete(ctx context.Context, env Env) StepResult {
	snapshot, err := env.Ledger.Snapshot(ctx, t.Warehouse, t.ProductID, t.LocationID)
	if err != nil {
		return retry(StepComplete, "snapshot_failed",
			"Could not read current stock, try again",
			"Nie udało się odczytać stanu, spróbuj ponownie")
	}
	delta := *t.TargetQuantity - snapshot.QuantityOnHand

	var movements []models.StockMovement
	if delta != 0 {
		loc := t.LocationID
		movements = append(movements, models.StockMovement{
			ID:           uuid.NewString(),
			Type:         models.MovementAdjustment,
			ProductID:    t.ProductID,
			WarehouseID:  t.Warehouse,
			ToLocationID: &loc,
			Quantity:     delta,
			Reference:    t.TaskID,
			PerformedBy:  t.UserID,
			OccurredAt:   env.now(),
		})
	}
	return StepResult{
		Success:      true,
		Message:      fmt.Sprintf("Adjusted %s to %d (%s)", t.ProductSKU, *t.TargetQuantity, t.Reason),
		MessageLocal: fmt.Sprintf("Skorygowano %s do %d (%s)", t.ProductSKU, *t.TargetQuantity, t.Reason),
		NextStep:     StepComplete,
		Data:         map[string]interface{}{"delta": delta, "reason": t.Reason},
		Completed:    true,
		Effects: &StagedEffects{
			Movements:     movements,
			SyncOccupancy: []string{t.LocationID},
		},
	}
}

func newAdjustmentTask(warehouseID, userID string, product models.Product, location models.Location, now time.Time) AdjustmentTask {
	return AdjustmentTask{
		meta: meta{
			TaskID:      uuid.NewString(),
			TaskKind:    KindAdjustment,
			Warehouse:   warehouseID,
			UserID:      userID,
			Started:     now,
			CurrentStep: StepScanLocation,
		},
		ProductID:    product.ID,
		ProductSKU:   product.SKU,
		LocationID:   location.ID,
		LocationCode: location.Code,
	}
}
