package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"warehouse/pkg/models"
)

// VarianceVisibility controls when count variance is surfaced to the
// operator. Blind counting hides it until the task completes so earlier
// results cannot bias later counts in the same pass.
type VarianceVisibility string

const (
	VarianceImmediate    VarianceVisibility = "immediate"
	VarianceOnCompletion VarianceVisibility = "on_completion"
)

// CountLine records one counted product. System quantity is captured at
// recording time, not at task start, so a count reflects the ledger the
// moment the operator entered it.
type CountLine struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Counted   int    `json:"counted"`
	System    int    `json:"system"`
	Variance  int    `json:"variance"`
}

// CycleCountTask counts one location blind: the operator never sees the
// system quantity before entering a count.
type CycleCountTask struct {
	meta
	LocationID     string             `json:"location_id"`
	LocationCode   string             `json:"location_code"`
	Visibility     VarianceVisibility `json:"variance_visibility"`
	Counts         []CountLine        `json:"counts"`
	PendingProduct string             `json:"pending_product,omitempty"`
	PendingSKU     string             `json:"pending_sku,omitempty"`
}

func (t CycleCountTask) Reservations() []string { return nil }

func (t CycleCountTask) HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult) {
	switch t.CurrentStep {
	case StepScanLocation:
		if in.LocationCode != t.LocationCode {
			return t, retry(StepScanLocation, "wrong_location",
				fmt.Sprintf("Wrong location, count %s", t.LocationCode),
				fmt.Sprintf("Zła lokalizacja, policz %s", t.LocationCode))
		}
		t.CurrentStep = StepScanProduct
		return t, proceed(StepScanProduct, "Scan a product to count", "Zeskanuj produkt do policzenia")

	case StepScanProduct:
		if in.Done {
			t.CurrentStep = StepComplete
			result := proceed(StepComplete, "Confirm the count to finish", "Potwierdź liczenie, aby zakończyć")
			if t.Visibility == VarianceImmediate {
				result.Data = map[string]interface{}{"variances": t.varianceSummary()}
			}
			return t, result
		}
		product, mismatch := resolveProduct(ctx, env, StepScanProduct, in.Barcode)
		if mismatch != nil {
			return t, *mismatch
		}
		if t.counted(product.ID) {
			return t, retry(StepScanProduct, "already_counted",
				fmt.Sprintf("%s was already counted in this pass", product.SKU),
				fmt.Sprintf("%s został już policzony w tym przebiegu", product.SKU))
		}
		t.PendingProduct = product.ID
		t.PendingSKU = product.SKU
		t.CurrentStep = StepEnterCount
		return t, proceed(StepEnterCount, fmt.Sprintf("Enter counted quantity for %s", product.SKU),
			fmt.Sprintf("Podaj policzoną ilość dla %s", product.SKU))

	case StepEnterCount:
		if in.Quantity == nil || *in.Quantity < 0 {
			return t, retry(StepEnterCount, "invalid_quantity",
				"Count must be zero or more",
				"Liczba musi wynosić zero lub więcej")
		}
		snapshot, err := env.Ledger.Snapshot(ctx, t.Warehouse, t.PendingProduct, t.LocationID)
		if err != nil {
			return t, retry(StepEnterCount, "snapshot_failed",
				"Could not read current stock, try again",
				"Nie udało się odczytać stanu, spróbuj ponownie")
		}
		line := CountLine{
			ProductID: t.PendingProduct,
			SKU:       t.PendingSKU,
			Counted:   *in.Quantity,
			System:    snapshot.QuantityOnHand,
			Variance:  *in.Quantity - snapshot.QuantityOnHand,
		}
		t.Counts = append(append([]CountLine(nil), t.Counts...), line)
		t.PendingProduct = ""
		t.PendingSKU = ""
		t.CurrentStep = StepScanProduct

		result := proceed(StepScanProduct, "Count recorded, scan next product or finish",
			"Liczenie zarejestrowane, zeskanuj kolejny produkt lub zakończ")
		if t.Visibility == VarianceImmediate {
			result.Data = map[string]interface{}{"variance": line.Variance}
		}
		return t, result

	case StepComplete:
		if !in.Confirm {
			return t, retry(StepComplete, "confirm_required",
				"Confirm the count to finish the task",
				"Potwierdź liczenie, aby zakończyć zadanie")
		}
		return t, t.complete(env)
	}
	return t, wrongStepInput(t.CurrentStep)
}

func (t CycleCountTask) complete(env Env) StepResult {
	var movements []models.StockMovement
	loc := t.LocationID
	for _, line := range t.Counts {
		if line.Variance == 0 {
			continue
		}
		movements = append(movements, models.StockMovement{
			ID:           uuid.NewString(),
			Type:         models.MovementAdjustment,
			ProductID:    line.ProductID,
			WarehouseID:  t.Warehouse,
			ToLocationID: &loc,
			Quantity:     line.Variance,
			Reference:    t.TaskID,
			PerformedBy:  t.UserID,
			OccurredAt:   env.now(),
		})
	}
	return StepResult{
		Success:      true,
		Message:      fmt.Sprintf("Cycle count at %s recorded", t.LocationCode),
		MessageLocal: fmt.Sprintf("Inwentaryzacja w %s zarejestrowana", t.LocationCode),
		NextStep:     StepComplete,
		Data:         map[string]interface{}{"variances": t.varianceSummary()},
		Completed:    true,
		Effects: &StagedEffects{
			Movements:     movements,
			SyncOccupancy: []string{t.LocationID},
		},
	}
}

func (t CycleCountTask) counted(productID string) bool {
	for _, line := range t.Counts {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

func (t CycleCountTask) varianceSummary() []map[string]interface{} {
	var out []map[string]interface{}
	for _, line := range t.Counts {
		if line.Variance == 0 {
			continue
		}
		out = append(out, map[string]interface{}{
			"sku":      line.SKU,
			"counted":  line.Counted,
			"system":   line.System,
			"variance": line.Variance,
		})
	}
	return out
}

func newCycleCountTask(warehouseID, userID string, location models.Location, visibility VarianceVisibility, now time.Time) CycleCountTask {
	if visibility == "" {
		visibility = VarianceOnCompletion
	}
	return CycleCountTask{
		meta: meta{
			TaskID:      uuid.NewString(),
			TaskKind:    KindCycleCount,
			Warehouse:   warehouseID,
			UserID:      userID,
			Started:     now,
			CurrentStep: StepScanLocation,
		},
		LocationID:   location.ID,
		LocationCode: location.Code,
		Visibility:   visibility,
	}
}
