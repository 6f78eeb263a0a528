package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"warehouse/internal/locations"
	"warehouse/pkg/models"
)

// PutawayTask moves a received pallet from staging into storage. The
// suggested slot comes from the product's zone affinity; scanning a different
// empty slot is accepted with a warning — the suggestion is guidance, not
// enforcement.
type PutawayTask struct {
	meta
	ProductID         string `json:"product_id"`
	ProductSKU        string `json:"product_sku"`
	Quantity          int    `json:"quantity"`
	FromLocationID    string `json:"from_location_id"`
	SuggestedLocation string `json:"suggested_location_id"`
	SuggestedCode     string `json:"suggested_code"`
	TargetLocationID  string `json:"target_location_id,omitempty"`
	TargetCode        string `json:"target_code,omitempty"`
	AltAccepted       bool   `json:"alt_accepted,omitempty"`
}

func (t PutawayTask) Reservations() []string {
	if t.TargetLocationID == "" {
		return nil
	}
	return []string{t.TargetLocationID}
}

func (t PutawayTask) HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult) {
	switch t.CurrentStep {
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
		t.CurrentStep = StepScanLocation
		result := proceed(StepScanLocation, fmt.Sprintf("Put away to %s", t.SuggestedCode),
			fmt.Sprintf("Odłóż do %s", t.SuggestedCode))
		result.Data = map[string]interface{}{"suggested_location": t.SuggestedCode}
		return t, result

	case StepScanLocation:
		if in.LocationCode == "" {
			return t, wrongStepInput(StepScanLocation)
		}
		loc, err := env.Registry.Lookup(ctx, t.Warehouse, in.LocationCode)
		if err != nil {
			return t, retry(StepScanLocation, "unknown_location",
				"Scanned location does not exist",
				"Zeskanowana lokalizacja nie istnieje")
		}
		if err := env.Registry.Reserve(ctx, loc.ID); err != nil {
			if errors.Is(err, locations.ErrLocationOccupied) {
				return t, retry(StepScanLocation, "location_occupied",
					fmt.Sprintf("%s is occupied, scan an alternate location", loc.Code),
					fmt.Sprintf("%s jest zajęta, zeskanuj inną lokalizację", loc.Code))
			}
			return t, retry(StepScanLocation, "reserve_failed",
				"Could not reserve the location, try again",
				"Nie udało się zarezerwować lokalizacji, spróbuj ponownie")
		}
		t.TargetLocationID = loc.ID
		t.TargetCode = loc.Code
		t.AltAccepted = loc.ID != t.SuggestedLocation
		t.CurrentStep = StepComplete

		result := proceed(StepComplete, "Confirm putaway to finish", "Potwierdź odłożenie, aby zakończyć")
		if t.AltAccepted {
			result.Data = map[string]interface{}{
				"warning": fmt.Sprintf("Alternate location accepted, suggestion was %s", t.SuggestedCode),
			}
		}
		return t, result

	case StepComplete:
		if !in.Confirm {
			return t, retry(StepComplete, "confirm_required",
				"Confirm putaway to finish the task",
				"Potwierdź odłożenie, aby zakończyć zadanie")
		}
		from := t.FromLocationID
		to := t.TargetLocationID
		return t, StepResult{
			Success:      true,
			Message:      fmt.Sprintf("Putaway to %s recorded", t.TargetCode),
			MessageLocal: fmt.Sprintf("Odłożenie do %s zarejestrowane", t.TargetCode),
			NextStep:     StepComplete,
			Completed:    true,
			Effects: &StagedEffects{
				Movements: []models.StockMovement{{
					ID:             uuid.NewString(),
					Type:           models.MovementTransfer,
					ProductID:      t.ProductID,
					WarehouseID:    t.Warehouse,
					FromLocationID: &from,
					ToLocationID:   &to,
					Quantity:       t.Quantity,
					Reference:      t.TaskID,
					PerformedBy:    t.UserID,
					OccurredAt:     env.now(),
				}},
				MarkOccupied:  []string{t.TargetLocationID},
				SyncOccupancy: []string{t.FromLocationID},
			},
		}
	}
	return t, wrongStepInput(t.CurrentStep)
}

func newPutawayTask(warehouseID, userID string, product models.Product, quantity int, fromLocationID string, suggested models.Location, now time.Time) PutawayTask {
	return PutawayTask{
		meta: meta{
			TaskID:      uuid.NewString(),
			TaskKind:    KindPutaway,
			Warehouse:   warehouseID,
			UserID:      userID,
			Started:     now,
			CurrentStep: StepScanProduct,
		},
		ProductID:         product.ID,
		ProductSKU:        product.SKU,
		Quantity:          quantity,
		FromLocationID:    fromLocationID,
		SuggestedLocation: suggested.ID,
		SuggestedCode:     suggested.Code,
	}
}
