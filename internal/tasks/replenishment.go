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

// ReplenishmentTask tops up a product's forward pick face from reserve
// storage. The destination is the product's fixed forward slot; the suggested
// quantity fills it back to its max level.
type ReplenishmentTask struct {
	meta
	ProductID        string `json:"product_id"`
	ProductSKU       string `json:"product_sku"`
	FromLocationID   string `json:"from_location_id"`
	FromLocationCode string `json:"from_location_code"`
	ToLocationID     string `json:"to_location_id"`
	ToLocationCode   string `json:"to_location_code"`
	SuggestedQty     int    `json:"suggested_qty"`
	Quantity         int    `json:"quantity"`
	Reserved         bool   `json:"reserved,omitempty"`
}

func (t ReplenishmentTask) Reservations() []string {
	if !t.Reserved {
		return nil
	}
	return []string{t.ToLocationID}
}

func (t ReplenishmentTask) HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult) {
	switch t.CurrentStep {
	case StepScanSource:
		if in.LocationCode != t.FromLocationCode {
			return t, retry(StepScanSource, "wrong_location",
				fmt.Sprintf("Wrong source, go to %s", t.FromLocationCode),
				fmt.Sprintf("Złe źródło, idź do %s", t.FromLocationCode))
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
		result := proceed(StepEnterQuantity, fmt.Sprintf("Take %d units", t.SuggestedQty),
			fmt.Sprintf("Pobierz %d sztuk", t.SuggestedQty))
		result.Data = map[string]interface{}{"suggested_qty": t.SuggestedQty}
		return t, result

	case StepEnterQuantity:
		if in.Quantity == nil || *in.Quantity <= 0 {
			return t, retry(StepEnterQuantity, "invalid_quantity",
				"Quantity must be a positive number",
				"Ilość musi być liczbą dodatnią")
		}
		snapshot, err := env.Ledger.Snapshot(ctx, t.Warehouse, t.ProductID, t.FromLocationID)
		if err != nil {
			return t, retry(StepEnterQuantity, "snapshot_failed",
				"Could not read current stock, try again",
				"Nie udało się odczytać stanu, spróbuj ponownie")
		}
		if *in.Quantity > snapshot.QuantityAvailable {
			return t, retry(StepEnterQuantity, "insufficient_quantity",
				fmt.Sprintf("Only %d available at %s", snapshot.QuantityAvailable, t.FromLocationCode),
				fmt.Sprintf("Dostępne tylko %d w %s", snapshot.QuantityAvailable, t.FromLocationCode))
		}
		t.Quantity = *in.Quantity
		t.CurrentStep = StepScanDestination
		return t, proceed(StepScanDestination, fmt.Sprintf("Bring to pick face %s", t.ToLocationCode),
			fmt.Sprintf("Przenieś do strefy kompletacji %s", t.ToLocationCode))

	case StepScanDestination:
		if in.LocationCode != t.ToLocationCode {
			return t, retry(StepScanDestination, "wrong_location",
				fmt.Sprintf("Replenishment goes to %s only", t.ToLocationCode),
				fmt.Sprintf("Uzupełnienie trafia wyłącznie do %s", t.ToLocationCode))
		}
		if err := env.Registry.Reserve(ctx, t.ToLocationID); err != nil {
			if errors.Is(err, locations.ErrLocationOccupied) {
				return t, retry(StepScanDestination, "location_occupied",
					fmt.Sprintf("%s is blocked by another task, retry in a moment", t.ToLocationCode),
					fmt.Sprintf("%s jest zablokowana przez inne zadanie, spróbuj za chwilę", t.ToLocationCode))
			}
			return t, retry(StepScanDestination, "reserve_failed",
				"Could not reserve the pick face, try again",
				"Nie udało się zarezerwować strefy kompletacji, spróbuj ponownie")
		}
		t.Reserved = true
		t.CurrentStep = StepComplete
		return t, proceed(StepComplete, "Confirm replenishment to finish", "Potwierdź uzupełnienie, aby zakończyć")

	case StepComplete:
		if !in.Confirm {
			return t, retry(StepComplete, "confirm_required",
				"Confirm the replenishment to finish the task",
				"Potwierdź uzupełnienie, aby zakończyć zadanie")
		}
		from := t.FromLocationID
		to := t.ToLocationID
		return t, StepResult{
			Success:      true,
			Message:      fmt.Sprintf("Replenished %s with %d units", t.ToLocationCode, t.Quantity),
			MessageLocal: fmt.Sprintf("Uzupełniono %s o %d sztuk", t.ToLocationCode, t.Quantity),
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
				MarkOccupied:  []string{t.ToLocationID},
				SyncOccupancy: []string{t.FromLocationID},
			},
		}
	}
	return t, wrongStepInput(t.CurrentStep)
}

func newReplenishmentTask(warehouseID, userID string, product models.Product, from, to models.Location, suggestedQty int, now time.Time) ReplenishmentTask {
	return ReplenishmentTask{
		meta: meta{
			TaskID:      uuid.NewString(),
			TaskKind:    KindReplenishment,
			Warehouse:   warehouseID,
			UserID:      userID,
			Started:     now,
			CurrentStep: StepScanSource,
		},
		ProductID:        product.ID,
		ProductSKU:       product.SKU,
		FromLocationID:   from.ID,
		FromLocationCode: from.Code,
		ToLocationID:     to.ID,
		ToLocationCode:   to.Code,
		SuggestedQty:     suggestedQty,
	}
}
