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

// TransferTask moves stock between two slots, code-to-code within one
// warehouse or across warehouses when ToWarehouseID is set. The destination
// is reserved before any quantity moves; the source keeps its occupancy until
// the batch commits.
type TransferTask struct {
	meta
	ProductID        string  `json:"product_id"`
	ProductSKU       string  `json:"product_sku"`
	FromLocationID   string  `json:"from_location_id"`
	FromLocationCode string  `json:"from_location_code"`
	ToWarehouseID    *string `json:"to_warehouse_id,omitempty"`
	ToLocationID     string  `json:"to_location_id,omitempty"`
	ToLocationCode   string  `json:"to_location_code,omitempty"`
	Quantity         int     `json:"quantity"`
}

func (t TransferTask) Reservations() []string {
	if t.ToLocationID == "" {
		return nil
	}
	return []string{t.ToLocationID}
}

func (t TransferTask) destinationWarehouse() string {
	if t.ToWarehouseID != nil {
		return *t.ToWarehouseID
	}
	return t.Warehouse
}

func (t TransferTask) HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult) {
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
		return t, proceed(StepEnterQuantity, "Enter quantity to move", "Podaj ilość do przeniesienia")

	case StepEnterQuantity:
		if in.Quantity == nil || *in.Quantity <= 0 {
			return t, retry(StepEnterQuantity, "invalid_quantity",
				"Quantity must be a positive number",
				"Ilość musi być liczbą dodatnią")
		}
		// advisory check against the current snapshot; the apply guard at
		// completion has the final word
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
		return t, proceed(StepScanDestination, "Scan destination location", "Zeskanuj lokalizację docelową")

	case StepScanDestination:
		if in.LocationCode == "" {
			return t, wrongStepInput(StepScanDestination)
		}
		loc, err := env.Registry.Lookup(ctx, t.destinationWarehouse(), in.LocationCode)
		if err != nil {
			return t, retry(StepScanDestination, "unknown_location",
				"Scanned location does not exist",
				"Zeskanowana lokalizacja nie istnieje")
		}
		if loc.ID == t.FromLocationID {
			return t, retry(StepScanDestination, "same_location",
				"Destination must differ from the source",
				"Lokalizacja docelowa musi różnić się od źródłowej")
		}
		if err := env.Registry.Reserve(ctx, loc.ID); err != nil {
			if errors.Is(err, locations.ErrLocationOccupied) {
				return t, retry(StepScanDestination, "location_occupied",
					fmt.Sprintf("%s is occupied, scan an alternate location", loc.Code),
					fmt.Sprintf("%s jest zajęta, zeskanuj inną lokalizację", loc.Code))
			}
			return t, retry(StepScanDestination, "reserve_failed",
				"Could not reserve the location, try again",
				"Nie udało się zarezerwować lokalizacji, spróbuj ponownie")
		}
		t.ToLocationID = loc.ID
		t.ToLocationCode = loc.Code
		t.CurrentStep = StepComplete
		return t, proceed(StepComplete, "Confirm transfer to finish", "Potwierdź przeniesienie, aby zakończyć")

	case StepComplete:
		if !in.Confirm {
			return t, retry(StepComplete, "confirm_required",
				"Confirm the transfer to finish the task",
				"Potwierdź przeniesienie, aby zakończyć zadanie")
		}
		from := t.FromLocationID
		to := t.ToLocationID
		return t, StepResult{
			Success:      true,
			Message:      fmt.Sprintf("Moved %d x %s to %s", t.Quantity, t.ProductSKU, t.ToLocationCode),
			MessageLocal: fmt.Sprintf("Przeniesiono %d x %s do %s", t.Quantity, t.ProductSKU, t.ToLocationCode),
			NextStep:     StepComplete,
			Completed:    true,
			Effects: &StagedEffects{
				Movements: []models.StockMovement{{
					ID:             uuid.NewString(),
					Type:           models.MovementTransfer,
					ProductID:      t.ProductID,
					WarehouseID:    t.Warehouse,
					ToWarehouseID:  t.ToWarehouseID,
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

func newTransferTask(warehouseID, userID string, product models.Product, from models.Location, toWarehouseID *string, now time.Time) TransferTask {
	return TransferTask{
		meta: meta{
			TaskID:      uuid.NewString(),
			TaskKind:    KindTransfer,
			Warehouse:   warehouseID,
			UserID:      userID,
			Started:     now,
			CurrentStep: StepScanSource,
		},
		ProductID:        product.ID,
		ProductSKU:       product.SKU,
		FromLocationID:   from.ID,
		FromLocationCode: from.Code,
		ToWarehouseID:    toWarehouseID,
	}
}
