package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"warehouse/pkg/models"
)

// ReceivingLine tracks expected versus received quantity for one product on
// the source order. Over- and under-receipt are recorded as variance, never
// rejected.
type ReceivingLine struct {
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku"`
	Expected   int    `json:"expected"`
	Received   int    `json:"received"`
	Unexpected bool   `json:"unexpected"`
}

// ReceivingTask guides unloading against a purchase order into a dock
// location: awaiting_po -> scan_product -> enter_quantity -> (repeat) ->
// complete.
type ReceivingTask struct {
	meta
	SourceOrderID  string          `json:"source_order_id"`
	DockLocationID string          `json:"dock_location_id"`
	Lines          []ReceivingLine `json:"lines"`
	PendingProduct string          `json:"pending_product,omitempty"`
}

func (t ReceivingTask) Reservations() []string { return nil }

func (t ReceivingTask) HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult) {
	switch t.CurrentStep {
	case StepAwaitingPO:
		if in.Barcode != t.SourceOrderID {
			return t, retry(StepAwaitingPO, "wrong_order",
				fmt.Sprintf("Scanned order does not match %s", t.SourceOrderID),
				fmt.Sprintf("Zeskanowane zamówienie nie zgadza się z %s", t.SourceOrderID))
		}
		t.CurrentStep = StepScanProduct
		return t, proceed(StepScanProduct, "Order confirmed, scan first product", "Zamówienie potwierdzone, zeskanuj pierwszy produkt")

	case StepScanProduct:
		if in.Done {
			t.CurrentStep = StepComplete
			result := proceed(StepComplete, "Confirm receipt to finish", "Potwierdź przyjęcie, aby zakończyć")
			result.Data = map[string]interface{}{"variances": t.variances()}
			return t, result
		}
		product, mismatch := resolveProduct(ctx, env, StepScanProduct, in.Barcode)
		if mismatch != nil {
			return t, *mismatch
		}
		if t.lineIndex(product.ID) < 0 {
			// not on the order; the operator may still record it, but has to
			// say so explicitly
			if !in.Confirm {
				return t, retry(StepScanProduct, "unexpected_item",
					fmt.Sprintf("%s is not on this order, confirm to record it anyway", product.SKU),
					fmt.Sprintf("%s nie znajduje się na tym zamówieniu, potwierdź aby mimo to zarejestrować", product.SKU))
			}
		}
		t.PendingProduct = product.ID
		t.CurrentStep = StepEnterQuantity
		return t, proceed(StepEnterQuantity, fmt.Sprintf("Enter quantity for %s", product.SKU),
			fmt.Sprintf("Podaj ilość dla %s", product.SKU))

	case StepEnterQuantity:
		if in.Quantity == nil || *in.Quantity <= 0 {
			return t, retry(StepEnterQuantity, "invalid_quantity",
				"Quantity must be a positive number",
				"Ilość musi być liczbą dodatnią")
		}
		lines := append([]ReceivingLine(nil), t.Lines...)
		if idx := t.lineIndex(t.PendingProduct); idx >= 0 {
			lines[idx].Received += *in.Quantity
		} else {
			product, err := env.Catalog.ByID(ctx, t.PendingProduct)
			if err != nil {
				return t, retry(StepEnterQuantity, "unknown_product",
					"Pending product vanished from the catalog",
					"Oczekujący produkt zniknął z katalogu")
			}
			lines = append(lines, ReceivingLine{
				ProductID:  product.ID,
				SKU:        product.SKU,
				Received:   *in.Quantity,
				Unexpected: true,
			})
		}
		t.Lines = lines
		t.PendingProduct = ""
		t.CurrentStep = StepScanProduct
		return t, proceed(StepScanProduct, "Recorded, scan next product or finish", "Zarejestrowano, zeskanuj kolejny produkt lub zakończ")

	case StepComplete:
		if !in.Confirm {
			return t, retry(StepComplete, "confirm_required",
				"Confirm receipt to finish the task",
				"Potwierdź przyjęcie, aby zakończyć zadanie")
		}
		return t, t.complete(env)
	}
	return t, wrongStepInput(t.CurrentStep)
}

func (t ReceivingTask) complete(env Env) StepResult {
	var movements []models.StockMovement
	dock := t.DockLocationID
	for _, line := range t.Lines {
		if line.Received <= 0 {
			continue
		}
		movements = append(movements, models.StockMovement{
			ID:           uuid.NewString(),
			Type:         models.MovementIn,
			ProductID:    line.ProductID,
			WarehouseID:  t.Warehouse,
			ToLocationID: &dock,
			Quantity:     line.Received,
			Reference:    t.TaskID,
			PerformedBy:  t.UserID,
			OccurredAt:   env.now(),
		})
	}
	return StepResult{
		Success:      true,
		Message:      "Receipt recorded",
		MessageLocal: "Przyjęcie zarejestrowane",
		NextStep:     StepComplete,
		Data:         map[string]interface{}{"variances": t.variances()},
		Completed:    true,
		Effects: &StagedEffects{
			Movements:     movements,
			SyncOccupancy: []string{t.DockLocationID},
		},
	}
}

func (t ReceivingTask) lineIndex(productID string) int {
	for i, line := range t.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (t ReceivingTask) variances() []map[string]interface{} {
	var out []map[string]interface{}
	for _, line := range t.Lines {
		if line.Received == line.Expected && !line.Unexpected {
			continue
		}
		out = append(out, map[string]interface{}{
			"product_id": line.ProductID,
			"sku":        line.SKU,
			"expected":   line.Expected,
			"received":   line.Received,
			"variance":   line.Received - line.Expected,
			"unexpected": line.Unexpected,
		})
	}
	return out
}

func newReceivingTask(warehouseID, userID, sourceOrderID, dockLocationID string, lines []ReceivingLine, now time.Time) ReceivingTask {
	return ReceivingTask{
		meta: meta{
			TaskID:      uuid.NewString(),
			TaskKind:    KindReceiving,
			Warehouse:   warehouseID,
			UserID:      userID,
			Started:     now,
			CurrentStep: StepAwaitingPO,
		},
		SourceOrderID:  sourceOrderID,
		DockLocationID: dockLocationID,
		Lines:          lines,
	}
}
