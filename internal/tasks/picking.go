package tasks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"warehouse/pkg/models"
)

// PickLine is one order line with its storage slot's walk coordinates.
type PickLine struct {
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku"`
	LocationID   string `json:"location_id"`
	LocationCode string `json:"location_code"`
	Zone         string `json:"zone"`
	Aisle        string `json:"aisle"`
	Rack         string `json:"rack"`
	Ordered      int    `json:"ordered"`
	Picked       int    `json:"picked"`
	Short        bool   `json:"short,omitempty"`
}

// PickingTask walks the operator through order lines pre-sorted by
// zone -> aisle -> rack. Location and product must match exactly; picking
// fewer units than ordered is a short pick the operator has to acknowledge.
type PickingTask struct {
	meta
	OrderID     string     `json:"order_id"`
	Lines       []PickLine `json:"lines"`
	CurrentLine int        `json:"current_line"`
}

func (t PickingTask) Reservations() []string { return nil }

func (t PickingTask) HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult) {
	if t.CurrentStep != StepComplete && t.CurrentLine >= len(t.Lines) {
		return t, retry(t.CurrentStep, "no_line", "No pick line is active", "Żadna linia kompletacji nie jest aktywna")
	}

	switch t.CurrentStep {
	case StepScanLocation:
		line := t.Lines[t.CurrentLine]
		if in.LocationCode != line.LocationCode {
			return t, retry(StepScanLocation, "wrong_location",
				fmt.Sprintf("Wrong location, go to %s", line.LocationCode),
				fmt.Sprintf("Zła lokalizacja, idź do %s", line.LocationCode))
		}
		t.CurrentStep = StepScanProduct
		return t, proceed(StepScanProduct, fmt.Sprintf("Scan %s", line.SKU), fmt.Sprintf("Zeskanuj %s", line.SKU))

	case StepScanProduct:
		line := t.Lines[t.CurrentLine]
		product, mismatch := resolveProduct(ctx, env, StepScanProduct, in.Barcode)
		if mismatch != nil {
			return t, *mismatch
		}
		if product.ID != line.ProductID {
			return t, retry(StepScanProduct, "wrong_product",
				fmt.Sprintf("Expected %s, scanned %s", line.SKU, product.SKU),
				fmt.Sprintf("Oczekiwano %s, zeskanowano %s", line.SKU, product.SKU))
		}
		t.CurrentStep = StepEnterQuantity
		return t, proceed(StepEnterQuantity, fmt.Sprintf("Pick %d units", line.Ordered),
			fmt.Sprintf("Pobierz %d sztuk", line.Ordered))

	case StepEnterQuantity:
		line := t.Lines[t.CurrentLine]
		if in.Quantity == nil || *in.Quantity < 0 {
			return t, retry(StepEnterQuantity, "invalid_quantity",
				"Quantity must be zero or more",
				"Ilość musi wynosić zero lub więcej")
		}
		qty := *in.Quantity
		if qty > line.Ordered {
			return t, retry(StepEnterQuantity, "over_pick",
				fmt.Sprintf("Ordered quantity is %d, cannot pick more", line.Ordered),
				fmt.Sprintf("Zamówiona ilość to %d, nie można pobrać więcej", line.Ordered))
		}
		if qty < line.Ordered && !in.Confirm {
			return t, retry(StepEnterQuantity, "short_pick",
				fmt.Sprintf("Short pick of %d (ordered %d), confirm to accept", qty, line.Ordered),
				fmt.Sprintf("Niepełne pobranie %d (zamówiono %d), potwierdź aby zaakceptować", qty, line.Ordered))
		}

		lines := append([]PickLine(nil), t.Lines...)
		lines[t.CurrentLine].Picked = qty
		lines[t.CurrentLine].Short = qty < line.Ordered
		t.Lines = lines
		t.CurrentLine++
		if t.CurrentLine < len(t.Lines) {
			next := t.Lines[t.CurrentLine]
			t.CurrentStep = StepScanLocation
			return t, proceed(StepScanLocation, fmt.Sprintf("Next: %s at %s", next.SKU, next.LocationCode),
				fmt.Sprintf("Następnie: %s w %s", next.SKU, next.LocationCode))
		}
		t.CurrentStep = StepComplete
		return t, proceed(StepComplete, "All lines picked, confirm to finish", "Wszystkie linie pobrane, potwierdź aby zakończyć")

	case StepComplete:
		if !in.Confirm {
			return t, retry(StepComplete, "confirm_required",
				"Confirm the pick to finish the task",
				"Potwierdź pobranie, aby zakończyć zadanie")
		}
		return t, t.complete(env)
	}
	return t, wrongStepInput(t.CurrentStep)
}

func (t PickingTask) complete(env Env) StepResult {
	var movements []models.StockMovement
	var touched []string
	for _, line := range t.Lines {
		if line.Picked <= 0 {
			continue
		}
		from := line.LocationID
		movements = append(movements, models.StockMovement{
			ID:             uuid.NewString(),
			Type:           models.MovementOut,
			ProductID:      line.ProductID,
			WarehouseID:    t.Warehouse,
			FromLocationID: &from,
			Quantity:       line.Picked,
			Reference:      t.TaskID,
			PerformedBy:    t.UserID,
			OccurredAt:     env.now(),
		})
		touched = append(touched, line.LocationID)
	}
	return StepResult{
		Success:      true,
		Message:      fmt.Sprintf("Order %s picked", t.OrderID),
		MessageLocal: fmt.Sprintf("Zamówienie %s skompletowane", t.OrderID),
		NextStep:     StepComplete,
		Data:         map[string]interface{}{"short_lines": t.shortLines()},
		Completed:    true,
		Effects: &StagedEffects{
			Movements:     movements,
			SyncOccupancy: touched,
		},
	}
}

func (t PickingTask) shortLines() []map[string]interface{} {
	var out []map[string]interface{}
	for _, line := range t.Lines {
		if !line.Short {
			continue
		}
		out = append(out, map[string]interface{}{
			"sku":     line.SKU,
			"ordered": line.Ordered,
			"picked":  line.Picked,
		})
	}
	return out
}

// sortPickLines orders lines by walk distance: zone, then aisle, then rack,
// lexicographic ascending.
func sortPickLines(lines []PickLine) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Zone != lines[j].Zone {
			return lines[i].Zone < lines[j].Zone
		}
		if lines[i].Aisle != lines[j].Aisle {
			return lines[i].Aisle < lines[j].Aisle
		}
		return lines[i].Rack < lines[j].Rack
	})
}

func newPickingTask(warehouseID, userID, orderID string, lines []PickLine, now time.Time) PickingTask {
	sortPickLines(lines)
	return PickingTask{
		meta: meta{
			TaskID:      uuid.NewString(),
			TaskKind:    KindPicking,
			Warehouse:   warehouseID,
			UserID:      userID,
			Started:     now,
			CurrentStep: StepScanLocation,
		},
		OrderID: orderID,
		Lines:   lines,
	}
}
