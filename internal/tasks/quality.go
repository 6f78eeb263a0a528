package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"warehouse/pkg/models"
)

type ChecklistItem struct {
	Question string `json:"question"`
	Answer   *bool  `json:"answer,omitempty"`
}

// QualityInspectionTask runs a yes/no checklist over an inspected lot. Any
// "no" routes completion to quarantine: the lot's available quantity is moved
// to allocated so nothing can pick it until disposition.
type QualityInspectionTask struct {
	meta
	ProductID    string          `json:"product_id"`
	ProductSKU   string          `json:"product_sku"`
	LotNumber    *string         `json:"lot_number,omitempty"`
	LocationID   string          `json:"location_id"`
	LocationCode string          `json:"location_code"`
	Checklist    []ChecklistItem `json:"checklist"`
	Current      int             `json:"current"`
}

func (t QualityInspectionTask) Reservations() []string { return nil }

func (t QualityInspectionTask) failed() bool {
	for _, item := range t.Checklist {
		if item.Answer != nil && !*item.Answer {
			return true
		}
	}
	return false
}

func (t QualityInspectionTask) HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult) {
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
		t.CurrentStep = StepAnswerQuestion
		return t, t.askCurrent()

	case StepAnswerQuestion:
		if in.Answer == nil {
			return t, retry(StepAnswerQuestion, "answer_required",
				"Answer the question with yes or no",
				"Odpowiedz na pytanie tak lub nie")
		}
		checklist := append([]ChecklistItem(nil), t.Checklist...)
		checklist[t.Current].Answer = in.Answer
		t.Checklist = checklist
		t.Current++
		if t.Current < len(t.Checklist) {
			return t, t.askCurrent()
		}
		t.CurrentStep = StepComplete
		result := proceed(StepComplete, "Checklist done, confirm to finish", "Lista kontrolna zakończona, potwierdź aby zakończyć")
		result.Data = map[string]interface{}{"failed": t.failed()}
		return t, result

	case StepComplete:
		if !in.Confirm {
			return t, retry(StepComplete, "confirm_required",
				"Confirm the inspection to finish the task",
				"Potwierdź inspekcję, aby zakończyć zadanie")
		}
		return t, t.complete(ctx, env)
	}
	return t, wrongStepInput(t.CurrentStep)
}

func (t QualityInspectionTask) askCurrent() StepResult {
	result := proceed(StepAnswerQuestion, t.Checklist[t.Current].Question, t.Checklist[t.Current].Question)
	result.Data = map[string]interface{}{
		"question": t.Checklist[t.Current].Question,
		"position": t.Current + 1,
		"total":    len(t.Checklist),
	}
	return result
}

func (t QualityInspectionTask) complete(ctx context.Context, env Env) StepResult {
	disposition := "released"
	var movements []models.StockMovement

	if t.failed() {
		disposition = "quarantined"
		snapshot, err := env.Ledger.Snapshot(ctx, t.Warehouse, t.ProductID, t.LocationID)
		if err != nil {
			return retry(StepComplete, "snapshot_failed",
				"Could not read current stock, try again",
				"Nie udało się odczytać stanu, spróbuj ponownie")
		}
		if snapshot.QuantityAvailable > 0 {
			loc := t.LocationID
			movements = append(movements, models.StockMovement{
				ID:             uuid.NewString(),
				Type:           models.MovementHold,
				ProductID:      t.ProductID,
				WarehouseID:    t.Warehouse,
				FromLocationID: &loc,
				Quantity:       snapshot.QuantityAvailable,
				LotNumber:      t.LotNumber,
				Reference:      t.TaskID,
				PerformedBy:    t.UserID,
				OccurredAt:     env.now(),
			})
		}
	}
	return StepResult{
		Success:      true,
		Message:      fmt.Sprintf("Inspection of %s finished: %s", t.ProductSKU, disposition),
		MessageLocal: fmt.Sprintf("Inspekcja %s zakończona: %s", t.ProductSKU, disposition),
		NextStep:     StepComplete,
		Data:         map[string]interface{}{"disposition": disposition},
		Completed:    true,
		Effects:      &StagedEffects{Movements: movements},
	}
}

func newQualityInspectionTask(warehouseID, userID string, product models.Product, location models.Location, lotNumber *string, questions []string, now time.Time) QualityInspectionTask {
	checklist := make([]ChecklistItem, 0, len(questions))
	for _, q := range questions {
		checklist = append(checklist, ChecklistItem{Question: q})
	}
	return QualityInspectionTask{
		meta: meta{
			TaskID:      uuid.NewString(),
			TaskKind:    KindQualityInspection,
			Warehouse:   warehouseID,
			UserID:      userID,
			Started:     now,
			CurrentStep: StepScanProduct,
		},
		ProductID:    product.ID,
		ProductSKU:   product.SKU,
		LotNumber:    lotNumber,
		LocationID:   location.ID,
		LocationCode: location.Code,
		Checklist:    checklist,
	}
}
