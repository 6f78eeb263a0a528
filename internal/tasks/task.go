package tasks

import (
	"context"
	"time"

	"warehouse/internal/catalog"
	"warehouse/internal/ledger"
	"warehouse/internal/locations"
	"warehouse/pkg/models"
)

type Kind string

const (
	KindReceiving         Kind = "receiving"
	KindPutaway           Kind = "putaway"
	KindPicking           Kind = "picking"
	KindTransfer          Kind = "transfer"
	KindCycleCount        Kind = "cycle_count"
	KindAdjustment        Kind = "adjustment"
	KindQualityInspection Kind = "quality_inspection"
	KindReplenishment     Kind = "replenishment"
)

// Shared step names. Each kind strings a subset of these into its own
// sequence; StepComplete always terminates it.
const (
	StepAwaitingPO      = "awaiting_po"
	StepScanProduct     = "scan_product"
	StepScanLocation    = "scan_location"
	StepScanSource      = "scan_source"
	StepScanDestination = "scan_destination"
	StepEnterQuantity   = "enter_quantity"
	StepEnterCount      = "enter_count"
	StepAnswerQuestion  = "answer_question"
	StepComplete        = "complete"
)

// Env gives a step read access to shared state plus the one mid-step mutator,
// Registry.Reserve. Steps re-read through Env on every call; nothing from a
// previous step is trusted to still be true.
type Env struct {
	Ledger   ledger.Reader
	Registry locations.Registry
	Catalog  catalog.Catalog
	Now      func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// StepInput is what the handheld sends for one step. Which fields matter
// depends on the task's current step.
type StepInput struct {
	Barcode      string `json:"barcode,omitempty"`
	LocationCode string `json:"location_code,omitempty"`
	Quantity     *int   `json:"quantity,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Answer       *bool  `json:"answer,omitempty"`
	// Confirm acknowledges a flagged situation: unexpected item, short pick,
	// alternate putaway slot, or the final complete step.
	Confirm bool `json:"confirm,omitempty"`
	// Done ends a repeating scan loop (receiving, cycle count).
	Done bool `json:"done,omitempty"`
}

type StepResult struct {
	Success      bool                   `json:"success"`
	Code         string                 `json:"code,omitempty"`
	Message      string                 `json:"message"`
	MessageLocal string                 `json:"message_local"`
	NextStep     string                 `json:"next_step"`
	Data         map[string]interface{} `json:"data,omitempty"`
	Completed    bool                   `json:"-"`
	Effects      *StagedEffects         `json:"-"`
}

// StagedEffects is the one batch a completed task hands to the coordinator.
// Until then it exists only inside the task; shared state is untouched.
type StagedEffects struct {
	Movements []models.StockMovement
	// MarkOccupied pins destination slots the task reserved mid-flight.
	MarkOccupied []string
	// SyncOccupancy re-derives the flag from ledger stock after the apply.
	SyncOccupancy []string
}

// Task is one in-flight floor operation. HandleStep never mutates the
// receiver: it returns the successor state, so a failed step leaves the
// stored task exactly as it was.
type Task interface {
	ID() string
	Kind() Kind
	Step() string
	StartedAt() time.Time
	WarehouseID() string
	// Reservations lists location ids this task holds; they are released when
	// the task is cancelled instead of completed.
	Reservations() []string
	HandleStep(ctx context.Context, env Env, in StepInput) (Task, StepResult)
}

// meta is the common core embedded in every task kind.
type meta struct {
	TaskID      string    `json:"task_id"`
	TaskKind    Kind      `json:"kind"`
	Warehouse   string    `json:"warehouse_id"`
	UserID      string    `json:"user_id"`
	Started     time.Time `json:"started_at"`
	CurrentStep string    `json:"step"`
}

func (m meta) ID() string           { return m.TaskID }
func (m meta) Kind() Kind           { return m.TaskKind }
func (m meta) Step() string         { return m.CurrentStep }
func (m meta) StartedAt() time.Time { return m.Started }
func (m meta) WarehouseID() string  { return m.Warehouse }

func retry(step, code, message, messageLocal string) StepResult {
	return StepResult{
		Success:      false,
		Code:         code,
		Message:      message,
		MessageLocal: messageLocal,
		NextStep:     step,
	}
}

func proceed(step, message, messageLocal string) StepResult {
	return StepResult{
		Success:      true,
		Message:      message,
		MessageLocal: messageLocal,
		NextStep:     step,
	}
}

func wrongStepInput(step string) StepResult {
	return retry(step, "missing_input",
		"Required input for this step is missing",
		"Brak wymaganych danych dla tego kroku")
}

// resolveProduct turns a scanned code into a catalog product, mapping a miss
// onto a retryable mismatch.
func resolveProduct(ctx context.Context, env Env, step, code string) (models.Product, *StepResult) {
	if code == "" {
		r := wrongStepInput(step)
		return models.Product{}, &r
	}
	product, err := env.Catalog.ByCode(ctx, code)
	if err != nil {
		r := retry(step, "unknown_barcode",
			"Scanned code does not match any product",
			"Zeskanowany kod nie pasuje do żadnego produktu")
		return models.Product{}, &r
	}
	return product, nil
}
