package tasks

import (
	"context"

	custom_error "warehouse/pkg/errors"
)

var (
	ErrUnknownKind = custom_error.NotFound(
		"unknown_task_kind",
		"Unknown task kind",
		"Nieznany rodzaj zadania")
	ErrNoEmptySlot = custom_error.Conflict(
		"no_empty_slot",
		"No empty storage location available",
		"Brak wolnej lokalizacji magazynowej")
	ErrNoForwardSlot = custom_error.NotFound(
		"no_forward_slot",
		"Product has no forward pick face assigned",
		"Produkt nie ma przypisanej strefy kompletacji")
	ErrReplenishmentNotNeeded = custom_error.Conflict(
		"replenishment_not_needed",
		"Forward pick face is already at its max level",
		"Strefa kompletacji jest już na poziomie maksymalnym")
	ErrEmptyTask = custom_error.Mismatch(
		"empty_task",
		"Task has no lines to work on",
		"Zadanie nie zawiera żadnych pozycji")
)

type ExpectedLine struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}

type PickRequest struct {
	ProductCode string `json:"product_code"`
	Location    string `json:"location"`
	Quantity    int    `json:"quantity"`
}

// Spec is the kind-tagged request to start a task; only the fields for the
// requested kind matter.
type Spec struct {
	Kind Kind `json:"kind"`

	SourceOrderID string         `json:"source_order_id,omitempty"`
	DockLocation  string         `json:"dock_location,omitempty"`
	Expected      []ExpectedLine `json:"expected,omitempty"`

	ProductCode  string `json:"product_code,omitempty"`
	Quantity     int    `json:"quantity,omitempty"`
	FromLocation string `json:"from_location,omitempty"`

	OrderID   string        `json:"order_id,omitempty"`
	PickLines []PickRequest `json:"pick_lines,omitempty"`

	Location           string             `json:"location,omitempty"`
	ToWarehouseID      string             `json:"to_warehouse_id,omitempty"`
	VarianceVisibility VarianceVisibility `json:"variance_visibility,omitempty"`
	LotNumber          string             `json:"lot_number,omitempty"`
	Checklist          []string           `json:"checklist,omitempty"`
}

// Build resolves a Spec against the catalog and registry into a fresh task.
// All codes are resolved up front so a task never starts against unknown
// resources; quantities are still re-validated step by step.
func Build(ctx context.Context, env Env, warehouseID, userID string, spec Spec) (Task, error) {
	now := env.now()

	switch spec.Kind {
	case KindReceiving:
		dock, err := env.Registry.Lookup(ctx, warehouseID, spec.DockLocation)
		if err != nil {
			return nil, err
		}
		var lines []ReceivingLine
		for _, expected := range spec.Expected {
			product, err := env.Catalog.ByCode(ctx, expected.ProductCode)
			if err != nil {
				return nil, err
			}
			lines = append(lines, ReceivingLine{
				ProductID: product.ID,
				SKU:       product.SKU,
				Expected:  expected.Quantity,
			})
		}
		return newReceivingTask(warehouseID, userID, spec.SourceOrderID, dock.ID, lines, now), nil

	case KindPutaway:
		product, err := env.Catalog.ByCode(ctx, spec.ProductCode)
		if err != nil {
			return nil, err
		}
		from, err := env.Registry.Lookup(ctx, warehouseID, spec.FromLocation)
		if err != nil {
			return nil, err
		}
		suggested, err := env.Registry.SuggestEmpty(ctx, warehouseID, product.Zone)
		if err != nil {
			return nil, ErrNoEmptySlot
		}
		return newPutawayTask(warehouseID, userID, product, spec.Quantity, from.ID, suggested, now), nil

	case KindPicking:
		if len(spec.PickLines) == 0 {
			return nil, ErrEmptyTask
		}
		var lines []PickLine
		for _, req := range spec.PickLines {
			product, err := env.Catalog.ByCode(ctx, req.ProductCode)
			if err != nil {
				return nil, err
			}
			loc, err := env.Registry.Lookup(ctx, warehouseID, req.Location)
			if err != nil {
				return nil, err
			}
			lines = append(lines, PickLine{
				ProductID:    product.ID,
				SKU:          product.SKU,
				LocationID:   loc.ID,
				LocationCode: loc.Code,
				Zone:         loc.Zone,
				Aisle:        loc.Aisle,
				Rack:         loc.Rack,
				Ordered:      req.Quantity,
			})
		}
		return newPickingTask(warehouseID, userID, spec.OrderID, lines, now), nil

	case KindTransfer:
		product, err := env.Catalog.ByCode(ctx, spec.ProductCode)
		if err != nil {
			return nil, err
		}
		from, err := env.Registry.Lookup(ctx, warehouseID, spec.FromLocation)
		if err != nil {
			return nil, err
		}
		var toWarehouse *string
		if spec.ToWarehouseID != "" && spec.ToWarehouseID != warehouseID {
			w := spec.ToWarehouseID
			toWarehouse = &w
		}
		return newTransferTask(warehouseID, userID, product, from, toWarehouse, now), nil

	case KindCycleCount:
		loc, err := env.Registry.Lookup(ctx, warehouseID, spec.Location)
		if err != nil {
			return nil, err
		}
		return newCycleCountTask(warehouseID, userID, loc, spec.VarianceVisibility, now), nil

	case KindAdjustment:
		product, err := env.Catalog.ByCode(ctx, spec.ProductCode)
		if err != nil {
			return nil, err
		}
		loc, err := env.Registry.Lookup(ctx, warehouseID, spec.Location)
		if err != nil {
			return nil, err
		}
		return newAdjustmentTask(warehouseID, userID, product, loc, now), nil

	case KindQualityInspection:
		if len(spec.Checklist) == 0 {
			return nil, ErrEmptyTask
		}
		product, err := env.Catalog.ByCode(ctx, spec.ProductCode)
		if err != nil {
			return nil, err
		}
		loc, err := env.Registry.Lookup(ctx, warehouseID, spec.Location)
		if err != nil {
			return nil, err
		}
		var lot *string
		if spec.LotNumber != "" {
			l := spec.LotNumber
			lot = &l
		}
		return newQualityInspectionTask(warehouseID, userID, product, loc, lot, spec.Checklist, now), nil

	case KindReplenishment:
		product, err := env.Catalog.ByCode(ctx, spec.ProductCode)
		if err != nil {
			return nil, err
		}
		if product.ForwardSlot == nil {
			return nil, ErrNoForwardSlot
		}
		from, err := env.Registry.Lookup(ctx, warehouseID, spec.FromLocation)
		if err != nil {
			return nil, err
		}
		to, err := env.Registry.Lookup(ctx, warehouseID, *product.ForwardSlot)
		if err != nil {
			return nil, err
		}
		forward, err := env.Ledger.Snapshot(ctx, warehouseID, product.ID, to.ID)
		if err != nil {
			return nil, err
		}
		suggested := product.ReplenishMax - forward.QuantityOnHand
		if suggested <= 0 {
			return nil, ErrReplenishmentNotNeeded
		}
		return newReplenishmentTask(warehouseID, userID, product, from, to, suggested, now), nil
	}
	return nil, ErrUnknownKind
}
