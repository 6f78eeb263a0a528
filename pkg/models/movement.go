package models

import "time"

type MovementType string

const (
	// MovementIn adds quantity at ToLocation (receiving, returns).
	MovementIn MovementType = "in"
	// MovementOut removes quantity at FromLocation (picking, shipping).
	MovementOut MovementType = "out"
	// MovementTransfer moves quantity FromLocation -> ToLocation in one entry;
	// the ledger applies it as an out plus an in, atomically.
	MovementTransfer MovementType = "transfer"
	// MovementAdjustment carries a signed delta against on-hand (cycle count,
	// manual correction).
	MovementAdjustment MovementType = "adjustment"
	// MovementHold moves quantity from available to allocated without touching
	// on-hand (quality quarantine). On-hand conservation is unaffected.
	MovementHold MovementType = "hold"
)

// StockMovement is one append-only ledger entry. Entries are never updated or
// deleted; the net of all entries for a (product, location) pair must equal
// the current InventoryRecord quantity.
type StockMovement struct {
	ID             string       `json:"id" db:"id"`
	Type           MovementType `json:"type" db:"movement_type"`
	ProductID      string       `json:"product_id" db:"product_id"`
	WarehouseID    string       `json:"warehouse_id" db:"warehouse_id"`
	ToWarehouseID  *string      `json:"to_warehouse_id,omitempty" db:"to_warehouse_id"`
	FromLocationID *string      `json:"from_location_id,omitempty" db:"from_location_id"`
	ToLocationID   *string      `json:"to_location_id,omitempty" db:"to_location_id"`
	Quantity       int          `json:"quantity" db:"quantity"`
	LotNumber      *string      `json:"lot_number,omitempty" db:"lot_number"`
	Reference      string       `json:"reference" db:"reference"` // task id that produced the entry
	PerformedBy    string       `json:"performed_by" db:"performed_by"`
	OccurredAt     time.Time    `json:"occurred_at" db:"occurred_at"`
}
