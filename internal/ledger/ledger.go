package ledger

import (
	"context"

	custom_error "warehouse/pkg/errors"
	"warehouse/pkg/models"
)

var (
	ErrInsufficientQuantity = custom_error.Integrity(
		"insufficient_quantity",
		"Insufficient quantity at location",
		"Niewystarczająca ilość w lokalizacji",
	)
	ErrMalformedMovement = custom_error.Integrity(
		"malformed_movement",
		"Movement entry is malformed",
		"Nieprawidłowy wpis ruchu magazynowego",
	)
)

// Reader is the read side handed to task state machines. Snapshots are
// re-fetched on every step, never cached across a step boundary.
type Reader interface {
	// Snapshot returns the current record for (product, location). A pair with
	// no stock yet yields a zero-quantity record, not an error.
	Snapshot(ctx context.Context, warehouseID, productID, locationID string) (models.InventoryRecord, error)
	// HasStock reports whether any record at the location has on-hand > 0.
	HasStock(ctx context.Context, warehouseID, locationID string) (bool, error)
	Movements(ctx context.Context, filter MovementFilter) ([]models.StockMovement, error)
}

// Ledger owns InventoryRecord and StockMovement state. Apply is the only
// mutation path and is all-or-nothing per batch: concurrent applies touching
// the same record serialize, and a losing caller sees ErrInsufficientQuantity
// rather than a partially applied batch.
type Ledger interface {
	Reader
	Apply(ctx context.Context, movements []models.StockMovement) error
	// Reconcile checks the conservation property offline: the net of all
	// movements per (product, location) must equal the current record.
	Reconcile(ctx context.Context, warehouseID string) ([]Discrepancy, error)
}

type MovementFilter struct {
	WarehouseID string
	ProductID   string
	LocationID  string
	Reference   string
	Limit       int
}

type Discrepancy struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Recorded   int    `json:"recorded"`
	Net        int    `json:"net"`
}

// delta is the effect of one movement on a single (product, location) pair.
type delta struct {
	warehouseID string
	productID   string
	locationID  string
	onHand      int
	available   int
	allocated   int
	lotNumber   *string
}

// decompose expands a movement into per-record deltas. Transfers become an
// out at the source plus an in at the destination so both sides commit or
// neither does.
func decompose(m models.StockMovement) ([]delta, error) {
	switch m.Type {
	case models.MovementIn:
		if m.ToLocationID == nil || m.Quantity <= 0 {
			return nil, ErrMalformedMovement
		}
		return []delta{{m.WarehouseID, m.ProductID, *m.ToLocationID, m.Quantity, m.Quantity, 0, m.LotNumber}}, nil
	case models.MovementOut:
		if m.FromLocationID == nil || m.Quantity <= 0 {
			return nil, ErrMalformedMovement
		}
		return []delta{{m.WarehouseID, m.ProductID, *m.FromLocationID, -m.Quantity, -m.Quantity, 0, m.LotNumber}}, nil
	case models.MovementTransfer:
		if m.FromLocationID == nil || m.ToLocationID == nil || m.Quantity <= 0 {
			return nil, ErrMalformedMovement
		}
		toWarehouse := m.WarehouseID
		if m.ToWarehouseID != nil {
			toWarehouse = *m.ToWarehouseID
		}
		return []delta{
			{m.WarehouseID, m.ProductID, *m.FromLocationID, -m.Quantity, -m.Quantity, 0, m.LotNumber},
			{toWarehouse, m.ProductID, *m.ToLocationID, m.Quantity, m.Quantity, 0, m.LotNumber},
		}, nil
	case models.MovementAdjustment:
		loc := m.ToLocationID
		if loc == nil {
			loc = m.FromLocationID
		}
		if loc == nil || m.Quantity == 0 {
			return nil, ErrMalformedMovement
		}
		return []delta{{m.WarehouseID, m.ProductID, *loc, m.Quantity, m.Quantity, 0, m.LotNumber}}, nil
	case models.MovementHold:
		loc := m.FromLocationID
		if loc == nil || m.Quantity <= 0 {
			return nil, ErrMalformedMovement
		}
		return []delta{{m.WarehouseID, m.ProductID, *loc, 0, -m.Quantity, m.Quantity, m.LotNumber}}, nil
	default:
		return nil, ErrMalformedMovement
	}
}
