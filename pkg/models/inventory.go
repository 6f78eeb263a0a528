package models

import "time"

// InventoryRecord is the quantity state of one (product, location) pair.
// Invariant: QuantityOnHand == QuantityAvailable + QuantityAllocated, all >= 0.
// Only the ledger's Apply mutates records.
type InventoryRecord struct {
	ProductID         string     `json:"product_id" db:"product_id"`
	WarehouseID       string     `json:"warehouse_id" db:"warehouse_id"`
	LocationID        string     `json:"location_id" db:"location_id"`
	QuantityOnHand    int        `json:"quantity_on_hand" db:"quantity_on_hand"`
	QuantityAvailable int        `json:"quantity_available" db:"quantity_available"`
	QuantityAllocated int        `json:"quantity_allocated" db:"quantity_allocated"`
	LotNumber         *string    `json:"lot_number,omitempty" db:"lot_number"`
	SerialNumber      *string    `json:"serial_number,omitempty" db:"serial_number"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
}

// Consistent reports whether the record satisfies the conservation invariant.
func (r InventoryRecord) Consistent() bool {
	return r.QuantityOnHand == r.QuantityAvailable+r.QuantityAllocated &&
		r.QuantityOnHand >= 0 && r.QuantityAvailable >= 0 && r.QuantityAllocated >= 0
}
