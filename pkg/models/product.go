package models

// Product is a read-only catalog entry, looked up by scanned barcode.
type Product struct {
	ID           string  `json:"id" db:"id"`
	SKU          string  `json:"sku" db:"sku"`
	Barcode      string  `json:"barcode" db:"barcode"`
	Name         string  `json:"name" db:"name"`
	Zone         string  `json:"zone" db:"zone"` // storage zone affinity, drives putaway suggestions
	LotTracked   bool    `json:"lot_tracked" db:"lot_tracked"`
	ForwardSlot  *string `json:"forward_slot,omitempty" db:"forward_slot"` // fixed pick-face location code, if any
	ReplenishMin int     `json:"replenish_min" db:"replenish_min"`
	ReplenishMax int     `json:"replenish_max" db:"replenish_max"`
}
