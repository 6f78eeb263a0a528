package models

// Location is a physical slot on the warehouse floor. Zone/Aisle/Rack give
// the walk order used when pick lines are sorted.
type Location struct {
	ID           string `json:"id" db:"id"`
	Code         string `json:"code" db:"code"`
	WarehouseID  string `json:"warehouse_id" db:"warehouse_id"`
	Zone         string `json:"zone" db:"zone"`
	Aisle        string `json:"aisle" db:"aisle"`
	Rack         string `json:"rack" db:"rack"`
	IsOccupied   bool   `json:"is_occupied" db:"is_occupied"`
	MixedAllowed bool   `json:"mixed_allowed" db:"mixed_allowed"`
	Capacity     *int   `json:"capacity,omitempty" db:"capacity"`
}
