package models

// Operator is a floor worker account used for login and movement attribution.
type Operator struct {
	ID           string `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
	WarehouseID  string `json:"warehouse_id" db:"warehouse_id"`
}
