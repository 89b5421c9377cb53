package model

import "time"

// Purchase is a restocking of an inventory item from a supplier.
type Purchase struct {
	ID         int64     `json:"id"`
	Item       int64     `json:"item"`
	ItemName   string    `json:"item_name"`
	Outlet     int64     `json:"outlet"`
	OutletName string    `json:"outlet_name"`
	Quantity   int       `json:"quantity"`
	TotalCost  string    `json:"total_cost"`
	Supplier   string    `json:"supplier"`
	Timestamp  time.Time `json:"timestamp"`
}

// RowID returns the upstream identifier.
func (p Purchase) RowID() int64 { return p.ID }

// NewPurchase is the create payload for POST /purchases/.
type NewPurchase struct {
	Outlet    int64  `json:"outlet" validate:"required,gt=0"`
	Item      int64  `json:"item" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	TotalCost string `json:"total_cost" validate:"required,numeric"`
	Supplier  string `json:"supplier" validate:"max=120"`
}
