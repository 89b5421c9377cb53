package model

import "time"

// Sale is a recorded sale of an inventory item at an outlet.
type Sale struct {
	ID         int64     `json:"id"`
	Item       int64     `json:"item"`
	ItemName   string    `json:"item_name"`
	Outlet     int64     `json:"outlet"`
	OutletName string    `json:"outlet_name"`
	UserName   string    `json:"user_name"`
	Quantity   int       `json:"quantity"`
	TotalPrice string    `json:"total_price"`
	Timestamp  time.Time `json:"timestamp"`
}

// RowID returns the upstream identifier.
func (s Sale) RowID() int64 { return s.ID }

// NewSale is the create payload for POST /sales/.
type NewSale struct {
	Outlet     int64  `json:"outlet" validate:"required,gt=0"`
	Item       int64  `json:"item" validate:"required,gt=0"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	TotalPrice string `json:"total_price" validate:"required,numeric"`
}
