package model

// Outlet is a physical branch where sales happen.
type Outlet struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	TotalSales string `json:"total_sales"`
}

// RowID returns the upstream identifier.
func (o Outlet) RowID() int64 { return o.ID }

// NewOutlet is the create payload for POST /outlets/.
type NewOutlet struct {
	Name     string `json:"name" validate:"required,max=120"`
	Location string `json:"location" validate:"required,max=200"`
}
