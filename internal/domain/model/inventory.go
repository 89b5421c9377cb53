package model

// InventoryItem is a stock-keeping row as returned by GET /inventory/.
// Prices travel as decimal strings so the upstream formatting is preserved.
type InventoryItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Category     int64  `json:"category"`
	CategoryName string `json:"category_name"`
	Quantity     int    `json:"quantity"`
	MinQuantity  int    `json:"min_quantity"`
	Unit         string `json:"unit"`
	CostPrice    string `json:"cost_price"`
	SellingPrice string `json:"selling_price"`
	IsLowStock   bool   `json:"is_low_stock"`
	IsOutOfStock bool   `json:"is_out_of_stock"`
}

// RowID returns the upstream identifier.
func (i InventoryItem) RowID() int64 { return i.ID }

// NeedsRestock reports whether the item is flagged low by the server or has
// fallen to its minimum quantity.
func (i InventoryItem) NeedsRestock() bool {
	return i.IsLowStock || i.Quantity <= i.MinQuantity
}

// NewInventoryItem is the create payload for POST /inventory/.
type NewInventoryItem struct {
	Name         string `json:"name" validate:"required,max=120"`
	Category     int64  `json:"category" validate:"required,gt=0"`
	Quantity     int    `json:"quantity" validate:"gte=0"`
	MinQuantity  int    `json:"min_quantity" validate:"gte=0"`
	Unit         string `json:"unit" validate:"required,max=20"`
	CostPrice    string `json:"cost_price" validate:"required,numeric"`
	SellingPrice string `json:"selling_price" validate:"required,numeric"`
}
