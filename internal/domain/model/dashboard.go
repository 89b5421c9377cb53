package model

import "time"

// DashboardStats is the payload of GET /dashboard/stats/.
type DashboardStats struct {
	TotalInventoryItems int    `json:"total_inventory_items"`
	TodaySales          string `json:"today_sales"`
	OutOfStockItems     int    `json:"out_of_stock_items"`
	LowStockItems       int    `json:"low_stock_items"`
}

// RecentSale is a row of GET /dashboard/recent-sales/.
type RecentSale struct {
	ID         int64     `json:"id"`
	ItemName   string    `json:"item_name"`
	OutletName string    `json:"outlet_name"`
	Quantity   int       `json:"quantity"`
	TotalPrice string    `json:"total_price"`
	Timestamp  time.Time `json:"timestamp"`
}
