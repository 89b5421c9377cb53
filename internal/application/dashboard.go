package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

const (
	dashboardStatsEndpoint       = "/dashboard/stats/"
	dashboardRecentSalesEndpoint = "/dashboard/recent-sales/"
)

// Dashboard is the landing page content.
type Dashboard struct {
	Stats       model.DashboardStats  `json:"stats"`
	RecentSales []model.RecentSale    `json:"recent_sales"`
	LowStock    []model.InventoryItem `json:"low_stock"`
}

// DashboardService assembles the dashboard from three upstream reads.
type DashboardService struct {
	api    driven.ResourceAPI
	logger *slog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(api driven.ResourceAPI, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{api: api, logger: logger}
}

// Load fetches stats, recent sales and inventory concurrently. Low stock
// items are those flagged by the server or at their minimum quantity.
func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	var inventory []model.InventoryItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.api.FetchObject(gctx, dashboardStatsEndpoint, &d.Stats); err != nil {
			return fmt.Errorf("load dashboard stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.api.FetchCollection(gctx, dashboardRecentSalesEndpoint, nil, &d.RecentSales); err != nil {
			return fmt.Errorf("load recent sales: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.api.FetchCollection(gctx, InventoryEndpoint, nil, &inventory); err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.LowStock = LowStock(inventory)
	s.logger.Debug("dashboard loaded", "recent_sales", len(d.RecentSales), "low_stock", len(d.LowStock))
	return &d, nil
}

// LowStock filters the items that need restocking, keeping their order.
func LowStock(items []model.InventoryItem) []model.InventoryItem {
	out := make([]model.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.NeedsRestock() {
			out = append(out, item)
		}
	}
	return out
}
