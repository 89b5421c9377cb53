package application_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/smartqpanel/internal/application"
	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

func cellByKey(t *testing.T, row application.TableRow, key string) application.Cell {
	t.Helper()
	for _, c := range row.Cells {
		if c.Key == key {
			return c
		}
	}
	t.Fatalf("cell %q not found", key)
	return application.Cell{}
}

func rowByID(t *testing.T, table application.Table, id int64) application.TableRow {
	t.Helper()
	for _, r := range table.Rows {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("row %d not found", id)
	return application.TableRow{}
}

func TestOutletSave_EchoUpdatesRowAndExitsEdit(t *testing.T) {
	api := newMockAPI()
	api.setCollection(application.OutletsEndpoint, sampleOutlets())
	cat := application.NewCatalog(api, nil)
	ctx := context.Background()

	require.NoError(t, cat.Outlets.Load(ctx))
	require.NoError(t, cat.Outlets.BeginEdit(3))
	require.NoError(t, cat.Outlets.SetField(3, "name", "Lekki Branch"))
	require.NoError(t, cat.Outlets.SetField(3, "location", "Lagos"))

	require.NoError(t, cat.Outlets.Save(ctx, 3))

	require.Len(t, api.updates, 1)
	assert.Equal(t, application.OutletsEndpoint, api.updates[0].Endpoint)
	assert.Equal(t, int64(3), api.updates[0].ID)

	row := rowByID(t, cat.Outlets.Table(), 3)
	assert.Equal(t, application.RowViewing, row.State)
	assert.Equal(t, "Lekki Branch", cellByKey(t, row, "name").Display)
	assert.Equal(t, "Lagos", cellByKey(t, row, "location").Display)

	baseline, _ := cat.Outlets.Collection().Baseline(3)
	assert.Equal(t, api.updates[0].Payload, baseline)
}

func TestOutletSave_ServerResponseIsAuthoritative(t *testing.T) {
	api := newMockAPI()
	api.setCollection(application.OutletsEndpoint, sampleOutlets())
	api.updateFn = func(_ string, id int64, _ any) (any, error) {
		return model.Outlet{ID: id, Name: "Lekki", Location: "Lagos", TotalSales: "1200.00"}, nil
	}
	cat := application.NewCatalog(api, nil)
	ctx := context.Background()

	require.NoError(t, cat.Outlets.Load(ctx))
	require.NoError(t, cat.Outlets.BeginEdit(3))
	require.NoError(t, cat.Outlets.SetField(3, "name", "  Lekki "))

	require.NoError(t, cat.Outlets.Save(ctx, 3))

	baseline, _ := cat.Outlets.Collection().Baseline(3)
	assert.Equal(t, model.Outlet{ID: 3, Name: "Lekki", Location: "Lagos", TotalSales: "1200.00"}, baseline)
	row := rowByID(t, cat.Outlets.Table(), 3)
	assert.Equal(t, "1200.00", cellByKey(t, row, "total_sales").Raw)
}

func TestOutletSave_EmptyResponseKeepsSentRow(t *testing.T) {
	api := newMockAPI()
	api.setCollection(application.OutletsEndpoint, sampleOutlets())
	api.updateFn = func(string, int64, any) (any, error) {
		return map[string]any{}, nil
	}
	cat := application.NewCatalog(api, nil)
	ctx := context.Background()

	require.NoError(t, cat.Outlets.Load(ctx))
	require.NoError(t, cat.Outlets.BeginEdit(3))
	require.NoError(t, cat.Outlets.SetField(3, "name", "Lekki Branch"))

	require.NoError(t, cat.Outlets.Save(ctx, 3))

	baseline, _ := cat.Outlets.Collection().Baseline(3)
	assert.Equal(t, model.Outlet{ID: 3, Name: "Lekki Branch", Location: "Lagos", TotalSales: "1000.00"}, baseline)
}

func TestOutletSave_ServerErrorKeepsEditMode(t *testing.T) {
	api := newMockAPI()
	api.setCollection(application.OutletsEndpoint, sampleOutlets())
	api.updateFn = func(string, int64, any) (any, error) {
		return nil, &driven.HTTPError{Method: http.MethodPut, Path: "/outlets/3", Status: http.StatusInternalServerError}
	}
	cat := application.NewCatalog(api, nil)
	ctx := context.Background()

	require.NoError(t, cat.Outlets.Load(ctx))
	require.NoError(t, cat.Outlets.BeginEdit(3))
	require.NoError(t, cat.Outlets.SetField(3, "name", "Lekki Branch"))

	err := cat.Outlets.Save(ctx, 3)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, driven.StatusOf(err))

	row := rowByID(t, cat.Outlets.Table(), 3)
	assert.Equal(t, application.RowEditing, row.State)
	assert.True(t, row.Editing())
	assert.Equal(t, "Lekki Branch", cellByKey(t, row, "name").Raw)
}

func TestResourceConfirmDelete_ReloadsCollection(t *testing.T) {
	api := newMockAPI()
	api.setCollection(application.OutletsEndpoint, sampleOutlets())
	cat := application.NewCatalog(api, nil)
	ctx := context.Background()

	require.NoError(t, cat.Outlets.Load(ctx))
	require.NoError(t, cat.Outlets.RequestDelete(5))

	label, ok := cat.Outlets.PendingDeleteLabel()
	require.True(t, ok)
	assert.Equal(t, "Wuse", label)
	assert.Equal(t, "Wuse", cat.Outlets.Table().PendingDelete)

	remaining := sampleOutlets()
	api.setCollection(application.OutletsEndpoint, []model.Outlet{remaining[0], remaining[2]})

	id, err := cat.Outlets.ConfirmDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, []int64{5}, api.deletes)
	assert.Equal(t, 2, api.calls(application.OutletsEndpoint))

	table := cat.Outlets.Table()
	require.Len(t, table.Rows, 2)
	assert.Equal(t, int64(3), table.Rows[0].ID)
	assert.Equal(t, int64(8), table.Rows[1].ID)
	assert.Empty(t, table.PendingDelete)
}

func TestResourceLoad_ErrorThenRetry(t *testing.T) {
	api := newMockAPI()
	api.fetchErr[application.CategoriesEndpoint] = &driven.NetworkError{Method: http.MethodGet, Path: "/categories/", Err: errors.New("connection refused")}
	cat := application.NewCatalog(api, nil)
	ctx := context.Background()

	err := cat.Categories.Load(ctx)
	var netErr *driven.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Error(t, cat.Categories.Table().Err)

	delete(api.fetchErr, application.CategoriesEndpoint)
	require.NoError(t, cat.Categories.Load(ctx))

	table := cat.Categories.Table()
	assert.NoError(t, table.Err)
	assert.True(t, table.Empty())
}

func TestResourceCreate_ValidationBlocksNetwork(t *testing.T) {
	api := newMockAPI()
	cat := application.NewCatalog(api, nil)

	err := cat.Categories.Create(context.Background(), map[string]string{"name": "  "})

	var verr *application.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This field is required.", verr.Fields["name"])
	assert.Empty(t, api.creates)
}

func TestResourceCreate_ConversionErrors(t *testing.T) {
	api := newMockAPI()
	cat := application.NewCatalog(api, nil)

	err := cat.Sales.Create(context.Background(), map[string]string{
		"outlet":      "abc",
		"item":        "2",
		"quantity":    "two",
		"total_price": "300",
	})

	var verr *application.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "outlet")
	assert.Contains(t, verr.Fields, "quantity")
	assert.Empty(t, api.creates)
}

func TestResourceCreate_PostsAndReloads(t *testing.T) {
	api := newMockAPI()
	cat := application.NewCatalog(api, nil)

	err := cat.Outlets.Create(context.Background(), map[string]string{"name": "Lekki Branch", "location": "Lagos"})
	require.NoError(t, err)

	require.Len(t, api.creates, 1)
	assert.Equal(t, model.NewOutlet{Name: "Lekki Branch", Location: "Lagos"}, api.creates[0])
	assert.Equal(t, 1, api.calls(application.OutletsEndpoint))
}

func TestResourceCapabilities(t *testing.T) {
	api := newMockAPI()
	api.setCollection(application.SalesEndpoint, []model.Sale{{ID: 1, ItemName: "Rice", Quantity: 2}})
	cat := application.NewCatalog(api, nil)
	ctx := context.Background()

	require.NoError(t, cat.Sales.Load(ctx))
	assert.ErrorIs(t, cat.Sales.BeginEdit(1), application.ErrNotSupported)
	assert.ErrorIs(t, cat.Sales.RequestDelete(1), application.ErrNotSupported)
	assert.ErrorIs(t, cat.Users.Create(ctx, map[string]string{}), application.ErrNotSupported)

	page, ok := cat.Page("users")
	require.True(t, ok)
	assert.Equal(t, "Users", page.Title())
	_, ok = cat.Page("nope")
	assert.False(t, ok)
	assert.Len(t, cat.Pages(), 6)
}

func TestInventorySelectColumn_OptionStates(t *testing.T) {
	api := newMockAPI()
	api.setCollection(application.InventoryEndpoint, []model.InventoryItem{
		{ID: 1, Name: "Rice", Category: 2, CategoryName: "Grains", Quantity: 3, MinQuantity: 5},
	})
	cat := application.NewCatalog(api, nil)
	ctx := context.Background()

	// Before any load the category source is still loading.
	state, _ := cat.Inventory.Form().Fields[1].OptionsSnapshot()
	assert.Equal(t, application.OptionsLoading, state)

	api.fetchErr[application.CategoriesEndpoint] = errors.New("boom")
	require.NoError(t, cat.Inventory.Load(ctx), "option failures do not fail the page")

	cell := cellByKey(t, rowByID(t, cat.Inventory.Table(), 1), "category")
	assert.Equal(t, application.OptionsFailed, cell.OptionState)
	assert.Equal(t, "Grains", cell.Display)

	delete(api.fetchErr, application.CategoriesEndpoint)
	require.NoError(t, cat.Inventory.Load(ctx))
	cell = cellByKey(t, rowByID(t, cat.Inventory.Table(), 1), "category")
	assert.Equal(t, application.OptionsReady, cell.OptionState)
	assert.Empty(t, cell.Options)

	api.setCollection(application.CategoriesEndpoint, []model.Category{{ID: 2, Name: "Grains"}, {ID: 4, Name: "Oils"}})
	require.NoError(t, cat.Inventory.Load(ctx))
	require.NoError(t, cat.Inventory.BeginEdit(1))
	require.NoError(t, cat.Inventory.SetField(1, "category", "4"))

	row := rowByID(t, cat.Inventory.Table(), 1)
	assert.Equal(t, "Oils", cellByKey(t, row, "category").Display)
	assert.Equal(t, "Low stock", cellByKey(t, row, "status").Display)
	assert.Equal(t, "warn", cellByKey(t, row, "status").Tone)

	var verr *application.ValidationError
	require.ErrorAs(t, cat.Inventory.SetField(1, "category", "99"), &verr)
}

func TestOptionSource_StaticAndLookup(t *testing.T) {
	src := application.StaticOptions(application.Option{Value: "manager", Label: "Manager"})
	require.NoError(t, src.Refresh(context.Background()))

	state, opts := src.Snapshot()
	assert.Equal(t, application.OptionsReady, state)
	assert.Len(t, opts, 1)

	opt, ok := src.Lookup("manager")
	assert.True(t, ok)
	assert.Equal(t, "Manager", opt.Label)

	pending := application.NewOptionSource(func(context.Context) ([]application.Option, error) { return nil, nil })
	_, ok = pending.Lookup("x")
	assert.False(t, ok)
}
