package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/smartqpanel/internal/application"
	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
)

func outletColumns() []application.Column[model.Outlet] {
	return []application.Column[model.Outlet]{
		application.TextColumn("name", "Name",
			func(o model.Outlet) string { return o.Name },
			func(o *model.Outlet, v string) { o.Name = v }).Required(),
		application.TextColumn("location", "Location",
			func(o model.Outlet) string { return o.Location },
			func(o *model.Outlet, v string) { o.Location = v }),
		application.ReadOnlyColumn("total_sales", "Total Sales",
			func(o model.Outlet) string { return o.TotalSales }),
	}
}

func sampleOutlets() []model.Outlet {
	return []model.Outlet{
		{ID: 3, Name: "Ikeja", Location: "Lagos", TotalSales: "1000.00"},
		{ID: 5, Name: "Wuse", Location: "Abuja", TotalSales: "250.00"},
		{ID: 8, Name: "Ring Road", Location: "Ibadan", TotalSales: "0.00"},
	}
}

func loadedOutlets(t *testing.T) *application.EditableCollection[model.Outlet] {
	t.Helper()
	c := application.NewEditableCollection(outletColumns()...)
	require.True(t, c.Apply(c.StartLoad(), sampleOutlets()))
	return c
}

func rowsOf(c *application.EditableCollection[model.Outlet]) []model.Outlet {
	v := c.View()
	out := make([]model.Outlet, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Row
	}
	return out
}

func stateOf(t *testing.T, c *application.EditableCollection[model.Outlet], id int64) application.RowState {
	t.Helper()
	rv, ok := c.Row(id)
	require.True(t, ok)
	return rv.State
}

func TestEditableCollection_EditThenCancelRestoresValues(t *testing.T) {
	c := loadedOutlets(t)
	before := rowsOf(c)

	require.NoError(t, c.BeginEdit(3))
	require.NoError(t, c.SetField(3, "name", "Lekki Branch"))
	require.NoError(t, c.SetField(3, "location", "Lekki"))
	require.NoError(t, c.CancelEdit(3))

	assert.Equal(t, before, rowsOf(c))
	assert.Equal(t, application.RowViewing, stateOf(t, c, 3))
}

func TestEditableCollection_BeginEditIsIdempotent(t *testing.T) {
	c := loadedOutlets(t)

	require.NoError(t, c.BeginEdit(5))
	require.NoError(t, c.SetField(5, "name", "Wuse II"))
	require.NoError(t, c.BeginEdit(5))

	rv, _ := c.Row(5)
	assert.Equal(t, "Wuse II", rv.Row.Name, "second BeginEdit keeps in-progress values")
	assert.Equal(t, application.RowEditing, rv.State)
}

func TestEditableCollection_SetFieldRequiresEditing(t *testing.T) {
	c := loadedOutlets(t)

	assert.ErrorIs(t, c.SetField(3, "name", "x"), application.ErrNotEditing)
	assert.ErrorIs(t, c.BeginEdit(99), application.ErrRowNotFound)

	require.NoError(t, c.BeginEdit(3))
	assert.ErrorIs(t, c.SetField(3, "total_sales", "5"), application.ErrReadOnlyColumn)
}

func TestEditableCollection_InvalidInputLeavesWorkingCopy(t *testing.T) {
	c := application.NewEditableCollection(
		application.IntColumn("quantity", "Quantity",
			func(i model.InventoryItem) int { return i.Quantity },
			func(i *model.InventoryItem, v int) { i.Quantity = v }),
	)
	require.True(t, c.Apply(c.StartLoad(), []model.InventoryItem{{ID: 1, Name: "Rice", Quantity: 4}}))
	require.NoError(t, c.BeginEdit(1))

	err := c.SetField(1, "quantity", "four")

	var verr *application.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "quantity")

	rv, _ := c.Row(1)
	assert.Equal(t, 4, rv.Row.Quantity)
}

func TestEditableCollection_DecimalColumnInput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{name: "whole amount", raw: "1500", want: "1500"},
		{name: "two decimals", raw: " 1500.50 ", want: "1500.50"},
		{name: "negative", raw: "-2", wantErr: "Must be 0 or more."},
		{name: "word", raw: "cheap", wantErr: "Enter a number."},
		{name: "NaN", raw: "NaN", wantErr: "Enter a number."},
		{name: "infinity", raw: "Inf", wantErr: "Enter a number."},
		{name: "exponent", raw: "1e3", wantErr: "Enter a number."},
		{name: "hex float", raw: "0x1p-2", wantErr: "Enter a number."},
		{name: "trailing dot", raw: "12.", wantErr: "Enter a number."},
		{name: "blank", raw: "  ", wantErr: "Enter a number."},
		{name: "plus sign", raw: "+5", wantErr: "Enter a number."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := application.NewEditableCollection(
				application.DecimalColumn("selling_price", "Selling Price",
					func(i model.InventoryItem) string { return i.SellingPrice },
					func(i *model.InventoryItem, v string) { i.SellingPrice = v }),
			)
			require.True(t, c.Apply(c.StartLoad(), []model.InventoryItem{{ID: 1, Name: "Rice", SellingPrice: "900.00"}}))
			require.NoError(t, c.BeginEdit(1))

			err := c.SetField(1, "selling_price", tt.raw)

			rv, _ := c.Row(1)
			if tt.wantErr != "" {
				var verr *application.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantErr, verr.Fields["selling_price"])
				assert.Equal(t, "900.00", rv.Row.SellingPrice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rv.Row.SellingPrice)
		})
	}
}

func TestEditableCollection_RequiredColumnRejectsBlank(t *testing.T) {
	c := loadedOutlets(t)
	require.NoError(t, c.BeginEdit(3))

	var verr *application.ValidationError
	require.ErrorAs(t, c.SetField(3, "name", "   "), &verr)

	rv, _ := c.Row(3)
	assert.Equal(t, "Ikeja", rv.Row.Name)
}

func TestEditableCollection_CommitSuccessBaselineEqualsPayload(t *testing.T) {
	c := loadedOutlets(t)
	require.NoError(t, c.BeginEdit(3))
	require.NoError(t, c.SetField(3, "name", "Lekki Branch"))

	var sent model.Outlet
	saved, err := c.Commit(context.Background(), 3, func(_ context.Context, row model.Outlet) (model.Outlet, error) {
		sent = row
		return row, nil
	})
	require.NoError(t, err)

	baseline, ok := c.Baseline(3)
	require.True(t, ok)
	assert.Equal(t, sent, baseline)
	assert.Equal(t, sent, saved)
	assert.Equal(t, "Lekki Branch", baseline.Name)
	assert.Equal(t, application.RowViewing, stateOf(t, c, 3))
}

func TestEditableCollection_CommitFailureKeepsEditing(t *testing.T) {
	c := loadedOutlets(t)
	require.NoError(t, c.BeginEdit(3))
	require.NoError(t, c.SetField(3, "name", "Lekki Branch"))

	boom := errors.New("status 500")
	_, err := c.Commit(context.Background(), 3, func(context.Context, model.Outlet) (model.Outlet, error) {
		return model.Outlet{}, boom
	})
	require.ErrorIs(t, err, boom)

	rv, _ := c.Row(3)
	assert.Equal(t, application.RowEditing, rv.State)
	assert.Equal(t, "Lekki Branch", rv.Row.Name, "user input retained")

	baseline, _ := c.Baseline(3)
	assert.Equal(t, "Ikeja", baseline.Name)
}

func TestEditableCollection_RowBusyWhileCommitting(t *testing.T) {
	c := loadedOutlets(t)
	require.NoError(t, c.BeginEdit(3))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.Commit(context.Background(), 3, func(_ context.Context, row model.Outlet) (model.Outlet, error) {
			close(started)
			<-release
			return row, nil
		})
		done <- err
	}()
	<-started

	assert.Equal(t, application.RowCommitting, stateOf(t, c, 3))
	assert.ErrorIs(t, c.BeginEdit(3), application.ErrRowBusy)
	assert.ErrorIs(t, c.SetField(3, "name", "x"), application.ErrRowBusy)
	assert.ErrorIs(t, c.CancelEdit(3), application.ErrRowBusy)
	assert.ErrorIs(t, c.RequestDelete(3), application.ErrRowBusy)
	_, err := c.Commit(context.Background(), 3, func(_ context.Context, row model.Outlet) (model.Outlet, error) {
		return row, nil
	})
	assert.ErrorIs(t, err, application.ErrRowBusy)

	// Other rows stay usable while row 3 is saving.
	require.NoError(t, c.BeginEdit(5))
	require.NoError(t, c.SetField(5, "name", "Wuse II"))

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("commit did not finish")
	}
	assert.Equal(t, application.RowViewing, stateOf(t, c, 3))
}

func TestEditableCollection_DeletePreservesOrder(t *testing.T) {
	c := loadedOutlets(t)

	require.NoError(t, c.RequestDelete(5))
	target, ok := c.PendingDelete()
	require.True(t, ok)
	assert.Equal(t, int64(5), target.ID)

	var deleted int64
	id, err := c.ConfirmDelete(context.Background(), func(_ context.Context, id int64) error {
		deleted = id
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, int64(5), deleted)

	rows := rowsOf(c)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].ID)
	assert.Equal(t, int64(8), rows[1].ID)

	_, ok = c.PendingDelete()
	assert.False(t, ok)
	_, ok = c.Baseline(5)
	assert.False(t, ok)
}

func TestEditableCollection_DeleteFailureKeepsRowAndClearsTarget(t *testing.T) {
	c := loadedOutlets(t)
	require.NoError(t, c.RequestDelete(8))

	boom := errors.New("status 409")
	_, err := c.ConfirmDelete(context.Background(), func(context.Context, int64) error { return boom })
	require.ErrorIs(t, err, boom)

	assert.Len(t, rowsOf(c), 3)
	_, ok := c.PendingDelete()
	assert.False(t, ok)
}

func TestEditableCollection_RequestDeleteReplacesTarget(t *testing.T) {
	c := loadedOutlets(t)
	require.NoError(t, c.RequestDelete(3))
	require.NoError(t, c.RequestDelete(8))

	target, ok := c.PendingDelete()
	require.True(t, ok)
	assert.Equal(t, int64(8), target.ID)

	c.CancelDelete()
	_, ok = c.PendingDelete()
	assert.False(t, ok)

	_, err := c.ConfirmDelete(context.Background(), func(context.Context, int64) error { return nil })
	assert.ErrorIs(t, err, application.ErrNoPendingDelete)
}

func TestEditableCollection_IdenticalRefetchKeepsEdits(t *testing.T) {
	c := loadedOutlets(t)
	require.NoError(t, c.BeginEdit(3))
	require.NoError(t, c.SetField(3, "name", "Lekki Branch"))

	require.True(t, c.Apply(c.StartLoad(), sampleOutlets()))

	rv, _ := c.Row(3)
	assert.Equal(t, application.RowEditing, rv.State)
	assert.Equal(t, "Lekki Branch", rv.Row.Name)
}

func TestEditableCollection_ChangedRefetchReplacesAndDropsEdits(t *testing.T) {
	c := loadedOutlets(t)
	require.NoError(t, c.BeginEdit(3))
	require.NoError(t, c.SetField(3, "name", "Lekki Branch"))

	changed := sampleOutlets()
	changed[1].TotalSales = "300.00"
	require.True(t, c.Apply(c.StartLoad(), changed))

	rv, _ := c.Row(3)
	assert.Equal(t, application.RowViewing, rv.State)
	assert.Equal(t, "Ikeja", rv.Row.Name)
	assert.Equal(t, changed, rowsOf(c))
}

func TestEditableCollection_StaleResponseDropped(t *testing.T) {
	c := application.NewEditableCollection(outletColumns()...)

	older := c.StartLoad()
	newer := c.StartLoad()

	fresh := sampleOutlets()[:1]
	require.True(t, c.Apply(newer, fresh))
	assert.False(t, c.Apply(older, sampleOutlets()), "late response of an older load is discarded")
	assert.Equal(t, fresh, rowsOf(c))

	c.Fail(older, errors.New("late failure"))
	assert.NoError(t, c.View().Err)
}

func TestEditableCollection_CommitThenIdenticalRefetchKeepsOtherEdits(t *testing.T) {
	c := loadedOutlets(t)

	require.NoError(t, c.BeginEdit(5))
	require.NoError(t, c.SetField(5, "location", "FCT"))

	require.NoError(t, c.BeginEdit(3))
	require.NoError(t, c.SetField(3, "name", "Lekki Branch"))
	_, err := c.Commit(context.Background(), 3, func(_ context.Context, row model.Outlet) (model.Outlet, error) {
		return row, nil
	})
	require.NoError(t, err)

	// The server now returns row 3 as committed; row 5 is mid-edit.
	server := sampleOutlets()
	server[0].Name = "Lekki Branch"
	require.True(t, c.Apply(c.StartLoad(), server))

	rv, _ := c.Row(5)
	assert.Equal(t, application.RowEditing, rv.State)
	assert.Equal(t, "FCT", rv.Row.Location)
}

func TestEditableCollection_EmptyLoad(t *testing.T) {
	c := application.NewEditableCollection(outletColumns()...)
	assert.False(t, c.View().Loaded)

	require.True(t, c.Apply(c.StartLoad(), nil))
	v := c.View()
	assert.True(t, v.Loaded)
	assert.Empty(t, v.Rows)
}
