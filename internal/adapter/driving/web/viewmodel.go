package web

import (
	"strconv"

	"github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web/templates/components"
	vm "github.com/ericfisherdev/smartqpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/smartqpanel/internal/application"
)

// resourcePath returns /app/{resource} with optional sub-path segments.
func resourcePath(resource string, parts ...string) string {
	p := "/app/" + resource
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func rowPath(resource string, id int64, action string) string {
	return resourcePath(resource, "rows", strconv.FormatInt(id, 10), action)
}

// toNavViewModel builds the navbar from the session and the page catalog.
func toNavViewModel(info application.SessionInfo, pages []application.Page, active, csrf string) vm.NavViewModel {
	nav := vm.NavViewModel{
		SignedIn:  info.SignedIn(),
		CSRFToken: csrf,
		Links:     make([]vm.NavLink, 0, len(pages)+1),
	}
	if info.Profile != nil {
		nav.DisplayName = info.Profile.DisplayName()
		nav.Role = string(info.Profile.Role)
	}

	nav.Links = append(nav.Links, vm.NavLink{Label: "Dashboard", Path: "/", Active: active == ""})
	for _, p := range pages {
		nav.Links = append(nav.Links, vm.NavLink{
			Label:  p.Title(),
			Path:   resourcePath(p.Name()),
			Active: active == p.Name(),
		})
	}
	return nav
}

// toPageViewModel builds a resource page shell with an empty create form.
func toPageViewModel(page application.Page, csrf string) vm.PageViewModel {
	pvm := vm.PageViewModel{
		Name:     page.Name(),
		Title:    page.Title(),
		TableURL: resourcePath(page.Name(), "table"),
	}
	if page.Caps().Create && page.Form() != nil {
		f := toFormViewModel(page, nil, nil, csrf)
		pvm.Form = &f
	}
	return pvm
}

// toTableViewModel converts a collection projection into a table view model.
func toTableViewModel(t application.Table) vm.TableViewModel {
	tvm := vm.TableViewModel{
		Resource:   t.Resource,
		Title:      t.Title,
		TableURL:   resourcePath(t.Resource, "table"),
		Columns:    make([]vm.ColumnViewModel, 0, len(t.Columns)),
		Rows:       make([]vm.RowViewModel, 0, len(t.Rows)),
		HasActions: t.Caps.Edit || t.Caps.Delete,
		Empty:      t.Empty(),
	}
	for _, c := range t.Columns {
		tvm.Columns = append(tvm.Columns, vm.ColumnViewModel{Key: c.Key, Label: c.Label, Kind: string(c.Kind)})
	}
	for _, r := range t.Rows {
		tvm.Rows = append(tvm.Rows, toRowViewModel(t.Resource, t.Caps, r, nil))
	}
	return tvm
}

// toRowViewModel converts one row. errs attaches field messages to cells.
func toRowViewModel(resource string, caps application.Capabilities, r application.TableRow, errs map[string]string) vm.RowViewModel {
	row := vm.RowViewModel{
		ID:         r.ID,
		DOMID:      components.RowDOMID(resource, r.ID),
		Label:      r.Label,
		Editing:    r.Editing(),
		Committing: r.State == application.RowCommitting,
		CanEdit:    caps.Edit,
		CanDelete:  caps.Delete,
		Cells:      make([]vm.CellViewModel, 0, len(r.Cells)),
		EditURL:    rowPath(resource, r.ID, "edit"),
		CancelURL:  rowPath(resource, r.ID, "cancel"),
		SaveURL:    rowPath(resource, r.ID, "save"),
		FieldURL:   rowPath(resource, r.ID, "field"),
		DeleteURL:  rowPath(resource, r.ID, "delete"),
	}
	for _, c := range r.Cells {
		row.Cells = append(row.Cells, vm.CellViewModel{
			Key:         c.Key,
			Kind:        string(c.Kind),
			Display:     c.Display,
			Raw:         c.Raw,
			Tone:        c.Tone,
			Editable:    c.Editable,
			Step:        c.Step,
			OptionState: string(c.OptionState),
			Options:     toOptionViewModels(c.Options, c.Raw),
			Error:       errs[c.Key],
		})
	}
	return row
}

func toOptionViewModels(options []application.Option, selected string) []vm.OptionViewModel {
	if len(options) == 0 {
		return nil
	}
	vms := make([]vm.OptionViewModel, 0, len(options))
	for _, o := range options {
		vms = append(vms, vm.OptionViewModel{
			Value:    o.Value,
			Label:    o.Label,
			Selected: selected != "" && o.Value == selected,
		})
	}
	return vms
}

// toFormViewModel builds the create form of page, refilled with values and
// annotated with errs after a rejected submit.
func toFormViewModel(page application.Page, values, errs map[string]string, csrf string) vm.FormViewModel {
	form := page.Form()
	fvm := vm.FormViewModel{
		Action:    resourcePath(page.Name()),
		Title:     "Add " + singular(page.Title()),
		CSRFToken: csrf,
		Fields:    make([]vm.FormFieldViewModel, 0, len(form.Fields)),
	}
	for _, f := range form.Fields {
		state, options := f.OptionsSnapshot()
		fvm.Fields = append(fvm.Fields, vm.FormFieldViewModel{
			Name:        f.Name,
			Label:       f.Label,
			Kind:        string(f.Kind),
			Value:       values[f.Name],
			Placeholder: f.Placeholder,
			Step:        f.Step,
			OptionState: string(state),
			Options:     toOptionViewModels(options, values[f.Name]),
			Error:       errs[f.Name],
		})
	}
	return fvm
}

// singular turns a page title into the noun of its create form.
func singular(title string) string {
	switch title {
	case "Inventory":
		return "Item"
	case "Categories":
		return "Category"
	}
	if n := len(title); n > 1 && title[n-1] == 's' {
		return title[:n-1]
	}
	return title
}

// toDashboardViewModel converts the dashboard content.
func toDashboardViewModel(d *application.Dashboard) vm.DashboardViewModel {
	dvm := vm.DashboardViewModel{
		Stats: []vm.StatCardViewModel{
			{Label: "Total Items", Value: strconv.Itoa(d.Stats.TotalInventoryItems), Tone: "info"},
			{Label: "Today's Sales", Value: d.Stats.TodaySales, Tone: "ok"},
			{Label: "Low Stock", Value: strconv.Itoa(d.Stats.LowStockItems), Tone: "warn"},
			{Label: "Out of Stock", Value: strconv.Itoa(d.Stats.OutOfStockItems), Tone: "danger"},
		},
		RecentSales: make([]vm.RecentSaleViewModel, 0, len(d.RecentSales)),
		LowStock:    make([]vm.LowStockViewModel, 0, len(d.LowStock)),
	}
	for _, s := range d.RecentSales {
		dvm.RecentSales = append(dvm.RecentSales, vm.RecentSaleViewModel{
			ItemName:   s.ItemName,
			OutletName: s.OutletName,
			Quantity:   s.Quantity,
			TotalPrice: s.TotalPrice,
			Timestamp:  application.FormatTimestamp(s.Timestamp),
		})
	}
	for _, item := range d.LowStock {
		dvm.LowStock = append(dvm.LowStock, vm.LowStockViewModel{
			Name:        item.Name,
			Quantity:    item.Quantity,
			MinQuantity: item.MinQuantity,
			Unit:        item.Unit,
			Status:      application.StockStatus(item),
			Tone:        application.StockTone(item),
		})
	}
	return dvm
}
