package application

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/ericfisherdev/smartqpanel/internal/domain/model"
	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// Upstream collection endpoints.
const (
	InventoryEndpoint  = "/inventory/"
	CategoriesEndpoint = "/categories/"
	OutletsEndpoint    = "/outlets/"
	SalesEndpoint      = "/sales/"
	PurchasesEndpoint  = "/purchases/"
	UsersEndpoint      = "/users/"
)

const timestampLayout = "Jan 2, 2006 15:04"

// Catalog holds every resource page of the panel in navigation order.
type Catalog struct {
	Inventory  *Resource[model.InventoryItem]
	Categories *Resource[model.Category]
	Outlets    *Resource[model.Outlet]
	Sales      *Resource[model.Sale]
	Purchases  *Resource[model.Purchase]
	Users      *Resource[model.User]

	pages []Page
	index map[string]Page
}

// NewCatalog wires the resource pages to api. Select columns and create
// forms share option sources backed by the categories, outlets and
// inventory collections.
func NewCatalog(api driven.ResourceAPI, logger *slog.Logger) *Catalog {
	categoryOptions := NewOptionSource(collectionOptions(api, CategoriesEndpoint, func(c model.Category) string { return c.Name }))
	outletOptions := NewOptionSource(collectionOptions(api, OutletsEndpoint, func(o model.Outlet) string { return o.Name }))
	itemOptions := NewOptionSource(collectionOptions(api, InventoryEndpoint, func(i model.InventoryItem) string {
		return i.Name + " (" + strconv.Itoa(i.Quantity) + " " + i.Unit + ")"
	}))

	c := &Catalog{
		Inventory:  NewResource(api, inventoryConfig(categoryOptions), logger),
		Categories: NewResource(api, categoriesConfig(), logger),
		Outlets:    NewResource(api, outletsConfig(), logger),
		Sales:      NewResource(api, salesConfig(outletOptions, itemOptions), logger),
		Purchases:  NewResource(api, purchasesConfig(outletOptions, itemOptions), logger),
		Users:      NewResource(api, usersConfig(), logger),
	}
	c.pages = []Page{c.Inventory, c.Categories, c.Outlets, c.Sales, c.Purchases, c.Users}
	c.index = make(map[string]Page, len(c.pages))
	for _, p := range c.pages {
		c.index[p.Name()] = p
	}
	return c
}

// Page looks up a resource page by its URL name.
func (c *Catalog) Page(name string) (Page, bool) {
	p, ok := c.index[name]
	return p, ok
}

// Pages returns the pages in navigation order.
func (c *Catalog) Pages() []Page { return c.pages }

func inventoryConfig(categories *OptionSource) ResourceConfig[model.InventoryItem] {
	return ResourceConfig[model.InventoryItem]{
		Name:     "inventory",
		Title:    "Inventory",
		Endpoint: InventoryEndpoint,
		Caps:     Capabilities{Edit: true, Delete: true, Create: true},
		Label:    func(i model.InventoryItem) string { return i.Name },
		Columns: []Column[model.InventoryItem]{
			TextColumn("name", "Name",
				func(i model.InventoryItem) string { return i.Name },
				func(i *model.InventoryItem, v string) { i.Name = v }).Required(),
			SelectColumn("category", "Category", categories,
				func(i model.InventoryItem) string { return formatID(i.Category) },
				func(i model.InventoryItem) string { return i.CategoryName },
				func(i *model.InventoryItem, o Option) {
					id, _ := parseInt(o.Value)
					i.Category = id
					i.CategoryName = o.Label
				}),
			IntColumn("quantity", "Quantity",
				func(i model.InventoryItem) int { return i.Quantity },
				func(i *model.InventoryItem, v int) { i.Quantity = v }),
			IntColumn("min_quantity", "Min. Qty",
				func(i model.InventoryItem) int { return i.MinQuantity },
				func(i *model.InventoryItem, v int) { i.MinQuantity = v }),
			TextColumn("unit", "Unit",
				func(i model.InventoryItem) string { return i.Unit },
				func(i *model.InventoryItem, v string) { i.Unit = v }).Required(),
			DecimalColumn("cost_price", "Cost Price",
				func(i model.InventoryItem) string { return i.CostPrice },
				func(i *model.InventoryItem, v string) { i.CostPrice = v }),
			DecimalColumn("selling_price", "Selling Price",
				func(i model.InventoryItem) string { return i.SellingPrice },
				func(i *model.InventoryItem, v string) { i.SellingPrice = v }),
			BadgeColumn("status", "Status", StockStatus, StockTone),
		},
		Form: &CreateForm{
			Fields: []FormField{
				{Name: "name", Label: "Name", Kind: ColumnText, Placeholder: "e.g. Rice 50kg"},
				{Name: "category", Label: "Category", Kind: ColumnSelect, Options: categories},
				{Name: "quantity", Label: "Quantity", Kind: ColumnNumber, Step: "1"},
				{Name: "min_quantity", Label: "Minimum Quantity", Kind: ColumnNumber, Step: "1"},
				{Name: "unit", Label: "Unit", Kind: ColumnText, Placeholder: "e.g. bag"},
				{Name: "cost_price", Label: "Cost Price", Kind: ColumnNumber, Step: "0.01"},
				{Name: "selling_price", Label: "Selling Price", Kind: ColumnNumber, Step: "0.01"},
			},
			Build: func(values map[string]string) (any, error) {
				f := &formValues{values: values}
				item := model.NewInventoryItem{
					Name:         f.str("name"),
					Category:     f.id("category"),
					Quantity:     f.integer("quantity"),
					MinQuantity:  f.integer("min_quantity"),
					Unit:         f.str("unit"),
					CostPrice:    f.str("cost_price"),
					SellingPrice: f.str("selling_price"),
				}
				return item, f.err()
			},
		},
	}
}

// StockStatus labels an item's stock level.
func StockStatus(i model.InventoryItem) string {
	switch {
	case i.IsOutOfStock || i.Quantity == 0:
		return "Out of stock"
	case i.NeedsRestock():
		return "Low stock"
	default:
		return "In stock"
	}
}

// StockTone is the badge tone matching StockStatus.
func StockTone(i model.InventoryItem) string {
	switch {
	case i.IsOutOfStock || i.Quantity == 0:
		return "danger"
	case i.NeedsRestock():
		return "warn"
	default:
		return "ok"
	}
}

func categoriesConfig() ResourceConfig[model.Category] {
	return ResourceConfig[model.Category]{
		Name:     "categories",
		Title:    "Categories",
		Endpoint: CategoriesEndpoint,
		Caps:     Capabilities{Edit: true, Delete: true, Create: true},
		Label:    func(c model.Category) string { return c.Name },
		Columns: []Column[model.Category]{
			TextColumn("name", "Name",
				func(c model.Category) string { return c.Name },
				func(c *model.Category, v string) { c.Name = v }).Required(),
		},
		Form: &CreateForm{
			Fields: []FormField{
				{Name: "name", Label: "Category Name", Kind: ColumnText, Placeholder: "e.g. Beverages"},
			},
			Build: func(values map[string]string) (any, error) {
				f := &formValues{values: values}
				return model.NewCategory{Name: f.str("name")}, f.err()
			},
		},
	}
}

func outletsConfig() ResourceConfig[model.Outlet] {
	return ResourceConfig[model.Outlet]{
		Name:     "outlets",
		Title:    "Outlets",
		Endpoint: OutletsEndpoint,
		Caps:     Capabilities{Edit: true, Delete: true, Create: true},
		Label:    func(o model.Outlet) string { return o.Name },
		Columns: []Column[model.Outlet]{
			TextColumn("name", "Name",
				func(o model.Outlet) string { return o.Name },
				func(o *model.Outlet, v string) { o.Name = v }).Required(),
			TextColumn("location", "Location",
				func(o model.Outlet) string { return o.Location },
				func(o *model.Outlet, v string) { o.Location = v }).Required(),
			ReadOnlyColumn("total_sales", "Total Sales", func(o model.Outlet) string { return o.TotalSales }),
		},
		Form: &CreateForm{
			Fields: []FormField{
				{Name: "name", Label: "Outlet Name", Kind: ColumnText, Placeholder: "e.g. Lekki Branch"},
				{Name: "location", Label: "Location", Kind: ColumnText, Placeholder: "e.g. Lagos"},
			},
			Build: func(values map[string]string) (any, error) {
				f := &formValues{values: values}
				return model.NewOutlet{Name: f.str("name"), Location: f.str("location")}, f.err()
			},
		},
	}
}

func salesConfig(outlets, items *OptionSource) ResourceConfig[model.Sale] {
	return ResourceConfig[model.Sale]{
		Name:     "sales",
		Title:    "Sales",
		Endpoint: SalesEndpoint,
		Caps:     Capabilities{Create: true},
		Columns: []Column[model.Sale]{
			ReadOnlyColumn("item_name", "Item", func(s model.Sale) string { return s.ItemName }),
			ReadOnlyColumn("outlet_name", "Outlet", func(s model.Sale) string { return s.OutletName }),
			ReadOnlyColumn("user_name", "Sold By", func(s model.Sale) string { return s.UserName }),
			ReadOnlyColumn("quantity", "Quantity", func(s model.Sale) string { return strconv.Itoa(s.Quantity) }),
			ReadOnlyColumn("total_price", "Total", func(s model.Sale) string { return s.TotalPrice }),
			ReadOnlyColumn("timestamp", "Date", func(s model.Sale) string { return FormatTimestamp(s.Timestamp) }),
		},
		Form: &CreateForm{
			Fields: []FormField{
				{Name: "outlet", Label: "Outlet", Kind: ColumnSelect, Options: outlets},
				{Name: "item", Label: "Item", Kind: ColumnSelect, Options: items},
				{Name: "quantity", Label: "Quantity", Kind: ColumnNumber, Step: "1"},
				{Name: "total_price", Label: "Total Price", Kind: ColumnNumber, Step: "0.01"},
			},
			Build: func(values map[string]string) (any, error) {
				f := &formValues{values: values}
				sale := model.NewSale{
					Outlet:     f.id("outlet"),
					Item:       f.id("item"),
					Quantity:   f.integer("quantity"),
					TotalPrice: f.str("total_price"),
				}
				return sale, f.err()
			},
		},
	}
}

func purchasesConfig(outlets, items *OptionSource) ResourceConfig[model.Purchase] {
	return ResourceConfig[model.Purchase]{
		Name:     "purchases",
		Title:    "Purchases",
		Endpoint: PurchasesEndpoint,
		Caps:     Capabilities{Create: true},
		Columns: []Column[model.Purchase]{
			ReadOnlyColumn("item_name", "Item", func(p model.Purchase) string { return p.ItemName }),
			ReadOnlyColumn("outlet_name", "Outlet", func(p model.Purchase) string { return p.OutletName }),
			ReadOnlyColumn("quantity", "Quantity", func(p model.Purchase) string { return strconv.Itoa(p.Quantity) }),
			ReadOnlyColumn("total_cost", "Total Cost", func(p model.Purchase) string { return p.TotalCost }),
			ReadOnlyColumn("supplier", "Supplier", func(p model.Purchase) string { return p.Supplier }),
			ReadOnlyColumn("timestamp", "Date", func(p model.Purchase) string { return FormatTimestamp(p.Timestamp) }),
		},
		Form: &CreateForm{
			Fields: []FormField{
				{Name: "outlet", Label: "Outlet", Kind: ColumnSelect, Options: outlets},
				{Name: "item", Label: "Item", Kind: ColumnSelect, Options: items},
				{Name: "quantity", Label: "Quantity", Kind: ColumnNumber, Step: "1"},
				{Name: "total_cost", Label: "Total Cost", Kind: ColumnNumber, Step: "0.01"},
				{Name: "supplier", Label: "Supplier", Kind: ColumnText},
			},
			Build: func(values map[string]string) (any, error) {
				f := &formValues{values: values}
				purchase := model.NewPurchase{
					Outlet:    f.id("outlet"),
					Item:      f.id("item"),
					Quantity:  f.integer("quantity"),
					TotalCost: f.str("total_cost"),
					Supplier:  f.str("supplier"),
				}
				return purchase, f.err()
			},
		},
	}
}

func usersConfig() ResourceConfig[model.User] {
	roles := make([]Option, 0, len(model.Roles))
	for _, r := range model.Roles {
		roles = append(roles, Option{Value: string(r), Label: roleLabel(r)})
	}

	return ResourceConfig[model.User]{
		Name:     "users",
		Title:    "Users",
		Endpoint: UsersEndpoint,
		Caps:     Capabilities{Edit: true, Delete: true},
		Label:    func(u model.User) string { return u.Username },
		Columns: []Column[model.User]{
			TextColumn("username", "Username",
				func(u model.User) string { return u.Username },
				func(u *model.User, v string) { u.Username = v }).Required(),
			TextColumn("email", "Email",
				func(u model.User) string { return u.Email },
				func(u *model.User, v string) { u.Email = v }),
			TextColumn("first_name", "First Name",
				func(u model.User) string { return u.FirstName },
				func(u *model.User, v string) { u.FirstName = v }),
			TextColumn("last_name", "Last Name",
				func(u model.User) string { return u.LastName },
				func(u *model.User, v string) { u.LastName = v }),
			SelectColumn("role", "Role", StaticOptions(roles...),
				func(u model.User) string { return string(u.Role) },
				func(u model.User) string { return roleLabel(u.Role) },
				func(u *model.User, o Option) { u.Role = model.Role(o.Value) }),
			BadgeColumn("is_active", "Status",
				func(u model.User) string {
					if u.IsActive {
						return "Active"
					}
					return "Inactive"
				},
				func(u model.User) string {
					if u.IsActive {
						return "ok"
					}
					return "danger"
				}),
			ReadOnlyColumn("date_joined", "Joined", func(u model.User) string { return FormatTimestamp(u.DateJoined) }),
		},
	}
}

func roleLabel(r model.Role) string {
	switch r {
	case model.RoleManager:
		return "Manager"
	case model.RoleStaff:
		return "Staff"
	default:
		return string(r)
	}
}

// FormatTimestamp renders an upstream timestamp in local time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timestampLayout)
}
