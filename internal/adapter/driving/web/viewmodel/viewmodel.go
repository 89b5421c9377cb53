// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from application and domain types.
package viewmodel

// NavViewModel holds the navbar content shared by every page.
type NavViewModel struct {
	Links       []NavLink
	SignedIn    bool
	DisplayName string
	Role        string
	CSRFToken   string
}

// NavLink is one navbar entry.
type NavLink struct {
	Label  string
	Path   string
	Active bool
}

// PageViewModel holds the shell of a resource page. The table is loaded
// lazily from TableURL.
type PageViewModel struct {
	Name     string
	Title    string
	TableURL string
	Form     *FormViewModel
}

// TableViewModel holds presentation-ready data for a resource table.
type TableViewModel struct {
	Resource   string
	Title      string
	TableURL   string
	Columns    []ColumnViewModel
	Rows       []RowViewModel
	HasActions bool
	Empty      bool
}

// ColumnViewModel is a table header cell.
type ColumnViewModel struct {
	Key   string
	Label string
	Kind  string
}

// RowViewModel holds one table row and its action URLs.
type RowViewModel struct {
	ID         int64
	DOMID      string
	Label      string
	Editing    bool
	Committing bool
	CanEdit    bool
	CanDelete  bool
	Cells      []CellViewModel

	EditURL   string // computed: /app/{resource}/rows/{id}/edit
	CancelURL string
	SaveURL   string
	FieldURL  string
	DeleteURL string
}

// CellViewModel holds one table cell in view or edit form.
type CellViewModel struct {
	Key         string
	Kind        string
	Display     string
	Raw         string
	Tone        string
	Editable    bool
	Step        string
	OptionState string
	Options     []OptionViewModel
	Error       string
}

// OptionViewModel is one entry of a select control.
type OptionViewModel struct {
	Value    string
	Label    string
	Selected bool
}

// FormViewModel holds a create form.
type FormViewModel struct {
	Action    string
	Title     string
	CSRFToken string
	Fields    []FormFieldViewModel
	Error     string
}

// FormFieldViewModel holds one create form input.
type FormFieldViewModel struct {
	Name        string
	Label       string
	Kind        string
	Value       string
	Placeholder string
	Step        string
	OptionState string
	Options     []OptionViewModel
	Error       string
}

// ConfirmDeleteViewModel holds the delete confirmation dialog.
type ConfirmDeleteViewModel struct {
	Label      string
	ConfirmURL string
	CancelURL  string
}

// ErrorPanelViewModel holds a read failure with its retry action.
type ErrorPanelViewModel struct {
	ID          string
	Title       string
	MessageHTML string
	RetryURL    string
}

// StatCardViewModel is one dashboard figure.
type StatCardViewModel struct {
	Label string
	Value string
	Tone  string
}

// RecentSaleViewModel is one row of the dashboard recent sales list.
type RecentSaleViewModel struct {
	ItemName   string
	OutletName string
	Quantity   int
	TotalPrice string
	Timestamp  string
}

// LowStockViewModel is one row of the dashboard low stock list.
type LowStockViewModel struct {
	Name        string
	Quantity    int
	MinQuantity int
	Unit        string
	Status      string
	Tone        string
}

// DashboardViewModel holds all data needed to render the dashboard content.
type DashboardViewModel struct {
	Stats       []StatCardViewModel
	RecentSales []RecentSaleViewModel
	LowStock    []LowStockViewModel
}

// LoginViewModel holds the sign-in form.
type LoginViewModel struct {
	Username    string
	Notice      string
	Error       string
	FieldErrors map[string]string
	CSRFToken   string
}
