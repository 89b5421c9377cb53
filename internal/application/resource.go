package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// ErrNotSupported is returned for actions a resource page does not offer.
var ErrNotSupported = errors.New("operation not supported for this resource")

// Page is the type-erased surface of a resource used by the web adapter
// and the CLI.
type Page interface {
	Name() string
	Title() string
	Caps() Capabilities

	Load(ctx context.Context) error
	Table() Table
	RowTable(id int64) (Table, bool)

	BeginEdit(id int64) error
	SetField(id int64, key, raw string) error
	CancelEdit(id int64) error
	Save(ctx context.Context, id int64) error

	RequestDelete(id int64) error
	CancelDelete()
	ConfirmDelete(ctx context.Context) (int64, error)

	Form() *CreateForm
	Create(ctx context.Context, values map[string]string) error
}

// Capabilities lists what a page allows.
type Capabilities struct {
	Edit   bool
	Delete bool
	Create bool
}

// Resource binds an upstream collection endpoint to an EditableCollection.
type Resource[T Row] struct {
	name     string
	title    string
	endpoint string
	caps     Capabilities

	api    driven.ResourceAPI
	coll   *EditableCollection[T]
	label  func(T) string
	form   *CreateForm
	logger *slog.Logger

	// payload maps the working row to the PUT body. nil sends the row.
	payload func(T) any
}

// ResourceConfig describes a resource page.
type ResourceConfig[T Row] struct {
	Name     string
	Title    string
	Endpoint string
	Caps     Capabilities
	Columns  []Column[T]
	Label    func(T) string
	Form     *CreateForm
	Payload  func(T) any
}

// NewResource creates a resource page over api.
func NewResource[T Row](api driven.ResourceAPI, cfg ResourceConfig[T], logger *slog.Logger) *Resource[T] {
	if logger == nil {
		logger = slog.Default()
	}
	label := cfg.Label
	if label == nil {
		label = func(row T) string { return "#" + formatID(row.RowID()) }
	}
	return &Resource[T]{
		name:     cfg.Name,
		title:    cfg.Title,
		endpoint: cfg.Endpoint,
		caps:     cfg.Caps,
		api:      api,
		coll:     NewEditableCollection(cfg.Columns...),
		label:    label,
		form:     cfg.Form,
		payload:  cfg.Payload,
		logger:   logger.With("resource", cfg.Name),
	}
}

func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) Title() string { return r.title }

func (r *Resource[T]) Caps() Capabilities { return r.caps }

func (r *Resource[T]) Form() *CreateForm { return r.form }

// Endpoint returns the upstream collection path.
func (r *Resource[T]) Endpoint() string { return r.endpoint }

// Collection exposes the underlying collection.
func (r *Resource[T]) Collection() *EditableCollection[T] { return r.coll }

// Load fetches the collection and reconciles it. Option sources of select
// columns are refreshed first; their failures are reflected in the option
// state, not in the returned error.
func (r *Resource[T]) Load(ctx context.Context) error {
	gen := r.coll.StartLoad()

	r.refreshOptions(ctx)

	var rows []T
	if err := r.api.FetchCollection(ctx, r.endpoint, nil, &rows); err != nil {
		r.coll.Fail(gen, err)
		return fmt.Errorf("load %s: %w", r.name, err)
	}

	if !r.coll.Apply(gen, rows) {
		r.logger.Debug("dropped stale collection response", "generation", gen)
	}
	return nil
}

func (r *Resource[T]) refreshOptions(ctx context.Context) {
	seen := make(map[*OptionSource]bool)
	refresh := func(src *OptionSource) {
		if src == nil || seen[src] {
			return
		}
		seen[src] = true
		if err := src.Refresh(ctx); err != nil {
			r.logger.Warn("failed to load select options", "error", err)
		}
	}
	for _, col := range r.coll.Columns() {
		refresh(col.Options)
	}
	if r.form != nil {
		for _, f := range r.form.Fields {
			refresh(f.Options)
		}
	}
}

func (r *Resource[T]) BeginEdit(id int64) error {
	if !r.caps.Edit {
		return ErrNotSupported
	}
	return r.coll.BeginEdit(id)
}

func (r *Resource[T]) SetField(id int64, key, raw string) error {
	return r.coll.SetField(id, key, raw)
}

func (r *Resource[T]) CancelEdit(id int64) error {
	return r.coll.CancelEdit(id)
}

// Save commits the working row with PUT {endpoint}/{id}.
//
// The server is authoritative: an entity in the response replaces the row
// as sent, including values the server normalised or computed. Only an
// empty response (no id) keeps the sent row.
func (r *Resource[T]) Save(ctx context.Context, id int64) error {
	_, err := r.coll.Commit(ctx, id, func(ctx context.Context, row T) (T, error) {
		var body any = row
		if r.payload != nil {
			body = r.payload(row)
		}

		var saved T
		if err := r.api.UpdateEntity(ctx, r.endpoint, id, body, &saved); err != nil {
			return saved, err
		}
		// Servers that answer 204 echo nothing; the payload is authoritative.
		if saved.RowID() == 0 {
			saved = row
		}
		return saved, nil
	})
	if err != nil {
		return fmt.Errorf("save %s %d: %w", r.name, id, err)
	}
	r.logger.Info("row saved", "id", id)
	return nil
}

func (r *Resource[T]) RequestDelete(id int64) error {
	if !r.caps.Delete {
		return ErrNotSupported
	}
	return r.coll.RequestDelete(id)
}

func (r *Resource[T]) CancelDelete() { r.coll.CancelDelete() }

// PendingDeleteLabel names the pending delete target for the confirm dialog.
func (r *Resource[T]) PendingDeleteLabel() (string, bool) {
	row, ok := r.coll.PendingDelete()
	if !ok {
		return "", false
	}
	return r.label(row), true
}

// ConfirmDelete deletes the pending target and reloads the collection. A
// failed reload is recorded on the collection and logged; the delete itself
// still succeeded.
func (r *Resource[T]) ConfirmDelete(ctx context.Context) (int64, error) {
	id, err := r.coll.ConfirmDelete(ctx, func(ctx context.Context, id int64) error {
		return r.api.DeleteEntity(ctx, r.endpoint, id)
	})
	if err != nil {
		if errors.Is(err, ErrNoPendingDelete) {
			return id, err
		}
		return id, fmt.Errorf("delete %s %d: %w", r.name, id, err)
	}
	r.logger.Info("row deleted", "id", id)

	if err := r.Load(ctx); err != nil {
		r.logger.Warn("reload after delete failed", "error", err)
		if driven.IsSessionExpired(err) {
			return id, err
		}
	}
	return id, nil
}

// Create validates the form values, POSTs the payload and reloads.
func (r *Resource[T]) Create(ctx context.Context, values map[string]string) error {
	if !r.caps.Create || r.form == nil {
		return ErrNotSupported
	}

	payload, err := r.form.Build(values)
	if err != nil {
		return err
	}
	if err := Validate(payload); err != nil {
		return err
	}

	if err := r.api.CreateEntity(ctx, r.endpoint, payload, nil); err != nil {
		return fmt.Errorf("create %s: %w", r.name, err)
	}
	r.logger.Info("row created")

	if err := r.Load(ctx); err != nil {
		r.logger.Warn("reload after create failed", "error", err)
		if driven.IsSessionExpired(err) {
			return err
		}
	}
	return nil
}

// Table projects the collection for rendering.
func (r *Resource[T]) Table() Table {
	v := r.coll.View()
	t := Table{
		Resource: r.name,
		Title:    r.title,
		Caps:     r.caps,
		Columns:  r.columnHeads(),
		Loaded:   v.Loaded,
		Err:      v.Err,
		Rows:     make([]TableRow, 0, len(v.Rows)),
	}
	for _, rv := range v.Rows {
		t.Rows = append(t.Rows, r.tableRow(rv))
	}
	if label, ok := r.PendingDeleteLabel(); ok {
		t.PendingDelete = label
	}
	return t
}

// RowTable projects a single row, for swapping one row fragment.
func (r *Resource[T]) RowTable(id int64) (Table, bool) {
	rv, ok := r.coll.Row(id)
	if !ok {
		return Table{}, false
	}
	return Table{
		Resource: r.name,
		Title:    r.title,
		Caps:     r.caps,
		Columns:  r.columnHeads(),
		Loaded:   true,
		Rows:     []TableRow{r.tableRow(rv)},
	}, true
}

func (r *Resource[T]) columnHeads() []ColumnHead {
	cols := r.coll.Columns()
	heads := make([]ColumnHead, len(cols))
	for i, c := range cols {
		heads[i] = ColumnHead{Key: c.Key, Label: c.Label, Kind: c.Kind}
	}
	return heads
}

func (r *Resource[T]) tableRow(rv RowView[T]) TableRow {
	cols := r.coll.Columns()
	row := TableRow{
		ID:            rv.Row.RowID(),
		Label:         r.label(rv.Row),
		State:         rv.State,
		PendingDelete: rv.PendingDelete,
		Cells:         make([]Cell, len(cols)),
	}
	for i, c := range cols {
		cell := Cell{
			Key:      c.Key,
			Kind:     c.Kind,
			Display:  c.Render(rv.Row),
			Raw:      c.Value(rv.Row),
			Editable: r.caps.Edit && c.Editable(),
			Step:     c.Step,
		}
		if c.Tone != nil {
			cell.Tone = c.Tone(rv.Row)
		}
		if c.Options != nil {
			cell.OptionState, cell.Options = c.Options.Snapshot()
		}
		row.Cells[i] = cell
	}
	return row
}

// Table is a render-ready projection of a resource collection.
type Table struct {
	Resource      string
	Title         string
	Caps          Capabilities
	Columns       []ColumnHead
	Rows          []TableRow
	Loaded        bool
	Err           error
	PendingDelete string
}

// Empty reports a loaded collection without rows.
func (t Table) Empty() bool { return t.Loaded && t.Err == nil && len(t.Rows) == 0 }

// ColumnHead is a table header cell.
type ColumnHead struct {
	Key   string
	Label string
	Kind  ColumnKind
}

// TableRow is one rendered row.
type TableRow struct {
	ID            int64
	Label         string
	State         RowState
	PendingDelete bool
	Cells         []Cell
}

// Editing reports whether the row shows edit controls.
func (r TableRow) Editing() bool { return r.State == RowEditing || r.State == RowCommitting }

// Cell is one rendered cell.
type Cell struct {
	Key         string
	Kind        ColumnKind
	Display     string
	Raw         string
	Tone        string
	Editable    bool
	Step        string
	OptionState OptionState
	Options     []Option
}

// CreateForm describes the add form of a resource.
type CreateForm struct {
	Fields []FormField

	// Build converts submitted values into the typed create payload.
	// Conversion failures are returned as a ValidationError.
	Build func(values map[string]string) (any, error)
}

// FormField is one input of a CreateForm.
type FormField struct {
	Name        string
	Label       string
	Kind        ColumnKind
	Placeholder string
	Step        string
	Options     *OptionSource
}

// OptionsSnapshot returns the option state of a select field.
func (f FormField) OptionsSnapshot() (OptionState, []Option) {
	if f.Options == nil {
		return OptionsReady, nil
	}
	return f.Options.Snapshot()
}

// formValues reads typed values out of submitted form values and collects
// conversion errors.
type formValues struct {
	values map[string]string
	errs   ValidationError
}

func (f *formValues) str(name string) string {
	return strings.TrimSpace(f.values[name])
}

func (f *formValues) integer(name string) int {
	raw := f.str(name)
	if raw == "" {
		return 0
	}
	n, err := parseInt(raw)
	if err != nil {
		f.errs.Add(name, "Enter a whole number.")
	}
	return int(n)
}

func (f *formValues) id(name string) int64 {
	raw := f.str(name)
	if raw == "" {
		return 0
	}
	n, err := parseInt(raw)
	if err != nil {
		f.errs.Add(name, "Select a valid option.")
	}
	return n
}

func (f *formValues) err() error { return f.errs.OrNil() }
