package application

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"
)

// Row is an upstream entity with a unique identifier.
type Row interface {
	RowID() int64
}

// RowState is the per-row edit state. Rows absent from the state map are
// RowViewing.
type RowState string

const (
	RowViewing    RowState = "viewing"
	RowEditing    RowState = "editing"
	RowCommitting RowState = "committing"
)

var (
	// ErrRowBusy is returned for any edit, save, cancel or delete on a row
	// whose save is in flight.
	ErrRowBusy = errors.New("row is being saved")

	// ErrRowNotFound is returned when the id is not in the collection.
	ErrRowNotFound = errors.New("row not found")

	// ErrNotEditing is returned when a field change or save targets a row
	// that is not in edit mode.
	ErrNotEditing = errors.New("row is not being edited")

	// ErrReadOnlyColumn is returned when a field change targets a column
	// without a parser.
	ErrReadOnlyColumn = errors.New("column is read-only")

	// ErrNoPendingDelete is returned by ConfirmDelete without a target.
	ErrNoPendingDelete = errors.New("no delete pending")
)

// EditableCollection holds a server collection as two parallel copies: the
// working copy the user edits and the baseline last confirmed by the
// server. working[i] and baseline[i] always carry the same id.
//
// The mutex is never held across network calls.
type EditableCollection[T Row] struct {
	mu       sync.Mutex
	columns  []Column[T]
	working  []T
	baseline []T
	snapshot []T
	states   map[int64]RowState

	pendingDelete    int64
	hasPendingDelete bool

	generation uint64
	loaded     bool
	loadErr    error
}

// NewEditableCollection creates an empty collection with the given columns.
func NewEditableCollection[T Row](columns ...Column[T]) *EditableCollection[T] {
	return &EditableCollection[T]{
		columns: columns,
		states:  make(map[int64]RowState),
	}
}

// Columns returns the column descriptors.
func (c *EditableCollection[T]) Columns() []Column[T] { return c.columns }

// Column finds a column by key.
func (c *EditableCollection[T]) Column(key string) (Column[T], bool) {
	for _, col := range c.columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column[T]{}, false
}

// StartLoad begins a fetch and returns its generation. Only the newest
// generation may be applied.
func (c *EditableCollection[T]) StartLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

// Apply reconciles a fetched collection and reports whether it was
// accepted. Responses older than the newest started load are dropped. Data
// equal to the last applied snapshot leaves the working copy and row states
// untouched; anything else replaces both copies and drops all edit state.
func (c *EditableCollection[T]) Apply(generation uint64, rows []T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation < c.generation {
		return false
	}
	if rows == nil {
		rows = []T{}
	}

	c.loadErr = nil
	if c.loaded && reflect.DeepEqual(rows, c.snapshot) {
		return true
	}

	c.snapshot = slices.Clone(rows)
	c.baseline = slices.Clone(rows)
	c.working = slices.Clone(rows)
	c.states = make(map[int64]RowState)
	if c.hasPendingDelete && c.indexOf(c.pendingDelete) < 0 {
		c.hasPendingDelete = false
	}
	c.loaded = true
	return true
}

// Fail records a load error for generation unless a newer load started.
func (c *EditableCollection[T]) Fail(generation uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation < c.generation {
		return
	}
	c.loadErr = err
}

// BeginEdit moves a row to RowEditing, resyncing its working values from
// the baseline. Calling it on a row already being edited is a no-op.
func (c *EditableCollection[T]) BeginEdit(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return ErrRowNotFound
	}
	switch c.states[id] {
	case RowCommitting:
		return ErrRowBusy
	case RowEditing:
		return nil
	}

	if !reflect.DeepEqual(c.working[i], c.baseline[i]) {
		c.working[i] = c.baseline[i]
	}
	c.states[id] = RowEditing
	return nil
}

// SetField converts raw through the column parser and writes it into the
// working row. Rejected input leaves the working row unchanged.
func (c *EditableCollection[T]) SetField(id int64, key, raw string) error {
	col, ok := c.Column(key)
	if !ok {
		return NewFieldError(key, "Unknown field.")
	}
	if !col.Editable() {
		return ErrReadOnlyColumn
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return ErrRowNotFound
	}
	switch c.states[id] {
	case RowCommitting:
		return ErrRowBusy
	case RowEditing:
	default:
		return ErrNotEditing
	}

	updated, err := col.Parse(c.working[i], raw)
	if err != nil {
		return err
	}
	c.working[i] = updated
	return nil
}

// CancelEdit discards the working values of a row and returns it to
// RowViewing without any network call.
func (c *EditableCollection[T]) CancelEdit(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return ErrRowNotFound
	}
	if c.states[id] == RowCommitting {
		return ErrRowBusy
	}

	c.working[i] = c.baseline[i]
	delete(c.states, id)
	return nil
}

// Commit sends the working row through update. On success the returned
// entity becomes both the baseline and the working row and the row returns
// to RowViewing. On failure the row goes back to RowEditing with the
// working values kept, and the error is returned.
func (c *EditableCollection[T]) Commit(ctx context.Context, id int64, update func(context.Context, T) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return zero, ErrRowNotFound
	}
	switch c.states[id] {
	case RowCommitting:
		c.mu.Unlock()
		return zero, ErrRowBusy
	case RowEditing:
	default:
		c.mu.Unlock()
		return zero, ErrNotEditing
	}
	payload := c.working[i]
	c.states[id] = RowCommitting
	c.mu.Unlock()

	saved, err := update(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A wholesale reload during the save dropped the row state; the
	// reloaded data wins.
	if c.states[id] != RowCommitting {
		return saved, err
	}
	if err != nil {
		c.states[id] = RowEditing
		return zero, err
	}

	if i = c.indexOf(id); i >= 0 {
		c.baseline[i] = saved
		c.working[i] = saved
	}
	if j := indexIn(c.snapshot, id); j >= 0 {
		c.snapshot[j] = saved
	}
	delete(c.states, id)
	return saved, nil
}

// RequestDelete makes id the pending delete target, replacing any previous
// target.
func (c *EditableCollection[T]) RequestDelete(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(id) < 0 {
		return ErrRowNotFound
	}
	if c.states[id] == RowCommitting {
		return ErrRowBusy
	}
	c.pendingDelete = id
	c.hasPendingDelete = true
	return nil
}

// CancelDelete clears the pending delete target.
func (c *EditableCollection[T]) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasPendingDelete = false
}

// PendingDelete returns the pending delete target.
func (c *EditableCollection[T]) PendingDelete() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if !c.hasPendingDelete {
		return zero, false
	}
	i := c.indexOf(c.pendingDelete)
	if i < 0 {
		return zero, false
	}
	return c.baseline[i], true
}

// ConfirmDelete deletes the pending target through del. The target is
// cleared either way. On success the row is removed from both copies and
// the remaining rows keep their order; on failure the row stays.
func (c *EditableCollection[T]) ConfirmDelete(ctx context.Context, del func(context.Context, int64) error) (int64, error) {
	c.mu.Lock()
	if !c.hasPendingDelete {
		c.mu.Unlock()
		return 0, ErrNoPendingDelete
	}
	id := c.pendingDelete
	c.hasPendingDelete = false
	if c.states[id] == RowCommitting {
		c.mu.Unlock()
		return id, ErrRowBusy
	}
	c.mu.Unlock()

	if err := del(ctx, id); err != nil {
		return id, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.working = removeID(c.working, id)
	c.baseline = removeID(c.baseline, id)
	c.snapshot = removeID(c.snapshot, id)
	delete(c.states, id)
	return id, nil
}

// RowView is one row of a collection snapshot.
type RowView[T Row] struct {
	Row           T
	State         RowState
	PendingDelete bool
}

// View is a consistent copy of the collection for rendering.
type View[T Row] struct {
	Rows   []RowView[T]
	Loaded bool
	Err    error
}

// View returns a copy of the working rows with their states.
func (c *EditableCollection[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]RowView[T], len(c.working))
	for i, row := range c.working {
		id := row.RowID()
		state, ok := c.states[id]
		if !ok {
			state = RowViewing
		}
		rows[i] = RowView[T]{
			Row:           row,
			State:         state,
			PendingDelete: c.hasPendingDelete && c.pendingDelete == id,
		}
	}
	return View[T]{Rows: rows, Loaded: c.loaded, Err: c.loadErr}
}

// Row returns the working row and its state.
func (c *EditableCollection[T]) Row(id int64) (RowView[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return RowView[T]{}, false
	}
	state, ok := c.states[id]
	if !ok {
		state = RowViewing
	}
	return RowView[T]{
		Row:           c.working[i],
		State:         state,
		PendingDelete: c.hasPendingDelete && c.pendingDelete == id,
	}, true
}

// Baseline returns the last server-confirmed version of a row.
func (c *EditableCollection[T]) Baseline(id int64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	i := indexIn(c.baseline, id)
	if i < 0 {
		return zero, false
	}
	return c.baseline[i], true
}

// indexOf must be called with c.mu held.
func (c *EditableCollection[T]) indexOf(id int64) int {
	return indexIn(c.working, id)
}

func indexIn[T Row](rows []T, id int64) int {
	return slices.IndexFunc(rows, func(r T) bool { return r.RowID() == id })
}

func removeID[T Row](rows []T, id int64) []T {
	return slices.DeleteFunc(rows, func(r T) bool { return r.RowID() == id })
}
