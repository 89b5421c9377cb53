package application

import (
	"strconv"
	"strings"
)

// ColumnKind tags the variant of a column descriptor.
type ColumnKind string

const (
	ColumnText   ColumnKind = "text"
	ColumnNumber ColumnKind = "number"
	ColumnSelect ColumnKind = "select"
)

// Column describes how one field of T is read, displayed and edited.
// Parse is nil for read-only columns.
type Column[T Row] struct {
	Key   string
	Label string
	Kind  ColumnKind

	// Value is the raw field value used to fill the edit control.
	Value func(T) string

	// Display is the view-mode text. Defaults to Value.
	Display func(T) string

	// Tone classifies the cell for badge styling ("ok", "warn", "danger").
	// nil means the cell renders as plain text.
	Tone func(T) string

	// Parse converts raw input and applies it to a copy of the row.
	Parse func(T, string) (T, error)

	// Options feeds select columns.
	Options *OptionSource

	// Step is the HTML step attribute for number inputs.
	Step string
}

// Editable reports whether the column accepts input.
func (c Column[T]) Editable() bool { return c.Parse != nil }

// Render returns the view-mode text for row.
func (c Column[T]) Render(row T) string {
	if c.Display != nil {
		return c.Display(row)
	}
	return c.Value(row)
}

// Required rejects blank input for the column.
func (c Column[T]) Required() Column[T] {
	parse := c.Parse
	if parse == nil {
		return c
	}
	c.Parse = func(row T, raw string) (T, error) {
		if strings.TrimSpace(raw) == "" {
			return row, NewFieldError(c.Key, "This field is required.")
		}
		return parse(row, raw)
	}
	return c
}

// TextColumn is an editable free-text column.
func TextColumn[T Row](key, label string, get func(T) string, set func(*T, string)) Column[T] {
	return Column[T]{
		Key:   key,
		Label: label,
		Kind:  ColumnText,
		Value: get,
		Parse: func(row T, raw string) (T, error) {
			set(&row, strings.TrimSpace(raw))
			return row, nil
		},
	}
}

// IntColumn is an editable non-negative integer column.
func IntColumn[T Row](key, label string, get func(T) int, set func(*T, int)) Column[T] {
	return Column[T]{
		Key:   key,
		Label: label,
		Kind:  ColumnNumber,
		Step:  "1",
		Value: func(row T) string { return strconv.Itoa(get(row)) },
		Parse: func(row T, raw string) (T, error) {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return row, NewFieldError(key, "Enter a whole number.")
			}
			if n < 0 {
				return row, NewFieldError(key, "Must be 0 or more.")
			}
			set(&row, n)
			return row, nil
		},
	}
}

// DecimalColumn is an editable non-negative amount kept as a decimal string.
func DecimalColumn[T Row](key, label string, get func(T) string, set func(*T, string)) Column[T] {
	return Column[T]{
		Key:   key,
		Label: label,
		Kind:  ColumnNumber,
		Step:  "0.01",
		Value: get,
		Parse: func(row T, raw string) (T, error) {
			raw = strings.TrimSpace(raw)
			// numeric takes plain decimal notation only: no exponent,
			// hex float, NaN or Inf.
			if strings.HasPrefix(raw, "+") || validate.Var(raw, "required,numeric") != nil {
				return row, NewFieldError(key, "Enter a number.")
			}
			if strings.HasPrefix(raw, "-") {
				return row, NewFieldError(key, "Must be 0 or more.")
			}
			set(&row, raw)
			return row, nil
		},
	}
}

// SelectColumn is an editable column whose value must be one of the options
// of source. display renders the chosen option in view mode.
func SelectColumn[T Row](key, label string, source *OptionSource, get func(T) string, display func(T) string, set func(*T, Option)) Column[T] {
	return Column[T]{
		Key:     key,
		Label:   label,
		Kind:    ColumnSelect,
		Options: source,
		Value:   get,
		Display: display,
		Parse: func(row T, raw string) (T, error) {
			opt, ok := source.Lookup(strings.TrimSpace(raw))
			if !ok {
				return row, NewFieldError(key, "Select a valid option.")
			}
			set(&row, opt)
			return row, nil
		},
	}
}

// ReadOnlyColumn displays a value that cannot be edited inline.
func ReadOnlyColumn[T Row](key, label string, display func(T) string) Column[T] {
	return Column[T]{
		Key:   key,
		Label: label,
		Kind:  ColumnText,
		Value: display,
	}
}

// BadgeColumn is a read-only status column rendered with a tone.
func BadgeColumn[T Row](key, label string, display func(T) string, tone func(T) string) Column[T] {
	c := ReadOnlyColumn(key, label, display)
	c.Tone = tone
	return c
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func parseInt(raw string) (int64, error) { return strconv.ParseInt(raw, 10, 64) }
