package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "message key", body: `{"message": "Outlet not found"}`, want: "Outlet not found"},
		{name: "detail key", body: `{"detail": "Authentication credentials were not provided."}`, want: "Authentication credentials were not provided."},
		{name: "message wins over detail", body: `{"detail": "d", "message": "m"}`, want: "m"},
		{name: "first field error", body: `{"quantity": ["Ensure this value is greater than or equal to 0."], "name": ["required"]}`, want: "quantity: Ensure this value is greater than or equal to 0."},
		{name: "non field errors", body: `{"non_field_errors": ["Insufficient stock."]}`, want: "Insufficient stock."},
		{name: "empty body", body: ``, want: ""},
		{name: "html body", body: `<h1>Server Error (500)</h1>`, want: ""},
		{name: "no strings", body: `{"count": 3}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMessage([]byte(tt.body)))
		})
	}
}

func TestFieldErrors(t *testing.T) {
	got := FieldErrors([]byte(`{"name": ["This field may not be blank.", "Too short."], "unit": "Invalid choice.", "id": 4}`))
	assert.Equal(t, map[string][]string{
		"name": {"This field may not be blank.", "Too short."},
		"unit": {"Invalid choice."},
	}, got)

	assert.Nil(t, FieldErrors([]byte(`["a"]`)))
	assert.Nil(t, FieldErrors(nil))
	assert.Nil(t, FieldErrors([]byte(`{"id": 1}`)))
}

func TestEntityPath(t *testing.T) {
	assert.Equal(t, "/inventory/12", entityPath("/inventory/", 12))
	assert.Equal(t, "/inventory/12", entityPath("/inventory", 12))
}
