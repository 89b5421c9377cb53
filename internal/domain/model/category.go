package model

// Category groups inventory items.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RowID returns the upstream identifier.
func (c Category) RowID() int64 { return c.ID }

// NewCategory is the create payload for POST /categories/.
type NewCategory struct {
	Name string `json:"name" validate:"required,max=80"`
}
