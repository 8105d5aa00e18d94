package row

import "fmt"

// Type is the display type hint of a column.
type Type string

const (
	TypeText    Type = "text"
	TypeNumber  Type = "number"
	TypeDate    Type = "date"
	TypeBoolean Type = "boolean"
)

// Column describes one column of a grid. Columns are read-only to the engine.
//
// Formatter and Validator are optional and must be pure: the engine calls
// Validator while holding its state lock.
type Column struct {
	ID         string `yaml:"id" json:"id"`
	Header     string `yaml:"header" json:"header"`
	Accessor   string `yaml:"accessor" json:"accessor"`
	Sortable   bool   `yaml:"sortable" json:"sortable"`
	Filterable bool   `yaml:"filterable" json:"filterable"`
	Editable   bool   `yaml:"editable" json:"editable"`
	Type       Type   `yaml:"type,omitempty" json:"type,omitempty"`
	Width      int    `yaml:"width,omitempty" json:"width,omitempty"`
	MinWidth   int    `yaml:"min_width,omitempty" json:"minWidth,omitempty"`

	Formatter func(v any) string `yaml:"-" json:"-"`
	Validator func(v any) error  `yaml:"-" json:"-"`
}

// Field returns the row field this column reads and writes.
func (c Column) Field() string {
	if c.Accessor != "" {
		return c.Accessor
	}
	return c.ID
}

// Format renders the column's value of r.
func (c Column) Format(r Row) string {
	v := r[c.Field()]
	if c.Formatter != nil {
		return c.Formatter(v)
	}
	return String(v)
}

// Validate checks v against the column's validator, if any.
func (c Column) Validate(v any) error {
	if c.Validator == nil {
		return nil
	}
	if err := c.Validator(v); err != nil {
		return fmt.Errorf("column %q: %w", c.ID, err)
	}
	return nil
}

// Columns is an ordered set of column descriptors.
type Columns []Column

// Find returns the column with the given ID.
func (cs Columns) Find(id string) (Column, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// Field maps a column ID to its row field. Unknown IDs map to themselves.
func (cs Columns) Field(id string) string {
	if c, ok := cs.Find(id); ok {
		return c.Field()
	}
	return id
}
