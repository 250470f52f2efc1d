package domain

import "time"

// Value types a field may carry, as delivered by the taxonomy source.
const (
	ValueTypeInteger = "integer"
	ValueTypeNumber  = "number"
	ValueTypeDecimal = "decimal"
	ValueTypeFloat   = "float"
	ValueTypeBoolean = "boolean"
	ValueTypeString  = "string"
	ValueTypeText    = "text"
)

// Filter types describing how a field is presented and constrained.
const (
	FilterTypeText           = "text"
	FilterTypeRange          = "range"
	FilterTypeSingleChoice   = "single_choice"
	FilterTypeMultipleChoice = "multiple_choice"
)

// Field is a reusable attribute definition (e.g. "mileage") that may be
// linked to any number of categories. Attribute is the stable machine key
// joining submitted JSON to the catalog.
type Field struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Attribute  string    `json:"attribute" db:"attribute"`
	ValueType  string    `json:"value_type" db:"value_type"`
	FilterType string    `json:"filter_type" db:"filter_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// IsChoice reports whether values for the field must come from its option list.
func (f Field) IsChoice() bool {
	return f.FilterType == FilterTypeSingleChoice || f.FilterType == FilterTypeMultipleChoice
}
