package domain

import "time"

// CategoryField binds a Field to a Category. Mandatoriness is scoped to the
// pair: the same field may be optional in one category and required in another.
type CategoryField struct {
	ID          int64     `json:"id" db:"id"`
	CategoryID  int64     `json:"category_id" db:"category_id"`
	FieldID     int64     `json:"field_id" db:"field_id"`
	IsMandatory bool      `json:"is_mandatory" db:"is_mandatory"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryFieldDetail is one category-scoped field with its definition and
// full option list (parents and nested children) loaded.
type CategoryFieldDetail struct {
	CategoryField CategoryField `json:"category_field"`
	Field         Field         `json:"field"`
	Options       []FieldOption `json:"options"`
}
