package domain

import "time"

// FieldOption is one allowed value for a choice-type field. Options form a
// two-level tree via ParentID (e.g. model options nested under a make);
// relations are resolved by id lookup, never embedded object graphs.
type FieldOption struct {
	ID        int64     `json:"id" db:"id"`
	FieldID   int64     `json:"field_id" db:"field_id"`
	ParentID  *int64    `json:"parent_id" db:"parent_id"`
	Value     string    `json:"value" db:"value"`
	Label     string    `json:"label" db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
