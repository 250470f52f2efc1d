package domain

import "time"

// Category is one node of the classification tree ads are posted under.
// Root categories have a nil parent; ExternalID is the taxonomy source id.
type Category struct {
	ID         int64     `json:"id" db:"id"`
	ExternalID int64     `json:"external_id" db:"external_id"`
	ParentID   *int64    `json:"parent_id" db:"parent_id"`
	Name       string    `json:"name" db:"name"`
	NameL1     *string   `json:"name_l1" db:"name_l1"`
	Slug       string    `json:"slug" db:"slug"`
	Level      int       `json:"level" db:"level"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
