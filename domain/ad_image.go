package domain

import "time"

type AdImage struct {
	ID        int64     `json:"id" db:"id"`
	AdID      int64     `json:"ad_id" db:"ad_id"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
