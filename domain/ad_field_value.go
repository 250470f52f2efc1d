package domain

import "time"

// AdFieldValue is one EAV row holding a validated dynamic value for an ad.
// It references the CategoryField rather than the bare Field so the
// category-scoped rule that applied is preserved. SelectedOptionID is set
// when a choice value resolved to a stored option; the raw value is kept
// either way.
type AdFieldValue struct {
	ID               int64     `json:"id" db:"id"`
	AdID             int64     `json:"ad_id" db:"ad_id"`
	CategoryFieldID  int64     `json:"category_field_id" db:"category_field_id"`
	SelectedOptionID *int64    `json:"selected_option_id" db:"selected_option_id"`
	Value            string    `json:"value" db:"value"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// AdFieldValueDetail is a value row with its originating CategoryField, Field
// definition and resolved option loaded.
type AdFieldValueDetail struct {
	Value          AdFieldValue  `json:"value"`
	CategoryField  CategoryField `json:"category_field"`
	Field          Field         `json:"field"`
	SelectedOption *FieldOption  `json:"selected_option"`
}
