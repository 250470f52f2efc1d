package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Domain constants
const (
	AdDomain   = "ad"
	AdExchange = "classified.ad"
)

// Event names
const (
	AdCreatedEvent       = "ad.created"
	AdImageUploadedEvent = "ad.image.uploaded"
	AdImageDeletedEvent  = "ad.image.deleted"
)

// Event versions
const (
	EventVersionV1 = "v1"
)

// AdFieldValuePayload is one resolved dynamic value on a created ad.
type AdFieldValuePayload struct {
	Attribute        string `json:"attribute"`
	Value            string `json:"value"`
	SelectedOptionID *int64 `json:"selectedOptionId"`
}

// AdCreatedPayload represents the payload for the ad.created event
type AdCreatedPayload struct {
	ID         int64                 `json:"id"`
	UserID     string                `json:"userId"`
	CategoryID int64                 `json:"categoryId"`
	Title      string                `json:"title"`
	Price      decimal.Decimal       `json:"price"`
	Fields     []AdFieldValuePayload `json:"fields"`
	CreatedAt  time.Time             `json:"createdAt"`
}

type AdImageUploadedPayload struct {
	ID        int64     `json:"id"`
	AdID      int64     `json:"adId"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

type AdImageDeletedPayload struct {
	ID        int64     `json:"id"`
	AdID      int64     `json:"adId"`
	ImageURL  string    `json:"imageUrl"`
	DeletedAt time.Time `json:"deletedAt"`
}
