package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ad is the aggregate root for a classified listing. It is created atomically
// with its field values and is immutable afterwards.
type Ad struct {
	ID          int64           `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	CategoryID  int64           `json:"category_id" db:"category_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// AdDetail is an ad with its category and dynamic values eagerly resolved,
// ready for serialization.
type AdDetail struct {
	Ad       Ad                  `json:"ad"`
	Category Category            `json:"category"`
	Values   []AdFieldValueDetail `json:"values"`
}
