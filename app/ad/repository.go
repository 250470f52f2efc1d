package ad

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/AliObeid01/dynamic-classified-api/domain"
)

// CreateAdParams carries a submission that already passed static and dynamic
// validation. Fields holds the raw attribute -> value map; the writer decides
// which entries match a CategoryField and how they serialize.
type CreateAdParams struct {
	UserID      string
	CategoryID  int64
	Title       string
	Description string
	Price       decimal.Decimal
	Fields      map[string]any
}

type Repository interface {
	CategoryExists(ctx context.Context, id int64) (bool, error)
	GetCategoryFields(ctx context.Context, categoryID int64) ([]domain.CategoryFieldDetail, error)
	CreateAd(ctx context.Context, params CreateAdParams) (domain.AdDetail, error)
	GetAd(ctx context.Context, id int64) (domain.AdDetail, error)
	ListUserAds(ctx context.Context, userID string, limit, offset int) ([]domain.AdDetail, error)
	CountUserAds(ctx context.Context, userID string) (int, error)
}
