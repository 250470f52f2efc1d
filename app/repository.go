package app

import (
	"context"

	"github.com/AliObeid01/dynamic-classified-api/domain"
)

type Repository interface {
	Close() error
	GetCategories(ctx context.Context, limit, offset int) ([]domain.Category, error)
	CountCategories(ctx context.Context) (int, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	GetCategoryFields(ctx context.Context, categoryID int64) ([]domain.CategoryFieldDetail, error)
	GetAd(ctx context.Context, id int64) (domain.AdDetail, error)
	SaveAdImage(ctx context.Context, adID int64, imageURL string) (domain.AdImage, error)
	GetAdImages(ctx context.Context, adID int64) ([]domain.AdImage, error)
	GetAdImage(ctx context.Context, adID, imageID int64) (domain.AdImage, error)
	DeleteAdImage(ctx context.Context, adID, imageID int64) error
}
