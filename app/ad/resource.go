package ad

import (
	"time"

	"github.com/AliObeid01/dynamic-classified-api/domain"
)

// AdResource is the client representation of an ad: fixed-point price,
// category summary and the resolved dynamic fields, with option labels for
// choice values.
type AdResource struct {
	ID          int64                  `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Price       string                 `json:"price"`
	Category    CategorySummary        `json:"category"`
	Fields      []DynamicFieldResource `json:"fields"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type CategorySummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type DynamicFieldResource struct {
	Attribute string  `json:"attribute"`
	Name      string  `json:"name"`
	Value     string  `json:"value"`
	Label     *string `json:"label,omitempty"`
}

func NewAdResource(detail domain.AdDetail) AdResource {
	fields := make([]DynamicFieldResource, 0, len(detail.Values))
	for _, v := range detail.Values {
		fr := DynamicFieldResource{
			Attribute: v.Field.Attribute,
			Name:      v.Field.Name,
			Value:     v.Value.Value,
		}
		if v.SelectedOption != nil {
			label := v.SelectedOption.Label
			fr.Label = &label
		}
		fields = append(fields, fr)
	}

	return AdResource{
		ID:          detail.Ad.ID,
		Title:       detail.Ad.Title,
		Description: detail.Ad.Description,
		Price:       detail.Ad.Price.StringFixed(2),
		Category: CategorySummary{
			ID:   detail.Category.ID,
			Name: detail.Category.Name,
			Slug: detail.Category.Slug,
		},
		Fields:    fields,
		CreatedAt: detail.Ad.CreatedAt,
		UpdatedAt: detail.Ad.UpdatedAt,
	}
}
