package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AliObeid01/dynamic-classified-api/domain"
	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

type GetCategoryFieldsHandler struct {
	repository Repository
}

func NewGetCategoryFieldsHandler(repository Repository) *GetCategoryFieldsHandler {
	return &GetCategoryFieldsHandler{
		repository: repository,
	}
}

type GetCategoryFieldsRequest struct {
	CategoryID int64 `params:"id"`
}

type GetCategoryFieldsResponse struct {
	Success  bool                    `json:"success"`
	Category CategoryResource        `json:"category"`
	Data     []CategoryFieldResource `json:"data"`
}

type CategoryFieldResource struct {
	Attribute   string                `json:"attribute"`
	Name        string                `json:"name"`
	ValueType   string                `json:"value_type"`
	FilterType  string                `json:"filter_type"`
	IsMandatory bool                  `json:"is_mandatory"`
	Options     []FieldOptionResource `json:"options"`
}

type FieldOptionResource struct {
	ID       int64                 `json:"id"`
	Value    string                `json:"value"`
	Label    string                `json:"label"`
	Children []FieldOptionResource `json:"children,omitempty"`
}

func (h GetCategoryFieldsHandler) Handle(ctx context.Context, req *GetCategoryFieldsRequest) (*GetCategoryFieldsResponse, error) {
	category, err := h.repository.GetCategory(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NotFound(
				"category.show.not_found",
				"Category not found",
				nil,
			)
		}

		return nil, httperror.InternalServerError(
			"category.show.failed",
			"Failed to retrieve category",
			nil,
		)
	}

	details, err := h.repository.GetCategoryFields(ctx, req.CategoryID)
	if err != nil {
		return nil, httperror.InternalServerError(
			"category.fields.failed",
			"Failed to retrieve category fields",
			nil,
		)
	}

	resources := make([]CategoryFieldResource, 0, len(details))
	for _, detail := range details {
		resources = append(resources, CategoryFieldResource{
			Attribute:   detail.Field.Attribute,
			Name:        detail.Field.Name,
			ValueType:   detail.Field.ValueType,
			FilterType:  detail.Field.FilterType,
			IsMandatory: detail.CategoryField.IsMandatory,
			Options:     buildOptionTree(detail.Options),
		})
	}

	return &GetCategoryFieldsResponse{
		Success:  true,
		Category: NewCategoryResource(category),
		Data:     resources,
	}, nil
}

// buildOptionTree nests child options under their parent. Options are a
// two-level tree at most, so a single grouping pass is enough.
func buildOptionTree(options []domain.FieldOption) []FieldOptionResource {
	children := make(map[int64][]FieldOptionResource)
	for _, option := range options {
		if option.ParentID == nil {
			continue
		}
		children[*option.ParentID] = append(children[*option.ParentID], FieldOptionResource{
			ID:    option.ID,
			Value: option.Value,
			Label: option.Label,
		})
	}

	tree := make([]FieldOptionResource, 0, len(options))
	for _, option := range options {
		if option.ParentID != nil {
			continue
		}
		tree = append(tree, FieldOptionResource{
			ID:       option.ID,
			Value:    option.Value,
			Label:    option.Label,
			Children: children[option.ID],
		})
	}

	return tree
}
