package app

import (
	"context"

	"github.com/AliObeid01/dynamic-classified-api/domain"
	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

type GetCategoriesHandler struct {
	repository Repository
}

func NewGetCategoriesHandler(repository Repository) *GetCategoriesHandler {
	return &GetCategoriesHandler{
		repository: repository,
	}
}

type GetCategoriesRequest struct {
	Page    int `query:"page"`
	PerPage int `query:"per_page"`
}

type GetCategoriesResponse struct {
	Success bool               `json:"success"`
	Data    []CategoryResource `json:"data"`
	Meta    PageMeta           `json:"meta"`
}

type CategoryResource struct {
	ID         int64  `json:"id"`
	ExternalID int64  `json:"external_id"`
	ParentID   *int64 `json:"parent_id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
}

type PageMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func NewCategoryResource(category domain.Category) CategoryResource {
	return CategoryResource{
		ID:         category.ID,
		ExternalID: category.ExternalID,
		ParentID:   category.ParentID,
		Slug:       category.Slug,
		Name:       category.Name,
		Level:      category.Level,
	}
}

func (h GetCategoriesHandler) Handle(ctx context.Context, req *GetCategoriesRequest) (*GetCategoriesResponse, error) {
	page := max(req.Page, 1)

	perPage := req.PerPage
	if perPage == 0 {
		perPage = 50
	}
	perPage = min(max(perPage, 1), 200)

	offset := (page - 1) * perPage

	categories, err := h.repository.GetCategories(ctx, perPage, offset)
	if err != nil {
		return nil, httperror.InternalServerError(
			"category.index.failed",
			"Failed to retrieve categories",
			nil,
		)
	}

	totalItems, err := h.repository.CountCategories(ctx)
	if err != nil {
		return nil, httperror.InternalServerError(
			"category.count.failed",
			"Failed to count categories",
			nil,
		)
	}

	totalPages := (totalItems + perPage - 1) / perPage

	resources := make([]CategoryResource, 0, len(categories))
	for _, category := range categories {
		resources = append(resources, NewCategoryResource(category))
	}

	return &GetCategoriesResponse{
		Success: true,
		Data:    resources,
		Meta: PageMeta{
			Page:       page,
			PerPage:    perPage,
			TotalItems: totalItems,
			TotalPages: totalPages,
		},
	}, nil
}
