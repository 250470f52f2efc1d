package ad

import (
	"context"

	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

type MyAdsHandler struct {
	repository Repository
}

func NewMyAdsHandler(repository Repository) *MyAdsHandler {
	return &MyAdsHandler{
		repository: repository,
	}
}

type MyAdsRequest struct {
	Page    int `query:"page"`
	PerPage int `query:"per_page"`
}

type MyAdsResponse struct {
	Success bool         `json:"success"`
	Data    []AdResource `json:"data"`
	Meta    PageMeta     `json:"meta"`
}

type PageMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func (h MyAdsHandler) Handle(ctx context.Context, req *MyAdsRequest) (*MyAdsResponse, error) {
	userID := ctx.Value("UserID").(string)

	page := max(req.Page, 1)

	// per_page defaults to 15 and is clamped to [1, 100]
	perPage := req.PerPage
	if perPage == 0 {
		perPage = 15
	}
	perPage = min(max(perPage, 1), 100)

	offset := (page - 1) * perPage

	ads, err := h.repository.ListUserAds(ctx, userID, perPage, offset)
	if err != nil {
		return nil, httperror.InternalServerError(
			"ad.index.failed",
			"Failed to retrieve ads",
			nil,
		)
	}

	totalItems, err := h.repository.CountUserAds(ctx, userID)
	if err != nil {
		return nil, httperror.InternalServerError(
			"ad.count_ads.failed",
			"Failed to count ads",
			nil,
		)
	}

	totalPages := (totalItems + perPage - 1) / perPage

	resources := make([]AdResource, 0, len(ads))
	for _, detail := range ads {
		resources = append(resources, NewAdResource(detail))
	}

	return &MyAdsResponse{
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
