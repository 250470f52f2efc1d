package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

type GetAdImagesHandler struct {
	repository Repository
}

func NewGetAdImagesHandler(repository Repository) *GetAdImagesHandler {
	return &GetAdImagesHandler{
		repository: repository,
	}
}

type GetAdImagesRequest struct {
	AdID int64 `params:"id"`
}

type GetAdImagesResponse struct {
	Success bool              `json:"success"`
	Data    []AdImageResource `json:"data"`
}

func (h GetAdImagesHandler) Handle(ctx context.Context, req *GetAdImagesRequest) (*GetAdImagesResponse, error) {
	if _, err := h.repository.GetAd(ctx, req.AdID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NotFound("ad.image.ad_not_found", "Ad not found", nil)
		}

		return nil, httperror.InternalServerError("ad.image.list_failed", "Failed to retrieve images", nil)
	}

	images, err := h.repository.GetAdImages(ctx, req.AdID)
	if err != nil {
		return nil, httperror.InternalServerError("ad.image.list_failed", "Failed to retrieve images", nil)
	}

	resources := make([]AdImageResource, 0, len(images))
	for _, image := range images {
		resources = append(resources, NewAdImageResource(image))
	}

	return &GetAdImagesResponse{
		Success: true,
		Data:    resources,
	}, nil
}
