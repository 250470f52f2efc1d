package ad

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

type GetAdHandler struct {
	repository Repository
}

func NewGetAdHandler(repository Repository) *GetAdHandler {
	return &GetAdHandler{
		repository: repository,
	}
}

type GetAdRequest struct {
	AdID int64 `params:"id"`
}

type GetAdResponse struct {
	Success bool       `json:"success"`
	Data    AdResource `json:"data"`
}

func (h GetAdHandler) Handle(ctx context.Context, req *GetAdRequest) (*GetAdResponse, error) {
	detail, err := h.repository.GetAd(ctx, req.AdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NotFound(
				"ad.show.not_found",
				"Ad not found",
				nil,
			)
		}

		return nil, httperror.InternalServerError(
			"ad.show.failed",
			"Failed to retrieve ad",
			nil,
		)
	}

	return &GetAdResponse{
		Success: true,
		Data:    NewAdResource(detail),
	}, nil
}
