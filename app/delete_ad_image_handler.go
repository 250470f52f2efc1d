package app

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AliObeid01/dynamic-classified-api/domain"
	"github.com/AliObeid01/dynamic-classified-api/pkg/aws"
	"github.com/AliObeid01/dynamic-classified-api/pkg/events"
	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

type DeleteAdImageHandler struct {
	repository Repository
	bucket     *aws.S3
	publisher  events.Publisher
	baseURL    string
}

func NewDeleteAdImageHandler(repository Repository, bucket *aws.S3, publisher events.Publisher, baseURL string) *DeleteAdImageHandler {
	return &DeleteAdImageHandler{
		repository: repository,
		bucket:     bucket,
		publisher:  publisher,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type DeleteAdImageRequest struct {
	AdID    int64 `params:"id"`
	ImageID int64 `params:"imageId"`
}

type DeleteAdImageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h DeleteAdImageHandler) Handle(ctx context.Context, req *DeleteAdImageRequest) (*DeleteAdImageResponse, error) {
	detail, err := h.repository.GetAd(ctx, req.AdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NotFound("ad.image.ad_not_found", "Ad not found", nil)
		}

		return nil, httperror.InternalServerError("ad.image.delete_failed", "Failed to delete image", nil)
	}

	userID := ctx.Value("UserID").(string)
	if detail.Ad.UserID != userID {
		return nil, httperror.Forbidden("ad.image.forbidden", "You do not own this ad", nil)
	}

	image, err := h.repository.GetAdImage(ctx, req.AdID, req.ImageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NotFound("ad.image.not_found", "Image not found", nil)
		}

		return nil, httperror.InternalServerError("ad.image.delete_failed", "Failed to delete image", nil)
	}

	if err := h.repository.DeleteAdImage(ctx, req.AdID, req.ImageID); err != nil {
		return nil, httperror.InternalServerError("ad.image.delete_failed", "Failed to delete image", nil)
	}

	// Bucket cleanup is best effort: the record is gone either way.
	if key, ok := strings.CutPrefix(image.ImageURL, h.baseURL+"/"); ok {
		if err := h.bucket.Delete(key); err != nil {
			zap.L().Warn("Failed to delete image object from bucket",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	h.publishDeleted(ctx, image)

	return &DeleteAdImageResponse{
		Success: true,
		Message: "Image deleted successfully",
	}, nil
}

func (h DeleteAdImageHandler) publishDeleted(ctx context.Context, image domain.AdImage) {
	if h.publisher == nil {
		return
	}

	go func() {
		headers := events.Headers{
			TraceID:       events.GenerateTraceID(),
			CorrelationID: events.GenerateCorrelationID(),
			Service:       "classified",
		}

		event := events.NewEvent(
			events.AdImageDeletedEvent,
			events.EventVersionV1,
			events.AdImageDeletedPayload{
				ID:        image.ID,
				AdID:      image.AdID,
				ImageURL:  image.ImageURL,
				DeletedAt: time.Now().UTC(),
			},
			headers,
		)

		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := h.publisher.Publish(publishCtx, events.AdExchange, event, headers); err != nil {
			zap.L().Error("Failed to publish ad.image.deleted event",
				zap.Int64("imageID", image.ID),
				zap.Error(err))
		}
	}()
}
