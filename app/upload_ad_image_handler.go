package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AliObeid01/dynamic-classified-api/domain"
	"github.com/AliObeid01/dynamic-classified-api/pkg/aws"
	"github.com/AliObeid01/dynamic-classified-api/pkg/events"
	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

const maxImageSize = 5 * 1024 * 1024

type UploadAdImageHandler struct {
	repository Repository
	bucket     *aws.S3
	publisher  events.Publisher
	baseURL    string
}

func NewUploadAdImageHandler(repository Repository, bucket *aws.S3, publisher events.Publisher, baseURL string) *UploadAdImageHandler {
	return &UploadAdImageHandler{
		repository: repository,
		bucket:     bucket,
		publisher:  publisher,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type UploadAdImageRequest struct {
	AdID int64 `params:"id"`
}

type UploadAdImageResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    AdImageResource `json:"data"`
}

func (UploadAdImageResponse) StatusCode() int {
	return http.StatusCreated
}

type AdImageResource struct {
	ID        int64     `json:"id"`
	AdID      int64     `json:"ad_id"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func NewAdImageResource(image domain.AdImage) AdImageResource {
	return AdImageResource{
		ID:        image.ID,
		AdID:      image.AdID,
		ImageURL:  image.ImageURL,
		CreatedAt: image.CreatedAt,
	}
}

func (h UploadAdImageHandler) Handle(ctx context.Context, req *UploadAdImageRequest) (*UploadAdImageResponse, error) {
	detail, err := h.repository.GetAd(ctx, req.AdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NotFound("ad.image.ad_not_found", "Ad not found", nil)
		}

		return nil, httperror.InternalServerError("ad.image.upload_failed", "Failed to upload image", nil)
	}

	userID := ctx.Value("UserID").(string)
	if detail.Ad.UserID != userID {
		return nil, httperror.Forbidden("ad.image.forbidden", "You do not own this ad", nil)
	}

	fiberCtx := ctx.Value("fiber").(*fiber.Ctx)

	file, err := fiberCtx.FormFile("image")
	if err != nil {
		return nil, httperror.BadRequest("ad.image.missing", "An image file is required", nil)
	}

	if file.Size > maxImageSize {
		return nil, httperror.UnprocessableEntity("ad.image.too_large", "The image must not exceed 5MB", nil)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return nil, httperror.UnprocessableEntity("ad.image.invalid_type", "The image must be a png or jpeg file", nil)
	}

	src, err := file.Open()
	if err != nil {
		return nil, httperror.InternalServerError("ad.image.upload_failed", "Failed to upload image", nil)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, httperror.InternalServerError("ad.image.upload_failed", "Failed to upload image", nil)
	}

	key := fmt.Sprintf("ads/%d/%s%s", req.AdID, uuid.New().String(), ext)

	if err := h.bucket.Upload(key, data); err != nil {
		zap.L().Error("Failed to upload image to bucket",
			zap.Int64("adID", req.AdID),
			zap.String("key", key),
			zap.Error(err))
		return nil, httperror.InternalServerError("ad.image.upload_failed", "Failed to upload image", nil)
	}

	imageURL := h.baseURL + "/" + key

	image, err := h.repository.SaveAdImage(ctx, req.AdID, imageURL)
	if err != nil {
		zap.L().Error("Failed to save ad image, removing uploaded object",
			zap.Int64("adID", req.AdID),
			zap.String("key", key),
			zap.Error(err))

		if deleteErr := h.bucket.Delete(key); deleteErr != nil {
			zap.L().Warn("Failed to remove orphaned image object",
				zap.String("key", key),
				zap.Error(deleteErr))
		}

		return nil, httperror.InternalServerError("ad.image.upload_failed", "Failed to upload image", nil)
	}

	h.publishUploaded(ctx, image)

	return &UploadAdImageResponse{
		Success: true,
		Message: "Image uploaded successfully",
		Data:    NewAdImageResource(image),
	}, nil
}

func (h UploadAdImageHandler) publishUploaded(ctx context.Context, image domain.AdImage) {
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
			events.AdImageUploadedEvent,
			events.EventVersionV1,
			events.AdImageUploadedPayload{
				ID:        image.ID,
				AdID:      image.AdID,
				ImageURL:  image.ImageURL,
				CreatedAt: image.CreatedAt,
			},
			headers,
		)

		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := h.publisher.Publish(publishCtx, events.AdExchange, event, headers); err != nil {
			zap.L().Error("Failed to publish ad.image.uploaded event",
				zap.Int64("imageID", image.ID),
				zap.Error(err))
		}
	}()
}
