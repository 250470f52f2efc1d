package ad

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AliObeid01/dynamic-classified-api/domain"
	"github.com/AliObeid01/dynamic-classified-api/pkg/events"
	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
	"github.com/AliObeid01/dynamic-classified-api/pkg/schema"
)

var maxPrice = decimal.RequireFromString("999999999.99")

type CreateAdHandler struct {
	repository Repository
	publisher  events.Publisher
}

// CreateAdRequest is the raw submission. Price and the dynamic fields map are
// kept as raw JSON so malformed values surface as entries in the validation
// error set rather than as a body-parse failure.
type CreateAdRequest struct {
	CategoryID  int64           `json:"category_id" validate:"required"`
	Title       string          `json:"title" validate:"required,min=3,max=255"`
	Description string          `json:"description" validate:"required,min=10,max=5000"`
	Price       json.RawMessage `json:"price" validate:"required"`
	Fields      json.RawMessage `json:"fields"`
}

type CreateAdResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    AdResource `json:"data"`
}

func (CreateAdResponse) StatusCode() int {
	return http.StatusCreated
}

func NewCreateAdHandler(repository Repository, publisher events.Publisher) *CreateAdHandler {
	return &CreateAdHandler{
		repository: repository,
		publisher:  publisher,
	}
}

// Handle validates the submission against the static ad rules plus the
// dynamic schema of the chosen category, then persists the ad atomically.
// Validation never fails fast: every violated constraint across both rule
// sets is collected before the request is rejected.
func (h *CreateAdHandler) Handle(ctx context.Context, req *CreateAdRequest) (*CreateAdResponse, error) {
	errs := schema.NewErrorSet()

	h.validateStatic(req, errs)
	price := h.validatePrice(req.Price, errs)
	fields, fieldsOK := h.parseFields(req.Fields, errs)

	if req.CategoryID != 0 {
		exists, err := h.repository.CategoryExists(ctx, req.CategoryID)
		if err != nil {
			zap.L().Error("Failed to check category existence",
				zap.Int64("categoryID", req.CategoryID),
				zap.Error(err))
			return nil, httperror.InternalServerError(
				"ad.create.failed",
				"An error occurred while creating the ad",
				nil,
			)
		}

		if !exists {
			errs.Add("category_id", schema.CodeExists, "The selected category does not exist.")
		} else if fieldsOK {
			details, err := h.repository.GetCategoryFields(ctx, req.CategoryID)
			if err != nil {
				zap.L().Error("Failed to load category fields",
					zap.Int64("categoryID", req.CategoryID),
					zap.Error(err))
				return nil, httperror.InternalServerError(
					"ad.create.failed",
					"An error occurred while creating the ad",
					nil,
				)
			}

			schema.Build(details).Validate(fields, errs)
		}
	}

	if !errs.Empty() {
		return nil, httperror.UnprocessableEntity(
			"ad.create.validation_failed",
			"Validation failed",
			errs.Messages(),
		)
	}

	userID := ctx.Value("UserID").(string)

	created, err := h.repository.CreateAd(ctx, CreateAdParams{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		Fields:      fields,
	})
	if err != nil {
		zap.L().Error("Failed to create ad",
			zap.Int64("categoryID", req.CategoryID),
			zap.String("userID", userID),
			zap.Error(err))
		return nil, httperror.InternalServerError(
			"ad.create.failed",
			"An error occurred while creating the ad",
			nil,
		)
	}

	h.publishCreated(ctx, created)

	return &CreateAdResponse{
		Success: true,
		Message: "Ad created successfully",
		Data:    NewAdResource(created),
	}, nil
}

func (h *CreateAdHandler) validateStatic(req *CreateAdRequest, errs *schema.ErrorSet) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(req)
	if err == nil {
		return
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		zap.L().Error("Unexpected validation error", zap.Error(err))
		errs.Add("request", schema.CodeType, "The request could not be validated.")
		return
	}

	for _, fe := range ve {
		path, code, message := staticError(fe)
		errs.Add(path, code, message)
	}
}

func staticError(fe validator.FieldError) (path, code, message string) {
	switch fe.StructField() {
	case "CategoryID":
		return "category_id", schema.CodeRequired, "Please select a category."
	case "Title":
		switch fe.Tag() {
		case "min":
			return "title", schema.CodeLength, "The title must be at least 3 characters."
		case "max":
			return "title", schema.CodeLength, "The title must not exceed 255 characters."
		default:
			return "title", schema.CodeRequired, "Please provide a title for your ad."
		}
	case "Description":
		switch fe.Tag() {
		case "min":
			return "description", schema.CodeLength, "The description must be at least 10 characters."
		case "max":
			return "description", schema.CodeLength, "The description must not exceed 5000 characters."
		default:
			return "description", schema.CodeRequired, "Please provide a description for your ad."
		}
	case "Price":
		return "price", schema.CodeRequired, "Please provide a price for your ad."
	default:
		return fe.StructField(), schema.CodeType, fmt.Sprintf("The %s field is invalid.", fe.StructField())
	}
}

// validatePrice parses the raw price token and checks its bounds. Returns the
// parsed value; zero when any error was recorded.
func (h *CreateAdHandler) validatePrice(raw json.RawMessage, errs *schema.ErrorSet) decimal.Decimal {
	if len(raw) == 0 {
		// required error already recorded by the struct rules
		return decimal.Zero
	}
	if string(raw) == "null" {
		errs.Add("price", schema.CodeRequired, "Please provide a price for your ad.")
		return decimal.Zero
	}

	token := string(raw)
	if token[0] == '"' {
		if err := json.Unmarshal(raw, &token); err != nil {
			errs.Add("price", schema.CodeType, "The price must be a valid number.")
			return decimal.Zero
		}
	}

	price, err := decimal.NewFromString(token)
	if err != nil {
		errs.Add("price", schema.CodeType, "The price must be a valid number.")
		return decimal.Zero
	}

	if price.IsNegative() {
		errs.Add("price", schema.CodeRange, "The price cannot be negative.")
	} else if price.GreaterThan(maxPrice) {
		errs.Add("price", schema.CodeRange, "The price must not exceed 999999999.99.")
	}

	return price
}

func (h *CreateAdHandler) parseFields(raw json.RawMessage, errs *schema.ErrorSet) (map[string]any, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, true
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		errs.Add("fields", schema.CodeType, "The fields must be a map of attributes to values.")
		return nil, false
	}
	if fields == nil {
		fields = map[string]any{}
	}

	return fields, true
}

func (h *CreateAdHandler) publishCreated(ctx context.Context, created domain.AdDetail) {
	if h.publisher == nil {
		return
	}

	go func() {
		fields := make([]events.AdFieldValuePayload, 0, len(created.Values))
		for _, v := range created.Values {
			fields = append(fields, events.AdFieldValuePayload{
				Attribute:        v.Field.Attribute,
				Value:            v.Value.Value,
				SelectedOptionID: v.Value.SelectedOptionID,
			})
		}

		eventPayload := events.AdCreatedPayload{
			ID:         created.Ad.ID,
			UserID:     created.Ad.UserID,
			CategoryID: created.Ad.CategoryID,
			Title:      created.Ad.Title,
			Price:      created.Ad.Price,
			Fields:     fields,
			CreatedAt:  created.Ad.CreatedAt,
		}

		headers := events.Headers{
			TraceID:       events.GenerateTraceID(),
			CorrelationID: events.GenerateCorrelationID(),
			Service:       "classified",
		}

		event := events.NewEvent(
			events.AdCreatedEvent,
			events.EventVersionV1,
			eventPayload,
			headers,
		)

		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := h.publisher.Publish(publishCtx, events.AdExchange, event, headers); err != nil {
			zap.L().Error(
				"Failed to publish ad.created event",
				zap.Int64("adID", created.Ad.ID),
				zap.Error(err),
			)
		}
	}()
}
