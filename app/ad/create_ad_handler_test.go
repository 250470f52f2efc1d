package ad

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AliObeid01/dynamic-classified-api/domain"
	"github.com/AliObeid01/dynamic-classified-api/pkg/httperror"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetCategoryFields(ctx context.Context, categoryID int64) ([]domain.CategoryFieldDetail, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).([]domain.CategoryFieldDetail), args.Error(1)
}

func (m *MockRepository) CreateAd(ctx context.Context, params CreateAdParams) (domain.AdDetail, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(domain.AdDetail), args.Error(1)
}

func (m *MockRepository) GetAd(ctx context.Context, id int64) (domain.AdDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.AdDetail), args.Error(1)
}

func (m *MockRepository) ListUserAds(ctx context.Context, userID string, limit, offset int) ([]domain.AdDetail, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.AdDetail), args.Error(1)
}

func (m *MockRepository) CountUserAds(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func userContext() context.Context {
	ctx := context.WithValue(context.Background(), "UserID", "user-123")
	return context.WithValue(ctx, "UserEmail", "user@example.com")
}

func carsCategoryFields() []domain.CategoryFieldDetail {
	return []domain.CategoryFieldDetail{
		{
			CategoryField: domain.CategoryField{ID: 100, CategoryID: 5, FieldID: 1, IsMandatory: true},
			Field:         domain.Field{ID: 1, Name: "Mileage", Attribute: "mileage", ValueType: domain.ValueTypeInteger, FilterType: domain.FilterTypeRange},
		},
		{
			CategoryField: domain.CategoryField{ID: 101, CategoryID: 5, FieldID: 2, IsMandatory: true},
			Field:         domain.Field{ID: 2, Name: "Fuel Type", Attribute: "fuel_type", ValueType: domain.ValueTypeString, FilterType: domain.FilterTypeSingleChoice},
			Options: []domain.FieldOption{
				{ID: 10, FieldID: 2, Value: "petrol", Label: "Petrol"},
				{ID: 11, FieldID: 2, Value: "diesel", Label: "Diesel"},
			},
		},
	}
}

func carsAdDetail() domain.AdDetail {
	optionID := int64(10)
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	return domain.AdDetail{
		Ad: domain.Ad{
			ID:          42,
			UserID:      "user-123",
			CategoryID:  5,
			Title:       "2018 BMW X5",
			Description: "Well maintained, single owner vehicle",
			Price:       decimal.RequireFromString("25000.50"),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Category: domain.Category{ID: 5, Name: "Cars", Slug: "cars"},
		Values: []domain.AdFieldValueDetail{
			{
				Value:         domain.AdFieldValue{ID: 1, AdID: 42, CategoryFieldID: 100, Value: "50000"},
				CategoryField: domain.CategoryField{ID: 100, CategoryID: 5, FieldID: 1},
				Field:         domain.Field{ID: 1, Name: "Mileage", Attribute: "mileage"},
			},
			{
				Value:          domain.AdFieldValue{ID: 2, AdID: 42, CategoryFieldID: 101, SelectedOptionID: &optionID, Value: "petrol"},
				CategoryField:  domain.CategoryField{ID: 101, CategoryID: 5, FieldID: 2},
				Field:          domain.Field{ID: 2, Name: "Fuel Type", Attribute: "fuel_type"},
				SelectedOption: &domain.FieldOption{ID: 10, FieldID: 2, Value: "petrol", Label: "Petrol"},
			},
		},
	}
}

func validCreateRequest() *CreateAdRequest {
	return &CreateAdRequest{
		CategoryID:  5,
		Title:       "2018 BMW X5",
		Description: "Well maintained, single owner vehicle",
		Price:       json.RawMessage(`25000.50`),
		Fields:      json.RawMessage(`{"mileage": 50000, "fuel_type": "petrol"}`),
	}
}

func requireValidationError(t *testing.T, err error) map[string][]string {
	t.Helper()

	var httpErr *httperror.Error
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
	require.Equal(t, "Validation failed", httpErr.Message)

	messages, ok := httpErr.Details.(map[string][]string)
	require.True(t, ok)
	return messages
}

func TestCreateAdSuccess(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CategoryExists", mock.Anything, int64(5)).Return(true, nil)
	repo.On("GetCategoryFields", mock.Anything, int64(5)).Return(carsCategoryFields(), nil)
	repo.On("CreateAd", mock.Anything, mock.MatchedBy(func(params CreateAdParams) bool {
		return params.UserID == "user-123" &&
			params.CategoryID == 5 &&
			params.Title == "2018 BMW X5" &&
			params.Price.Equal(decimal.RequireFromString("25000.50")) &&
			params.Fields["fuel_type"] == "petrol"
	})).Return(carsAdDetail(), nil)

	handler := NewCreateAdHandler(repo, nil)

	res, err := handler.Handle(userContext(), validCreateRequest())

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.Equal(t, "Ad created successfully", res.Message)
	assert.Equal(t, http.StatusCreated, res.StatusCode())

	assert.Equal(t, int64(42), res.Data.ID)
	assert.Equal(t, "25000.50", res.Data.Price)
	assert.Equal(t, "cars", res.Data.Category.Slug)

	require.Len(t, res.Data.Fields, 2)
	assert.Equal(t, "mileage", res.Data.Fields[0].Attribute)
	assert.Equal(t, "50000", res.Data.Fields[0].Value)
	assert.Nil(t, res.Data.Fields[0].Label)
	require.NotNil(t, res.Data.Fields[1].Label)
	assert.Equal(t, "Petrol", *res.Data.Fields[1].Label)

	repo.AssertExpectations(t)
}

func TestCreateAdStaticValidationFailures(t *testing.T) {
	repo := new(MockRepository)
	handler := NewCreateAdHandler(repo, nil)

	res, err := handler.Handle(userContext(), &CreateAdRequest{})

	require.Nil(t, res)
	messages := requireValidationError(t, err)

	assert.Equal(t, []string{"Please select a category."}, messages["category_id"])
	assert.Equal(t, []string{"Please provide a title for your ad."}, messages["title"])
	assert.Equal(t, []string{"Please provide a description for your ad."}, messages["description"])
	assert.Equal(t, []string{"Please provide a price for your ad."}, messages["price"])

	repo.AssertNotCalled(t, "CategoryExists", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateAd", mock.Anything, mock.Anything)
}

func TestCreateAdTitleAndDescriptionBounds(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CategoryExists", mock.Anything, int64(5)).Return(true, nil)
	repo.On("GetCategoryFields", mock.Anything, int64(5)).Return([]domain.CategoryFieldDetail{}, nil)

	handler := NewCreateAdHandler(repo, nil)

	req := validCreateRequest()
	req.Title = "ab"
	req.Description = "too short"

	res, err := handler.Handle(userContext(), req)

	require.Nil(t, res)
	messages := requireValidationError(t, err)

	assert.Equal(t, []string{"The title must be at least 3 characters."}, messages["title"])
	assert.Equal(t, []string{"The description must be at least 10 characters."}, messages["description"])
}

func TestCreateAdMissingDynamicFields(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CategoryExists", mock.Anything, int64(5)).Return(true, nil)
	repo.On("GetCategoryFields", mock.Anything, int64(5)).Return(carsCategoryFields(), nil)

	handler := NewCreateAdHandler(repo, nil)

	req := validCreateRequest()
	req.Fields = json.RawMessage(`{}`)

	res, err := handler.Handle(userContext(), req)

	require.Nil(t, res)
	messages := requireValidationError(t, err)

	assert.Equal(t, []string{"The Mileage field is required."}, messages["fields.mileage"])
	assert.Equal(t, []string{"The Fuel Type field is required."}, messages["fields.fuel_type"])

	repo.AssertNotCalled(t, "CreateAd", mock.Anything, mock.Anything)
}

func TestCreateAdDynamicTypeAndChoiceViolations(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CategoryExists", mock.Anything, int64(5)).Return(true, nil)
	repo.On("GetCategoryFields", mock.Anything, int64(5)).Return(carsCategoryFields(), nil)

	handler := NewCreateAdHandler(repo, nil)

	req := validCreateRequest()
	req.Fields = json.RawMessage(`{"mileage": "not-a-number", "fuel_type": "hydrogen"}`)

	res, err := handler.Handle(userContext(), req)

	require.Nil(t, res)
	messages := requireValidationError(t, err)

	assert.Equal(t, []string{"The Mileage field must be an integer."}, messages["fields.mileage"])
	assert.Equal(t, []string{"The selected Fuel Type is invalid."}, messages["fields.fuel_type"])
}

func TestCreateAdUnknownFieldKeysIgnored(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CategoryExists", mock.Anything, int64(5)).Return(true, nil)
	repo.On("GetCategoryFields", mock.Anything, int64(5)).Return(carsCategoryFields(), nil)
	repo.On("CreateAd", mock.Anything, mock.Anything).Return(carsAdDetail(), nil)

	handler := NewCreateAdHandler(repo, nil)

	req := validCreateRequest()
	req.Fields = json.RawMessage(`{"mileage": 50000, "fuel_type": "petrol", "spoiler": "yes"}`)

	res, err := handler.Handle(userContext(), req)

	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestCreateAdUnknownCategory(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CategoryExists", mock.Anything, int64(999)).Return(false, nil)

	handler := NewCreateAdHandler(repo, nil)

	req := validCreateRequest()
	req.CategoryID = 999

	res, err := handler.Handle(userContext(), req)

	require.Nil(t, res)
	messages := requireValidationError(t, err)

	assert.Equal(t, []string{"The selected category does not exist."}, messages["category_id"])
	repo.AssertNotCalled(t, "GetCategoryFields", mock.Anything, mock.Anything)
}

func TestCreateAdPriceValidation(t *testing.T) {
	tests := []struct {
		name    string
		price   json.RawMessage
		message string
	}{
		{"negative", json.RawMessage(`-5`), "The price cannot be negative."},
		{"too large", json.RawMessage(`1000000000`), "The price must not exceed 999999999.99."},
		{"not a number", json.RawMessage(`"expensive"`), "The price must be a valid number."},
		{"null", json.RawMessage(`null`), "Please provide a price for your ad."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("CategoryExists", mock.Anything, int64(5)).Return(true, nil)
			repo.On("GetCategoryFields", mock.Anything, int64(5)).Return(carsCategoryFields(), nil)

			handler := NewCreateAdHandler(repo, nil)

			req := validCreateRequest()
			req.Price = tt.price

			res, err := handler.Handle(userContext(), req)

			require.Nil(t, res)
			messages := requireValidationError(t, err)
			assert.Equal(t, []string{tt.message}, messages["price"])
		})
	}
}

func TestCreateAdAcceptsStringPrice(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CategoryExists", mock.Anything, int64(5)).Return(true, nil)
	repo.On("GetCategoryFields", mock.Anything, int64(5)).Return(carsCategoryFields(), nil)
	repo.On("CreateAd", mock.Anything, mock.MatchedBy(func(params CreateAdParams) bool {
		return params.Price.Equal(decimal.RequireFromString("25000.50"))
	})).Return(carsAdDetail(), nil)

	handler := NewCreateAdHandler(repo, nil)

	req := validCreateRequest()
	req.Price = json.RawMessage(`"25000.50"`)

	_, err := handler.Handle(userContext(), req)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateAdMalformedFieldsMap(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CategoryExists", mock.Anything, int64(5)).Return(true, nil)

	handler := NewCreateAdHandler(repo, nil)

	req := validCreateRequest()
	req.Fields = json.RawMessage(`["mileage", 50000]`)

	res, err := handler.Handle(userContext(), req)

	require.Nil(t, res)
	messages := requireValidationError(t, err)
	assert.Equal(t, []string{"The fields must be a map of attributes to values."}, messages["fields"])

	repo.AssertNotCalled(t, "GetCategoryFields", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateAd", mock.Anything, mock.Anything)
}
