package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliObeid01/dynamic-classified-api/app/ad"
)

var testTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func newMockRepository(t *testing.T) (*PgRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// driver name selects the $n bindvar style sqlx rebinds IN queries to
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewPgRepositoryFromDB(sqlxDB), mock
}

func adColumns() []string {
	return []string{"id", "user_id", "category_id", "title", "description", "price", "created_at", "updated_at"}
}

func categoryColumns() []string {
	return []string{"id", "external_id", "parent_id", "name", "name_l1", "slug", "level", "created_at", "updated_at"}
}

func categoryFieldColumns() []string {
	return []string{
		"cf_id", "cf_category_id", "cf_field_id", "cf_is_mandatory", "cf_created_at", "cf_updated_at",
		"f_id", "f_name", "f_attribute", "f_value_type", "f_filter_type", "f_created_at", "f_updated_at",
	}
}

func fieldOptionColumns() []string {
	return []string{"id", "field_id", "parent_id", "value", "label", "created_at", "updated_at"}
}

func adValueColumns() []string {
	return []string{"id", "ad_id", "category_field_id", "selected_option_id", "value", "created_at", "updated_at"}
}

func carsCategoryRow() *sqlmock.Rows {
	return sqlmock.NewRows(categoryColumns()).
		AddRow(5, 1725, nil, "Cars", nil, "cars", 2, testTime, testTime)
}

func carsFieldRows() *sqlmock.Rows {
	return sqlmock.NewRows(categoryFieldColumns()).
		AddRow(100, 5, 1, true, testTime, testTime,
			1, "Mileage", "mileage", "integer", "range", testTime, testTime).
		AddRow(101, 5, 2, true, testTime, testTime,
			2, "Fuel Type", "fuel_type", "string", "single_choice", testTime, testTime)
}

func fuelOptionRows() *sqlmock.Rows {
	return sqlmock.NewRows(fieldOptionColumns()).
		AddRow(10, 2, nil, "petrol", "Petrol", testTime, testTime).
		AddRow(11, 2, nil, "diesel", "Diesel", testTime, testTime)
}

func createParams() ad.CreateAdParams {
	return ad.CreateAdParams{
		UserID:      "user-123",
		CategoryID:  5,
		Title:       "2018 BMW X5",
		Description: "Well maintained, single owner vehicle",
		Price:       decimal.RequireFromString("25000.50"),
		Fields: map[string]any{
			"mileage":   float64(50000),
			"fuel_type": "petrol",
		},
	}
}

func TestCreateAdCommitsAllRows(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ads").
		WithArgs("user-123", int64(5), "2018 BMW X5", "Well maintained, single owner vehicle", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(adColumns()).
			AddRow(42, "user-123", 5, "2018 BMW X5", "Well maintained, single owner vehicle", "25000.50", testTime, testTime))
	mock.ExpectQuery("SELECT \\* FROM categories WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(carsCategoryRow())
	mock.ExpectQuery("FROM category_fields cf").
		WithArgs(int64(5)).
		WillReturnRows(carsFieldRows())
	mock.ExpectQuery("SELECT \\* FROM field_options WHERE field_id IN").
		WithArgs(int64(2)).
		WillReturnRows(fuelOptionRows())
	mock.ExpectQuery("INSERT INTO ad_field_values").
		WithArgs(int64(42), int64(100), nil, "50000").
		WillReturnRows(sqlmock.NewRows(adValueColumns()).
			AddRow(1, 42, 100, nil, "50000", testTime, testTime))
	mock.ExpectQuery("INSERT INTO ad_field_values").
		WithArgs(int64(42), int64(101), int64(10), "petrol").
		WillReturnRows(sqlmock.NewRows(adValueColumns()).
			AddRow(2, 42, 101, 10, "petrol", testTime, testTime))
	mock.ExpectCommit()

	detail, err := repo.CreateAd(context.Background(), createParams())

	require.NoError(t, err)
	assert.Equal(t, int64(42), detail.Ad.ID)
	assert.Equal(t, "Cars", detail.Category.Name)

	require.Len(t, detail.Values, 2)
	assert.Equal(t, "50000", detail.Values[0].Value.Value)
	assert.Nil(t, detail.Values[0].SelectedOption)
	require.NotNil(t, detail.Values[1].SelectedOption)
	assert.Equal(t, "Petrol", detail.Values[1].SelectedOption.Label)
	require.NotNil(t, detail.Values[1].Value.SelectedOptionID)
	assert.Equal(t, int64(10), *detail.Values[1].Value.SelectedOptionID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdSkipsUnsubmittedAndUnknownFields(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ads").
		WillReturnRows(sqlmock.NewRows(adColumns()).
			AddRow(42, "user-123", 5, "2018 BMW X5", "Well maintained, single owner vehicle", "25000.50", testTime, testTime))
	mock.ExpectQuery("SELECT \\* FROM categories WHERE id").
		WillReturnRows(carsCategoryRow())
	mock.ExpectQuery("FROM category_fields cf").
		WillReturnRows(carsFieldRows())
	mock.ExpectQuery("SELECT \\* FROM field_options WHERE field_id IN").
		WillReturnRows(fuelOptionRows())
	// only mileage has a submitted value; the unknown key writes nothing
	mock.ExpectQuery("INSERT INTO ad_field_values").
		WithArgs(int64(42), int64(100), nil, "50000").
		WillReturnRows(sqlmock.NewRows(adValueColumns()).
			AddRow(1, 42, 100, nil, "50000", testTime, testTime))
	mock.ExpectCommit()

	params := createParams()
	params.Fields = map[string]any{
		"mileage": float64(50000),
		"spoiler": "yes",
	}

	detail, err := repo.CreateAd(context.Background(), params)

	require.NoError(t, err)
	require.Len(t, detail.Values, 1)
	assert.Equal(t, "mileage", detail.Values[0].Field.Attribute)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdRollsBackWhenValueInsertFails(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ads").
		WillReturnRows(sqlmock.NewRows(adColumns()).
			AddRow(42, "user-123", 5, "2018 BMW X5", "Well maintained, single owner vehicle", "25000.50", testTime, testTime))
	mock.ExpectQuery("SELECT \\* FROM categories WHERE id").
		WillReturnRows(carsCategoryRow())
	mock.ExpectQuery("FROM category_fields cf").
		WillReturnRows(carsFieldRows())
	mock.ExpectQuery("SELECT \\* FROM field_options WHERE field_id IN").
		WillReturnRows(fuelOptionRows())
	mock.ExpectQuery("INSERT INTO ad_field_values").
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	_, err := repo.CreateAd(context.Background(), createParams())

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdUnresolvedChoiceValueGetsNullOption(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ads").
		WillReturnRows(sqlmock.NewRows(adColumns()).
			AddRow(42, "user-123", 5, "2018 BMW X5", "Well maintained, single owner vehicle", "25000.50", testTime, testTime))
	mock.ExpectQuery("SELECT \\* FROM categories WHERE id").
		WillReturnRows(carsCategoryRow())
	mock.ExpectQuery("FROM category_fields cf").
		WillReturnRows(carsFieldRows())
	// the fuel field has no stored options at all
	mock.ExpectQuery("SELECT \\* FROM field_options WHERE field_id IN").
		WillReturnRows(sqlmock.NewRows(fieldOptionColumns()))
	mock.ExpectQuery("INSERT INTO ad_field_values").
		WithArgs(int64(42), int64(101), nil, "petrol").
		WillReturnRows(sqlmock.NewRows(adValueColumns()).
			AddRow(1, 42, 101, nil, "petrol", testTime, testTime))
	mock.ExpectCommit()

	params := createParams()
	params.Fields = map[string]any{"fuel_type": "petrol"}

	detail, err := repo.CreateAd(context.Background(), params)

	require.NoError(t, err)
	require.Len(t, detail.Values, 1)
	assert.Nil(t, detail.Values[0].SelectedOption)
	assert.Nil(t, detail.Values[0].Value.SelectedOptionID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAdEagerLoadsValues(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT \\* FROM ads WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(adColumns()).
			AddRow(42, "user-123", 5, "2018 BMW X5", "Well maintained, single owner vehicle", "25000.50", testTime, testTime))
	mock.ExpectQuery("SELECT \\* FROM categories WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(carsCategoryRow())

	valueColumns := []string{
		"v_id", "v_ad_id", "v_category_field_id", "v_selected_option_id", "v_value", "v_created_at", "v_updated_at",
		"cf_id", "cf_category_id", "cf_field_id", "cf_is_mandatory", "cf_created_at", "cf_updated_at",
		"f_id", "f_name", "f_attribute", "f_value_type", "f_filter_type", "f_created_at", "f_updated_at",
		"o_id", "o_field_id", "o_parent_id", "o_value", "o_label", "o_created_at", "o_updated_at",
	}
	mock.ExpectQuery("FROM ad_field_values v").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(valueColumns).
			AddRow(1, 42, 100, nil, "50000", testTime, testTime,
				100, 5, 1, true, testTime, testTime,
				1, "Mileage", "mileage", "integer", "range", testTime, testTime,
				nil, nil, nil, nil, nil, nil, nil).
			AddRow(2, 42, 101, 10, "petrol", testTime, testTime,
				101, 5, 2, true, testTime, testTime,
				2, "Fuel Type", "fuel_type", "string", "single_choice", testTime, testTime,
				10, 2, nil, "petrol", "Petrol", testTime, testTime))

	detail, err := repo.GetAd(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "user-123", detail.Ad.UserID)
	assert.True(t, detail.Ad.Price.Equal(decimal.RequireFromString("25000.50")))
	assert.Equal(t, "cars", detail.Category.Slug)

	require.Len(t, detail.Values, 2)
	assert.Nil(t, detail.Values[0].SelectedOption)
	assert.Equal(t, "Mileage", detail.Values[0].Field.Name)
	require.NotNil(t, detail.Values[1].SelectedOption)
	assert.Equal(t, "Petrol", detail.Values[1].SelectedOption.Label)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAdNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT \\* FROM ads WHERE id").
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAd(context.Background(), 7)

	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestCategoryExists(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.CategoryExists(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.CategoryExists(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetCategoryFieldsLoadsChoiceOptions(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("FROM category_fields cf").
		WithArgs(int64(5)).
		WillReturnRows(carsFieldRows())
	mock.ExpectQuery("SELECT \\* FROM field_options WHERE field_id IN").
		WithArgs(int64(2)).
		WillReturnRows(fuelOptionRows())

	details, err := repo.GetCategoryFields(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, details, 2)

	assert.Equal(t, "mileage", details[0].Field.Attribute)
	assert.Empty(t, details[0].Options)

	assert.Equal(t, "fuel_type", details[1].Field.Attribute)
	require.Len(t, details[1].Options, 2)
	assert.Equal(t, "petrol", details[1].Options[0].Value)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCategoryFieldsNoChoiceFieldsSkipsOptionQuery(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("FROM category_fields cf").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(categoryFieldColumns()).
			AddRow(200, 9, 3, false, testTime, testTime,
				3, "Notes", "notes", "string", "text", testTime, testTime))

	details, err := repo.GetCategoryFields(context.Background(), 9)

	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Empty(t, details[0].Options)

	require.NoError(t, mock.ExpectationsWereMet())
}
