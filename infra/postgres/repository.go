package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/lib/pq"

	"github.com/AliObeid01/dynamic-classified-api/app/ad"
	"github.com/AliObeid01/dynamic-classified-api/domain"
	"github.com/AliObeid01/dynamic-classified-api/pkg/schema"
)

type PgRepository struct {
	db *sqlx.DB
}

func NewPgRepository(host, database, user, password, port string) *PgRepository {
	db := sqlx.MustConnect("postgres", fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, database,
	))

	// Connection pool configuration
	// With 3 replicas x 15 conns = 45 total connections (safer for default PG max_connections=100)
	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &PgRepository{db: db}
}

// NewPgRepositoryFromDB wraps an existing connection; used by tests.
func NewPgRepositoryFromDB(db *sqlx.DB) *PgRepository {
	return &PgRepository{db: db}
}

func (r *PgRepository) Close() error {
	return r.db.Close()
}

func (r *PgRepository) GetCategories(ctx context.Context, limit, offset int) ([]domain.Category, error) {
	categories := make([]domain.Category, 0)
	query := `SELECT * FROM categories ORDER BY level, name LIMIT $1 OFFSET $2`

	err := r.db.SelectContext(ctx, &categories, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *PgRepository) CountCategories(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM categories`

	err := r.db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PgRepository) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	query := `SELECT * FROM categories WHERE id = $1`

	err := r.db.GetContext(ctx, &c, query, id)
	if err != nil {
		return c, err
	}

	return c, nil
}

func (r *PgRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`

	err := r.db.GetContext(ctx, &exists, query, id)
	if err != nil {
		return false, err
	}

	return exists, nil
}

const categoryFieldsQuery = `
	SELECT cf.id AS cf_id, cf.category_id AS cf_category_id, cf.field_id AS cf_field_id,
	       cf.is_mandatory AS cf_is_mandatory, cf.created_at AS cf_created_at, cf.updated_at AS cf_updated_at,
	       f.id AS f_id, f.name AS f_name, f.attribute AS f_attribute,
	       f.value_type AS f_value_type, f.filter_type AS f_filter_type,
	       f.created_at AS f_created_at, f.updated_at AS f_updated_at
	FROM category_fields cf
	JOIN fields f ON f.id = cf.field_id
	WHERE cf.category_id = $1
	ORDER BY cf.id`

type categoryFieldRow struct {
	CFID          int64     `db:"cf_id"`
	CFCategoryID  int64     `db:"cf_category_id"`
	CFFieldID     int64     `db:"cf_field_id"`
	CFIsMandatory bool      `db:"cf_is_mandatory"`
	CFCreatedAt   time.Time `db:"cf_created_at"`
	CFUpdatedAt   time.Time `db:"cf_updated_at"`
	FID           int64     `db:"f_id"`
	FName         string    `db:"f_name"`
	FAttribute    string    `db:"f_attribute"`
	FValueType    string    `db:"f_value_type"`
	FFilterType   string    `db:"f_filter_type"`
	FCreatedAt    time.Time `db:"f_created_at"`
	FUpdatedAt    time.Time `db:"f_updated_at"`
}

func (r *PgRepository) GetCategoryFields(ctx context.Context, categoryID int64) ([]domain.CategoryFieldDetail, error) {
	return r.getCategoryFields(ctx, r.db, categoryID)
}

func (r *PgRepository) getCategoryFields(ctx context.Context, q sqlx.ExtContext, categoryID int64) ([]domain.CategoryFieldDetail, error) {
	rows := make([]categoryFieldRow, 0)
	if err := sqlx.SelectContext(ctx, q, &rows, categoryFieldsQuery, categoryID); err != nil {
		return nil, err
	}

	details := make([]domain.CategoryFieldDetail, 0, len(rows))
	choiceFieldIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		d := domain.CategoryFieldDetail{
			CategoryField: domain.CategoryField{
				ID:          row.CFID,
				CategoryID:  row.CFCategoryID,
				FieldID:     row.CFFieldID,
				IsMandatory: row.CFIsMandatory,
				CreatedAt:   row.CFCreatedAt,
				UpdatedAt:   row.CFUpdatedAt,
			},
			Field: domain.Field{
				ID:         row.FID,
				Name:       row.FName,
				Attribute:  row.FAttribute,
				ValueType:  row.FValueType,
				FilterType: row.FFilterType,
				CreatedAt:  row.FCreatedAt,
				UpdatedAt:  row.FUpdatedAt,
			},
		}
		if d.Field.IsChoice() {
			choiceFieldIDs = append(choiceFieldIDs, d.Field.ID)
		}
		details = append(details, d)
	}

	if len(choiceFieldIDs) > 0 {
		query, args, err := sqlx.In(`SELECT * FROM field_options WHERE field_id IN (?) ORDER BY id`, choiceFieldIDs)
		if err != nil {
			return nil, err
		}
		query = q.Rebind(query)

		options := make([]domain.FieldOption, 0)
		if err := sqlx.SelectContext(ctx, q, &options, query, args...); err != nil {
			return nil, err
		}

		byField := make(map[int64][]domain.FieldOption, len(choiceFieldIDs))
		for _, o := range options {
			byField[o.FieldID] = append(byField[o.FieldID], o)
		}
		for i := range details {
			details[i].Options = byField[details[i].Field.ID]
		}
	}

	return details, nil
}

// CreateAd inserts the ad and one value row per submitted dynamic field that
// matches a CategoryField of the ad's category, all inside one transaction.
// Choice values are resolved to a stored option id when one matches; an
// unresolved but schema-valid value is persisted with a NULL option reference
// and a warning, never a write failure. Submitted keys with no matching
// CategoryField are ignored.
func (r *PgRepository) CreateAd(ctx context.Context, params ad.CreateAdParams) (domain.AdDetail, error) {
	var detail domain.AdDetail

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return detail, err
	}
	defer tx.Rollback()

	var a domain.Ad
	insertAd := `
		INSERT INTO ads (user_id, category_id, title, description, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`
	if err := tx.GetContext(ctx, &a, insertAd,
		params.UserID, params.CategoryID, params.Title, params.Description, params.Price,
	); err != nil {
		return detail, err
	}

	var category domain.Category
	if err := tx.GetContext(ctx, &category, `SELECT * FROM categories WHERE id = $1`, a.CategoryID); err != nil {
		return detail, err
	}

	fields, err := r.getCategoryFields(ctx, tx, a.CategoryID)
	if err != nil {
		return detail, err
	}

	insertValue := `
		INSERT INTO ad_field_values (ad_id, category_field_id, selected_option_id, value)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	values := make([]domain.AdFieldValueDetail, 0, len(fields))
	for _, d := range fields {
		raw, ok := params.Fields[d.Field.Attribute]
		if !ok || raw == nil {
			continue
		}

		value := schema.Stringify(raw)

		var option *domain.FieldOption
		if d.Field.IsChoice() {
			option = findOption(d.Options, value)
			if option == nil {
				zap.L().Warn("Choice value did not resolve to a stored option",
					zap.Int64("categoryID", a.CategoryID),
					zap.String("attribute", d.Field.Attribute),
					zap.String("value", value),
				)
			}
		}

		var optionID *int64
		if option != nil {
			optionID = &option.ID
		}

		var v domain.AdFieldValue
		if err := tx.GetContext(ctx, &v, insertValue, a.ID, d.CategoryField.ID, optionID, value); err != nil {
			return detail, err
		}

		values = append(values, domain.AdFieldValueDetail{
			Value:          v,
			CategoryField:  d.CategoryField,
			Field:          d.Field,
			SelectedOption: option,
		})
	}

	if err := tx.Commit(); err != nil {
		return detail, err
	}

	detail = domain.AdDetail{Ad: a, Category: category, Values: values}
	return detail, nil
}

func findOption(options []domain.FieldOption, value string) *domain.FieldOption {
	for i := range options {
		if options[i].Value == value {
			return &options[i]
		}
	}
	return nil
}

func (r *PgRepository) GetAd(ctx context.Context, id int64) (domain.AdDetail, error) {
	var detail domain.AdDetail

	var a domain.Ad
	if err := r.db.GetContext(ctx, &a, `SELECT * FROM ads WHERE id = $1`, id); err != nil {
		return detail, err
	}

	var category domain.Category
	if err := r.db.GetContext(ctx, &category, `SELECT * FROM categories WHERE id = $1`, a.CategoryID); err != nil {
		return detail, err
	}

	valuesByAd, err := r.getAdValues(ctx, []int64{a.ID})
	if err != nil {
		return detail, err
	}

	detail = domain.AdDetail{Ad: a, Category: category, Values: valuesByAd[a.ID]}
	return detail, nil
}

func (r *PgRepository) ListUserAds(ctx context.Context, userID string, limit, offset int) ([]domain.AdDetail, error) {
	ads := make([]domain.Ad, 0)
	query := `SELECT * FROM ads WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &ads, query, userID, limit, offset); err != nil {
		return nil, err
	}

	details := make([]domain.AdDetail, 0, len(ads))
	if len(ads) == 0 {
		return details, nil
	}

	adIDs := make([]int64, 0, len(ads))
	categoryIDs := make([]int64, 0, len(ads))
	seen := make(map[int64]bool, len(ads))
	for _, a := range ads {
		adIDs = append(adIDs, a.ID)
		if !seen[a.CategoryID] {
			seen[a.CategoryID] = true
			categoryIDs = append(categoryIDs, a.CategoryID)
		}
	}

	catQuery, catArgs, err := sqlx.In(`SELECT * FROM categories WHERE id IN (?)`, categoryIDs)
	if err != nil {
		return nil, err
	}
	catQuery = r.db.Rebind(catQuery)

	categories := make([]domain.Category, 0, len(categoryIDs))
	if err := r.db.SelectContext(ctx, &categories, catQuery, catArgs...); err != nil {
		return nil, err
	}
	categoriesByID := make(map[int64]domain.Category, len(categories))
	for _, c := range categories {
		categoriesByID[c.ID] = c
	}

	valuesByAd, err := r.getAdValues(ctx, adIDs)
	if err != nil {
		return nil, err
	}

	for _, a := range ads {
		details = append(details, domain.AdDetail{
			Ad:       a,
			Category: categoriesByID[a.CategoryID],
			Values:   valuesByAd[a.ID],
		})
	}

	return details, nil
}

func (r *PgRepository) CountUserAds(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ads WHERE user_id = $1`

	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

const adValuesQuery = `
	SELECT v.id AS v_id, v.ad_id AS v_ad_id, v.category_field_id AS v_category_field_id,
	       v.selected_option_id AS v_selected_option_id, v.value AS v_value,
	       v.created_at AS v_created_at, v.updated_at AS v_updated_at,
	       cf.id AS cf_id, cf.category_id AS cf_category_id, cf.field_id AS cf_field_id,
	       cf.is_mandatory AS cf_is_mandatory, cf.created_at AS cf_created_at, cf.updated_at AS cf_updated_at,
	       f.id AS f_id, f.name AS f_name, f.attribute AS f_attribute,
	       f.value_type AS f_value_type, f.filter_type AS f_filter_type,
	       f.created_at AS f_created_at, f.updated_at AS f_updated_at,
	       o.id AS o_id, o.field_id AS o_field_id, o.parent_id AS o_parent_id,
	       o.value AS o_value, o.label AS o_label,
	       o.created_at AS o_created_at, o.updated_at AS o_updated_at
	FROM ad_field_values v
	JOIN category_fields cf ON cf.id = v.category_field_id
	JOIN fields f ON f.id = cf.field_id
	LEFT JOIN field_options o ON o.id = v.selected_option_id
	WHERE v.ad_id IN (?)
	ORDER BY v.ad_id, v.id`

type adValueRow struct {
	categoryFieldRow
	VID              int64          `db:"v_id"`
	VAdID            int64          `db:"v_ad_id"`
	VCategoryFieldID int64          `db:"v_category_field_id"`
	VOptionID        sql.NullInt64  `db:"v_selected_option_id"`
	VValue           string         `db:"v_value"`
	VCreatedAt       time.Time      `db:"v_created_at"`
	VUpdatedAt       time.Time      `db:"v_updated_at"`
	OID              sql.NullInt64  `db:"o_id"`
	OFieldID         sql.NullInt64  `db:"o_field_id"`
	OParentID        sql.NullInt64  `db:"o_parent_id"`
	OValue           sql.NullString `db:"o_value"`
	OLabel           sql.NullString `db:"o_label"`
	OCreatedAt       sql.NullTime   `db:"o_created_at"`
	OUpdatedAt       sql.NullTime   `db:"o_updated_at"`
}

func (r *PgRepository) getAdValues(ctx context.Context, adIDs []int64) (map[int64][]domain.AdFieldValueDetail, error) {
	query, args, err := sqlx.In(adValuesQuery, adIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	rows := make([]adValueRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	byAd := make(map[int64][]domain.AdFieldValueDetail, len(adIDs))
	for _, row := range rows {
		var optionID *int64
		if row.VOptionID.Valid {
			id := row.VOptionID.Int64
			optionID = &id
		}

		detail := domain.AdFieldValueDetail{
			Value: domain.AdFieldValue{
				ID:               row.VID,
				AdID:             row.VAdID,
				CategoryFieldID:  row.VCategoryFieldID,
				SelectedOptionID: optionID,
				Value:            row.VValue,
				CreatedAt:        row.VCreatedAt,
				UpdatedAt:        row.VUpdatedAt,
			},
			CategoryField: domain.CategoryField{
				ID:          row.CFID,
				CategoryID:  row.CFCategoryID,
				FieldID:     row.CFFieldID,
				IsMandatory: row.CFIsMandatory,
				CreatedAt:   row.CFCreatedAt,
				UpdatedAt:   row.CFUpdatedAt,
			},
			Field: domain.Field{
				ID:         row.FID,
				Name:       row.FName,
				Attribute:  row.FAttribute,
				ValueType:  row.FValueType,
				FilterType: row.FFilterType,
				CreatedAt:  row.FCreatedAt,
				UpdatedAt:  row.FUpdatedAt,
			},
		}

		if row.OID.Valid {
			option := domain.FieldOption{
				ID:        row.OID.Int64,
				FieldID:   row.OFieldID.Int64,
				Value:     row.OValue.String,
				Label:     row.OLabel.String,
				CreatedAt: row.OCreatedAt.Time,
				UpdatedAt: row.OUpdatedAt.Time,
			}
			if row.OParentID.Valid {
				parentID := row.OParentID.Int64
				option.ParentID = &parentID
			}
			detail.SelectedOption = &option
		}

		byAd[row.VAdID] = append(byAd[row.VAdID], detail)
	}

	return byAd, nil
}

func (r *PgRepository) SaveAdImage(ctx context.Context, adID int64, imageURL string) (domain.AdImage, error) {
	var img domain.AdImage
	query := `INSERT INTO ad_images (ad_id, image_url) VALUES ($1, $2) RETURNING *`

	err := r.db.GetContext(ctx, &img, query, adID, imageURL)
	if err != nil {
		return img, err
	}

	return img, nil
}

func (r *PgRepository) GetAdImages(ctx context.Context, adID int64) ([]domain.AdImage, error) {
	images := make([]domain.AdImage, 0)
	query := `SELECT * FROM ad_images WHERE ad_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &images, query, adID)
	if err != nil {
		return nil, err
	}

	return images, nil
}

func (r *PgRepository) GetAdImage(ctx context.Context, adID, imageID int64) (domain.AdImage, error) {
	var img domain.AdImage
	query := `SELECT * FROM ad_images WHERE id = $1 AND ad_id = $2`

	err := r.db.GetContext(ctx, &img, query, imageID, adID)
	if err != nil {
		return img, err
	}

	return img, nil
}

func (r *PgRepository) DeleteAdImage(ctx context.Context, adID, imageID int64) error {
	query := `DELETE FROM ad_images WHERE id = $1 AND ad_id = $2`

	_, err := r.db.ExecContext(ctx, query, imageID, adID)

	return err
}
