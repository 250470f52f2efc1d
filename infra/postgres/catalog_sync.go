package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AliObeid01/dynamic-classified-api/domain"
)

// Catalog upserts used by the taxonomy import job. Categories key on the
// source external_id and fields on their attribute, so re-running the import
// is idempotent.

func (r *PgRepository) UpsertCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	var out domain.Category
	query := `
		INSERT INTO categories (external_id, parent_id, name, slug, name_l1, level)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			name_l1 = EXCLUDED.name_l1,
			level = EXCLUDED.level,
			updated_at = NOW()
		RETURNING *`

	err := r.db.GetContext(ctx, &out, query,
		c.ExternalID, c.ParentID, c.Name, c.Slug, c.NameL1, c.Level)
	if err != nil {
		return out, err
	}

	return out, nil
}

func (r *PgRepository) UpsertField(ctx context.Context, f domain.Field) (domain.Field, error) {
	var out domain.Field
	query := `
		INSERT INTO fields (name, attribute, value_type, filter_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (attribute) DO UPDATE SET
			name = EXCLUDED.name,
			value_type = EXCLUDED.value_type,
			filter_type = EXCLUDED.filter_type,
			updated_at = NOW()
		RETURNING *`

	err := r.db.GetContext(ctx, &out, query, f.Name, f.Attribute, f.ValueType, f.FilterType)
	if err != nil {
		return out, err
	}

	return out, nil
}

func (r *PgRepository) ClearCategoryFields(ctx context.Context, categoryID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM category_fields WHERE category_id = $1`, categoryID)
	return err
}

func (r *PgRepository) LinkCategoryField(ctx context.Context, categoryID, fieldID int64, mandatory bool) error {
	query := `
		INSERT INTO category_fields (category_id, field_id, is_mandatory)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_id, field_id) DO UPDATE SET
			is_mandatory = EXCLUDED.is_mandatory,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, categoryID, fieldID, mandatory)
	return err
}

// UpsertFieldOption matches an option on (field, parent, value). Sibling
// values are unique within that scope, so the match is select-then-insert
// rather than a constraint conflict (parent_id is nullable).
func (r *PgRepository) UpsertFieldOption(ctx context.Context, o domain.FieldOption) (domain.FieldOption, error) {
	var out domain.FieldOption
	selectQuery := `
		SELECT * FROM field_options
		WHERE field_id = $1 AND value = $2 AND parent_id IS NOT DISTINCT FROM $3`

	err := r.db.GetContext(ctx, &out, selectQuery, o.FieldID, o.Value, o.ParentID)
	if err == nil {
		if out.Label == o.Label {
			return out, nil
		}
		updateQuery := `UPDATE field_options SET label = $1, updated_at = NOW() WHERE id = $2 RETURNING *`
		err = r.db.GetContext(ctx, &out, updateQuery, o.Label, out.ID)
		return out, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return out, err
	}

	insertQuery := `
		INSERT INTO field_options (field_id, parent_id, value, label)
		VALUES ($1, $2, $3, $4)
		RETURNING *`

	err = r.db.GetContext(ctx, &out, insertQuery, o.FieldID, o.ParentID, o.Value, o.Label)
	if err != nil {
		return out, err
	}

	return out, nil
}

// GetFieldOptionByValue finds the first option of a field with the given
// value, searching parents and children alike; used to attach child option
// groups under their parent during import.
func (r *PgRepository) GetFieldOptionByValue(ctx context.Context, fieldID int64, value string) (domain.FieldOption, error) {
	var out domain.FieldOption
	query := `SELECT * FROM field_options WHERE field_id = $1 AND value = $2 ORDER BY id LIMIT 1`

	err := r.db.GetContext(ctx, &out, query, fieldID, value)
	if err != nil {
		return out, err
	}

	return out, nil
}
