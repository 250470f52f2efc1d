package seeder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AliObeid01/dynamic-classified-api/domain"
)

// excludeRole marks fields the catalog source does not accept on submissions.
const excludeRole = "exclude_from_post_an_ad"

// Repository is the catalog write surface the import needs.
type Repository interface {
	UpsertCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	UpsertField(ctx context.Context, f domain.Field) (domain.Field, error)
	ClearCategoryFields(ctx context.Context, categoryID int64) error
	LinkCategoryField(ctx context.Context, categoryID, fieldID int64, mandatory bool) error
	UpsertFieldOption(ctx context.Context, o domain.FieldOption) (domain.FieldOption, error)
	GetFieldOptionByValue(ctx context.Context, fieldID int64, value string) (domain.FieldOption, error)
}

type CatalogClient interface {
	FetchCategories(ctx context.Context) ([]CategoryNode, error)
	FetchCategoryFields(ctx context.Context, externalID int64) (map[string]CategoryFieldsPayload, error)
}

// Seeder imports the category taxonomy, field definitions and option lists
// from the catalog API into the local database. The import is idempotent:
// categories key on external_id, fields on attribute, options on
// (field, parent, value).
type Seeder struct {
	client     CatalogClient
	repository Repository
}

func NewSeeder(client CatalogClient, repository Repository) *Seeder {
	return &Seeder{
		client:     client,
		repository: repository,
	}
}

func (s *Seeder) Run(ctx context.Context) error {
	categories, err := s.client.FetchCategories(ctx)
	if err != nil {
		return err
	}

	zap.L().Info("Syncing categories", zap.Int("count", len(categories)))

	for _, node := range categories {
		if _, err := s.syncCategory(ctx, node, nil); err != nil {
			return err
		}
	}

	zap.L().Info("Catalog sync complete")
	return nil
}

// syncCategory upserts one node and recurses into its children. Fields are
// attached at the leaf level: each child's field links are rebuilt from the
// catalog response so removed fields do not linger.
func (s *Seeder) syncCategory(ctx context.Context, node CategoryNode, parentID *int64) (domain.Category, error) {
	category, err := s.repository.UpsertCategory(ctx, domain.Category{
		ExternalID: node.ExternalID,
		ParentID:   parentID,
		Name:       node.Name,
		NameL1:     node.NameL1,
		Slug:       node.Slug,
		Level:      node.Level,
	})
	if err != nil {
		return category, err
	}

	if err := s.repository.ClearCategoryFields(ctx, category.ID); err != nil {
		return category, err
	}

	for _, childNode := range node.Children {
		child, err := s.syncCategory(ctx, childNode, &category.ID)
		if err != nil {
			return category, err
		}

		if err := s.syncCategoryFields(ctx, child, childNode.ID); err != nil {
			// a single category failing to sync its fields should not
			// abort the whole import
			zap.L().Warn("Failed to sync category fields",
				zap.String("category", child.Name),
				zap.Int64("externalID", child.ExternalID),
				zap.Error(err))
		}
	}

	return category, nil
}

func (s *Seeder) syncCategoryFields(ctx context.Context, category domain.Category, apiID int64) error {
	payload, err := s.client.FetchCategoryFields(ctx, category.ExternalID)
	if err != nil {
		return err
	}

	data, ok := payload[strconv.FormatInt(apiID, 10)]
	if !ok {
		return nil
	}

	if err := s.syncFields(ctx, category, data.FlatFields, false); err != nil {
		return err
	}
	if len(data.ChildrenFields) > 0 {
		if err := s.syncFields(ctx, category, data.ChildrenFields, true); err != nil {
			return err
		}
	}

	// throttle so the catalog API is not hammered
	time.Sleep(50 * time.Millisecond)
	return nil
}

func (s *Seeder) syncFields(ctx context.Context, category domain.Category, fields []FieldPayload, nested bool) error {
	for _, payload := range fields {
		if payload.Roles == nil || slices.Contains(payload.Roles, excludeRole) {
			continue
		}

		field, err := s.repository.UpsertField(ctx, domain.Field{
			Name:       payload.Name,
			Attribute:  payload.Attribute,
			ValueType:  payload.ValueType,
			FilterType: payload.FilterType,
		})
		if err != nil {
			return err
		}

		if err := s.repository.LinkCategoryField(ctx, category.ID, field.ID, payload.IsMandatory); err != nil {
			return err
		}

		if len(payload.Choices) > 0 && field.IsChoice() {
			if err := s.syncOptions(ctx, field, payload.Choices, nested); err != nil {
				return err
			}
		}
	}

	return nil
}

// syncOptions persists a field's option list. Flat choices become top-level
// options; nested choices come grouped under their parent option's value and
// are attached below the matching parent row.
func (s *Seeder) syncOptions(ctx context.Context, field domain.Field, raw json.RawMessage, nested bool) error {
	if !nested {
		var choices []ChoicePayload
		if err := json.Unmarshal(raw, &choices); err != nil {
			return err
		}

		for _, choice := range choices {
			_, err := s.repository.UpsertFieldOption(ctx, domain.FieldOption{
				FieldID: field.ID,
				Value:   choice.Value,
				Label:   choice.Label,
			})
			if err != nil {
				return err
			}
		}

		return nil
	}

	var grouped map[string][]ChoicePayload
	if err := json.Unmarshal(raw, &grouped); err != nil {
		return err
	}

	for parentValue, choices := range grouped {
		parent, err := s.repository.GetFieldOptionByValue(ctx, field.ID, parentValue)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				zap.L().Warn("Parent option not found, skipping nested group",
					zap.String("attribute", field.Attribute),
					zap.String("parentValue", parentValue))
				continue
			}
			return err
		}

		for _, choice := range choices {
			_, err := s.repository.UpsertFieldOption(ctx, domain.FieldOption{
				FieldID:  field.ID,
				ParentID: &parent.ID,
				Value:    choice.Value,
				Label:    choice.Label,
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}
