package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// CategoryNode is one node of the taxonomy tree as delivered by the catalog
// API. ID is the node's API identifier and keys the fields response;
// ExternalID is the stable identifier stored locally.
type CategoryNode struct {
	ID         int64          `json:"id"`
	ExternalID int64          `json:"externalID"`
	Name       string         `json:"name"`
	NameL1     *string        `json:"name_l1"`
	Slug       string         `json:"slug"`
	Level      int            `json:"level"`
	Children   []CategoryNode `json:"children"`
}

// FieldPayload is one field definition. Choices is kept raw: top-level
// fields carry a flat option list while childrenFields carry options grouped
// under their parent option's value.
type FieldPayload struct {
	Name        string          `json:"name"`
	Attribute   string          `json:"attribute"`
	ValueType   string          `json:"valueType"`
	FilterType  string          `json:"filterType"`
	IsMandatory bool            `json:"isMandatory"`
	Roles       []string        `json:"roles"`
	Choices     json.RawMessage `json:"choices"`
}

type ChoicePayload struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CategoryFieldsPayload is the per-category slice of the fields response.
type CategoryFieldsPayload struct {
	FlatFields     []FieldPayload `json:"flatFields"`
	ChildrenFields []FieldPayload `json:"childrenFields"`
}

// Client fetches the category taxonomy from the catalog API.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(100 * time.Millisecond),
	}
}

func (c *Client) FetchCategories(ctx context.Context) ([]CategoryNode, error) {
	var categories []CategoryNode

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&categories).
		Get("/categories")
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch categories: unexpected status %d", resp.StatusCode())
	}

	return categories, nil
}

// FetchCategoryFields returns the field definitions of one category, keyed by
// the category's API id as a decimal string.
func (c *Client) FetchCategoryFields(ctx context.Context, externalID int64) (map[string]CategoryFieldsPayload, error) {
	var payload map[string]CategoryFieldsPayload

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payload).
		SetQueryParams(map[string]string{
			"categoryExternalIDs":    fmt.Sprintf("%d", externalID),
			"includeWithoutCategory": "true",
			"splitByCategoryIDs":     "true",
			"flatChoices":            "true",
			"groupChoicesBySection":  "true",
			"flat":                   "true",
		}).
		Get("/categoryFields")
	if err != nil {
		return nil, fmt.Errorf("fetch category fields %d: %w", externalID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch category fields %d: unexpected status %d", externalID, resp.StatusCode())
	}

	return payload, nil
}
