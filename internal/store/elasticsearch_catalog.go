package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"loan-advisor/internal/models"
)

// maxCatalogSize bounds the active-loans search.
const maxCatalogSize = 200

// ElasticsearchCatalog reads products from a search index whose documents
// are LoanProduct JSON.
type ElasticsearchCatalog struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchCatalog(client *elasticsearch.Client, index string) *ElasticsearchCatalog {
	return &ElasticsearchCatalog{client: client, index: index}
}

type loanHit struct {
	ID     string             `json:"_id"`
	Source models.LoanProduct `json:"_source"`
}

func (h loanHit) product() models.LoanProduct {
	loan := h.Source
	if loan.ID == "" {
		loan.ID = h.ID
	}
	return loan
}

func (c *ElasticsearchCatalog) ActiveLoans(ctx context.Context) ([]models.LoanProduct, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"isActive": true}},
				},
			},
		},
		"size": maxCatalogSize,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: search failed: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []loanHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("elasticsearch: decode search: %w", err)
	}

	loans := make([]models.LoanProduct, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		loans = append(loans, hit.product())
	}
	// Ordered here so indices created by dynamic mapping (loanType as text)
	// stay searchable.
	sort.SliceStable(loans, func(i, j int) bool {
		if loans[i].LoanType != loans[j].LoanType {
			return loans[i].LoanType < loans[j].LoanType
		}
		return loans[i].ID < loans[j].ID
	})
	return loans, nil
}

func (c *ElasticsearchCatalog) GetLoan(ctx context.Context, id string) (*models.LoanProduct, error) {
	req := esapi.GetRequest{
		Index:      c.index,
		DocumentID: id,
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: get: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: get failed: %s", res.String())
	}

	var hit loanHit
	if err := json.NewDecoder(res.Body).Decode(&hit); err != nil {
		return nil, fmt.Errorf("elasticsearch: decode document: %w", err)
	}
	loan := hit.product()
	return &loan, nil
}

// catalogMapping keeps the filter and id fields exact-match.
const catalogMapping = `{
  "mappings": {
    "properties": {
      "id":       {"type": "keyword"},
      "loanType": {"type": "keyword"},
      "isActive": {"type": "boolean"}
    }
  }
}`

// EnsureIndex creates the index with the catalog mapping unless it exists.
func (c *ElasticsearchCatalog) EnsureIndex(ctx context.Context) error {
	exists, err := esapi.IndicesExistsRequest{Index: []string{c.index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("elasticsearch: check index %s: %w", c.index, err)
	}
	exists.Body.Close()
	switch {
	case exists.StatusCode == http.StatusOK:
		return nil
	case exists.StatusCode != http.StatusNotFound:
		return fmt.Errorf("elasticsearch: check index %s failed: %s", c.index, exists.Status())
	}

	res, err := esapi.IndicesCreateRequest{
		Index: c.index,
		Body:  strings.NewReader(catalogMapping),
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("elasticsearch: create index %s: %w", c.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch: create index %s failed: %s", c.index, res.String())
	}
	return nil
}

// Index creates the index if needed, writes loans as documents keyed by
// their id and refreshes the index so they are searchable immediately.
func (c *ElasticsearchCatalog) Index(ctx context.Context, loans []models.LoanProduct) error {
	if err := c.EnsureIndex(ctx); err != nil {
		return err
	}
	for i, loan := range loans {
		body, err := json.Marshal(loan)
		if err != nil {
			return fmt.Errorf("elasticsearch: encode loan %s: %w", loan.ID, err)
		}

		req := esapi.IndexRequest{
			Index:      c.index,
			DocumentID: loan.ID,
			Body:       strings.NewReader(string(body)),
		}
		if i == len(loans)-1 {
			req.Refresh = "true"
		}

		res, err := req.Do(ctx, c.client)
		if err != nil {
			return fmt.Errorf("elasticsearch: index loan %s: %w", loan.ID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch: index loan %s failed: %s", loan.ID, res.Status())
		}
	}
	return nil
}
