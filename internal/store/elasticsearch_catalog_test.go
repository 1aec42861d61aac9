package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newESCatalog(t *testing.T, handler http.HandlerFunc) *ElasticsearchCatalog {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewElasticsearchCatalog(client, "loan-products")
}

const searchResponse = `{
  "hits": {
    "total": {"value": 2},
    "hits": [
      {"_id": "home-1", "_source": {"id": "home-1", "loanType": "home", "name": {"en": "Home Loan", "ta": "வீட்டுக்கடன்"}, "isActive": true}},
      {"_id": "gold-1", "_source": {"loanType": "gold", "name": {"en": "Gold Loan"}, "isActive": true,
        "eligibilityCriteria": {"minAge": 18, "maxAge": 80, "minIncome": 0}}}
    ]
  }
}`

// ==========================
// Catalog Tests
// ==========================

func TestElasticsearchCatalog_ActiveLoans(t *testing.T) {
	var query map[string]interface{}
	catalog := newESCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loan-products/_search", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &query))
		_, _ = io.WriteString(w, searchResponse)
	})

	loans, err := catalog.ActiveLoans(context.Background())

	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, "gold-1", loans[0].ID, "document id fills a missing source id; results ordered by loan type")
	assert.Equal(t, 18, loans[0].EligibilityCriteria.MinAge)
	assert.Equal(t, "வீட்டுக்கடன்", loans[1].Name.TA)

	assert.EqualValues(t, maxCatalogSize, query["size"])
	assert.Contains(t, mustJSON(t, query["query"]), `"isActive":true`)
	assert.NotContains(t, query, "sort", "sorting on a dynamically mapped text field is rejected by the server")
}

func TestElasticsearchCatalog_SearchError(t *testing.T) {
	catalog := newESCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"type":"cluster_block_exception"}}`)
	})

	_, err := catalog.ActiveLoans(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestElasticsearchCatalog_GetLoan(t *testing.T) {
	catalog := newESCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/_doc/home-1"):
			_, _ = io.WriteString(w, `{"_id":"home-1","found":true,"_source":{"loanType":"home","name":{"en":"Home Loan"},"isActive":false}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"_id":"x","found":false}`)
		}
	})

	loan, err := catalog.GetLoan(context.Background(), "home-1")
	require.NoError(t, err)
	assert.Equal(t, "home-1", loan.ID)
	assert.False(t, loan.IsActive)

	_, err = catalog.GetLoan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestElasticsearchCatalog_Index(t *testing.T) {
	var paths []string
	var refresh []string
	var mapping map[string]interface{}
	catalog := newESCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/loan-products":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/loan-products":
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &mapping))
			_, _ = io.WriteString(w, `{"acknowledged":true}`)
		default:
			assert.Equal(t, http.MethodPut, r.Method)
			paths = append(paths, r.URL.Path)
			refresh = append(refresh, r.URL.Query().Get("refresh"))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"result":"created"}`)
		}
	})

	require.NoError(t, catalog.Index(context.Background(), testLoans()))

	require.NotNil(t, mapping, "missing index is created with an explicit mapping")
	props := mapping["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, "keyword", props["loanType"].(map[string]interface{})["type"])
	assert.Equal(t, "boolean", props["isActive"].(map[string]interface{})["type"])

	assert.Equal(t, []string{"/loan-products/_doc/home-1", "/loan-products/_doc/gold-1"}, paths)
	assert.Equal(t, []string{"", "true"}, refresh)
}

func TestElasticsearchCatalog_IndexKeepsExistingIndex(t *testing.T) {
	var created bool
	catalog := newESCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/loan-products":
			created = true
		default:
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"result":"updated"}`)
		}
	})

	require.NoError(t, catalog.Index(context.Background(), testLoans()))
	assert.False(t, created)
}

func TestElasticsearchCatalog_EnsureIndexError(t *testing.T) {
	catalog := newESCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"resource_already_exists_exception"}}`)
	})

	err := catalog.Index(context.Background(), testLoans())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create index loan-products failed")
}
