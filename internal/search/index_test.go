package search

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

type call struct {
	method string
	path   string
	body   string
}

type fakeTransport struct {
	calls  []call
	status int
	body   string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c := call{method: req.Method, path: req.URL.Path}
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		c.body = string(b)
	}
	f.calls = append(f.calls, c)

	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: f.status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

func newTestIndex(t *testing.T, status int, body string) (*Index, *fakeTransport) {
	t.Helper()

	tr := &fakeTransport{status: status, body: body}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: tr,
	})
	require.NoError(t, err)
	return New(client, "products"), tr
}

func TestSearchReturnsIDsInRankOrder(t *testing.T) {
	t.Parallel()

	first, second := uuid.New(), uuid.New()
	ix, tr := newTestIndex(t, http.StatusOK, `{"hits":{"total":{"value":2},"hits":[{"_id":"`+
		first.String()+`"},{"_id":"not-a-uuid"},{"_id":"`+second.String()+`"}]}}`)

	total, ids, err := ix.Search(context.Background(), "shirt", 0, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uuid.UUID{first, second}, ids)

	require.Len(t, tr.calls, 1)
	assert.Equal(t, "/products/_search", tr.calls[0].path)
	assert.Contains(t, tr.calls[0].body, `"name^2"`)
	assert.Contains(t, tr.calls[0].body, `"fuzziness":"AUTO"`)
}

func TestSearchErrorStatus(t *testing.T) {
	t.Parallel()

	ix, _ := newTestIndex(t, http.StatusBadRequest, `{"error":"bad query"}`)
	_, _, err := ix.Search(context.Background(), "x", 0, 10)
	assert.ErrorContains(t, err, "status 400")
}

func TestIndexAndDeleteProduct(t *testing.T) {
	t.Parallel()

	ix, tr := newTestIndex(t, http.StatusOK, `{"result":"created"}`)
	p := &models.Product{ID: uuid.New(), Name: "Linen Shirt", Description: "breathable", Price: 250_000}

	require.NoError(t, ix.IndexProduct(context.Background(), p))
	require.NoError(t, ix.DeleteProduct(context.Background(), p.ID))

	require.Len(t, tr.calls, 2)
	assert.Equal(t, "/products/_doc/"+p.ID.String(), tr.calls[0].path)
	assert.Contains(t, tr.calls[0].body, `"name":"Linen Shirt"`)
	assert.Equal(t, http.MethodDelete, tr.calls[1].method)
}

func TestDeleteMissingProductIsNotAnError(t *testing.T) {
	t.Parallel()

	ix, _ := newTestIndex(t, http.StatusNotFound, `{"result":"not_found"}`)
	assert.NoError(t, ix.DeleteProduct(context.Background(), uuid.New()))
}
