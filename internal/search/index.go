package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

// Index is the elasticsearch-backed product index.
type Index struct {
	client *elasticsearch.Client
	index  string
}

type document struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Slug        string `json:"slug"`
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// Connect checks the cluster is reachable before handing out an Index.
func Connect(ctx context.Context, cfg Config) (*Index, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("elasticsearch info", res.StatusCode, res.Body)
	}

	logging.FromContext(ctx).Info("connected to elasticsearch", "url", cfg.URL, "index", cfg.Index)
	return New(client, cfg.Index), nil
}

func New(client *elasticsearch.Client, index string) *Index {
	return &Index{client: client, index: index}
}

func (ix *Index) Search(ctx context.Context, q string, offset, limit int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from":    offset,
		"size":    limit,
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := ix.client.Search(
		ix.client.Search.WithContext(ctx),
		ix.client.Search.WithIndex(ix.index),
		ix.client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}

func (ix *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	payload, err := json.Marshal(document{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Slug:        p.Slug,
	})
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}

	res, err := ix.client.Index(ix.index, bytes.NewReader(payload),
		ix.client.Index.WithContext(ctx),
		ix.client.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index product", res.StatusCode, res.Body)
	}
	return nil
}

func (ix *Index) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := ix.client.Delete(ix.index, id.String(), ix.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete product", res.StatusCode, res.Body)
	}
	return nil
}

// Reindex pushes every product into the index, stopping at the first failure.
func (ix *Index) Reindex(ctx context.Context, products []models.Product) error {
	for i := range products {
		if err := ix.IndexProduct(ctx, &products[i]); err != nil {
			return err
		}
	}
	logging.FromContext(ctx).Info("products reindexed", "count", len(products))
	return nil
}

func responseError(op string, status int, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("%s: elasticsearch status %d: %s", op, status, bytes.TrimSpace(msg))
}
