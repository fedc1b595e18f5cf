package search

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/util"
)

// ProductIndex mirrors the catalog into Elasticsearch for text search.
// A nil ES client disables indexing and makes every search return no
// ids.
type ProductIndex struct {
	es    *client.ESClient
	index string
}

func NewProductIndex(esClient *client.ESClient, cfg *config.Config) *ProductIndex {
	return &ProductIndex{
		es:    esClient,
		index: cfg.Elasticsearch.ProductIndex,
	}
}

type productDocument struct {
	ProductID   string   `json:"product_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	Sizes       []string `json:"sizes"`
	Price       float64  `json:"price"`
	Bestseller  bool     `json:"bestseller"`
}

// Index upserts a product document. Best-effort: search staleness is
// tolerated, the catalog in ScyllaDB stays the system of record.
func (pi *ProductIndex) Index(ctx context.Context, p *model.Product) {
	if pi == nil || pi.es == nil {
		return
	}

	doc := productDocument{
		ProductID:   p.ProductID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Sizes:       p.Sizes,
		Price:       p.Price,
		Bestseller:  p.Bestseller,
	}

	res, err := pi.es.IndexDocument(ctx, pi.index, p.ProductID, doc)
	if err != nil {
		util.Warn("Failed to index product",
			zap.String("product_id", p.ProductID),
			zap.Error(err))
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		util.Warn("Product indexing rejected",
			zap.String("product_id", p.ProductID),
			zap.String("status", res.Status()))
	}
}

// Delete removes a product document, best-effort.
func (pi *ProductIndex) Delete(ctx context.Context, productID string) {
	if pi == nil || pi.es == nil {
		return
	}

	res, err := pi.es.DeleteDocument(ctx, pi.index, productID)
	if err != nil {
		util.Warn("Failed to delete product document",
			zap.String("product_id", productID),
			zap.Error(err))
		return
	}
	res.Body.Close()
}

type searchHits struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the ids of products matching the text query, best
// first. An optional category narrows the match.
func (pi *ProductIndex) Search(ctx context.Context, text, category string, limit int) ([]string, error) {
	if pi == nil || pi.es == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":     text,
				"fields":    []string{"name^3", "description", "category", "sub_category"},
				"fuzziness": "AUTO",
			},
		},
	}
	if category != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"category": category},
		})
	}

	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}

	res, err := pi.es.Search(ctx, pi.index, query)
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("product search failed: %s", res.Status())
	}

	var hits searchHits
	if err := json.NewDecoder(res.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]string, 0, len(hits.Hits.Hits))
	for _, hit := range hits.Hits.Hits {
		ids = append(ids, hit.ID)
	}

	return ids, nil
}
