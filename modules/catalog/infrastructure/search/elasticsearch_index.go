// Package search implements the product search side index on Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/eventhandlers"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/queries"
)

type ElasticsearchIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticsearchIndex connects to the given addresses. No request is made
// until the first Index call.
func NewElasticsearchIndex(addresses []string, index string) (*ElasticsearchIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchIndex{client: client, index: index}, nil
}

// Index upserts the document under the product ID.
func (s *ElasticsearchIndex) Index(ctx context.Context, doc eventhandlers.ProductDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	res, err := s.client.Index(s.index, bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("indexing product %s: %w", doc.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("indexing product %s: %s: %s", doc.ID, res.Status(), msg)
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the IDs of active products matching text, best match
// first. Name matches outrank description and category matches.
func (s *ElasticsearchIndex) Search(ctx context.Context, text string, limit int) ([]string, error) {
	body, err := json.Marshal(map[string]any{
		"_source": false,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  text,
						"fields": []string{"name^3", "description", "category"},
					},
				},
				"filter": map[string]any{"term": map[string]any{"active": true}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("searching products: %s: %s", res.Status(), msg)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	ids := make([]string, len(parsed.Hits.Hits))
	for i, hit := range parsed.Hits.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

var (
	_ eventhandlers.SearchIndex = (*ElasticsearchIndex)(nil)
	_ queries.ProductSearcher   = (*ElasticsearchIndex)(nil)
)
