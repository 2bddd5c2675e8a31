/*
Package recommend implements the shop recommendation flows: products for a
free-text description, related products, items missing from a cart, and
recipe suggestions from ingredients.

Catalog texts are embedded once when a recommender is built. Every vector is
normalized to unit length, so ranking uses ranker.Dot.
*/
package recommend

import (
	"context"
	"errors"
	"fmt"

	"similarity-lab/db"
	"similarity-lab/embed"
	"similarity-lab/ranker"
)

var (
	// ErrEmptyQuery is returned when a flow gets nothing to search with
	ErrEmptyQuery = errors.New("empty query")
)

// embedCatalog encodes texts and returns unit-length copies.
func embedCatalog(ctx context.Context, enc embed.Encoder, texts []string) ([][]float32, error) {
	vectors, err := embed.EncodeAll(ctx, enc, texts)
	if err != nil {
		return nil, fmt.Errorf("embed catalog: %w", err)
	}
	for i, v := range vectors {
		vectors[i] = db.Normalized(v)
	}
	return vectors, nil
}

func encodeQuery(ctx context.Context, enc embed.Encoder, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyQuery
	}
	v, err := enc.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return db.Normalized(v), nil
}

// meanQuery encodes every text and returns the normalized mean.
func meanQuery(ctx context.Context, enc embed.Encoder, texts []string) ([]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyQuery
	}
	vectors, err := embed.EncodeAll(ctx, enc, texts)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	for i, v := range vectors {
		vectors[i] = db.Normalized(v)
	}
	mean, err := ranker.AggregateQuery(vectors)
	if err != nil {
		return nil, err
	}
	return db.Normalized(mean), nil
}
