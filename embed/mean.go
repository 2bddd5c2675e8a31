package embed

import (
	"context"
	"fmt"
	"strings"

	"similarity-lab/db"
	"similarity-lab/ranker"
)

/*
MeanEncoder encodes a text as the normalized mean of the vectors of its
in-vocabulary tokens. Out-of-vocabulary tokens are ignored.
*/
type MeanEncoder struct {
	Vectors *WordVectors
	// Tokenize splits text into words; nil splits at spaces and punctuation
	Tokenize func(string) []string
}

func NewMeanEncoder(wv *WordVectors) *MeanEncoder {
	return &MeanEncoder{Vectors: wv}
}

func (m *MeanEncoder) Dimensions() int {
	return m.Vectors.Dimensions()
}

func (m *MeanEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokenize := m.Tokenize
	if tokenize == nil {
		tokenize = func(s string) []string { return segments(strings.ToLower(s)) }
	}

	var known [][]float32
	for _, token := range tokenize(text) {
		if v, err := m.Vectors.Vector(token); err == nil {
			known = append(known, v)
		}
	}
	if len(known) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoKnownWords, text)
	}

	mean, err := ranker.AggregateQuery(known)
	if err != nil {
		return nil, err
	}
	db.NormalizeVector(mean)
	return mean, nil
}
