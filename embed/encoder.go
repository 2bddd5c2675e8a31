/*
Package embed turns text into vectors.

Every recommender and command talks to an Encoder. The package provides a
hashing encoder that needs no model files, a client for OpenAI-compatible
embedding endpoints, an LRU cache in front of either, and pretrained word
vectors with a mean-of-words document encoder on top.
*/
package embed

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownWord is returned when a word is not in the vocabulary
	ErrUnknownWord = errors.New("unknown word")

	// ErrNoKnownWords is returned when none of a text's tokens are in the vocabulary
	ErrNoKnownWords = errors.New("no known words in text")

	// ErrBadHeader is returned for a word2vec header with an impossible count or size
	ErrBadHeader = errors.New("invalid word2vec header")
)

/*
Encoder maps a text to a fixed-length vector.

Dimensions reports the output length, or 0 when it is only known after the
first call.
*/
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

/*
EncodeAll encodes texts in order and stops at the first failure.
The returned error wraps the encoder's error with the failing index.
*/
func EncodeAll(ctx context.Context, enc Encoder, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := enc.Encode(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("encode text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}
