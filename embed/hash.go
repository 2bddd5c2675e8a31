package embed

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"similarity-lab/db"
)

/*
HashEncoder is a deterministic feature-hashing encoder.

Features are single runes, rune bigrams inside a segment and whitespace
separated tokens. Each feature is hashed with xxhash into one of Dims buckets
and added with a sign taken from the top bit of the hash. It needs no
tokenizer, so Japanese text without spaces still shares features when it
shares characters.
*/
type HashEncoder struct {
	Dims      int
	Normalize bool
}

// NewHashEncoder returns a normalizing hash encoder with the given dimensions.
func NewHashEncoder(dims int) *HashEncoder {
	return &HashEncoder{Dims: dims, Normalize: true}
}

func (h *HashEncoder) Dimensions() int {
	return h.Dims
}

/*
Encode returns the hashed feature vector of text. Empty text maps to the zero vector.
*/
func (h *HashEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := make([]float32, h.Dims)
	if h.Dims <= 0 {
		return v, nil
	}

	text = strings.ToLower(text)
	for _, segment := range segments(text) {
		runes := []rune(segment)
		for i, r := range runes {
			h.add(v, "u:"+string(r), 1)
			if i > 0 {
				h.add(v, "b:"+string(runes[i-1:i+1]), 1)
			}
		}
	}
	for _, token := range strings.Fields(text) {
		h.add(v, "w:"+token, 1)
	}

	if h.Normalize {
		db.NormalizeVector(v)
	}
	return v, nil
}

func (h *HashEncoder) add(v []float32, feature string, weight float32) {
	sum := xxhash.Sum64String(feature)
	bucket := sum % uint64(h.Dims)
	if sum>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}

// segments splits text at spaces and punctuation, including 、 and 。
func segments(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}
