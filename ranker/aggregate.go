package ranker

import (
	"fmt"
	"sort"
)

/*
AggregateQuery returns the element-wise arithmetic mean of vectors.

It combines several seed items into one query. No weighting is applied.
*/
func AggregateQuery(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}

	dims := len(vectors[0])
	sum := make([]float64, dims)
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), dims)
		}
		for j, x := range v {
			sum[j] += float64(x)
		}
	}

	mean := make([]float32, dims)
	n := float64(len(vectors))
	for j := range sum {
		mean[j] = float32(sum[j] / n)
	}
	return mean, nil
}

/*
AttributeScore is a sub-item with its accumulated score.
*/
type AttributeScore struct {
	Name  string  `json:"name"`
	Score float32 `json:"score"`
}

/*
MissingAttributes suggests sub-items the caller does not have yet.

Each sub-item of each result that is not in have accumulates the result's
score. The output is sorted by descending score with ties in first-seen order
and truncated to n; n <= 0 keeps everything.
*/
func MissingAttributes(results []ScoredResult, have []string, n int) []AttributeScore {
	owned := make(map[string]bool, len(have))
	for _, h := range have {
		owned[h] = true
	}

	index := make(map[string]int)
	scores := make([]AttributeScore, 0)
	for _, r := range results {
		for _, item := range r.Meta.Items {
			if owned[item] {
				continue
			}
			if i, ok := index[item]; ok {
				scores[i].Score += r.Score
				continue
			}
			index[item] = len(scores)
			scores = append(scores, AttributeScore{Name: item, Score: r.Score})
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if n > 0 && len(scores) > n {
		scores = scores[:n]
	}
	return scores
}
