/*
Package ranker ranks a fixed candidate set against a query vector.

It is the one piece of shared logic behind every demo: score each eligible
candidate, sort by descending score and keep the top k.
*/
package ranker

import (
	"fmt"
	"math"
	"sort"
)

/*
Rank scores every eligible candidate against query and returns the top K.

Ties keep the input order. Every candidate vector, excluded or not, must have
the query's dimension.
*/
func Rank(query []float32, candidates []Candidate, opts Options) ([]ScoredResult, error) {
	if opts.K < 1 {
		return nil, ErrInvalidK
	}

	seen := make(map[string]bool, len(candidates))
	results := make([]ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			return nil, fmt.Errorf("%w: candidate %q has %d dimensions, query has %d",
				ErrDimensionMismatch, c.ID, len(c.Vector), len(query))
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCandidate, c.ID)
		}
		seen[c.ID] = true

		if !opts.eligible(c) {
			continue
		}
		results = append(results, ScoredResult{
			ID:    c.ID,
			Score: score(opts.Metric, query, c.Vector),
			Meta:  c.Meta,
		})
	}

	if len(results) == 0 {
		if opts.RequireResults {
			return nil, ErrEmptyCandidateSet
		}
		return []ScoredResult{}, nil
	}

	sortByScore(results)
	if len(results) > opts.K {
		results = results[:opts.K]
	}
	return results, nil
}

/*
Score computes the similarity of a and b under the given metric.
*/
func Score(metric Metric, a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	return score(metric, a, b), nil
}

func score(metric Metric, a, b []float32) float32 {
	if metric == Dot {
		return dot(a, b)
	}
	return cosine(a, b)
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// cosine returns 0 when either vector has zero length.
func cosine(a, b []float32) float32 {
	var d, normA, normB float64
	for i := range a {
		d += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := d / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity > 1 {
		similarity = 1
	} else if similarity < -1 {
		similarity = -1
	}
	return float32(similarity)
}

func sortByScore(results []ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
