package ranker

import (
	"context"
	"fmt"
)

/*
Neighbor is one hit from an approximate nearest neighbor index.
Lower distance means closer.
*/
type Neighbor struct {
	ID       string  `json:"id"`
	Distance float32 `json:"distance"`
}

/*
NeighborIndex is an external nearest neighbor index.

Search returns at most k neighbors ordered by ascending distance.
*/
type NeighborIndex interface {
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
}

// DistanceScore converts an index distance into a descending-is-better score.
type DistanceScore func(distance float32) float32

// OneMinusDistance is used for cosine and inner-product distances (d = 1 - similarity).
func OneMinusDistance(distance float32) float32 {
	return 1 - distance
}

// NegatedDistance is used for metric distances such as euclidean or manhattan.
func NegatedDistance(distance float32) float32 {
	return -distance
}

const defaultMaxFetch = 1024

/*
Searcher replaces brute-force scoring with a NeighborIndex while keeping the
result semantics of Rank: exclusion, filtering, top-k and descending scores.

Lookup resolves an index hit to its candidate metadata; when it is nil or the
id is unknown, a bare candidate with only the id is used.
*/
type Searcher struct {
	Index    NeighborIndex
	Lookup   func(id string) (Candidate, bool)
	ToScore  DistanceScore
	MaxFetch int
}

/*
Rank queries the index and applies opts to the hits.

The index only knows about distances, so the searcher asks for K plus the
number of exclusions and keeps doubling the request while filtering leaves
fewer than K results and the index still returned a full page.
*/
func (s *Searcher) Rank(ctx context.Context, query []float32, opts Options) ([]ScoredResult, error) {
	if opts.K < 1 {
		return nil, ErrInvalidK
	}
	toScore := s.ToScore
	if toScore == nil {
		toScore = OneMinusDistance
	}
	maxFetch := s.MaxFetch
	if maxFetch <= 0 {
		maxFetch = defaultMaxFetch
	}

	fetch := opts.K + len(opts.Exclude)
	if fetch > maxFetch {
		fetch = maxFetch
	}

	var results []ScoredResult
	for {
		neighbors, err := s.Index.Search(ctx, query, fetch)
		if err != nil {
			return nil, fmt.Errorf("index search: %w", err)
		}

		results = s.collect(neighbors, opts, toScore)
		if len(results) >= opts.K || len(neighbors) < fetch || fetch >= maxFetch {
			break
		}
		fetch *= 2
		if fetch > maxFetch {
			fetch = maxFetch
		}
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

func (s *Searcher) collect(neighbors []Neighbor, opts Options, toScore DistanceScore) []ScoredResult {
	seen := make(map[string]bool, len(neighbors))
	results := make([]ScoredResult, 0, len(neighbors))
	for _, n := range neighbors {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true

		c := Candidate{ID: n.ID}
		if s.Lookup != nil {
			if found, ok := s.Lookup(n.ID); ok {
				c = found
			}
		}
		if !opts.eligible(c) {
			continue
		}
		results = append(results, ScoredResult{
			ID:    n.ID,
			Score: toScore(n.Distance),
			Meta:  c.Meta,
		})
	}
	return results
}

/*
LookupFrom indexes candidates by id for use as Searcher.Lookup.
*/
func LookupFrom(candidates []Candidate) func(string) (Candidate, bool) {
	byID := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	return func(id string) (Candidate, bool) {
		c, ok := byID[id]
		return c, ok
	}
}
