package db

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"similarity-lab/config"
	"similarity-lab/ranker"
)

/*
HNSWGraph is the Hierarchical Navigable Small World index used by collections.

Every node lives in layer 0 and, with probability decaying by 1/ln(M) per
level, in the layers above it. Searches enter at the top layer, walk greedily
down to layer 1 and then run a beam search of width ef in layer 0.

Removed vectors stay in the graph as tombstones so the links through them
remain navigable; they are never returned from Search.
*/
type HNSWGraph struct {
	// Maximum number of connections per node and layer
	M int
	// Beam width while inserting
	EfConstruction int
	// Beam width while searching, raised to k when k is larger
	EfSearch int
	// Highest populated layer
	MaxLayer int
	// Node every search starts from
	EntryPoint string
	// Adjacency lists per layer
	Layers []map[string][]string
	// Vector data by id
	Vectors map[string]Vector
	// Distance function
	DistanceType config.DistanceType

	deleted map[string]bool
	levels  map[string]int
	rng     *rand.Rand
	mL      float64
	mu      sync.RWMutex
}

/*
NewHNSWGraph creates an empty graph from the collection's HNSW settings.

Non-positive M or efConstruction fall back to 16 and 200, efSearch falls back
to efConstruction. Level assignment uses a generator seeded with seed so that
graphs built from the same insert order are identical.
*/
func NewHNSWGraph(cfg config.HNSWConfig, seed int64) *HNSWGraph {
	m := cfg.M
	if m <= 0 {
		m = 16
	}
	efConstruction := cfg.EfConstruction
	if efConstruction <= 0 {
		efConstruction = 200
	}
	efSearch := cfg.EfSearch
	if efSearch <= 0 {
		efSearch = efConstruction
	}

	ml := 1.0
	if m > 1 {
		ml = 1.0 / math.Log(float64(m))
	}

	return &HNSWGraph{
		M:              m,
		EfConstruction: efConstruction,
		EfSearch:       efSearch,
		Layers:         []map[string][]string{make(map[string][]string)},
		Vectors:        make(map[string]Vector),
		DistanceType:   cfg.DistanceType,
		deleted:        make(map[string]bool),
		levels:         make(map[string]int),
		rng:            rand.New(rand.NewSource(seed)),
		mL:             ml,
	}
}

/*
Insert adds a vector to the graph.

The node gets a random top layer, the graph is descended greedily down to that
layer, and from there on every layer links the node to up to M neighbours
picked by the heuristic in selectNeighbors. Neighbours that overflow M are
pruned with the same heuristic.
*/
func (g *HNSWGraph) Insert(vector Vector) error {
	if len(vector.Data) == 0 {
		return ErrEmptyVector
	}
	if vector.ID == "" {
		return ErrInvalidParameter
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.Vectors[vector.ID]; exists && !g.deleted[vector.ID] {
		return fmt.Errorf("%w: %s", ErrDuplicateVector, vector.ID)
	}
	if g.deleted[vector.ID] {
		// re-inserting a tombstone replaces its links
		g.unlink(vector.ID)
		delete(g.deleted, vector.ID)
	}

	layer := g.randomLayer()
	for len(g.Layers) <= layer {
		g.Layers = append(g.Layers, make(map[string][]string))
	}

	g.Vectors[vector.ID] = vector
	g.levels[vector.ID] = layer

	if g.EntryPoint == "" {
		g.EntryPoint = vector.ID
		g.MaxLayer = layer
		return nil
	}

	entry := g.EntryPoint
	for l := g.MaxLayer; l > layer; l-- {
		if nearest := g.searchLayer(vector.Data, entry, 1, l); len(nearest) > 0 {
			entry = nearest[0].ID
		}
	}

	for l := min(layer, g.MaxLayer); l >= 0; l-- {
		nearest := g.searchLayer(vector.Data, entry, g.EfConstruction, l)
		neighbors := g.selectNeighbors(vector.Data, nearest, g.M)

		g.Layers[l][vector.ID] = neighbors
		for _, n := range neighbors {
			links := append(g.Layers[l][n], vector.ID)
			if len(links) > g.M {
				links = g.selectNeighbors(g.Vectors[n].Data, g.withDistances(g.Vectors[n].Data, links), g.M)
			}
			g.Layers[l][n] = links
		}

		if len(nearest) > 0 {
			entry = nearest[0].ID
		}
	}

	if layer > g.MaxLayer {
		g.MaxLayer = layer
		g.EntryPoint = vector.ID
	}
	return nil
}

/*
Search returns up to k live neighbours of query ordered by ascending distance.

It satisfies ranker.NeighborIndex so a collection can be ranked through a
ranker.Searcher.
*/
func (g *HNSWGraph) Search(ctx context.Context, query []float32, k int) ([]ranker.Neighbor, error) {
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}
	if k <= 0 {
		return nil, ErrInvalidParameter
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.EntryPoint == "" {
		return []ranker.Neighbor{}, nil
	}
	if dims := len(g.Vectors[g.EntryPoint].Data); dims != len(query) {
		return nil, fmt.Errorf("%w: query has %d dimensions, graph has %d", ranker.ErrDimensionMismatch, len(query), dims)
	}

	entry := g.EntryPoint
	for l := g.MaxLayer; l > 0; l-- {
		nearest := g.searchLayer(query, entry, 1, l)
		if len(nearest) == 0 {
			break
		}
		entry = nearest[0].ID
	}

	ef := g.EfSearch
	if k > ef {
		ef = k
	}
	ef += len(g.deleted)

	found := g.searchLayer(query, entry, ef, 0)
	neighbors := make([]ranker.Neighbor, 0, k)
	for _, item := range found {
		if g.deleted[item.ID] {
			continue
		}
		neighbors = append(neighbors, ranker.Neighbor{ID: item.ID, Distance: item.Distance})
		if len(neighbors) == k {
			break
		}
	}
	return neighbors, nil
}

/*
Remove marks a vector as deleted. The node keeps its links until it is
re-inserted.
*/
func (g *HNSWGraph) Remove(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.Vectors[id]; !ok || g.deleted[id] {
		return ErrVectorNotFound
	}
	g.deleted[id] = true
	return nil
}

// Get returns a live vector by id.
func (g *HNSWGraph) Get(id string) (Vector, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v, ok := g.Vectors[id]
	if !ok || g.deleted[id] {
		return Vector{}, false
	}
	return v, true
}

// Len returns the number of live vectors.
func (g *HNSWGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.Vectors) - len(g.deleted)
}

// ScoreFunc converts this graph's distances into similarity scores.
func (g *HNSWGraph) ScoreFunc() ranker.DistanceScore {
	return ScoreFunc(g.DistanceType)
}

/*
Distance calculates the distance between two vectors based on the configured distance type
*/
func (g *HNSWGraph) Distance(a, b []float32) float32 {
	return Distance(g.DistanceType, a, b)
}

func (g *HNSWGraph) randomLayer() int {
	r := g.rng.Float64()
	if r == 0 {
		r = math.SmallestNonzeroFloat64
	}
	return int(math.Floor(-math.Log(r) * g.mL))
}

func (g *HNSWGraph) unlink(id string) {
	for _, layer := range g.Layers {
		delete(layer, id)
		for node, links := range layer {
			kept := links[:0]
			for _, l := range links {
				if l != id {
					kept = append(kept, l)
				}
			}
			layer[node] = kept
		}
	}
	if g.EntryPoint == id {
		g.EntryPoint, g.MaxLayer = g.highestNode(id)
	}
}

// highestNode returns the live node with the highest layer, ties going to the smallest id
func (g *HNSWGraph) highestNode(skip string) (string, int) {
	best, bestLayer := "", 0
	for id, layer := range g.levels {
		if id == skip || g.deleted[id] {
			continue
		}
		if best == "" || layer > bestLayer || (layer == bestLayer && id < best) {
			best, bestLayer = id, layer
		}
	}
	return best, bestLayer
}

// distanceItem is a node with its distance to the current query
type distanceItem struct {
	ID       string
	Distance float32
}

// nearestFirst pops the closest item first
type nearestFirst []distanceItem

func (h nearestFirst) Len() int            { return len(h) }
func (h nearestFirst) Less(i, j int) bool  { return h[i].Distance < h[j].Distance }
func (h nearestFirst) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nearestFirst) Push(x interface{}) { *h = append(*h, x.(distanceItem)) }
func (h *nearestFirst) Pop() interface{} {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}

// furthestFirst pops the furthest item first, so the worst result is cheap to drop
type furthestFirst []distanceItem

func (h furthestFirst) Len() int            { return len(h) }
func (h furthestFirst) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h furthestFirst) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *furthestFirst) Push(x interface{}) { *h = append(*h, x.(distanceItem)) }
func (h *furthestFirst) Pop() interface{} {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}

/*
searchLayer runs a beam search of width ef inside one layer and returns the
results sorted by ascending distance
*/
func (g *HNSWGraph) searchLayer(query []float32, entry string, ef int, layer int) []distanceItem {
	if ef <= 0 {
		return nil
	}

	start := distanceItem{ID: entry, Distance: g.Distance(query, g.Vectors[entry].Data)}
	visited := map[string]bool{entry: true}
	candidates := &nearestFirst{start}
	results := &furthestFirst{start}

	for candidates.Len() > 0 {
		current := heap.Pop(candidates).(distanceItem)
		if results.Len() >= ef && current.Distance > (*results)[0].Distance {
			break
		}

		for _, id := range g.Layers[layer][current.ID] {
			if visited[id] {
				continue
			}
			visited[id] = true

			d := g.Distance(query, g.Vectors[id].Data)
			if results.Len() < ef || d < (*results)[0].Distance {
				heap.Push(candidates, distanceItem{ID: id, Distance: d})
				heap.Push(results, distanceItem{ID: id, Distance: d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	sorted := make([]distanceItem, len(*results))
	copy(sorted, *results)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Distance != sorted[j].Distance {
			return sorted[i].Distance < sorted[j].Distance
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func (g *HNSWGraph) withDistances(base []float32, ids []string) []distanceItem {
	items := make([]distanceItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, distanceItem{ID: id, Distance: g.Distance(base, g.Vectors[id].Data)})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Distance < items[j].Distance })
	return items
}

/*
selectNeighbors implements the neighbour heuristic of the HNSW paper.

A candidate, taken in order of distance to base, is kept only when it is
closer to base than to every neighbour kept so far. Remaining slots are
filled with the closest pruned candidates so nodes in tight clusters still
get M links.
*/
func (g *HNSWGraph) selectNeighbors(base []float32, sorted []distanceItem, m int) []string {
	selected := make([]string, 0, m)
	var pruned []string

	for _, c := range sorted {
		if len(selected) >= m {
			break
		}
		diverse := true
		for _, s := range selected {
			if g.Distance(g.Vectors[c.ID].Data, g.Vectors[s].Data) < c.Distance {
				diverse = false
				break
			}
		}
		if diverse {
			selected = append(selected, c.ID)
		} else {
			pruned = append(pruned, c.ID)
		}
	}

	for _, id := range pruned {
		if len(selected) >= m {
			break
		}
		selected = append(selected, id)
	}
	return selected
}
