package db

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	log "github.com/sirupsen/logrus"

	"similarity-lab/config"
	"similarity-lab/ranker"
)

/*
Collection is a named set of vectors of one dimensionality, indexed by an
HNSW graph
*/
type Collection struct {
	Name   string
	Config config.CollectionConfig
	Graph  *HNSWGraph
	mu     sync.RWMutex
}

/*
NewCollection creates an empty collection after validating its configuration
*/
func NewCollection(name string, cfg config.CollectionConfig) (*Collection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	return &Collection{
		Name:   name,
		Config: cfg,
		Graph:  NewHNSWGraph(cfg.HNSW, seedFor(name)),
	}, nil
}

/*
ValidateName rejects collection names that are not a single path segment.
The name becomes a directory under the persistence path.
*/
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty collection name", ErrInvalidParameter)
	case name == "." || name == "..",
		strings.ContainsAny(name, `/\`+"\x00"),
		name != filepath.Base(name):
		return fmt.Errorf("%w: collection name %q", ErrInvalidParameter, name)
	}
	return nil
}

/*
Add inserts or replaces a vector. The vector must match the collection's dimensions.
*/
func (c *Collection) Add(vector Vector) error {
	if len(vector.Data) != c.Config.HNSW.Dimensions {
		return fmt.Errorf("%w: got %d, collection %s has %d", ErrInvalidDimensions, len(vector.Data), c.Name, c.Config.HNSW.Dimensions)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.Graph.Get(vector.ID); exists {
		if err := c.Graph.Remove(vector.ID); err != nil {
			return err
		}
	}
	return c.Graph.Insert(vector)
}

// Get returns a vector by id.
func (c *Collection) Get(id string) (Vector, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.Graph.Get(id)
	if !ok {
		return Vector{}, ErrVectorNotFound
	}
	return v, nil
}

// Delete removes a vector by id.
func (c *Collection) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Graph.Remove(id)
}

// Len returns the number of vectors in the collection.
func (c *Collection) Len() int {
	return c.Graph.Len()
}

/*
Vectors returns a snapshot of the live vectors ordered by id
*/
func (c *Collection) Vectors() []Vector {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.Graph.mu.RLock()
	vectors := make([]Vector, 0, len(c.Graph.Vectors))
	for id, v := range c.Graph.Vectors {
		if !c.Graph.deleted[id] {
			vectors = append(vectors, v)
		}
	}
	c.Graph.mu.RUnlock()

	sort.Slice(vectors, func(i, j int) bool { return vectors[i].ID < vectors[j].ID })
	return vectors
}

/*
Candidates returns the collection as ranker candidates for brute-force ranking
*/
func (c *Collection) Candidates() []ranker.Candidate {
	vectors := c.Vectors()
	candidates := make([]ranker.Candidate, len(vectors))
	for i, v := range vectors {
		candidates[i] = v.Candidate()
	}
	return candidates
}

/*
Search ranks the collection's vectors against query through the HNSW graph.
Exclusion, filtering and K follow the ranker's rules.
*/
func (c *Collection) Search(ctx context.Context, query []float32, opts ranker.Options) ([]ranker.ScoredResult, error) {
	if len(query) != c.Config.HNSW.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d", ranker.ErrDimensionMismatch, len(query), c.Name, c.Config.HNSW.Dimensions)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	searcher := &ranker.Searcher{
		Index: c.Graph,
		Lookup: func(id string) (ranker.Candidate, bool) {
			v, ok := c.Graph.Get(id)
			return v.Candidate(), ok
		},
		ToScore: c.Graph.ScoreFunc(),
	}
	return searcher.Rank(ctx, query, opts)
}

/*
Manager handles multiple vector collections
*/
type Manager struct {
	collections map[string]*Collection
	mu          sync.RWMutex
}

/*
NewManager creates a manager and the collections declared in the configuration
*/
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		collections: make(map[string]*Collection),
	}
	if cfg == nil {
		return m, nil
	}
	for name, cc := range cfg.Collections {
		if _, err := m.CreateCollection(name, cc); err != nil {
			return nil, err
		}
	}
	return m, nil
}

/*
CreateCollection creates a new collection with the given name and configuration
*/
func (m *Manager) CreateCollection(name string, cc config.CollectionConfig) (*Collection, error) {
	col, err := NewCollection(name, cc)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.collections[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}
	m.collections[name] = col
	log.Debugf("created collection %s (%d dims, %s)", name, cc.HNSW.Dimensions, cc.HNSW.DistanceType)
	return col, nil
}

/*
Restore registers a collection loaded from disk, replacing one with the same name
*/
func (m *Manager) Restore(col *Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[col.Name] = col
}

/*
GetCollection returns a collection by name
*/
func (m *Manager) GetCollection(name string) (*Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, exists := m.collections[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return col, nil
}

/*
DeleteCollection removes a collection by name
*/
func (m *Manager) DeleteCollection(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.collections[name]; !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	delete(m.collections, name)
	return nil
}

/*
ListCollections returns the collection names in sorted order
*/
func (m *Manager) ListCollections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

/*
AddVector adds a vector to a specific collection
*/
func (m *Manager) AddVector(name string, vector Vector) error {
	col, err := m.GetCollection(name)
	if err != nil {
		return err
	}
	return col.Add(vector)
}

/*
GetVector retrieves a vector from a specific collection
*/
func (m *Manager) GetVector(name, id string) (Vector, error) {
	col, err := m.GetCollection(name)
	if err != nil {
		return Vector{}, err
	}
	return col.Get(id)
}

/*
DeleteVector removes a vector from a specific collection
*/
func (m *Manager) DeleteVector(name, id string) error {
	col, err := m.GetCollection(name)
	if err != nil {
		return err
	}
	return col.Delete(id)
}

/*
Search performs a similarity search in a specific collection
*/
func (m *Manager) Search(ctx context.Context, name string, query []float32, opts ranker.Options) ([]ranker.ScoredResult, error) {
	col, err := m.GetCollection(name)
	if err != nil {
		return nil, err
	}
	return col.Search(ctx, query, opts)
}

// seedFor derives a stable level-generator seed from a collection name
func seedFor(name string) int64 {
	return int64(xxhash.Sum64String(name))
}
