package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"similarity-lab/config"
	"similarity-lab/ranker"
)

func testCollectionConfig() config.CollectionConfig {
	return config.CollectionConfig{
		HNSW: config.HNSWConfig{
			M:              8,
			EfConstruction: 100,
			EfSearch:       50,
			Dimensions:     64,
			DistanceType:   config.DistanceTypeEuclidean,
		},
	}
}

func TestCollectionManager(t *testing.T) {
	manager, err := NewManager(&config.Config{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	col, err := manager.CreateCollection("test1", testCollectionConfig())
	if err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}
	if col == nil {
		t.Fatal("Created collection is nil")
	}

	if _, err := manager.CreateCollection("test1", testCollectionConfig()); !errors.Is(err, ErrCollectionExists) {
		t.Fatalf("Expected ErrCollectionExists, got %v", err)
	}

	got, err := manager.GetCollection("test1")
	if err != nil {
		t.Fatalf("Failed to get collection: %v", err)
	}
	if got != col {
		t.Fatal("Retrieved collection is not the same as created one")
	}

	if _, err := manager.CreateCollection("alpha", testCollectionConfig()); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}
	names := manager.ListCollections()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "test1" {
		t.Fatalf("Expected [alpha test1], got %v", names)
	}

	if err := manager.DeleteCollection("test1"); err != nil {
		t.Fatalf("Failed to delete collection: %v", err)
	}
	if _, err := manager.GetCollection("test1"); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("Expected ErrCollectionNotFound, got %v", err)
	}
	if err := manager.DeleteCollection("test1"); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("Expected ErrCollectionNotFound, got %v", err)
	}

	bad := testCollectionConfig()
	bad.HNSW.M = 0
	if _, err := manager.CreateCollection("bad", bad); err == nil {
		t.Error("Expected error for invalid collection config")
	}
}

func TestCollectionNames(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"products", true},
		{"word-vectors_2", true},
		{"..hidden", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../x", false},
		{"a/b", false},
		{`a\b`, false},
		{"/abs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCollection(tt.name, testCollectionConfig())
			if tt.valid && err != nil {
				t.Errorf("Expected %q to be accepted, got %v", tt.name, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("Expected ErrInvalidParameter for %q, got %v", tt.name, err)
			}
		})
	}
}

func TestManagerFromConfig(t *testing.T) {
	manager, err := NewManager(config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	names := manager.ListCollections()
	if len(names) != 1 || names[0] != "default" {
		t.Errorf("Expected the default collection, got %v", names)
	}
}

func TestVectorOperations(t *testing.T) {
	manager, _ := NewManager(nil)
	if _, err := manager.CreateCollection("test", testCollectionConfig()); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}

	for i := 0; i < 50; i++ {
		data := make([]float32, 64)
		for j := range data {
			data[j] = float32(i)
		}
		v := Vector{ID: fmt.Sprintf("%d", i), Data: data, Meta: ranker.Meta{Name: fmt.Sprintf("vector %d", i)}}
		if err := manager.AddVector("test", v); err != nil {
			t.Fatalf("Failed to add vector: %v", err)
		}
	}

	for i := 0; i < 50; i++ {
		v, err := manager.GetVector("test", fmt.Sprintf("%d", i))
		if err != nil {
			t.Fatalf("Failed to get vector: %v", err)
		}
		if v.Meta.Name != fmt.Sprintf("vector %d", i) {
			t.Fatalf("Expected name vector %d, got %s", i, v.Meta.Name)
		}
	}

	query := make([]float32, 64)
	for i := range query {
		query[i] = 25.0
	}

	results, err := manager.Search(context.Background(), "test", query, ranker.Options{K: 5})
	if err != nil {
		t.Fatalf("Failed to search vectors: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(results))
	}
	if results[0].ID != "25" || results[0].Score != 0 {
		t.Errorf("Expected exact match 25 with score 0, got %s (%f)", results[0].ID, results[0].Score)
	}
	for i, r := range results {
		index, _ := strconv.Atoi(r.ID)
		if index < 20 || index > 30 {
			t.Errorf("Result index %d is not close to expected range [20,30]", index)
		}
		if i > 0 && results[i-1].Score < r.Score {
			t.Errorf("Scores not descending at %d", i)
		}
	}

	excluded, err := manager.Search(context.Background(), "test", query, ranker.Options{K: 3, Exclude: ranker.ExcludeIDs("25")})
	if err != nil {
		t.Fatalf("Search with exclusion failed: %v", err)
	}
	for _, r := range excluded {
		if r.ID == "25" {
			t.Error("Excluded vector returned")
		}
	}

	if err := manager.DeleteVector("test", "25"); err != nil {
		t.Fatalf("Failed to delete vector: %v", err)
	}
	if _, err := manager.GetVector("test", "25"); !errors.Is(err, ErrVectorNotFound) {
		t.Errorf("Expected ErrVectorNotFound, got %v", err)
	}

	if err := manager.AddVector("test", Vector{ID: "short", Data: []float32{1}}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
	if _, err := manager.Search(context.Background(), "test", []float32{1}, ranker.Options{K: 1}); !errors.Is(err, ranker.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := manager.Search(context.Background(), "missing", query, ranker.Options{K: 1}); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("Expected ErrCollectionNotFound, got %v", err)
	}
}

func TestCollectionReplaceVector(t *testing.T) {
	cc := testCollectionConfig()
	cc.HNSW.Dimensions = 2
	col, err := NewCollection("replace", cc)
	if err != nil {
		t.Fatalf("NewCollection failed: %v", err)
	}

	_ = col.Add(Vector{ID: "a", Data: []float32{0, 0}})
	if err := col.Add(Vector{ID: "a", Data: []float32{5, 5}}); err != nil {
		t.Fatalf("Replacing a vector failed: %v", err)
	}
	v, _ := col.Get("a")
	if v.Data[0] != 5 {
		t.Errorf("Expected replaced data, got %v", v.Data)
	}
	if col.Len() != 1 {
		t.Errorf("Expected 1 vector, got %d", col.Len())
	}
	if len(col.Candidates()) != 1 {
		t.Errorf("Expected 1 candidate, got %d", len(col.Candidates()))
	}
}

func TestConcurrentCollectionOperations(t *testing.T) {
	manager, _ := NewManager(nil)
	done := make(chan bool)

	for i := 0; i < 2; i++ {
		go func(id int) {
			name := fmt.Sprintf("%d", id)
			if _, err := manager.CreateCollection(name, testCollectionConfig()); err != nil {
				t.Errorf("Failed to create collection %s: %v", name, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 2; i++ {
		<-done
	}

	if names := manager.ListCollections(); len(names) != 2 {
		t.Fatalf("Expected 2 collections, got %d", len(names))
	}

	for i := 0; i < 2; i++ {
		go func(name string) {
			defer func() { done <- true }()
			v := Vector{ID: "test", Data: make([]float32, 64)}
			if err := manager.AddVector(name, v); err != nil {
				t.Errorf("Failed to add vector to %s: %v", name, err)
			}
			if _, err := manager.Search(context.Background(), name, make([]float32, 64), ranker.Options{K: 5}); err != nil {
				t.Errorf("Failed to search in %s: %v", name, err)
			}
		}(fmt.Sprintf("%d", i))
	}
	for i := 0; i < 2; i++ {
		<-done
	}
}
