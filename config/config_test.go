package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigValidation(t *testing.T) {
	// Test valid config
	validConfig := DefaultConfig()
	if err := validConfig.Validate(); err != nil {
		t.Errorf("Valid config should not return error: %v", err)
	}

	// Test invalid M value
	invalidMConfig := DefaultConfig()
	invalidMConfig.Collections["bad"] = CollectionConfig{
		HNSW: HNSWConfig{
			M:              0, // Invalid
			EfConstruction: 200,
			Dimensions:     128,
			DistanceType:   DistanceTypeEuclidean,
		},
	}
	if err := invalidMConfig.Validate(); err == nil {
		t.Error("Config with invalid M should return error")
	}

	// Test invalid dimensions
	invalidDimConfig := DefaultConfig()
	invalidDimConfig.Collections["bad"] = CollectionConfig{
		HNSW: HNSWConfig{
			M:              16,
			EfConstruction: 200,
			Dimensions:     0, // Invalid
			DistanceType:   DistanceTypeEuclidean,
		},
	}
	if err := invalidDimConfig.Validate(); err == nil {
		t.Error("Config with invalid dimensions should return error")
	}

	// Remote encoder without endpoint
	remote := DefaultConfig()
	remote.Embedding.Provider = "remote"
	if err := remote.Validate(); err == nil {
		t.Error("Remote provider without endpoint should return error")
	}

	// Unknown loss
	loss := DefaultConfig()
	loss.Factorization.Loss = "logistic"
	if err := loss.Validate(); err == nil {
		t.Error("Unknown loss should return error")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server": {"port": "9090"}, "embedding": {"dimensions": 64}, "log_level": "debug"}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Unset fields should keep defaults, got host %q", cfg.Server.Host)
	}
	if cfg.Embedding.Dimensions != 64 {
		t.Errorf("Expected 64 dimensions, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug log level, got %s", cfg.LogLevel)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Missing file should return error")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SIMLAB_SERVER_PORT", "7070")
	t.Setenv("SIMLAB_LOG_LEVEL", "info")
	t.Setenv("SIMLAB_EMBEDDING_DIMENSIONS", "32")
	t.Setenv("SIMLAB_FACTORIZATION_LEARNING_RATE", "0.1")
	t.Setenv("SIMLAB_INDEX_QDRANT_PORT", "6400")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected info, got %s", cfg.LogLevel)
	}
	if cfg.Embedding.Dimensions != 32 {
		t.Errorf("Expected 32 dimensions, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Factorization.LearningRate != 0.1 {
		t.Errorf("Expected learning rate 0.1, got %f", cfg.Factorization.LearningRate)
	}
	if cfg.Index.QdrantPort != 6400 {
		t.Errorf("Expected qdrant port 6400, got %d", cfg.Index.QdrantPort)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Unset variables should keep defaults, got %q", cfg.Server.Host)
	}
}

func TestDistanceTypeString(t *testing.T) {
	tests := []struct {
		dt     DistanceType
		expect string
	}{
		{DistanceTypeEuclidean, "euclidean"},
		{DistanceTypeCosine, "cosine"},
		{DistanceTypeManhattan, "manhattan"},
		{DistanceTypeHamming, "hamming"},
		{DistanceType(999), "unknown"},
	}

	for _, test := range tests {
		if got := test.dt.String(); got != test.expect {
			t.Errorf("Expected %s for %v, got %s", test.expect, test.dt, got)
		}
	}
}

func TestParseDistanceType(t *testing.T) {
	tests := []struct {
		input  string
		expect DistanceType
	}{
		{"euclidean", DistanceTypeEuclidean},
		{"cosine", DistanceTypeCosine},
		{"manhattan", DistanceTypeManhattan},
		{"hamming", DistanceTypeHamming},
		{"unknown", DistanceTypeEuclidean}, // Default
	}

	for _, test := range tests {
		if got := ParseDistanceType(test.input); got != test.expect {
			t.Errorf("Expected %v for %s, got %v", test.expect, test.input, got)
		}
	}
}
