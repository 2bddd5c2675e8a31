package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment override, e.g. SIMLAB_SERVER_PORT.
const EnvPrefix = "SIMLAB"

/*
Config is the configuration for the application.

Contains the configuration for the server, storage, encoders, indexes,
the factorization demo and the named vector collections.
*/
type Config struct {
	Server        ServerConfig                `json:"server"`
	Storage       StorageConfig               `json:"storage"`
	Embedding     EmbeddingConfig             `json:"embedding"`
	WordVectors   WordVectorsConfig           `json:"word_vectors" envconfig:"WORD_VECTORS"`
	Index         IndexConfig                 `json:"index"`
	Factorization FactorizationConfig         `json:"factorization"`
	Catalog       CatalogConfig               `json:"catalog"`
	Collections   map[string]CollectionConfig `json:"collections" ignored:"true"`
	LogLevel      string                      `json:"log_level" envconfig:"LOG_LEVEL"`
}

/*
ServerConfig is the configuration for the server.
*/
type ServerConfig struct {
	Host string `json:"host"`
	Port string `json:"port"`
}

/*
HNSWConfig is the configuration for the HNSW algorithm.
*/
type HNSWConfig struct {
	// number of dimensions
	Dimensions int `json:"dimensions"`
	// number of neighbors
	M int `json:"m"`
	// parameter efConstruction for HNSW
	EfConstruction int `json:"ef_construction" envconfig:"EF_CONSTRUCTION"`
	// parameter efSearch for HNSW
	EfSearch int `json:"ef_search" envconfig:"EF_SEARCH"`
	// distance function
	DistanceType DistanceType `json:"distance_type" envconfig:"DISTANCE_TYPE"`
}

/*
DistanceType is the type of distance function.
*/
type DistanceType int

const (
	DistanceTypeEuclidean DistanceType = iota
	DistanceTypeCosine
	DistanceTypeManhattan
	DistanceTypeHamming
)

/*
StorageConfig is the configuration for the storage.
*/
type StorageConfig struct {
	// path to the data directory
	DataPath string `json:"data_path" envconfig:"DATA_PATH"`
	// whether to use persistence engine
	PersistenceEngine bool `json:"persistence_engine" envconfig:"PERSISTENCE_ENABLED"`
	// interval to persist data [seconds]
	PersistenceInterval int `json:"persistence_interval" envconfig:"AUTOSAVE_INTERVAL"`
}

/*
EmbeddingConfig selects and configures the text encoder.
*/
type EmbeddingConfig struct {
	// "hash" or "remote"
	Provider string `json:"provider"`
	// output dimensions of the hash encoder
	Dimensions int `json:"dimensions"`
	// number of cached embeddings, 0 disables the cache
	CacheSize int `json:"cache_size" envconfig:"CACHE_SIZE"`
	// OpenAI-compatible API base, e.g. http://localhost:11434/v1
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	APIKey   string `json:"-" envconfig:"API_KEY"`
	// request timeout [seconds]
	Timeout int `json:"timeout"`
}

/*
WordVectorsConfig points at a pretrained word vector file.
*/
type WordVectorsConfig struct {
	Path string `json:"path"`
	// "glove" (text) or "word2vec" (binary)
	Format string `json:"format"`
	// maximum number of words to load, 0 loads everything
	Limit int `json:"limit"`
}

/*
IndexConfig selects the nearest neighbor backend.
*/
type IndexConfig struct {
	// "hnsw" (in process) or "qdrant"
	Backend    string `json:"backend"`
	QdrantHost string `json:"qdrant_host" envconfig:"QDRANT_HOST"`
	QdrantPort int    `json:"qdrant_port" envconfig:"QDRANT_PORT"`
	Collection string `json:"collection"`
}

/*
FactorizationConfig is the configuration for the collaborative filtering demo.
*/
type FactorizationConfig struct {
	Components   int     `json:"components"`
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate" envconfig:"LEARNING_RATE"`
	Loss         string  `json:"loss"`
	MaxSampled   int     `json:"max_sampled" envconfig:"MAX_SAMPLED"`
	Seed         int64   `json:"seed"`
}

/*
CatalogConfig points at an optional YAML catalog replacing the built-in data.
*/
type CatalogConfig struct {
	Path string `json:"path"`
}

/*
CollectionConfig represents the configuration for a single vector collection.
*/
type CollectionConfig struct {
	HNSW HNSWConfig `json:"hnsw"`
}

/*
DefaultCollectionConfig is used for collections created without explicit settings.
*/
func DefaultCollectionConfig(dimensions int) CollectionConfig {
	return CollectionConfig{
		HNSW: HNSWConfig{
			Dimensions:     dimensions,
			M:              16,
			EfConstruction: 200,
			EfSearch:       50,
			DistanceType:   DistanceTypeCosine,
		},
	}
}

/*
Default config
*/
func DefaultConfig() *Config {
	return &Config{
		// server configuration
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
		},
		// storage configuration
		Storage: StorageConfig{
			DataPath:            "./data",
			PersistenceEngine:   true,
			PersistenceInterval: 5,
		},
		// encoder configuration
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Dimensions: 384,
			CacheSize:  1024,
			Model:      "text-embedding-3-small",
			Timeout:    30,
		},
		WordVectors: WordVectorsConfig{
			Path:   "testdata/glove_sample.txt",
			Format: "glove",
		},
		Index: IndexConfig{
			Backend:    "hnsw",
			QdrantHost: "localhost",
			QdrantPort: 6334,
			Collection: "items",
		},
		// values mirror LightFM's defaults
		Factorization: FactorizationConfig{
			Components:   10,
			Epochs:       20,
			LearningRate: 0.05,
			Loss:         "warp",
			MaxSampled:   10,
			Seed:         42,
		},
		Collections: map[string]CollectionConfig{
			"default": DefaultCollectionConfig(384),
		},
		// logging configuration
		LogLevel: "warn",
	}
}

/*
LoadFromFile loads the configuration from a JSON file.
*/
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return config, nil
}

/*
LoadFromEnv loads the default configuration and applies SIMLAB_* overrides.
*/
func LoadFromEnv() (*Config, error) {
	config := DefaultConfig()
	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

/*
ApplyEnv overrides fields of config from SIMLAB_* environment variables.
Unset variables leave the current value in place.
*/
func ApplyEnv(config *Config) error {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

/*
Validate checks if the configuration is valid
*/
func (c *Config) Validate() error {
	for name, col := range c.Collections {
		if err := col.Validate(); err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", c.Embedding.Dimensions)
	}
	switch c.Embedding.Provider {
	case "hash":
	case "remote":
		if c.Embedding.Endpoint == "" {
			return fmt.Errorf("remote embedding provider requires an endpoint")
		}
	default:
		return fmt.Errorf("unknown embedding provider: %q", c.Embedding.Provider)
	}
	switch c.Index.Backend {
	case "hnsw", "qdrant":
	default:
		return fmt.Errorf("unknown index backend: %q", c.Index.Backend)
	}
	if c.Factorization.Components <= 0 {
		return fmt.Errorf("invalid factorization components: %d", c.Factorization.Components)
	}
	if c.Factorization.Loss != "warp" && c.Factorization.Loss != "bpr" {
		return fmt.Errorf("unknown factorization loss: %q", c.Factorization.Loss)
	}
	return nil
}

/*
Validate checks the HNSW parameters of a collection
*/
func (c CollectionConfig) Validate() error {
	if c.HNSW.M <= 0 {
		return fmt.Errorf("invalid M value: %d", c.HNSW.M)
	}
	if c.HNSW.Dimensions <= 0 {
		return fmt.Errorf("invalid dimensions: %d", c.HNSW.Dimensions)
	}
	return nil
}

/*
String returns the string representation of the distance type
*/
func (dt DistanceType) String() string {
	switch dt {
	case DistanceTypeEuclidean:
		return "euclidean"
	case DistanceTypeCosine:
		return "cosine"
	case DistanceTypeManhattan:
		return "manhattan"
	case DistanceTypeHamming:
		return "hamming"
	default:
		return "unknown"
	}
}

/*
ParseDistanceType converts a string to a DistanceType
*/
func ParseDistanceType(s string) DistanceType {
	switch s {
	case "euclidean":
		return DistanceTypeEuclidean
	case "cosine":
		return DistanceTypeCosine
	case "manhattan":
		return DistanceTypeManhattan
	case "hamming":
		return DistanceTypeHamming
	default:
		return DistanceTypeEuclidean
	}
}
