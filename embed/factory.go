package embed

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"similarity-lab/config"
)

/*
FromConfig builds the configured text encoder, wrapped in a cache when
CacheSize is positive
*/
func FromConfig(cfg config.EmbeddingConfig) (Encoder, error) {
	var enc Encoder
	switch cfg.Provider {
	case "", "hash":
		enc = NewHashEncoder(cfg.Dimensions)
	case "remote":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("remote embedding provider requires an endpoint")
		}
		enc = NewRemoteEncoder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		cached, err := NewCachedEncoder(enc, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		enc = cached
	}
	log.Debugf("using %s encoder (cache %d)", cfg.Provider, cfg.CacheSize)
	return enc, nil
}
