package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/*
Catalog bundles the products and recipes of one shop
*/
type Catalog struct {
	Products Products `yaml:"products"`
	Recipes  Recipes  `yaml:"recipes"`
}

// Default returns the built-in hot-pot products and recipes.
func Default() *Catalog {
	return &Catalog{Products: Hotpot(), Recipes: DefaultRecipes()}
}

func (c *Catalog) Validate() error {
	if err := c.Products.Validate(); err != nil {
		return err
	}
	return c.Recipes.Validate()
}

/*
LoadFile reads a YAML catalog with products and recipes lists and validates it.
An empty path returns the built-in catalog.
*/
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &c, nil
}
