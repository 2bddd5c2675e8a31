/*
Package catalog holds the product and recipe records the recommenders rank.
*/
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"similarity-lab/ranker"
)

var (
	// ErrInvalidProduct is returned for products without a name or a positive id
	ErrInvalidProduct = errors.New("invalid product")

	// ErrInvalidRecipe is returned for recipes without a name or ingredients
	ErrInvalidRecipe = errors.New("invalid recipe")

	// ErrDuplicate is returned when a catalog repeats a product id or recipe name
	ErrDuplicate = errors.New("duplicate catalog entry")

	// ErrNotFound is returned when a lookup by id fails
	ErrNotFound = errors.New("catalog entry not found")
)

/*
Product is one item of a shop catalog
*/
type Product struct {
	ID          int      `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
	Description string   `json:"description,omitempty" yaml:"description"`
}

// Validate checks the product's id and name.
func (p Product) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: id %d must be positive", ErrInvalidProduct, p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product %d has no name", ErrInvalidProduct, p.ID)
	}
	return nil
}

/*
Text renders the product as one sentence for the encoder:
name。カテゴリ: category。タグ: tag1、tag2。説明: description
*/
func (p Product) Text() string {
	return fmt.Sprintf("%s。カテゴリ: %s。タグ: %s。説明: %s",
		p.Name, p.Category, strings.Join(p.Tags, "、"), p.Description)
}

// Key is the product id as used for ranker candidates.
func (p Product) Key() string {
	return strconv.Itoa(p.ID)
}

// Meta describes the product for display and filtering.
func (p Product) Meta() ranker.Meta {
	return ranker.Meta{
		Name:     p.Name,
		Category: p.Category,
		Tags:     p.Tags,
		Text:     p.Description,
	}
}

/*
Mentions reports whether any keyword occurs in the product's name,
description or tags
*/
func (p Product) Mentions(keywords []string) bool {
	text := p.Name + " " + p.Description + " " + strings.Join(p.Tags, " ")
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// HotpotKeywords marks products that belong in a hot pot.
var HotpotKeywords = []string{
	"鍋", "スープ", "白菜", "ねぎ", "ネギ", "長ねぎ",
	"しめじ", "えのき", "豆腐", "しらたき",
	"豚", "鶏", "肉", "〆", "雑炊", "中華麺",
}

/*
Products is a catalog of products with unique ids
*/
type Products []Product

// Validate checks every product and the uniqueness of ids.
func (ps Products) Validate() error {
	seen := make(map[int]bool, len(ps))
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: product id %d", ErrDuplicate, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// ByID returns the product with this id.
func (ps Products) ByID(id int) (Product, error) {
	for _, p := range ps {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
}

// Texts renders every product in catalog order.
func (ps Products) Texts() []string {
	texts := make([]string, len(ps))
	for i, p := range ps {
		texts[i] = p.Text()
	}
	return texts
}
