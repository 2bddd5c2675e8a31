package catalog

import (
	"fmt"
	"strings"

	"similarity-lab/ranker"
)

/*
Recipe is a dish with its genre and ingredient list
*/
type Recipe struct {
	Name        string   `json:"name" yaml:"name"`
	Genre       string   `json:"genre,omitempty" yaml:"genre"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
}

// Validate requires a name and at least one ingredient.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: recipe has no name", ErrInvalidRecipe)
	}
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("%w: %s has no ingredients", ErrInvalidRecipe, r.Name)
	}
	return nil
}

/*
Text renders the recipe as name。ジャンル: genre。材料: a、b、c.
The genre clause is left out when the genre is empty.
*/
func (r Recipe) Text() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString("。")
	if r.Genre != "" {
		b.WriteString("ジャンル: ")
		b.WriteString(r.Genre)
		b.WriteString("。")
	}
	b.WriteString("材料: ")
	b.WriteString(strings.Join(r.Ingredients, "、"))
	return b.String()
}

// Meta carries the genre and ingredients along with ranked recipes.
func (r Recipe) Meta() ranker.Meta {
	return ranker.Meta{
		Name:     r.Name,
		Category: r.Genre,
		Items:    r.Ingredients,
	}
}

/*
Recipes is a catalog of recipes with unique names
*/
type Recipes []Recipe

func (rs Recipes) Validate() error {
	seen := make(map[string]bool, len(rs))
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: recipe %q", ErrDuplicate, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

func (rs Recipes) Texts() []string {
	texts := make([]string, len(rs))
	for i, r := range rs {
		texts[i] = r.Text()
	}
	return texts
}
