package recommend

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"similarity-lab/catalog"
	"similarity-lab/embed"
	"similarity-lab/ranker"
)

/*
RecipeMatch is a recommended recipe with its similarity to the query
*/
type RecipeMatch struct {
	Recipe catalog.Recipe `json:"recipe"`
	Score  float32        `json:"score"`
}

/*
RecipeRecommender ranks a recipe catalog by ingredients or dish names
*/
type RecipeRecommender struct {
	enc        embed.Encoder
	recipes    catalog.Recipes
	byName     map[string]catalog.Recipe
	candidates []ranker.Candidate
}

func NewRecipeRecommender(ctx context.Context, enc embed.Encoder, recipes catalog.Recipes) (*RecipeRecommender, error) {
	if err := recipes.Validate(); err != nil {
		return nil, err
	}
	vectors, err := embedCatalog(ctx, enc, recipes.Texts())
	if err != nil {
		return nil, err
	}

	r := &RecipeRecommender{
		enc:        enc,
		recipes:    recipes,
		byName:     make(map[string]catalog.Recipe, len(recipes)),
		candidates: make([]ranker.Candidate, len(recipes)),
	}
	for i, rec := range recipes {
		r.byName[rec.Name] = rec
		if r.candidates[i], err = ranker.NewCandidate(rec.Name, vectors[i], rec.Meta()); err != nil {
			return nil, err
		}
	}
	log.Debugf("embedded %d recipes", len(recipes))
	return r, nil
}

func (r *RecipeRecommender) Recipes() catalog.Recipes {
	return r.recipes
}

/*
FromIngredients returns the k recipes closest to the ingredients, joined with
、 into one query. A non-empty genres list keeps only recipes of those genres.
*/
func (r *RecipeRecommender) FromIngredients(ctx context.Context, ingredients, genres []string, k int) ([]RecipeMatch, error) {
	results, err := r.byIngredients(ctx, ingredients, genres, k)
	if err != nil {
		return nil, err
	}
	return r.matches(results), nil
}

/*
ExtraIngredients looks at the topRecipes recipes closest to the ingredients
and suggests what is missing. Each missing ingredient scores the sum of the
similarities of the recipes that use it.
*/
func (r *RecipeRecommender) ExtraIngredients(ctx context.Context, ingredients, genres []string, topRecipes, topIngredients int) ([]ranker.AttributeScore, error) {
	results, err := r.byIngredients(ctx, ingredients, genres, topRecipes)
	if err != nil {
		return nil, err
	}
	return ranker.MissingAttributes(results, ingredients, topIngredients), nil
}

/*
MissingForDish finds the recipe closest to a dish name and returns its
ingredients that are not in have, in recipe order, at most k (k <= 0 keeps all)
*/
func (r *RecipeRecommender) MissingForDish(ctx context.Context, dish string, have []string, k int) (catalog.Recipe, []string, error) {
	query, err := encodeQuery(ctx, r.enc, dish)
	if err != nil {
		return catalog.Recipe{}, nil, err
	}
	best, err := ranker.Rank(query, r.candidates, ranker.Options{K: 1, Metric: ranker.Dot, RequireResults: true})
	if err != nil {
		return catalog.Recipe{}, nil, err
	}

	recipe := r.byName[best[0].ID]
	owned := make(map[string]bool, len(have))
	for _, h := range have {
		owned[h] = true
	}
	var missing []string
	for _, ing := range recipe.Ingredients {
		if owned[ing] {
			continue
		}
		missing = append(missing, ing)
		if k > 0 && len(missing) == k {
			break
		}
	}
	return recipe, missing, nil
}

/*
Similar returns the k recipes closest to a dish name
*/
func (r *RecipeRecommender) Similar(ctx context.Context, dish string, k int) ([]RecipeMatch, error) {
	query, err := encodeQuery(ctx, r.enc, dish)
	if err != nil {
		return nil, err
	}
	results, err := ranker.Rank(query, r.candidates, ranker.Options{K: k, Metric: ranker.Dot})
	if err != nil {
		return nil, err
	}
	return r.matches(results), nil
}

func (r *RecipeRecommender) byIngredients(ctx context.Context, ingredients, genres []string, k int) ([]ranker.ScoredResult, error) {
	if len(ingredients) == 0 {
		return nil, ErrEmptyQuery
	}
	query, err := encodeQuery(ctx, r.enc, strings.Join(ingredients, "、"))
	if err != nil {
		return nil, err
	}

	opts := ranker.Options{K: k, Metric: ranker.Dot}
	if len(genres) > 0 {
		allowed := make(map[string]bool, len(genres))
		for _, g := range genres {
			allowed[g] = true
		}
		opts.Filter = func(c ranker.Candidate) bool {
			return allowed[c.Meta.Category]
		}
	}
	return ranker.Rank(query, r.candidates, opts)
}

func (r *RecipeRecommender) matches(results []ranker.ScoredResult) []RecipeMatch {
	out := make([]RecipeMatch, len(results))
	for i, res := range results {
		out[i] = RecipeMatch{Recipe: r.byName[res.ID], Score: res.Score}
	}
	return out
}
