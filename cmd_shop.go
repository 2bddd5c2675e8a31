package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"similarity-lab/catalog"
	"similarity-lab/config"
	"similarity-lab/embed"
	"similarity-lab/recommend"
	"similarity-lab/report"
)

var (
	shopK       int
	productText string
	related     []string
	dish        string
	cart        []int
	hotpotOnly  bool
	ingredients []string
	genres      []string
	topRecipes  int
	breakfast   bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Recommend catalog products for a text, related products or missing cart items",
	RunE: func(cmd *cobra.Command, args []string) error {
		products, _, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		if breakfast {
			products = catalog.Breakfast()
		}
		enc, err := embed.FromConfig(cfg.Embedding)
		if err != nil {
			return err
		}
		rec, err := recommend.NewProductRecommender(cmd.Context(), enc, products)
		if err != nil {
			return err
		}
		return runProducts(cmd.Context(), newPrinter(), rec, productQuery{
			Text:       productText,
			Related:    related,
			Dish:       dish,
			Cart:       cart,
			HotpotOnly: hotpotOnly,
			K:          shopK,
		})
	},
}

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Suggest recipes and missing ingredients",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, recipes, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		enc, err := embed.FromConfig(cfg.Embedding)
		if err != nil {
			return err
		}
		rec, err := recommend.NewRecipeRecommender(cmd.Context(), enc, recipes)
		if err != nil {
			return err
		}
		return runRecipes(cmd.Context(), newPrinter(), rec, recipeQuery{
			Ingredients: ingredients,
			Genres:      genres,
			Dish:        dish,
			TopRecipes:  topRecipes,
			K:           shopK,
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{productsCmd, recipesCmd} {
		c.Flags().IntVarP(&shopK, "k", "k", 5, "Number of results")
		c.Flags().StringVar(&dish, "dish", "寄せ鍋", "Dish to shop or cook for")
	}
	productsCmd.Flags().StringVar(&productText, "text", "冬に食べたい温かい鍋料理", "Free-text description to match")
	productsCmd.Flags().StringSliceVar(&related, "related", []string{"白菜"}, "Product names to find related products for")
	productsCmd.Flags().IntSliceVar(&cart, "cart", []int{1, 20}, "Product ids already in the cart")
	productsCmd.Flags().BoolVar(&hotpotOnly, "hotpot", true, "Only suggest hot-pot products for missing items")
	productsCmd.Flags().BoolVar(&breakfast, "breakfast", false, "Use the breakfast catalog")
	recipesCmd.Flags().StringSliceVar(&ingredients, "ingredients", []string{"白菜", "豆腐"}, "Ingredients at hand")
	recipesCmd.Flags().StringSliceVar(&genres, "genre", nil, "Only recipes of these genres")
	recipesCmd.Flags().IntVar(&topRecipes, "top-recipes", 3, "Recipes considered for extra ingredients")
}

// loadCatalog returns the configured catalog or the built-in one.
func loadCatalog(c *config.Config) (catalog.Products, catalog.Recipes, error) {
	cat, err := catalog.LoadFile(c.Catalog.Path)
	if err != nil {
		return nil, nil, err
	}
	return cat.Products, cat.Recipes, nil
}

type productQuery struct {
	Text       string
	Related    []string
	Dish       string
	Cart       []int
	HotpotOnly bool
	K          int
}

// runProducts runs every product flow whose input is set.
func runProducts(ctx context.Context, p *report.Printer, rec *recommend.ProductRecommender, q productQuery) error {
	if q.Text != "" {
		matches, err := rec.FromText(ctx, q.Text, q.K)
		if err != nil {
			return err
		}
		p.Products("Products for "+q.Text, matches)
	}

	switch len(q.Related) {
	case 0:
	case 1:
		matches, err := rec.Related(ctx, q.Related[0], q.K)
		if err != nil {
			return err
		}
		p.Products("Related to "+q.Related[0], matches)
	default:
		matches, err := rec.RelatedToMany(ctx, q.Related, q.K)
		if err != nil {
			return err
		}
		p.Products(fmt.Sprintf("Related to %v", q.Related), matches)
	}

	if q.Dish != "" {
		var filter func(catalog.Product) bool
		if q.HotpotOnly {
			filter = func(prod catalog.Product) bool { return prod.Mentions(catalog.HotpotKeywords) }
		}
		matches, err := rec.MissingItems(ctx, q.Dish, q.Cart, filter, q.K)
		if err != nil {
			return err
		}
		p.Products(fmt.Sprintf("Missing for %s (cart %v)", q.Dish, q.Cart), matches)
	}
	return nil
}

type recipeQuery struct {
	Ingredients []string
	Genres      []string
	Dish        string
	TopRecipes  int
	K           int
}

// runRecipes runs every recipe flow whose input is set.
func runRecipes(ctx context.Context, p *report.Printer, rec *recommend.RecipeRecommender, q recipeQuery) error {
	if len(q.Ingredients) > 0 {
		matches, err := rec.FromIngredients(ctx, q.Ingredients, q.Genres, q.K)
		if err != nil {
			return err
		}
		p.Recipes(fmt.Sprintf("Recipes with %v", q.Ingredients), matches)

		extra, err := rec.ExtraIngredients(ctx, q.Ingredients, q.Genres, q.TopRecipes, q.K)
		if err != nil {
			return err
		}
		p.Attributes("Ingredients to add", extra)
	}

	if q.Dish != "" {
		recipe, missing, err := rec.MissingForDish(ctx, q.Dish, q.Ingredients, q.K)
		if err != nil {
			return err
		}
		p.List(fmt.Sprintf("Missing for %s (closest recipe %s)", q.Dish, recipe.Name), missing)

		similar, err := rec.Similar(ctx, q.Dish, q.K)
		if err != nil {
			return err
		}
		p.Recipes("Recipes like "+q.Dish, similar)
	}
	return nil
}
