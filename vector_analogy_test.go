package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"similarity-lab/catalog"
	"similarity-lab/config"
	"similarity-lab/db"
	"similarity-lab/embed"
	"similarity-lab/ranker"
	"similarity-lab/recommend"
	"similarity-lab/report"
)

// AnalogyTest represents a word analogy test case (a - b + c = expected)
type AnalogyTest struct {
	a, b, c  string
	expected string
}

func TestVectorAnalogies(t *testing.T) {
	wv := loadTestVectors(t)

	col, err := db.NewCollection("words", config.DefaultCollectionConfig(wv.Dimensions()))
	if err != nil {
		t.Fatalf("NewCollection failed: %v", err)
	}
	if err := wv.IndexInto(col); err != nil {
		t.Fatalf("IndexInto failed: %v", err)
	}

	analogies := []AnalogyTest{
		{"king", "man", "woman", "queen"},
		{"prince", "boy", "girl", "princess"},
		{"queen", "woman", "man", "king"},
	}

	for _, test := range analogies {
		results, err := wv.Analogy(test.a, test.b, test.c, 3)
		if err != nil {
			t.Fatalf("Analogy failed: %v", err)
		}
		if results[0].ID != test.expected {
			t.Errorf("%s - %s + %s: expected %s, got %v", test.a, test.b, test.c, test.expected, results)
		}

		// the same query through the HNSW graph
		query, err := wv.AnalogyQuery(test.a, test.b, test.c)
		if err != nil {
			t.Fatalf("AnalogyQuery failed: %v", err)
		}
		indexed, err := col.Search(context.Background(), query, ranker.Options{
			K:       1,
			Exclude: ranker.ExcludeIDs(test.a, test.b, test.c),
		})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(indexed) != 1 || indexed[0].ID != test.expected {
			t.Errorf("indexed %s - %s + %s: expected %s, got %v", test.a, test.b, test.c, test.expected, indexed)
		}
	}
}

func TestWriteSample(t *testing.T) {
	wv := loadTestVectors(t)
	dir := t.TempDir()

	for _, format := range []string{"glove", "word2vec"} {
		path := filepath.Join(dir, "sample."+format)
		n, err := writeSample(wv, path, format, []string{"king", "man", "woman", "queen", "unknown"})
		if err != nil {
			t.Fatalf("writeSample(%s) failed: %v", format, err)
		}
		if n != 4 {
			t.Errorf("Expected 4 words written, got %d", n)
		}

		loaded, err := embed.LoadWordVectors(path, format, 0)
		if err != nil {
			t.Fatalf("Reload %s failed: %v", format, err)
		}
		results, err := loaded.Analogy("king", "man", "woman", 1)
		if err != nil {
			t.Fatalf("Analogy on %s sample failed: %v", format, err)
		}
		if results[0].ID != "queen" {
			t.Errorf("%s sample: expected queen, got %v", format, results)
		}
	}

	if _, err := writeSample(wv, filepath.Join(dir, "x"), "fasttext", nil); err == nil {
		t.Error("Unknown format should return error")
	}
}

func TestRunCF(t *testing.T) {
	fc := config.DefaultConfig().Factorization
	model, err := trainToyModel(context.Background(), fc)
	if err != nil {
		t.Fatalf("trainToyModel failed: %v", err)
	}

	var out bytes.Buffer
	if err := runCF(context.Background(), report.NewPrinter(&out, false), model, 0, 5, config.IndexConfig{Backend: "hnsw"}); err != nil {
		t.Fatalf("runCF failed: %v", err)
	}
	for _, want := range []string{"Model ranking for user 0", "Index top 5 for user 0 (hnsw)", "item "} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Output missing %q:\n%s", want, out.String())
		}
	}

	if err := runCF(context.Background(), report.NewPrinter(&out, false), model, 9, 5, config.IndexConfig{Backend: "hnsw"}); err == nil {
		t.Error("Unknown user should return error")
	}
}

func TestRunShopFlows(t *testing.T) {
	ctx := context.Background()
	enc := embed.NewHashEncoder(128)

	products, err := recommend.NewProductRecommender(ctx, enc, catalog.Hotpot())
	if err != nil {
		t.Fatalf("NewProductRecommender failed: %v", err)
	}
	recipes, err := recommend.NewRecipeRecommender(ctx, enc, catalog.DefaultRecipes())
	if err != nil {
		t.Fatalf("NewRecipeRecommender failed: %v", err)
	}

	var out bytes.Buffer
	p := report.NewPrinter(&out, false)
	err = runProducts(ctx, p, products, productQuery{
		Text: "冬に食べたい温かい鍋料理", Related: []string{"白菜", "豆腐"}, Dish: "寄せ鍋", Cart: []int{1}, HotpotOnly: true, K: 3,
	})
	if err != nil {
		t.Fatalf("runProducts failed: %v", err)
	}
	err = runRecipes(ctx, p, recipes, recipeQuery{
		Ingredients: []string{"白菜", "豆腐"}, Dish: "寄せ鍋", TopRecipes: 3, K: 3,
	})
	if err != nil {
		t.Fatalf("runRecipes failed: %v", err)
	}

	for _, want := range []string{"Products for", "Related to [白菜 豆腐]", "Missing for 寄せ鍋 (cart [1])", "Recipes with", "Ingredients to add", "Recipes like 寄せ鍋"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Output missing %q", want)
		}
	}

	_, recipesFromFile, err := loadCatalog(&config.Config{})
	if err != nil || len(recipesFromFile) == 0 {
		t.Errorf("Empty catalog path should fall back to the built-in catalog, got %d recipes, %v", len(recipesFromFile), err)
	}
}
