package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"strings"
	"testing"

	"similarity-lab/config"
	"similarity-lab/embed"
	"similarity-lab/report"
)

// Flags for test configuration
var (
	simWordsEmbeddingFile = flag.String("sim_embedding_file", "testdata/glove_sample.txt", "Path to word embeddings file")
	simWordsFormat        = flag.String("sim_format", "glove", "Embeddings format: glove or word2vec")
)

func loadTestVectors(t *testing.T) *embed.WordVectors {
	t.Helper()
	wv, err := embed.LoadWordVectors(*simWordsEmbeddingFile, *simWordsFormat, 0)
	if err != nil {
		if os.IsNotExist(err) {
			t.Skip("Skipping test: embeddings file not found:", *simWordsEmbeddingFile)
		}
		t.Fatalf("Failed to load embeddings: %v", err)
	}
	return wv
}

// TestSimilarWords finds semantically similar words for a set of query words
func TestSimilarWords(t *testing.T) {
	wv := loadTestVectors(t)
	t.Logf("Loaded %d word vectors", wv.Len())

	tests := []struct {
		word   string
		expect string
	}{
		{"apple", "pear"},
		{"bus", "car"},
		{"king", "man"},
	}

	for _, test := range tests {
		results, err := wv.MostSimilarWord(test.word, 3)
		if err != nil {
			t.Fatalf("MostSimilarWord(%s) failed: %v", test.word, err)
		}
		if results[0].ID != test.expect {
			t.Errorf("Expected %s nearest to %s, got %v", test.expect, test.word, results)
		}
		for _, r := range results {
			if r.ID == test.word {
				t.Errorf("%s should not be its own neighbor", test.word)
			}
		}
	}
}

func TestRunWordsIndexedMatchesBruteForce(t *testing.T) {
	wv := loadTestVectors(t)

	var brute, indexed bytes.Buffer
	ctx := context.Background()
	if err := runWords(ctx, report.NewPrinter(&brute, false), wv, []string{"apple", "bus"}, []string{"king:queen"}, 2, false); err != nil {
		t.Fatalf("runWords failed: %v", err)
	}
	if err := runWords(ctx, report.NewPrinter(&indexed, false), wv, []string{"apple", "bus"}, []string{"king:queen"}, 2, true); err != nil {
		t.Fatalf("runWords with index failed: %v", err)
	}

	if brute.String() != indexed.String() {
		t.Errorf("Indexed output differs from brute force:\n%s\n---\n%s", brute.String(), indexed.String())
	}
	for _, want := range []string{"Nearest to apple", "pear", "Pair similarities", "king vs queen"} {
		if !strings.Contains(brute.String(), want) {
			t.Errorf("Output missing %q:\n%s", want, brute.String())
		}
	}

	if err := runWords(ctx, report.NewPrinter(&brute, false), wv, nil, []string{"kingqueen"}, 2, false); err == nil {
		t.Error("Malformed pair should return error")
	}
	if err := runWords(ctx, report.NewPrinter(&brute, false), wv, []string{"emperor"}, nil, 2, false); err == nil {
		t.Error("Unknown word should return error")
	}
}

func TestRunSentences(t *testing.T) {
	enc := embed.NewHashEncoder(64)
	ctx := context.Background()

	var out bytes.Buffer
	p := report.NewPrinter(&out, false)
	if err := runSentences(ctx, &out, p, enc, defaultSentences, "", 3); err != nil {
		t.Fatalf("runSentences failed: %v", err)
	}
	if got := strings.Count(out.String(), "=>"); got != 6 {
		t.Errorf("Expected 6 sentence pairs, got %d:\n%s", got, out.String())
	}

	out.Reset()
	if err := runSentences(ctx, &out, p, enc, defaultSentences, "私はカレーが好きです。", 1); err != nil {
		t.Fatalf("runSentences with query failed: %v", err)
	}
	if !strings.Contains(out.String(), "1.0000") || !strings.Contains(out.String(), "カレー") {
		t.Errorf("Identical sentence should rank first with score 1:\n%s", out.String())
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SIMLAB_LOG_LEVEL", "debug")
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Environment override not applied, got %s", cfg.LogLevel)
	}

	applyDims(cfg, 32)
	if cfg.Embedding.Dimensions != 32 || cfg.Collections["default"].HNSW.Dimensions != 32 {
		t.Errorf("applyDims did not resize, got %d and %d", cfg.Embedding.Dimensions, cfg.Collections["default"].HNSW.Dimensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Resized config should be valid: %v", err)
	}

	if _, err := loadConfig("does-not-exist.json"); err == nil {
		t.Error("Missing config file should return error")
	}
	if cfg := config.DefaultConfig(); cfg.WordVectors.Path != "testdata/glove_sample.txt" {
		t.Errorf("Default word vectors should point at the bundled sample, got %s", cfg.WordVectors.Path)
	}
}
