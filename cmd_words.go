package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"similarity-lab/config"
	"similarity-lab/db"
	"similarity-lab/embed"
	"similarity-lab/ranker"
	"similarity-lab/report"
)

var (
	topK      int
	useIndex  bool
	pairs     []string
	meanWords bool
	queryText string
)

var wordsCmd = &cobra.Command{
	Use:   "words [word...]",
	Short: "Nearest words and pair similarities from pretrained word vectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"king", "apple"}
		}
		wv, err := loadWordVectors(cfg.WordVectors, newPrinter())
		if err != nil {
			return err
		}
		return runWords(cmd.Context(), newPrinter(), wv, args, pairs, topK, useIndex)
	},
}

var analogyCmd = &cobra.Command{
	Use:   "analogy [a b c]",
	Short: "Words nearest to a - b + c, e.g. king - man + woman",
	Args:  cobra.RangeArgs(0, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"king", "man", "woman"}
		}
		if len(args) != 3 {
			return fmt.Errorf("analogy takes three words, got %d", len(args))
		}
		wv, err := loadWordVectors(cfg.WordVectors, newPrinter())
		if err != nil {
			return err
		}
		results, err := wv.Analogy(args[0], args[1], args[2], topK)
		if err != nil {
			return err
		}
		newPrinter().Results(fmt.Sprintf("%s - %s + %s", args[0], args[1], args[2]), results)
		return nil
	},
}

var sentencesCmd = &cobra.Command{
	Use:   "sentences [text...]",
	Short: "Pairwise similarity of sentences, or sentences ranked against --query",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = defaultSentences
		}
		var enc embed.Encoder
		if meanWords {
			wv, err := loadWordVectors(cfg.WordVectors, newPrinter())
			if err != nil {
				return err
			}
			enc = embed.NewMeanEncoder(wv)
		} else {
			var err error
			if enc, err = embed.FromConfig(cfg.Embedding); err != nil {
				return err
			}
		}
		return runSentences(cmd.Context(), os.Stdout, newPrinter(), enc, args, queryText, topK)
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample <output> [word...]",
	Short: "Write a subset of the word vectors as GloVe text or word2vec binary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wv, err := loadWordVectors(cfg.WordVectors, newPrinter())
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		n, err := writeSample(wv, args[0], format, args[1:])
		if err != nil {
			return err
		}
		log.Infof("wrote %d words to %s", n, args[0])
		if info, err := os.Stat(args[0]); err == nil {
			newPrinter().Size(args[0], uint64(info.Size()))
		}
		return nil
	},
}

var defaultSentences = []string{
	"これはペンです。",
	"これは鉛筆です。",
	"私はカレーが好きです。",
	"サッカーはスポーツです。",
}

func init() {
	for _, c := range []*cobra.Command{wordsCmd, analogyCmd, sentencesCmd} {
		c.Flags().IntVarP(&topK, "k", "k", 10, "Number of results")
	}
	wordsCmd.Flags().BoolVar(&useIndex, "index", false, "Search through an HNSW collection instead of brute force")
	wordsCmd.Flags().StringSliceVar(&pairs, "pair", []string{"king:queen", "king:man", "king:apple"}, "Word pairs to compare, as a:b")
	sentencesCmd.Flags().BoolVar(&meanWords, "mean", false, "Encode sentences as the mean of their word vectors")
	sentencesCmd.Flags().StringVar(&queryText, "query", "", "Rank the sentences against this text")
	sampleCmd.Flags().String("format", "glove", "Output format: glove or word2vec")
}

func loadWordVectors(wc config.WordVectorsConfig, p *report.Printer) (*embed.WordVectors, error) {
	start := time.Now()
	wv, err := embed.LoadWordVectors(wc.Path, wc.Format, wc.Limit)
	if err != nil {
		return nil, fmt.Errorf("load word vectors: %w", err)
	}
	p.Summary(wv.Len(), fmt.Sprintf("words (%dd)", wv.Dimensions()), time.Since(start))
	return wv, nil
}

/*
runWords prints the nearest words of each word and the similarity of each
a:b pair. With indexed set the vocabulary is loaded into an HNSW collection
first and searched through it.
*/
func runWords(ctx context.Context, p *report.Printer, wv *embed.WordVectors, words, pairs []string, k int, indexed bool) error {
	var col *db.Collection
	if indexed {
		var err error
		col, err = db.NewCollection("words", config.DefaultCollectionConfig(wv.Dimensions()))
		if err != nil {
			return err
		}
		if err := wv.IndexInto(col); err != nil {
			return err
		}
	}

	for _, word := range words {
		var (
			results []ranker.ScoredResult
			err     error
		)
		if col != nil {
			var v []float32
			if v, err = wv.Vector(word); err == nil {
				results, err = col.Search(ctx, v, ranker.Options{K: k, Exclude: ranker.ExcludeIDs(word)})
			}
		} else {
			results, err = wv.MostSimilarWord(word, k)
		}
		if err != nil {
			return err
		}
		p.Results("Nearest to "+word, results)
	}

	var scored []ranker.ScoredResult
	for _, pair := range pairs {
		a, b, ok := strings.Cut(pair, ":")
		if !ok {
			return fmt.Errorf("invalid pair %q, expected a:b", pair)
		}
		sim, err := wv.Similarity(a, b)
		if err != nil {
			log.Warnf("skipping %s: %v", pair, err)
			continue
		}
		scored = append(scored, ranker.ScoredResult{ID: pair, Score: sim, Meta: ranker.Meta{Name: a + " vs " + b}})
	}
	if len(scored) > 0 {
		p.Results("Pair similarities", scored)
	}
	return nil
}

/*
runSentences prints every pairwise cosine similarity, or with a query the
sentences ranked against it
*/
func runSentences(ctx context.Context, w io.Writer, p *report.Printer, enc embed.Encoder, sentences []string, query string, k int) error {
	vectors, err := embed.EncodeAll(ctx, enc, sentences)
	if err != nil {
		return err
	}
	candidates := make([]ranker.Candidate, len(sentences))
	for i, s := range sentences {
		if candidates[i], err = ranker.NewCandidate(fmt.Sprint(i), vectors[i], ranker.Meta{Name: s, Text: s}); err != nil {
			return err
		}
	}

	if query != "" {
		q, err := enc.Encode(ctx, query)
		if err != nil {
			return err
		}
		results, err := ranker.Rank(q, candidates, ranker.Options{K: k, Metric: ranker.Cosine})
		if err != nil {
			return err
		}
		p.Results("Closest to "+query, results)
		return nil
	}

	p.Title("Pairwise cosine similarity (%d dimensions)", enc.Dimensions())
	for i := range sentences {
		for j := i + 1; j < len(sentences); j++ {
			sim, err := ranker.Score(ranker.Cosine, vectors[i], vectors[j])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "「%s」 vs 「%s」 => %.3f\n", sentences[i], sentences[j], sim)
		}
	}
	return nil
}

func writeSample(wv *embed.WordVectors, path, format string, words []string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	switch format {
	case "", "glove":
		return wv.WriteGloVe(f, words...)
	case "word2vec":
		return wv.WriteWord2Vec(f, words...)
	default:
		return 0, fmt.Errorf("unknown format: %q", format)
	}
}
