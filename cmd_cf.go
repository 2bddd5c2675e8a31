package main

import (
	"context"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"similarity-lab/config"
	"similarity-lab/db"
	"similarity-lab/factorization"
	"similarity-lab/ranker"
	"similarity-lab/report"
)

var (
	cfUser   int
	cfEpochs int
)

var cfCmd = &cobra.Command{
	Use:   "cf",
	Short: "Train a factorization model on toy interactions and compare its ranking with a vector index",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("epochs") {
			cfg.Factorization.Epochs = cfEpochs
		}
		model, err := trainToyModel(cmd.Context(), cfg.Factorization)
		if err != nil {
			return err
		}
		return runCF(cmd.Context(), newPrinter(), model, cfUser, 5, cfg.Index)
	},
}

func init() {
	cfCmd.Flags().IntVar(&cfUser, "user", 0, "User to recommend for")
	cfCmd.Flags().IntVar(&cfEpochs, "epochs", 20, "Training epochs")
}

/*
toyInteractions is a 5 user x 10 item matrix: user 0 saw items 0 and 1,
user 1 items 1 and 2, user 2 item 3, user 3 item 4 and user 4 nothing
*/
func toyInteractions() (*factorization.Interactions, error) {
	return factorization.FromCOO(
		[]float64{1, 1, 1, 1, 1, 1},
		[]int{0, 0, 1, 1, 2, 3},
		[]int{0, 1, 1, 2, 3, 4},
		5, 10,
	)
}

func trainToyModel(ctx context.Context, fc config.FactorizationConfig) (*factorization.Model, error) {
	interactions, err := toyInteractions()
	if err != nil {
		return nil, err
	}
	model, err := factorization.NewModel(factorization.ConfigFrom(fc))
	if err != nil {
		return nil, err
	}
	log.Infof("training %s model: %d components, %d epochs", fc.Loss, fc.Components, fc.Epochs)
	if err := model.Fit(ctx, interactions, fc.Epochs); err != nil {
		return nil, err
	}
	return model, nil
}

/*
runCF prints the model's full ranking for user, then the k items nearest to
the user's latent vector in an item index. The index ignores biases, so the
two orders can differ.
*/
func runCF(ctx context.Context, p *report.Printer, model *factorization.Model, user, k int, ic config.IndexConfig) error {
	ranked, err := model.RankItems(user)
	if err != nil {
		return err
	}
	scores, err := model.Predict(user, ranked)
	if err != nil {
		return err
	}
	p.Items(fmt.Sprintf("Model ranking for user %d", user), ranked, scores)

	results, err := searchItems(ctx, model, user, k, ic)
	if err != nil {
		return err
	}
	p.Results(fmt.Sprintf("Index top %d for user %d (%s)", k, user, ic.Backend), results)

	indexed := make([]int, 0, len(results))
	for _, r := range results {
		if i, err := strconv.Atoi(r.ID); err == nil {
			indexed = append(indexed, i)
		}
	}
	log.Infof("model top %d: %v, index top %d: %v", k, ranked[:min(k, len(ranked))], k, indexed)
	return nil
}

// searchItems finds the items nearest to a user vector in the configured backend.
func searchItems(ctx context.Context, model *factorization.Model, user, k int, ic config.IndexConfig) ([]ranker.ScoredResult, error) {
	query, err := model.UserVector(user)
	if err != nil {
		return nil, err
	}
	candidates := model.ItemCandidates()
	opts := ranker.Options{K: k, Metric: ranker.Cosine}

	if ic.Backend != "qdrant" {
		col, err := db.NewCollection("items", config.DefaultCollectionConfig(len(query)))
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if err := col.Add(db.Vector{ID: c.ID, Data: c.Vector, Meta: c.Meta}); err != nil {
				return nil, err
			}
		}
		return col.Search(ctx, query, opts)
	}

	index, err := db.NewQdrantIndex(ic.QdrantHost, ic.QdrantPort, ic.Collection)
	if err != nil {
		return nil, err
	}
	defer index.Close()
	if err := index.EnsureCollection(ctx, len(query)); err != nil {
		return nil, err
	}
	vectors := make([]db.Vector, len(candidates))
	for i, c := range candidates {
		vectors[i] = db.Vector{ID: c.ID, Data: c.Vector, Meta: c.Meta}
	}
	if err := index.Upsert(ctx, vectors); err != nil {
		return nil, err
	}
	searcher := &ranker.Searcher{Index: index, Lookup: ranker.LookupFrom(candidates), ToScore: index.ScoreFunc()}
	return searcher.Rank(ctx, query, opts)
}
