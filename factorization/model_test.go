package factorization

import (
	"context"
	"errors"
	"testing"

	"similarity-lab/ranker"
)

// toyInteractions is the 5 user x 10 item matrix used by the cf command.
func toyInteractions(t *testing.T) *Interactions {
	t.Helper()
	m, err := FromCOO(
		[]float64{1, 1, 1, 1, 1, 1},
		[]int{0, 0, 1, 1, 2, 3},
		[]int{0, 1, 1, 2, 3, 4},
		5, 10,
	)
	if err != nil {
		t.Fatalf("FromCOO failed: %v", err)
	}
	return m
}

func fitted(t *testing.T, loss string, seed int64) *Model {
	t.Helper()
	model, err := NewModel(Config{Components: 10, LearningRate: 0.05, Loss: loss, MaxSampled: 10, Seed: seed})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	if err := model.Fit(context.Background(), toyInteractions(t), 30); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return model
}

func TestInteractions(t *testing.T) {
	m := toyInteractions(t)
	if u, i := m.Shape(); u != 5 || i != 10 {
		t.Errorf("Expected shape 5x10, got %dx%d", u, i)
	}
	if m.Len() != 6 {
		t.Errorf("Expected 6 interactions, got %d", m.Len())
	}

	positives := m.Positives()
	if !positives[0][0] || !positives[0][1] || positives[0][2] {
		t.Errorf("Unexpected positives for user 0: %v", positives[0])
	}
	if len(positives[4]) != 0 {
		t.Errorf("User 4 has no interactions, got %v", positives[4])
	}

	if err := m.Add(5, 0, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for user 5, got %v", err)
	}
	if err := m.Add(0, 10, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for item 10, got %v", err)
	}
	if err := m.Add(0, 3, 0); err != nil || m.Len() != 6 {
		t.Errorf("Zero weight should be ignored, got err %v len %d", err, m.Len())
	}

	if _, err := FromCOO([]float64{1}, []int{0, 1}, []int{0}, 2, 2); err == nil {
		t.Error("Mismatched COO slices should return error")
	}
	if _, err := NewInteractions(0, 3); err == nil {
		t.Error("Empty shape should return error")
	}
}

func TestNewModelValidation(t *testing.T) {
	if _, err := NewModel(Config{Components: 0}); err == nil {
		t.Error("Zero components should return error")
	}
	if _, err := NewModel(Config{Components: 4, Loss: "logistic"}); err == nil {
		t.Error("Unknown loss should return error")
	}
	model, err := NewModel(Config{Components: 4})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	if _, err := model.Predict(0, []int{0}); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
	if model.ItemCandidates() != nil {
		t.Error("Unfitted model should have no item candidates")
	}
}

func TestFitRanksObservedItemsFirst(t *testing.T) {
	for _, loss := range []string{LossWARP, LossBPR} {
		t.Run(loss, func(t *testing.T) {
			model := fitted(t, loss, 42)

			// items 5..9 were never interacted with by anyone
			checks := map[int][]int{0: {0, 1}, 1: {1, 2}}
			for user, observed := range checks {
				scores, err := model.Predict(user, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
				if err != nil {
					t.Fatalf("Predict failed: %v", err)
				}
				for _, o := range observed {
					for unseen := 5; unseen < 10; unseen++ {
						if scores[o] <= scores[unseen] {
							t.Errorf("user %d: item %d (%.4f) should outscore item %d (%.4f)",
								user, o, scores[o], unseen, scores[unseen])
						}
					}
				}

				ranked, err := model.RankItems(user)
				if err != nil {
					t.Fatalf("RankItems failed: %v", err)
				}
				if len(ranked) != 10 {
					t.Fatalf("Expected 10 ranked items, got %d", len(ranked))
				}
				for _, item := range ranked[len(ranked)-5:] {
					if item == observed[0] || item == observed[1] {
						t.Errorf("user %d: observed item %d ranked in the bottom half %v", user, item, ranked)
					}
				}
			}
		})
	}
}

func TestFitDeterministic(t *testing.T) {
	a := fitted(t, LossWARP, 7)
	b := fitted(t, LossWARP, 7)

	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for user := 0; user < 5; user++ {
		sa, _ := a.Predict(user, items)
		sb, _ := b.Predict(user, items)
		for i := range sa {
			if sa[i] != sb[i] {
				t.Fatalf("user %d item %d: %v != %v for the same seed", user, i, sa[i], sb[i])
			}
		}
	}
}

func TestPredictOutOfRange(t *testing.T) {
	model := fitted(t, LossWARP, 42)
	if _, err := model.Predict(5, []int{0}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for user, got %v", err)
	}
	if _, err := model.Predict(0, []int{10}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for item, got %v", err)
	}
	if _, err := model.UserVector(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for user vector, got %v", err)
	}
}

func TestFitCancelled(t *testing.T) {
	model, err := NewModel(Config{Components: 4, Seed: 1})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := model.Fit(ctx, toyInteractions(t), 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFitPartialShapeMismatch(t *testing.T) {
	model := fitted(t, LossWARP, 42)
	other, _ := NewInteractions(6, 10)
	if err := model.FitPartial(context.Background(), other, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for a different shape, got %v", err)
	}
}

func TestRepresentations(t *testing.T) {
	model := fitted(t, LossWARP, 42)

	userBias, userFactors := model.UserRepresentations()
	itemBias, itemFactors := model.ItemRepresentations()
	if len(userBias) != 5 || len(itemBias) != 10 {
		t.Fatalf("Unexpected bias lengths %d and %d", len(userBias), len(itemBias))
	}
	if r, c := userFactors.Dims(); r != 5 || c != 10 {
		t.Errorf("Expected 5x10 user factors, got %dx%d", r, c)
	}
	if r, c := itemFactors.Dims(); r != 10 || c != 10 {
		t.Errorf("Expected 10x10 item factors, got %dx%d", r, c)
	}

	// copies must not alias the model
	itemFactors.Set(0, 0, 1000)
	itemBias[0] = 1000
	_, again := model.ItemRepresentations()
	if again.At(0, 0) == 1000 {
		t.Error("ItemRepresentations should return a copy")
	}

	candidates := model.ItemCandidates()
	if len(candidates) != 10 || candidates[3].ID != "3" || len(candidates[3].Vector) != 10 {
		t.Fatalf("Unexpected item candidates: %d", len(candidates))
	}

	// dot product ranking of item factors agrees with the factor part of Predict
	query, err := model.UserVector(0)
	if err != nil {
		t.Fatalf("UserVector failed: %v", err)
	}
	results, err := ranker.Rank(query, candidates, ranker.Options{K: 3, Metric: ranker.Dot})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
}
