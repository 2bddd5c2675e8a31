package factorization

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"similarity-lab/config"
	"similarity-lab/ranker"
)

const (
	LossWARP = "warp"
	LossBPR  = "bpr"
)

/*
Config holds the model hyperparameters
*/
type Config struct {
	Components   int
	LearningRate float64
	// "warp" or "bpr"
	Loss string
	// negatives tried per positive before giving up
	MaxSampled int
	// L2 penalties
	UserAlpha float64
	ItemAlpha float64
	Seed      int64
}

// ConfigFrom converts the application configuration.
func ConfigFrom(cfg config.FactorizationConfig) Config {
	return Config{
		Components:   cfg.Components,
		LearningRate: cfg.LearningRate,
		Loss:         cfg.Loss,
		MaxSampled:   cfg.MaxSampled,
		Seed:         cfg.Seed,
	}
}

/*
Model scores user u against item i as
userFactors[u]·itemFactors[i] + userBias[u] + itemBias[i].
Training is deterministic for a fixed Seed.
*/
type Model struct {
	cfg Config

	userFactors *mat.Dense
	itemFactors *mat.Dense
	userBias    []float64
	itemBias    []float64

	// adagrad accumulators
	userFactorsSq *mat.Dense
	itemFactorsSq *mat.Dense
	userBiasSq    []float64
	itemBiasSq    []float64

	rng *rand.Rand
}

func NewModel(cfg Config) (*Model, error) {
	if cfg.Components <= 0 {
		return nil, fmt.Errorf("invalid components: %d", cfg.Components)
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.05
	}
	if cfg.Loss == "" {
		cfg.Loss = LossWARP
	}
	if cfg.Loss != LossWARP && cfg.Loss != LossBPR {
		return nil, fmt.Errorf("unknown loss: %q", cfg.Loss)
	}
	if cfg.MaxSampled <= 0 {
		cfg.MaxSampled = 10
	}
	return &Model{cfg: cfg}, nil
}

/*
Fit initializes the model for the interaction matrix and trains it for the
given number of epochs. Cancellation is checked between epochs.
*/
func (m *Model) Fit(ctx context.Context, interactions *Interactions, epochs int) error {
	m.reset(interactions.Shape())
	return m.FitPartial(ctx, interactions, epochs)
}

/*
FitPartial continues training without resetting the parameters
*/
func (m *Model) FitPartial(ctx context.Context, interactions *Interactions, epochs int) error {
	nUsers, nItems := interactions.Shape()
	if m.userFactors == nil {
		m.reset(nUsers, nItems)
	}
	if r, _ := m.userFactors.Dims(); r != nUsers {
		return fmt.Errorf("%w: model has %d users, interactions %d", ErrOutOfRange, r, nUsers)
	}
	if r, _ := m.itemFactors.Dims(); r != nItems {
		return fmt.Errorf("%w: model has %d items, interactions %d", ErrOutOfRange, r, nItems)
	}

	positives := interactions.Positives()
	order := make([]int, interactions.Len())
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var updates int
		for _, k := range order {
			u, i, w := interactions.users[k], interactions.items[k], interactions.weights[k]
			var updated bool
			if m.cfg.Loss == LossBPR {
				updated = m.bprStep(u, i, w, positives[u], nItems)
			} else {
				updated = m.warpStep(u, i, w, positives[u], nItems)
			}
			if updated {
				updates++
			}
		}
		log.Debugf("epoch %d: %d/%d updates", epoch+1, updates, len(order))
	}
	return nil
}

func (m *Model) reset(nUsers, nItems int) {
	m.rng = rand.New(rand.NewSource(m.cfg.Seed))
	c := m.cfg.Components

	m.userFactors = m.randomFactors(nUsers, c)
	m.itemFactors = m.randomFactors(nItems, c)
	m.userBias = make([]float64, nUsers)
	m.itemBias = make([]float64, nItems)

	m.userFactorsSq = ones(nUsers, c)
	m.itemFactorsSq = ones(nItems, c)
	m.userBiasSq = make([]float64, nUsers)
	m.itemBiasSq = make([]float64, nItems)
	floats.AddConst(1, m.userBiasSq)
	floats.AddConst(1, m.itemBiasSq)
}

// randomFactors draws uniform values in [-0.5/c, 0.5/c)
func (m *Model) randomFactors(rows, c int) *mat.Dense {
	data := make([]float64, rows*c)
	for i := range data {
		data[i] = (m.rng.Float64() - 0.5) / float64(c)
	}
	return mat.NewDense(rows, c, data)
}

func ones(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	floats.AddConst(1, data)
	return mat.NewDense(rows, cols, data)
}

func (m *Model) score(u, i int) float64 {
	return floats.Dot(m.userFactors.RawRowView(u), m.itemFactors.RawRowView(i)) + m.userBias[u] + m.itemBias[i]
}

/*
warpStep samples negatives until one scores within a margin of 1 of the
positive. The update is weighted by log(floor((n-1)/tries)), so violations
found early, which mean the positive ranks badly, move the model more.
*/
func (m *Model) warpStep(u, i int, weight float64, positives map[int]bool, nItems int) bool {
	pos := m.score(u, i)
	for tries := 1; tries <= m.cfg.MaxSampled; tries++ {
		j := m.rng.Intn(nItems)
		if positives[j] {
			continue
		}
		if m.score(u, j) > pos-1 {
			loss := weight * math.Log(math.Max(1, math.Floor(float64(nItems-1)/float64(tries))))
			m.update(u, i, j, loss)
			return true
		}
	}
	return false
}

// bprStep contrasts the positive with one sampled negative
func (m *Model) bprStep(u, i int, weight float64, positives map[int]bool, nItems int) bool {
	for tries := 0; tries < m.cfg.MaxSampled; tries++ {
		j := m.rng.Intn(nItems)
		if positives[j] {
			continue
		}
		x := m.score(u, i) - m.score(u, j)
		loss := weight / (1 + math.Exp(x))
		m.update(u, i, j, loss)
		return true
	}
	return false
}

// update moves user u towards positive i and away from negative j
func (m *Model) update(u, i, j int, loss float64) {
	lr := m.cfg.LearningRate
	user := m.userFactors.RawRowView(u)
	pos := m.itemFactors.RawRowView(i)
	neg := m.itemFactors.RawRowView(j)
	userSq := m.userFactorsSq.RawRowView(u)
	posSq := m.itemFactorsSq.RawRowView(i)
	negSq := m.itemFactorsSq.RawRowView(j)

	for f := range user {
		uf, pf, nf := user[f], pos[f], neg[f]
		gu := loss*(nf-pf) + m.cfg.UserAlpha*uf
		gp := -loss*uf + m.cfg.ItemAlpha*pf
		gn := loss*uf + m.cfg.ItemAlpha*nf

		userSq[f] += gu * gu
		posSq[f] += gp * gp
		negSq[f] += gn * gn
		user[f] -= lr * gu / math.Sqrt(userSq[f])
		pos[f] -= lr * gp / math.Sqrt(posSq[f])
		neg[f] -= lr * gn / math.Sqrt(negSq[f])
	}

	m.itemBiasSq[i] += loss * loss
	m.itemBiasSq[j] += loss * loss
	m.itemBias[i] += lr * loss / math.Sqrt(m.itemBiasSq[i])
	m.itemBias[j] -= lr * loss / math.Sqrt(m.itemBiasSq[j])
}

/*
Predict scores user against each of items
*/
func (m *Model) Predict(user int, items []int) ([]float64, error) {
	if m.userFactors == nil {
		return nil, ErrNotFitted
	}
	nUsers, _ := m.userFactors.Dims()
	nItems, _ := m.itemFactors.Dims()
	if user < 0 || user >= nUsers {
		return nil, fmt.Errorf("%w: user %d of %d", ErrOutOfRange, user, nUsers)
	}

	scores := make([]float64, len(items))
	for k, i := range items {
		if i < 0 || i >= nItems {
			return nil, fmt.Errorf("%w: item %d of %d", ErrOutOfRange, i, nItems)
		}
		scores[k] = m.score(user, i)
	}
	return scores, nil
}

/*
RankItems returns every item index ordered from best to worst for user
*/
func (m *Model) RankItems(user int) ([]int, error) {
	if m.itemFactors == nil {
		return nil, ErrNotFitted
	}
	nItems, _ := m.itemFactors.Dims()
	items := make([]int, nItems)
	for i := range items {
		items[i] = i
	}
	scores, err := m.Predict(user, items)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(a, b int) bool { return scores[items[a]] > scores[items[b]] })
	return items, nil
}

// UserRepresentations returns copies of the user biases and factors.
func (m *Model) UserRepresentations() ([]float64, *mat.Dense) {
	if m.userFactors == nil {
		return nil, nil
	}
	return append([]float64(nil), m.userBias...), mat.DenseCopyOf(m.userFactors)
}

// ItemRepresentations returns copies of the item biases and factors.
func (m *Model) ItemRepresentations() ([]float64, *mat.Dense) {
	if m.itemFactors == nil {
		return nil, nil
	}
	return append([]float64(nil), m.itemBias...), mat.DenseCopyOf(m.itemFactors)
}

// UserVector returns a user's factors as float32 for nearest neighbour search.
func (m *Model) UserVector(user int) ([]float32, error) {
	if m.userFactors == nil {
		return nil, ErrNotFitted
	}
	if n, _ := m.userFactors.Dims(); user < 0 || user >= n {
		return nil, fmt.Errorf("%w: user %d of %d", ErrOutOfRange, user, n)
	}
	return toFloat32(m.userFactors.RawRowView(user)), nil
}

/*
ItemCandidates turns the item factors into ranker candidates with the item
index as id, so items can be searched by a user vector
*/
func (m *Model) ItemCandidates() []ranker.Candidate {
	if m.itemFactors == nil {
		return nil
	}
	n, _ := m.itemFactors.Dims()
	candidates := make([]ranker.Candidate, n)
	for i := 0; i < n; i++ {
		id := strconv.Itoa(i)
		candidates[i] = ranker.Candidate{
			ID:     id,
			Vector: toFloat32(m.itemFactors.RawRowView(i)),
			Meta:   ranker.Meta{Name: "item " + id},
		}
	}
	return candidates
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
