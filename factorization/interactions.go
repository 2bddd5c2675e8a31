/*
Package factorization is a small implicit-feedback matrix factorization
model in the style of LightFM: user and item latent factors plus biases,
trained with the WARP or BPR ranking loss and adagrad.
*/
package factorization

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned for user or item indices outside the matrix
	ErrOutOfRange = errors.New("index out of range")

	// ErrNotFitted is returned when predicting before Fit
	ErrNotFitted = errors.New("model is not fitted")
)

/*
Interactions is a sparse users x items matrix of implicit feedback in
coordinate form. Repeated (user, item) pairs are kept as separate entries.
*/
type Interactions struct {
	nUsers  int
	nItems  int
	users   []int
	items   []int
	weights []float64
}

func NewInteractions(nUsers, nItems int) (*Interactions, error) {
	if nUsers <= 0 || nItems <= 0 {
		return nil, fmt.Errorf("%w: shape %dx%d", ErrOutOfRange, nUsers, nItems)
	}
	return &Interactions{nUsers: nUsers, nItems: nItems}, nil
}

/*
FromCOO builds an interaction matrix from parallel data, user and item slices
*/
func FromCOO(data []float64, users, items []int, nUsers, nItems int) (*Interactions, error) {
	if len(data) != len(users) || len(users) != len(items) {
		return nil, fmt.Errorf("coo slices differ in length: %d data, %d users, %d items", len(data), len(users), len(items))
	}
	m, err := NewInteractions(nUsers, nItems)
	if err != nil {
		return nil, err
	}
	for i := range data {
		if err := m.Add(users[i], items[i], data[i]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return m, nil
}

// Add records that user interacted with item. Non-positive weights are ignored.
func (m *Interactions) Add(user, item int, weight float64) error {
	if user < 0 || user >= m.nUsers {
		return fmt.Errorf("%w: user %d of %d", ErrOutOfRange, user, m.nUsers)
	}
	if item < 0 || item >= m.nItems {
		return fmt.Errorf("%w: item %d of %d", ErrOutOfRange, item, m.nItems)
	}
	if weight <= 0 {
		return nil
	}
	m.users = append(m.users, user)
	m.items = append(m.items, item)
	m.weights = append(m.weights, weight)
	return nil
}

// Shape returns the number of users and items.
func (m *Interactions) Shape() (int, int) {
	return m.nUsers, m.nItems
}

// Len returns the number of stored interactions.
func (m *Interactions) Len() int {
	return len(m.users)
}

// Positives returns the set of items each user interacted with.
func (m *Interactions) Positives() []map[int]bool {
	positives := make([]map[int]bool, m.nUsers)
	for u := range positives {
		positives[u] = make(map[int]bool)
	}
	for k, u := range m.users {
		positives[u][m.items[k]] = true
	}
	return positives
}
