package ranker

import "fmt"

/*
Metric selects how a query and a candidate vector are turned into a score.

Every call site picks one explicitly: Cosine divides the dot product by both
norms, Dot assumes the caller already normalised the vectors to unit length.
*/
type Metric int

const (
	Cosine Metric = iota
	Dot
)

/*
String returns the string representation of the metric
*/
func (m Metric) String() string {
	switch m {
	case Cosine:
		return "cosine"
	case Dot:
		return "dot"
	default:
		return "unknown"
	}
}

// ParseMetric converts "cosine" or "dot" to a Metric. An empty name is Cosine.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "cosine":
		return Cosine, nil
	case "dot":
		return Dot, nil
	default:
		return Cosine, fmt.Errorf("unknown metric: %q", s)
	}
}

/*
Meta is descriptive data attached to a candidate.

It is used for filtering and display only, never for scoring. Items holds
sub-items such as a recipe's ingredients for missing-attribute aggregation.
*/
type Meta struct {
	Name     string   `json:"name,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Text     string   `json:"text,omitempty"`
	Items    []string `json:"items,omitempty"`
}

/*
Candidate is one rankable entry: an identifier, its vector and metadata.
*/
type Candidate struct {
	ID     string    `json:"id"`
	Vector []float32 `json:"vector"`
	Meta   Meta      `json:"meta"`
}

/*
NewCandidate builds a candidate and rejects empty identifiers or vectors.
*/
func NewCandidate(id string, vector []float32, meta Meta) (Candidate, error) {
	if id == "" {
		return Candidate{}, fmt.Errorf("%w: empty id", ErrInvalidCandidate)
	}
	if len(vector) == 0 {
		return Candidate{}, fmt.Errorf("%w: empty vector for %q", ErrInvalidCandidate, id)
	}
	return Candidate{ID: id, Vector: vector, Meta: meta}, nil
}

/*
ScoredResult pairs a candidate identifier with its similarity score.
*/
type ScoredResult struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
	Meta  Meta    `json:"meta"`
}

/*
Options controls a single ranking call.

K is the number of results wanted. Exclude and Filter remove candidates before
scoring. RequireResults turns an empty eligible set into ErrEmptyCandidateSet
instead of an empty result.
*/
type Options struct {
	K              int
	Metric         Metric
	Exclude        map[string]bool
	Filter         func(Candidate) bool
	RequireResults bool
}

// ExcludeIDs builds an exclusion set.
func ExcludeIDs(ids ...string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (o Options) eligible(c Candidate) bool {
	if o.Exclude[c.ID] {
		return false
	}
	if o.Filter != nil && !o.Filter(c) {
		return false
	}
	return true
}
