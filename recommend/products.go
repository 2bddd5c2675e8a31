package recommend

import (
	"context"

	log "github.com/sirupsen/logrus"

	"similarity-lab/catalog"
	"similarity-lab/embed"
	"similarity-lab/ranker"
)

/*
ProductMatch is a recommended product with its similarity to the query
*/
type ProductMatch struct {
	Product catalog.Product `json:"product"`
	Score   float32         `json:"score"`
}

/*
ProductRecommender ranks a product catalog against texts
*/
type ProductRecommender struct {
	enc        embed.Encoder
	products   catalog.Products
	byKey      map[string]catalog.Product
	candidates []ranker.Candidate
}

/*
NewProductRecommender validates the catalog and embeds every product's text
*/
func NewProductRecommender(ctx context.Context, enc embed.Encoder, products catalog.Products) (*ProductRecommender, error) {
	if err := products.Validate(); err != nil {
		return nil, err
	}
	vectors, err := embedCatalog(ctx, enc, products.Texts())
	if err != nil {
		return nil, err
	}

	r := &ProductRecommender{
		enc:        enc,
		products:   products,
		byKey:      make(map[string]catalog.Product, len(products)),
		candidates: make([]ranker.Candidate, len(products)),
	}
	for i, p := range products {
		r.byKey[p.Key()] = p
		if r.candidates[i], err = ranker.NewCandidate(p.Key(), vectors[i], p.Meta()); err != nil {
			return nil, err
		}
	}
	log.Debugf("embedded %d products", len(products))
	return r, nil
}

// Products returns the catalog the recommender was built from.
func (r *ProductRecommender) Products() catalog.Products {
	return r.products
}

// Candidates returns the embedded catalog.
func (r *ProductRecommender) Candidates() []ranker.Candidate {
	return r.candidates
}

/*
FromText returns the k products closest to a free-text description, such as
the ingredients someone has at home
*/
func (r *ProductRecommender) FromText(ctx context.Context, text string, k int) ([]ProductMatch, error) {
	query, err := encodeQuery(ctx, r.enc, text)
	if err != nil {
		return nil, err
	}
	return r.rank(query, ranker.Options{K: k})
}

/*
Related returns the k products closest to a product name. Products with that
exact name are left out.
*/
func (r *ProductRecommender) Related(ctx context.Context, name string, k int) ([]ProductMatch, error) {
	query, err := encodeQuery(ctx, r.enc, name)
	if err != nil {
		return nil, err
	}
	return r.rank(query, ranker.Options{K: k, Exclude: r.excludeNames(name)})
}

/*
RelatedToMany ranks against the mean of several product names and leaves all
of them out
*/
func (r *ProductRecommender) RelatedToMany(ctx context.Context, names []string, k int) ([]ProductMatch, error) {
	query, err := meanQuery(ctx, r.enc, names)
	if err != nil {
		return nil, err
	}
	return r.rank(query, ranker.Options{K: k, Exclude: r.excludeNames(names...)})
}

/*
MissingItems suggests products for a dish that are not in the cart yet.
A nil filter keeps every product, catalog.HotpotKeywords with
Product.Mentions restricts suggestions to hot-pot items.
*/
func (r *ProductRecommender) MissingItems(ctx context.Context, dish string, cartIDs []int, filter func(catalog.Product) bool, k int) ([]ProductMatch, error) {
	query, err := encodeQuery(ctx, r.enc, dish)
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]bool, len(cartIDs))
	for _, id := range cartIDs {
		p, err := r.products.ByID(id)
		if err != nil {
			log.Debugf("ignoring cart item: %v", err)
			continue
		}
		exclude[p.Key()] = true
	}
	opts := ranker.Options{K: k, Exclude: exclude}
	if filter != nil {
		opts.Filter = func(c ranker.Candidate) bool {
			return filter(r.byKey[c.ID])
		}
	}
	return r.rank(query, opts)
}

func (r *ProductRecommender) rank(query []float32, opts ranker.Options) ([]ProductMatch, error) {
	opts.Metric = ranker.Dot
	results, err := ranker.Rank(query, r.candidates, opts)
	if err != nil {
		return nil, err
	}

	matches := make([]ProductMatch, len(results))
	for i, res := range results {
		matches[i] = ProductMatch{Product: r.byKey[res.ID], Score: res.Score}
	}
	return matches, nil
}

func (r *ProductRecommender) excludeNames(names ...string) map[string]bool {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	exclude := make(map[string]bool)
	for _, p := range r.products {
		if wanted[p.Name] {
			exclude[p.Key()] = true
		}
	}
	return exclude
}
