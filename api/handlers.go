package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"similarity-lab/catalog"
	"similarity-lab/config"
	"similarity-lab/db"
	"similarity-lab/ranker"
)

type collectionInfo struct {
	Name           string `json:"name"`
	Dimensions     int    `json:"dimensions"`
	DistanceType   string `json:"distance_type"`
	M              int    `json:"m"`
	EfConstruction int    `json:"ef_construction"`
	EfSearch       int    `json:"ef_search"`
	Size           int    `json:"size"`
}

func infoOf(col *db.Collection) collectionInfo {
	h := col.Config.HNSW
	return collectionInfo{
		Name:           col.Name,
		Dimensions:     h.Dimensions,
		DistanceType:   h.DistanceType.String(),
		M:              h.M,
		EfConstruction: h.EfConstruction,
		EfSearch:       h.EfSearch,
		Size:           col.Len(),
	}
}

type createCollectionRequest struct {
	Name           string `json:"name"`
	Dimensions     int    `json:"dimensions"`
	DistanceType   string `json:"distance_type"`
	M              int    `json:"m"`
	EfConstruction int    `json:"ef_construction"`
	EfSearch       int    `json:"ef_search"`
}

// searchRequest is shared by collection search and the rank endpoint.
type searchRequest struct {
	Query          []float32          `json:"query"`
	Candidates     []ranker.Candidate `json:"candidates,omitempty"`
	K              int                `json:"k"`
	Metric         string             `json:"metric"`
	Exclude        []string           `json:"exclude"`
	Category       string             `json:"category"`
	RequireResults bool               `json:"require_results"`
}

func (req searchRequest) options() (ranker.Options, error) {
	metric, err := ranker.ParseMetric(req.Metric)
	if err != nil {
		return ranker.Options{}, err
	}
	opts := ranker.Options{
		K:              req.K,
		Metric:         metric,
		Exclude:        ranker.ExcludeIDs(req.Exclude...),
		RequireResults: req.RequireResults,
	}
	if opts.K == 0 {
		opts.K = defaultK
	}
	if req.Category != "" {
		category := req.Category
		opts.Filter = func(c ranker.Candidate) bool { return c.Meta.Category == category }
	}
	return opts, nil
}

type resultsResponse struct {
	Results []ranker.ScoredResult `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCollections(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.services.Manager.ListCollections())
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cc := config.DefaultCollectionConfig(req.Dimensions)
	if req.DistanceType != "" {
		cc.HNSW.DistanceType = config.ParseDistanceType(req.DistanceType)
	}
	if req.M > 0 {
		cc.HNSW.M = req.M
	}
	if req.EfConstruction > 0 {
		cc.HNSW.EfConstruction = req.EfConstruction
	}
	if req.EfSearch > 0 {
		cc.HNSW.EfSearch = req.EfSearch
	}

	col, err := s.services.Manager.CreateCollection(req.Name, cc)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			// config validation failures
			status = http.StatusBadRequest
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, infoOf(col))
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.services.Manager.GetCollection(chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, infoOf(col))
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := db.ValidateName(name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.services.Manager.DeleteCollection(name); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if p := s.services.Persistence; p != nil {
		if err := p.DeleteCollection(name); err != nil {
			log.Warnf("Failed to delete persisted collection %s: %v", name, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddVector(w http.ResponseWriter, r *http.Request) {
	var vector db.Vector
	if err := json.NewDecoder(r.Body).Decode(&vector); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.services.Manager.AddVector(chi.URLParam(r, "name"), vector); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": vector.ID, "status": "added"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := s.searchCollection(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resultsResponse{Results: results})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := rankRequest(req)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resultsResponse{Results: results})
}

func (s *Server) searchCollection(ctx context.Context, name string, req searchRequest) ([]ranker.ScoredResult, error) {
	opts, err := req.options()
	if err != nil {
		return nil, &badRequest{err}
	}
	return s.services.Manager.Search(ctx, name, req.Query, opts)
}

func rankRequest(req searchRequest) ([]ranker.ScoredResult, error) {
	opts, err := req.options()
	if err != nil {
		return nil, &badRequest{err}
	}
	candidates := make([]ranker.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		if candidates[i], err = ranker.NewCandidate(c.ID, c.Vector, c.Meta); err != nil {
			return nil, &badRequest{fmt.Errorf("candidate %d: %w", i, err)}
		}
	}
	return ranker.Rank(req.Query, candidates, opts)
}

type productRequest struct {
	// "text" (default), "related" or "missing"
	Mode  string   `json:"mode"`
	Text  string   `json:"text"`
	Names []string `json:"names"`
	Dish  string   `json:"dish"`
	Cart  []int    `json:"cart"`
	// restrict missing items to hot-pot products
	HotpotOnly bool `json:"hotpot_only"`
	K          int  `json:"k"`
}

func (s *Server) handleRecommendProducts(w http.ResponseWriter, r *http.Request) {
	rec := s.services.Products
	if rec == nil {
		respondError(w, http.StatusServiceUnavailable, "product recommender is not configured")
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.K == 0 {
		req.K = defaultK
	}

	ctx := r.Context()
	var (
		matches interface{}
		err     error
	)
	switch req.Mode {
	case "", "text":
		matches, err = rec.FromText(ctx, req.Text, req.K)
	case "related":
		matches, err = rec.RelatedToMany(ctx, req.Names, req.K)
	case "missing":
		var filter func(catalog.Product) bool
		if req.HotpotOnly {
			filter = func(p catalog.Product) bool { return p.Mentions(catalog.HotpotKeywords) }
		}
		matches, err = rec.MissingItems(ctx, req.Dish, req.Cart, filter, req.K)
	default:
		respondError(w, http.StatusBadRequest, "unknown mode: "+req.Mode)
		return
	}
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": matches})
}

type recipeRequest struct {
	// "ingredients" (default), "extra", "missing" or "similar"
	Mode        string   `json:"mode"`
	Ingredients []string `json:"ingredients"`
	Genres      []string `json:"genres"`
	Dish        string   `json:"dish"`
	TopRecipes  int      `json:"top_recipes"`
	K           int      `json:"k"`
}

func (s *Server) handleRecommendRecipes(w http.ResponseWriter, r *http.Request) {
	rec := s.services.Recipes
	if rec == nil {
		respondError(w, http.StatusServiceUnavailable, "recipe recommender is not configured")
		return
	}
	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.K == 0 {
		req.K = defaultK
	}

	ctx := r.Context()
	switch req.Mode {
	case "", "ingredients":
		matches, err := rec.FromIngredients(ctx, req.Ingredients, req.Genres, req.K)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"results": matches})
	case "extra":
		if req.TopRecipes == 0 {
			req.TopRecipes = 3
		}
		extra, err := rec.ExtraIngredients(ctx, req.Ingredients, req.Genres, req.TopRecipes, req.K)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"ingredients": extra})
	case "missing":
		recipe, missing, err := rec.MissingForDish(ctx, req.Dish, req.Ingredients, req.K)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		if missing == nil {
			missing = []string{}
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"recipe": recipe, "missing": missing})
	case "similar":
		matches, err := rec.Similar(ctx, req.Dish, req.K)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"results": matches})
	default:
		respondError(w, http.StatusBadRequest, "unknown mode: "+req.Mode)
	}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
