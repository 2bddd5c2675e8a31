/*
Package api exposes collections, ranking and the recommenders over HTTP and
a WebSocket.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"similarity-lab/catalog"
	"similarity-lab/db"
	"similarity-lab/embed"
	"similarity-lab/ranker"
	"similarity-lab/recommend"
)

// defaultK is used when a request omits k
const defaultK = 5

/*
Services are the dependencies the server routes to. Persistence, Products
and Recipes are optional; the recommend endpoints answer 503 without them.
*/
type Services struct {
	Manager     *db.Manager
	Persistence *db.PersistenceManager
	Products    *recommend.ProductRecommender
	Recipes     *recommend.RecipeRecommender
}

/*
Server represents the API server
*/
type Server struct {
	services Services
	server   *http.Server
}

/*
NewServer creates a new API server
*/
func NewServer(services Services) *Server {
	return &Server{services: services}
}

/*
Router builds the route table. The WebSocket endpoint stays outside the
timeout and compression middleware.
*/
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))

		r.Get("/health", s.handleHealth)
		r.Route("/api/collections", func(r chi.Router) {
			r.Get("/", s.handleListCollections)
			r.Post("/", s.handleCreateCollection)
			r.Get("/{name}", s.handleGetCollection)
			r.Delete("/{name}", s.handleDeleteCollection)
			r.Post("/{name}/vectors", s.handleAddVector)
			r.Post("/{name}/search", s.handleSearch)
		})
		r.Post("/api/rank", s.handleRank)
		r.Post("/api/recommend/products", s.handleRecommendProducts)
		r.Post("/api/recommend/recipes", s.handleRecommendRecipes)
	})
	return r
}

/*
Start starts the HTTP server and blocks until it stops
*/
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("Starting server on %s", addr)
	return s.server.ListenAndServe()
}

/*
Stop gracefully shuts down the server
*/
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// badRequest marks errors caused by malformed input.
type badRequest struct{ err error }

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var bad *badRequest
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrCollectionNotFound),
		errors.Is(err, db.ErrVectorNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, ranker.ErrEmptyCandidateSet):
		return http.StatusNotFound
	case errors.Is(err, db.ErrCollectionExists):
		return http.StatusConflict
	case errors.Is(err, ranker.ErrDimensionMismatch),
		errors.Is(err, ranker.ErrInvalidK),
		errors.Is(err, ranker.ErrInvalidCandidate),
		errors.Is(err, ranker.ErrDuplicateCandidate),
		errors.Is(err, ranker.ErrNoVectors),
		errors.Is(err, db.ErrInvalidDimensions),
		errors.Is(err, db.ErrEmptyVector),
		errors.Is(err, db.ErrInvalidParameter),
		errors.Is(err, embed.ErrNoKnownWords),
		errors.Is(err, recommend.ErrEmptyQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
