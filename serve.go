package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"similarity-lab/api"
	"similarity-lab/db"
	"similarity-lab/embed"
	"similarity-lab/recommend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetString("port")
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = host
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}
		if cmd.Flags().Changed("data-path") {
			cfg.Storage.DataPath, _ = cmd.Flags().GetString("data-path")
		}
		if cmd.Flags().Changed("persistence") {
			cfg.Storage.PersistenceEngine, _ = cmd.Flags().GetBool("persistence")
		}
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("host", "localhost", "Host address")
	serveCmd.Flags().String("port", "8080", "Port number")
	serveCmd.Flags().String("data-path", "./data", "Path to store data files")
	serveCmd.Flags().Bool("persistence", true, "Enable persistence engine")
}

func serve(ctx context.Context) error {
	printWelcome()

	manager, err := db.NewManager(cfg)
	if err != nil {
		return err
	}

	services := api.Services{Manager: manager}
	if cfg.Storage.PersistenceEngine {
		services.Persistence = db.NewPersistenceManager(cfg.Storage.DataPath)
		n, err := services.Persistence.LoadAll(manager)
		if err != nil {
			return fmt.Errorf("failed to load collections: %w", err)
		}
		log.Infof("Loaded %d collections from %s", n, cfg.Storage.DataPath)
	}

	if err := addRecommenders(ctx, &services); err != nil {
		return err
	}

	// Start persistence worker
	stopPersistence := make(chan struct{})
	if services.Persistence != nil {
		go persistenceWorker(manager, services.Persistence, cfg.Storage.PersistenceInterval, stopPersistence)
	}

	server := api.NewServer(services)
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("Shutting down...")
	case err := <-errCh:
		close(stopPersistence)
		return fmt.Errorf("api server: %w", err)
	}

	close(stopPersistence)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Errorf("Failed to stop API server: %v", err)
	}

	// Save all collections one last time
	if services.Persistence != nil {
		if err := services.Persistence.SaveAll(manager); err != nil {
			log.Errorf("Failed to save collections during shutdown: %v", err)
		}
	}
	return nil
}

/*
addRecommenders embeds the catalog once at startup. With the qdrant backend
the product vectors are mirrored into the configured Qdrant collection.
*/
func addRecommenders(ctx context.Context, services *api.Services) error {
	products, recipes, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	enc, err := embed.FromConfig(cfg.Embedding)
	if err != nil {
		return err
	}
	if services.Products, err = recommend.NewProductRecommender(ctx, enc, products); err != nil {
		return err
	}
	if services.Recipes, err = recommend.NewRecipeRecommender(ctx, enc, recipes); err != nil {
		return err
	}

	if cfg.Index.Backend == "qdrant" {
		if err := mirrorToQdrant(ctx, services.Products); err != nil {
			log.Warnf("Qdrant mirror failed: %v", err)
		}
	}
	return nil
}

func mirrorToQdrant(ctx context.Context, rec *recommend.ProductRecommender) error {
	candidates := rec.Candidates()
	if len(candidates) == 0 {
		return nil
	}
	index, err := db.NewQdrantIndex(cfg.Index.QdrantHost, cfg.Index.QdrantPort, cfg.Index.Collection)
	if err != nil {
		return err
	}
	defer index.Close()

	if err := index.EnsureCollection(ctx, len(candidates[0].Vector)); err != nil {
		return err
	}
	vectors := make([]db.Vector, len(candidates))
	for i, c := range candidates {
		vectors[i] = db.Vector{ID: c.ID, Data: c.Vector, Meta: c.Meta}
	}
	if err := index.Upsert(ctx, vectors); err != nil {
		return err
	}
	log.Infof("Mirrored %d products to qdrant collection %s", len(vectors), cfg.Index.Collection)
	return nil
}

func persistenceWorker(manager *db.Manager, persistence *db.PersistenceManager, interval int, stop chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := persistence.SaveAll(manager); err != nil {
				log.Error("Failed to save collections: ", err)
			}
		case <-stop:
			return
		}
	}
}
