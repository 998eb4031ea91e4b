package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/priyansh/tender-match/internal/ai"
	"github.com/priyansh/tender-match/internal/config"
	"github.com/priyansh/tender-match/internal/db"
	"github.com/priyansh/tender-match/internal/ingest"
)

func main() {
	sourceID := flag.String("source", "", "Registry source ID to scrape (e.g., cppp)")
	registryPath := flag.String("registry", "", "Optional path to a sources.yaml override")
	noEmbed := flag.Bool("no-embed", false, "Skip embedding generation during ingest")
	flag.Parse()

	if *sourceID == "" {
		log.Fatal("Please provide a source ID using -source flag")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	registry, err := ingest.LoadRegistry(*registryPath)
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}
	source, err := registry.Find(*sourceID)
	if err != nil {
		log.Fatal(err)
	}

	var embedder ai.Embedder
	if !*noEmbed {
		embedder = ai.NewOllamaClient(cfg.Ollama.Host, cfg.Ollama.EmbedModel, cfg.Ollama.GenModel)
	}
	ingestor := ingest.NewIngestor(db.NewStore(pool), embedder)

	log.Printf("Starting scrape for source: %s", *sourceID)
	stats, err := ingestor.ScrapeSource(ctx, *source)
	if err != nil {
		log.Fatalf("Scrape failed: %v", err)
	}
	log.Printf("Done: %d found, %d saved, %d errors", stats.Found, stats.Saved, stats.Errors)
}
