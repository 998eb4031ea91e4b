package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/priyansh/tender-match/internal/ai"
	"github.com/priyansh/tender-match/internal/config"
	"github.com/priyansh/tender-match/internal/db"
	"github.com/priyansh/tender-match/internal/extract"
	"github.com/priyansh/tender-match/internal/match"
)

func main() {
	companyID := flag.String("company", "", "Company ID to match against the corpus")
	location := flag.String("location", "", "Optional location filter")
	category := flag.String("category", "", "Optional business category filter")
	flag.Parse()

	if *companyID == "" {
		log.Fatal("Please provide a company ID using -company flag")
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

	store := db.NewStore(pool)
	aiClient := ai.NewOllamaClient(cfg.Ollama.Host, cfg.Ollama.EmbedModel, cfg.Ollama.GenModel)
	orch := match.NewOrchestrator(store, ai.NewOracle(aiClient), extract.NewDocumentExtractor(), aiClient, cfg.Match.Workers)

	results, err := orch.Run(ctx, *companyID, match.TenderFilters{
		Location: *location,
		Category: *category,
	})
	if err != nil {
		log.Fatalf("Matching run failed: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("No eligible tenders found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Score", "Eligible", "Reference", "Title", "Missing Fields"})

	for _, r := range results {
		title := r.TenderTitle
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%.2f", r.MatchingScore),
			r.Eligible,
			r.ReferenceNumber,
			title,
			strings.Join(r.MissingFields, ", "),
		})
	}
	t.Render()
}
