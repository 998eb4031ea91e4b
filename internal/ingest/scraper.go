package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// ScrapeStats summarizes one listing-scrape run.
type ScrapeStats struct {
	Found  int `json:"found"`
	Saved  int `json:"saved"`
	Errors int `json:"errors"`
}

// ScrapeSource walks a tender portal listing page with Colly, extracts
// tender rows using the source's CSS selectors and ingests each one. Rows
// without a resolvable document link are counted as errors and skipped.
func (i *Ingestor) ScrapeSource(ctx context.Context, config SourceConfig) (ScrapeStats, error) {
	stats := ScrapeStats{}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return stats, fmt.Errorf("invalid base URL: %w", err)
	}

	maxPages := config.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	pagesVisited := 0

	collector := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		colly.AllowedDomains(base.Host),
		colly.MaxBodySize(10*1024*1024),
	)
	collector.SetRequestTimeout(30 * time.Second)
	_ = collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       1 * time.Second,
		RandomDelay: 500 * time.Millisecond,
	})

	collector.OnHTML(config.Selectors.Container, func(e *colly.HTMLElement) {
		if ctx.Err() != nil {
			return
		}

		link := e.ChildAttr(config.Selectors.Link, "href")
		if link == "" {
			stats.Errors++
			return
		}

		raw := RawTender{
			FormURL:         e.Request.AbsoluteURL(link),
			Title:           e.ChildText(config.Selectors.Title),
			ReferenceNumber: e.ChildText(config.Selectors.Reference),
			Location:        e.ChildText(config.Selectors.Location),
			Deadline:        e.ChildText(config.Selectors.Deadline),
		}
		if config.Selectors.Category != "" {
			if cat := e.ChildText(config.Selectors.Category); cat != "" {
				raw.BusinessCategory = splitCSV(cat)
			}
		}
		if strings.TrimSpace(raw.Title) == "" {
			stats.Errors++
			return
		}

		stats.Found++
		if _, err := i.Ingest(ctx, raw); err != nil {
			log.Printf("failed to ingest scraped tender %q: %v", raw.Title, err)
			stats.Errors++
			return
		}
		stats.Saved++
	})

	if config.Selectors.NextPage != "" {
		collector.OnHTML(config.Selectors.NextPage, func(e *colly.HTMLElement) {
			if ctx.Err() != nil || pagesVisited >= maxPages {
				return
			}
			if next := e.Attr("href"); next != "" {
				_ = collector.Visit(e.Request.AbsoluteURL(next))
			}
		})
	}

	collector.OnRequest(func(r *colly.Request) {
		pagesVisited++
		log.Printf("scraping %s (page %d)", r.URL, pagesVisited)
	})

	if err := collector.Visit(config.BaseURL); err != nil {
		return stats, fmt.Errorf("scrape of %s failed: %w", config.ID, err)
	}
	collector.Wait()

	log.Printf("scrape %s complete: %d found, %d saved, %d errors", config.ID, stats.Found, stats.Saved, stats.Errors)
	return stats, nil
}
