package match

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/priyansh/tender-match/internal/models"
)

// Orchestrator drives one full matching run for one company: resolve the
// company record, pre-filter the corpus by category, then resolve and score
// each candidate tender. Candidate processing is independent per tender and
// runs on a bounded worker pool; one tender's failure never affects
// another's result.
type Orchestrator struct {
	store      CorpusStore
	oracle     Oracle
	resolver   *Resolver
	maxWorkers int
}

func NewOrchestrator(store CorpusStore, oracle Oracle, text TextExtractor, structured StructuredExtractor, maxWorkers int) *Orchestrator {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Orchestrator{
		store:      store,
		oracle:     oracle,
		resolver:   NewResolver(store, text, structured),
		maxWorkers: maxWorkers,
	}
}

// Run returns the tenders whose match score reaches PassThreshold, sorted
// descending by score. Tenders that fail extraction or scoring are dropped
// from the result set without aborting the run. Cancelling ctx stops
// issuing new per-tender work and returns the results collected so far.
// A run matching zero tenders is a normal empty result.
func (o *Orchestrator) Run(ctx context.Context, companyID string, filters TenderFilters) ([]models.MatchResult, error) {
	if strings.TrimSpace(companyID) == "" {
		return nil, fmt.Errorf("%w: empty company id", ErrInvalidInput)
	}

	company, err := o.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	tenders, err := o.store.FindTenders(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("corpus retrieval: %w", err)
	}

	candidates, err := FilterByCategory(ctx, o.oracle, company, tenders)
	if err != nil {
		return nil, fmt.Errorf("category filter: %w", err)
	}
	log.Printf("matching run for company %s: %d/%d tenders passed category filter", companyID, len(candidates), len(tenders))

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []models.MatchResult
		sem     = make(chan struct{}, o.maxWorkers)
	)

	for i := range candidates {
		if ctx.Err() != nil {
			// Deadline or cancellation: stop issuing new work, keep what we have.
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(tender models.Tender) {
			defer wg.Done()
			defer func() { <-sem }()

			result, ok := o.processTender(ctx, &tender, company)
			if !ok {
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(candidates[i])
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchingScore > results[j].MatchingScore
	})
	return results, nil
}

// processTender runs resolve-then-score for a single candidate. All failure
// modes are contained here: they log and drop the tender.
func (o *Orchestrator) processTender(ctx context.Context, tender *models.Tender, company *models.Company) (models.MatchResult, bool) {
	ok, err := o.resolver.Resolve(ctx, tender)
	if err != nil {
		log.Printf("tender %s dropped: %v", tender.ID, err)
		return models.MatchResult{}, false
	}
	if !ok {
		return models.MatchResult{}, false
	}

	result, err := Score(ctx, o.oracle, tender.StructuredEligibility, company)
	if err != nil {
		log.Printf("tender %s scoring failed: %v", tender.ID, err)
		return models.MatchResult{}, false
	}
	if result.MatchingScore < PassThreshold {
		return models.MatchResult{}, false
	}

	result.TenderID = tender.ID.String()
	result.TenderTitle = tender.Title
	result.ReferenceNumber = tender.ReferenceNumber
	result.FormURL = tender.FormURL
	return result, true
}
