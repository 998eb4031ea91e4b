package match

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/priyansh/tender-match/internal/models"
)

// Resolver ensures a candidate tender carries both raw eligibility text and
// a structured eligibility record, invoking the extraction collaborators
// only for whichever is absent. Successful upgrades are written back to the
// tender's persisted record together with a last-updated timestamp, so a
// later run finds both fields present and performs no extraction calls.
//
// Concurrent runs for different companies may race on that write;
// last-write-wins is fine because both sides derive equivalent values from
// the same source document.
type Resolver struct {
	store      CorpusStore
	text       TextExtractor
	structured StructuredExtractor
}

func NewResolver(store CorpusStore, text TextExtractor, structured StructuredExtractor) *Resolver {
	return &Resolver{store: store, text: text, structured: structured}
}

// Resolve upgrades the tender in place. It returns false when the tender
// must be skipped for the rest of the run: a missing or non-HTTP source URL,
// or an extraction that legitimately yielded nothing. Neither is an error;
// they are data-quality outcomes. Errors are reserved for collaborator
// failures and are recovered per tender by the orchestrator.
func (r *Resolver) Resolve(ctx context.Context, tender *models.Tender) (bool, error) {
	updatedRaw := false
	updatedStructured := false

	if tender.RawEligibility == nil || strings.TrimSpace(*tender.RawEligibility) == "" {
		if !strings.HasPrefix(tender.FormURL, "http") {
			log.Printf("tender %s has no usable source URL (%q), skipping", tender.ID, tender.FormURL)
			return false, nil
		}

		raw, err := r.text.ExtractEligibilityText(ctx, tender.FormURL)
		if err != nil {
			return false, fmt.Errorf("eligibility text extraction for tender %s: %w", tender.ID, err)
		}
		if strings.TrimSpace(raw) == "" {
			log.Printf("no eligibility section found for tender %s, skipping", tender.ID)
			return false, nil
		}
		tender.RawEligibility = &raw
		updatedRaw = true
	}

	if tender.StructuredEligibility.IsEmpty() {
		structured, err := r.structured.ExtractStructured(ctx, *tender.RawEligibility)
		if err != nil {
			return false, fmt.Errorf("structured extraction for tender %s: %w", tender.ID, err)
		}
		if structured.IsEmpty() {
			log.Printf("structured eligibility extraction failed for tender %s, skipping", tender.ID)
			return false, nil
		}
		tender.StructuredEligibility = structured
		updatedStructured = true
	}

	if updatedRaw || updatedStructured {
		now := time.Now().UTC()
		tender.LastUpdated = &now
		if err := r.store.UpdateTenderEligibility(ctx, tender.ID.String(), tender.RawEligibility, tender.StructuredEligibility, now); err != nil {
			// Persisting the cache is best-effort: the in-memory upgrade is
			// still valid for this run.
			log.Printf("failed to persist eligibility for tender %s: %v", tender.ID, err)
		}
	}

	return true, nil
}
