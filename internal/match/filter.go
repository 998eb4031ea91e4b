package match

import (
	"context"
	"strings"

	"github.com/priyansh/tender-match/internal/models"
)

// FilterByCategory reduces the tender corpus to those semantically relevant
// to the company. A tender is a candidate iff at least one (company keyword,
// tender category) pair reaches CategoryThreshold; the scan short-circuits on
// the first hit. A tender with no categories, or a company with no
// normalized keywords, never matches. Result order follows corpus order.
//
// Oracle failures here abort the whole run: category filtering has no
// per-tender recovery granularity.
func FilterByCategory(ctx context.Context, oracle Oracle, company *models.Company, tenders []models.Tender) ([]models.Tender, error) {
	keywords := company.CapabilityKeywords()
	if len(keywords) == 0 {
		return nil, nil
	}

	var candidates []models.Tender
	for _, tender := range tenders {
		matched, err := anyCategoryMatch(ctx, oracle, keywords, normalizeCategories(tender.BusinessCategory))
		if err != nil {
			return nil, err
		}
		if matched {
			candidates = append(candidates, tender)
		}
	}
	return candidates, nil
}

func anyCategoryMatch(ctx context.Context, oracle Oracle, keywords, categories []string) (bool, error) {
	for _, kw := range keywords {
		for _, cat := range categories {
			sim, err := oracle.Similarity(ctx, kw, cat)
			if err != nil {
				return false, err
			}
			if sim >= CategoryThreshold {
				return true, nil
			}
		}
	}
	return false, nil
}

func normalizeCategories(categories []string) []string {
	var clean []string
	for _, cat := range categories {
		cat = strings.ToLower(strings.TrimSpace(cat))
		if cat != "" {
			clean = append(clean, cat)
		}
	}
	return clean
}
