package match

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/priyansh/tender-match/internal/models"
)

// criterionCount is fixed: nine equally-weighted criteria, 1 point each.
const criterionCount = 9

// Score evaluates a company against a tender's structured eligibility.
// It is a pure function of its inputs given a deterministic Oracle: the
// nine criteria are checked in a fixed order, each contributing 0 or 1,
// and the final score is round(points/9 × 100, 2). A criterion the tender
// does not require always passes. MissingFields collects the name of every
// failed criterion in evaluation order.
func Score(ctx context.Context, oracle Oracle, elig *models.StructuredEligibility, company *models.Company) (models.MatchResult, error) {
	if elig == nil {
		elig = &models.StructuredEligibility{}
	}

	result := models.MatchResult{
		FieldScores:   make(map[string]int, criterionCount),
		MissingFields: []string{},
	}

	points := 0
	record := func(name string, passed bool) {
		if passed {
			points++
			result.FieldScores[name] = 1
		} else {
			result.FieldScores[name] = 0
			result.MissingFields = append(result.MissingFields, name)
		}
	}

	// 1-3: boolean registration criteria.
	record("pan", !required(elig.PAN) || company.PAN)
	record("gstin", !required(elig.GSTIN) || company.GSTIN)
	record("registration_on_gem", !required(elig.RegistrationOnGeM) || company.RegistrationOnGeM)

	// 4: experience.
	expOK := true
	if elig.Experience != nil && elig.Experience.Required {
		expOK = float64(company.ExperienceYears) >= elig.Experience.MinimumYears
	}
	record("experience", expOK)

	// 5: annual turnover.
	finOK := true
	if elig.Financial != nil && elig.Financial.AnnualTurnoverRequired {
		finOK = company.AnnualTurnover >= elig.Financial.MinimumTurnoverAmount
	}
	record("financial_requirements", finOK)

	// 6: any mention of blacklisting/litigation fails the criterion outright,
	// independent of company data.
	record("blacklisting_or_litigation", elig.Blacklisting == nil || !elig.Blacklisting.Mentioned)

	// 7: required documents by matched fraction.
	docsOK, err := listCovered(ctx, oracle, elig.RequiredDocuments, company.DocumentsAvailable)
	if err != nil {
		return models.MatchResult{}, fmt.Errorf("required_documents check: %w", err)
	}
	record("required_documents", docsOK)

	// 8: certifications, same rule.
	certsOK, err := listCovered(ctx, oracle, elig.Certifications, company.Certifications)
	if err != nil {
		return models.MatchResult{}, fmt.Errorf("certifications check: %w", err)
	}
	record("certifications", certsOK)

	// 9: free-form criteria vs the company description.
	otherOK := true
	if len(elig.OtherCriteria) > 0 {
		sim, err := oracle.Similarity(ctx, strings.ToLower(flattenCriteria(elig.OtherCriteria)), strings.ToLower(company.Description))
		if err != nil {
			return models.MatchResult{}, fmt.Errorf("other_criteria check: %w", err)
		}
		otherOK = sim > CriteriaThreshold
	}
	record("other_criteria", otherOK)

	result.MatchingScore = round2(float64(points) / criterionCount * 100)
	result.Eligible = result.MatchingScore >= PassThreshold
	return result, nil
}

func required(req *models.BoolRequirement) bool {
	return req != nil && req.Required
}

// listCovered applies the matched-fraction rule: a tender item counts as
// matched if any company item exceeds PairThreshold, and the criterion
// passes iff at least FractionThreshold of tender items matched. An empty
// tender list is an automatic pass.
func listCovered(ctx context.Context, oracle Oracle, tenderItems, companyItems []string) (bool, error) {
	if len(tenderItems) == 0 {
		return true, nil
	}

	matched := 0
	for _, want := range tenderItems {
		for _, have := range companyItems {
			sim, err := oracle.Similarity(ctx, strings.ToLower(want), strings.ToLower(have))
			if err != nil {
				return false, err
			}
			if sim > PairThreshold {
				matched++
				break
			}
		}
	}
	return float64(matched)/float64(len(tenderItems)) >= FractionThreshold, nil
}

// flattenCriteria joins the free-form criteria map into one comparable
// string. Keys are sorted so the concatenation is deterministic.
func flattenCriteria(criteria map[string]any) string {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, criteria[k]))
	}
	return strings.Join(parts, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
