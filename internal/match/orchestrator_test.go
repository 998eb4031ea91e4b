package match

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/priyansh/tender-match/internal/models"
)

// perURLExtractor varies structured extraction output by the raw text it
// receives, letting one run exercise passing, failing and erroring tenders.
type perURLText struct {
	byURL map[string]string
	errBy map[string]error
}

func (p *perURLText) ExtractEligibilityText(_ context.Context, url string) (string, error) {
	if err := p.errBy[url]; err != nil {
		return "", err
	}
	return p.byURL[url], nil
}

type perTextStructured struct {
	byText map[string]*models.StructuredEligibility
}

func (p *perTextStructured) ExtractStructured(_ context.Context, raw string) (*models.StructuredEligibility, error) {
	if elig, ok := p.byText[raw]; ok {
		return elig, nil
	}
	return &models.StructuredEligibility{}, nil
}

func matchableCompany() *models.Company {
	return &models.Company{
		PAN:   true,
		GSTIN: true,
		Capabilities: models.Capabilities{
			ProductServiceKeywords: "civil works",
		},
	}
}

func tenderWithCategory(url string) models.Tender {
	return models.Tender{
		ID:               uuid.New(),
		FormURL:          url,
		Title:            url,
		BusinessCategory: []string{"civil works"},
	}
}

func TestOrchestrator_RanksPassingTendersDescending(t *testing.T) {
	perfect := tenderWithCategory("https://t.example/perfect")
	oneMiss := tenderWithCategory("https://t.example/onemiss")

	store := &fakeStore{
		tenders:   []models.Tender{oneMiss, perfect},
		companies: map[string]*models.Company{"c1": matchableCompany()},
	}
	text := &perURLText{byURL: map[string]string{
		perfect.FormURL: "needs pan",
		oneMiss.FormURL: "needs registration on gem",
	}}
	structured := &perTextStructured{byText: map[string]*models.StructuredEligibility{
		"needs pan": {PAN: &models.BoolRequirement{Required: true}},
		"needs registration on gem": {RegistrationOnGeM: &models.BoolRequirement{Required: true}},
	}}

	orch := NewOrchestrator(store, &stubOracle{defaultSim: 0.9}, text, structured, 4)
	results, err := orch.Run(context.Background(), "c1", TenderFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].MatchingScore < results[1].MatchingScore {
		t.Fatalf("results not sorted descending: %v then %v", results[0].MatchingScore, results[1].MatchingScore)
	}
	if results[0].FormURL != perfect.FormURL {
		t.Fatalf("expected the perfect tender first, got %s", results[0].FormURL)
	}
	if results[0].MatchingScore != 100.0 || results[1].MatchingScore != 88.89 {
		t.Fatalf("unexpected scores: %v, %v", results[0].MatchingScore, results[1].MatchingScore)
	}
}

func TestOrchestrator_BelowThresholdExcluded(t *testing.T) {
	tender := tenderWithCategory("https://t.example/hard")
	store := &fakeStore{
		tenders:   []models.Tender{tender},
		companies: map[string]*models.Company{"c1": matchableCompany()},
	}
	// Four failed criteria: 5/9 = 55.56, below the 70.0 cut-off.
	text := &perURLText{byURL: map[string]string{tender.FormURL: "strict"}}
	structured := &perTextStructured{byText: map[string]*models.StructuredEligibility{
		"strict": {
			RegistrationOnGeM: &models.BoolRequirement{Required: true},
			Experience:        &models.ExperienceRequirement{Required: true, MinimumYears: 10},
			Financial:         &models.FinancialRequirement{AnnualTurnoverRequired: true, MinimumTurnoverAmount: 1e8},
			Blacklisting:      &models.LitigationMention{Mentioned: true},
		},
	}}

	orch := NewOrchestrator(store, &stubOracle{defaultSim: 0.9}, text, structured, 2)
	results, err := orch.Run(context.Background(), "c1", TenderFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result set, got %v", results)
	}
}

func TestOrchestrator_PerTenderFailureDoesNotAbortRun(t *testing.T) {
	good := tenderWithCategory("https://t.example/good")
	bad := tenderWithCategory("https://t.example/bad")

	store := &fakeStore{
		tenders:   []models.Tender{bad, good},
		companies: map[string]*models.Company{"c1": matchableCompany()},
	}
	text := &perURLText{
		byURL: map[string]string{good.FormURL: "needs pan"},
		errBy: map[string]error{bad.FormURL: errors.New("document service down")},
	}
	structured := &perTextStructured{byText: map[string]*models.StructuredEligibility{
		"needs pan": {PAN: &models.BoolRequirement{Required: true}},
	}}

	orch := NewOrchestrator(store, &stubOracle{defaultSim: 0.9}, text, structured, 2)
	results, err := orch.Run(context.Background(), "c1", TenderFilters{})
	if err != nil {
		t.Fatalf("one tender's failure must not abort the run: %v", err)
	}
	if len(results) != 1 || results[0].FormURL != good.FormURL {
		t.Fatalf("expected only the good tender, got %v", results)
	}
}

func TestOrchestrator_CompanyNotFoundIsFatal(t *testing.T) {
	store := &fakeStore{companies: map[string]*models.Company{}}
	orch := NewOrchestrator(store, &stubOracle{}, &perURLText{}, &perTextStructured{}, 1)

	_, err := orch.Run(context.Background(), "missing", TenderFilters{})
	if !errors.Is(err, ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestOrchestrator_EmptyCompanyIDIsInvalidInput(t *testing.T) {
	orch := NewOrchestrator(&fakeStore{}, &stubOracle{}, &perURLText{}, &perTextStructured{}, 1)

	_, err := orch.Run(context.Background(), "  ", TenderFilters{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOrchestrator_ZeroMatchesIsSuccess(t *testing.T) {
	store := &fakeStore{
		tenders:   []models.Tender{},
		companies: map[string]*models.Company{"c1": matchableCompany()},
	}
	orch := NewOrchestrator(store, &stubOracle{}, &perURLText{}, &perTextStructured{}, 1)

	results, err := orch.Run(context.Background(), "c1", TenderFilters{})
	if err != nil {
		t.Fatalf("an empty corpus is a normal empty result: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}

func TestOrchestrator_CancellationReturnsPartialResults(t *testing.T) {
	store := &fakeStore{
		tenders:   []models.Tender{tenderWithCategory("https://t.example/a")},
		companies: map[string]*models.Company{"c1": matchableCompany()},
	}
	text := &perURLText{byURL: map[string]string{"https://t.example/a": "needs pan"}}
	structured := &perTextStructured{byText: map[string]*models.StructuredEligibility{
		"needs pan": {PAN: &models.BoolRequirement{Required: true}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := NewOrchestrator(store, &stubOracle{defaultSim: 0.9}, text, structured, 1)
	// Filtering happens before the cancellation check; a cancelled context
	// stops new per-tender work and returns without error.
	results, err := orch.Run(ctx, "c1", TenderFilters{})
	if err != nil {
		t.Fatalf("cancellation should yield partial results, not an error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("no per-tender work should have been issued, got %v", results)
	}
}
