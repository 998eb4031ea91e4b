package match

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/priyansh/tender-match/internal/models"
)

type fakeStore struct {
	tenders   []models.Tender
	companies map[string]*models.Company
	findErr   error

	mu            sync.Mutex
	updates       int
	lastUpdatedID string
}

func (f *fakeStore) FindTenders(_ context.Context, _ TenderFilters) ([]models.Tender, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.tenders, nil
}

func (f *fakeStore) UpdateTenderEligibility(_ context.Context, tenderID string, _ *string, _ *models.StructuredEligibility, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.lastUpdatedID = tenderID
	return nil
}

func (f *fakeStore) GetCompany(_ context.Context, companyID string) (*models.Company, error) {
	company, ok := f.companies[companyID]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	return company, nil
}

type fakeTextExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeTextExtractor) ExtractEligibilityText(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeStructuredExtractor struct {
	elig  *models.StructuredEligibility
	err   error
	calls int
}

func (f *fakeStructuredExtractor) ExtractStructured(_ context.Context, _ string) (*models.StructuredEligibility, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.elig, nil
}

func newTender(formURL string) *models.Tender {
	return &models.Tender{ID: uuid.New(), FormURL: formURL, Title: "Test tender"}
}

func TestResolver_UpgradesAndPersistsBothFields(t *testing.T) {
	store := &fakeStore{}
	text := &fakeTextExtractor{text: "Bidder must have PAN and 3 years experience."}
	structured := &fakeStructuredExtractor{elig: &models.StructuredEligibility{
		PAN: &models.BoolRequirement{Required: true},
	}}
	resolver := NewResolver(store, text, structured)

	tender := newTender("https://tenders.example.gov/doc/42.pdf")
	ok, err := resolver.Resolve(context.Background(), tender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected tender to be kept")
	}
	if tender.RawEligibility == nil || *tender.RawEligibility == "" {
		t.Fatal("raw eligibility not filled")
	}
	if tender.StructuredEligibility.IsEmpty() {
		t.Fatal("structured eligibility not filled")
	}
	if tender.LastUpdated == nil {
		t.Fatal("last_updated not set")
	}
	if store.updates != 1 || store.lastUpdatedID != tender.ID.String() {
		t.Fatalf("expected one persisted upgrade for the tender, got %d (%s)", store.updates, store.lastUpdatedID)
	}
}

func TestResolver_SecondResolveMakesNoExtractionCalls(t *testing.T) {
	store := &fakeStore{}
	text := &fakeTextExtractor{text: "eligibility text"}
	structured := &fakeStructuredExtractor{elig: &models.StructuredEligibility{
		GSTIN: &models.BoolRequirement{Required: true},
	}}
	resolver := NewResolver(store, text, structured)

	tender := newTender("https://tenders.example.gov/doc/1")
	if _, err := resolver.Resolve(context.Background(), tender); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), tender); err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if text.calls != 1 || structured.calls != 1 {
		t.Fatalf("expected 1 call each, got text=%d structured=%d", text.calls, structured.calls)
	}
	if store.updates != 1 {
		t.Fatalf("expected a single persisted write, got %d", store.updates)
	}
}

func TestResolver_SkipsWhenNoEligibilityText(t *testing.T) {
	resolver := NewResolver(&fakeStore{}, &fakeTextExtractor{text: ""}, &fakeStructuredExtractor{})

	ok, err := resolver.Resolve(context.Background(), newTender("https://tenders.example.gov/doc/2"))
	if err != nil {
		t.Fatalf("empty extraction is a data-quality outcome, not an error: %v", err)
	}
	if ok {
		t.Fatal("expected tender to be skipped")
	}
}

func TestResolver_SkipsWhenStructuredExtractionEmpty(t *testing.T) {
	store := &fakeStore{}
	resolver := NewResolver(store,
		&fakeTextExtractor{text: "some eligibility text"},
		&fakeStructuredExtractor{elig: &models.StructuredEligibility{}})

	ok, err := resolver.Resolve(context.Background(), newTender("https://tenders.example.gov/doc/3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected tender to be skipped on empty structured record")
	}
	if store.updates != 0 {
		t.Fatal("nothing should be persisted for a skipped tender")
	}
}

func TestResolver_SkipsNonHTTPSourceURL(t *testing.T) {
	text := &fakeTextExtractor{text: "irrelevant"}
	resolver := NewResolver(&fakeStore{}, text, &fakeStructuredExtractor{})

	for _, url := range []string{"", "ftp://example.com/doc", "not a url"} {
		ok, err := resolver.Resolve(context.Background(), newTender(url))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", url, err)
		}
		if ok {
			t.Fatalf("expected skip for source URL %q", url)
		}
	}
	if text.calls != 0 {
		t.Fatalf("extractor must not be called for unusable URLs, got %d calls", text.calls)
	}
}

func TestResolver_ExtractorFailureIsAnError(t *testing.T) {
	resolver := NewResolver(&fakeStore{},
		&fakeTextExtractor{err: fmt.Errorf("backend unreachable")},
		&fakeStructuredExtractor{})

	if _, err := resolver.Resolve(context.Background(), newTender("https://tenders.example.gov/doc/4")); err == nil {
		t.Fatal("expected collaborator failure to surface as an error")
	}
}

func TestResolver_ReusesPersistedRawText(t *testing.T) {
	raw := "persisted eligibility text"
	tender := newTender("https://tenders.example.gov/doc/5")
	tender.RawEligibility = &raw

	text := &fakeTextExtractor{text: "should not be used"}
	structured := &fakeStructuredExtractor{elig: &models.StructuredEligibility{
		PAN: &models.BoolRequirement{Required: true},
	}}
	resolver := NewResolver(&fakeStore{}, text, structured)

	ok, err := resolver.Resolve(context.Background(), tender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected tender to be kept")
	}
	if text.calls != 0 {
		t.Fatal("raw text already present, text extractor must not run")
	}
	if structured.calls != 1 {
		t.Fatalf("expected structured extraction once, got %d", structured.calls)
	}
}
