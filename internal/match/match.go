package match

import (
	"context"
	"errors"
	"time"

	"github.com/priyansh/tender-match/internal/models"
)

var (
	// ErrCompanyNotFound aborts a matching request immediately.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrTenderNotFound marks a single-tender lookup that found nothing.
	ErrTenderNotFound = errors.New("tender not found")
	// ErrInvalidInput marks a malformed request (bad identifier, empty URL).
	ErrInvalidInput = errors.New("invalid input")
)

// Thresholds of the canonical matching pipeline. PassThreshold is shared by
// the scorer's eligibility verdict and the orchestrator's result cut-off;
// they must stay in sync.
const (
	CategoryThreshold = 0.6
	PairThreshold     = 0.75
	FractionThreshold = 0.7
	CriteriaThreshold = 0.7
	PassThreshold     = 70.0
)

// Oracle is the similarity collaborator: cosine similarity of two texts in
// [-1, 1], deterministic for identical inputs within a process lifetime.
type Oracle interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// TenderFilters narrows corpus retrieval; zero values mean no constraint.
type TenderFilters struct {
	Location       string
	Category       string
	Institute      string
	BeforeDeadline *time.Time
}

// CorpusStore is the persistence collaborator. The pipeline only reads
// tenders and companies and upserts the two lazily-derived eligibility
// fields; it never creates or deletes records.
type CorpusStore interface {
	FindTenders(ctx context.Context, filters TenderFilters) ([]models.Tender, error)
	UpdateTenderEligibility(ctx context.Context, tenderID string, raw *string, structured *models.StructuredEligibility, updatedAt time.Time) error
	GetCompany(ctx context.Context, companyID string) (*models.Company, error)
}

// TextExtractor pulls raw eligibility text out of a tender's source
// document. An empty string with nil error means the document had no
// recoverable eligibility section.
type TextExtractor interface {
	ExtractEligibilityText(ctx context.Context, sourceURL string) (string, error)
}

// StructuredExtractor turns raw eligibility text into the structured record.
// A record for which IsEmpty() holds means the extraction yielded nothing.
type StructuredExtractor interface {
	ExtractStructured(ctx context.Context, rawText string) (*models.StructuredEligibility, error)
}
