package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/priyansh/tender-match/internal/ai"
	"github.com/priyansh/tender-match/internal/db"
	"github.com/priyansh/tender-match/internal/models"
)

// RawTender is tender metadata as it arrives from a portal listing or a
// manual upload: everything is text and nothing is trusted.
type RawTender struct {
	FormURL           string   `json:"form_url"`
	Title             string   `json:"title"`
	ReferenceNumber   string   `json:"reference_number"`
	Institute         string   `json:"institute"`
	Location          string   `json:"location"`
	BusinessCategory  []string `json:"business_category"`
	ScopeOfWork       string   `json:"scope_of_work"`
	EstimatedBudget   string   `json:"estimated_budget"`
	Deadline          string   `json:"deadline"`
	EMD               string   `json:"emd"`
	EMDExemptions     []string `json:"emd_exemptions"`
	TenderFee         string   `json:"tender_fee"`
	TenderFeeExempt   []string `json:"tender_fee_exemptions"`
	DocumentsRequired []string `json:"documents_required"`
}

// Ingestor normalizes raw tender metadata and upserts it into the corpus,
// computing an embedding for semantic search when the embedder is available.
type Ingestor struct {
	store    *db.Store
	embedder ai.Embedder
}

func NewIngestor(store *db.Store, embedder ai.Embedder) *Ingestor {
	return &Ingestor{store: store, embedder: embedder}
}

// Ingest upserts one tender keyed on its form URL. Parse failures on budget
// or deadline degrade to zero/raw-text values; a missing form URL is the
// only hard error.
func (i *Ingestor) Ingest(ctx context.Context, raw RawTender) (uuid.UUID, error) {
	tender, err := normalizeTender(raw)
	if err != nil {
		return uuid.Nil, err
	}

	if i.embedder != nil {
		text := tender.Title + "\n" + tender.ScopeOfWork
		if len(text) > 8000 {
			text = text[:8000]
		}
		vec, err := i.embedder.GenerateEmbedding(ctx, text)
		if err != nil {
			log.Printf("failed to generate embedding for %q: %v", tender.Title, err)
		} else {
			tender.Embedding = vec
		}
	}

	id, err := i.store.UpsertTender(ctx, tender)
	if err != nil {
		return uuid.Nil, err
	}
	log.Printf("ingested tender %q (%s)", tender.Title, id)
	return id, nil
}

func normalizeTender(raw RawTender) (*models.Tender, error) {
	formURL := strings.TrimSpace(raw.FormURL)
	if formURL == "" {
		return nil, fmt.Errorf("missing form_url")
	}

	tender := &models.Tender{
		FormURL:          formURL,
		Title:            stripHTML(raw.Title),
		ReferenceNumber:  normalizeSpace(raw.ReferenceNumber),
		Institute:        normalizeSpace(raw.Institute),
		Location:         normalizeSpace(raw.Location),
		BusinessCategory: cleanList(raw.BusinessCategory),
		ScopeOfWork:      stripHTML(raw.ScopeOfWork),
		EstimatedBudget:  parseAmountINR(raw.EstimatedBudget),
		DeadlineRaw:      normalizeSpace(raw.Deadline),
		EMD: models.FeeRequirement{
			Amount:    parseAmountINR(raw.EMD),
			ExemptFor: cleanList(raw.EMDExemptions),
		},
		TenderFee: models.FeeRequirement{
			Amount:    parseAmountINR(raw.TenderFee),
			ExemptFor: cleanList(raw.TenderFeeExempt),
		},
		DocumentsRequired: cleanList(raw.DocumentsRequired),
	}

	if deadline, err := parseDeadline(raw.Deadline); err == nil {
		tender.Deadline = &deadline
	}

	return tender, nil
}
