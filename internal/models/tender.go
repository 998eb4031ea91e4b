package models

import (
	"time"

	"github.com/google/uuid"
)

// Tender is one procurement opportunity. FormURL is the unique key: at most
// one tender exists per source document URL, and ingestion upserts on it.
type Tender struct {
	ID               uuid.UUID `json:"id"`
	FormURL          string    `json:"form_url"`
	Title            string    `json:"title"`
	ReferenceNumber  string    `json:"reference_number"`
	Institute        string    `json:"institute"`
	Location         string    `json:"location"`
	BusinessCategory []string  `json:"business_category"`
	ScopeOfWork      string    `json:"scope_of_work"`
	EstimatedBudget  float64   `json:"estimated_budget"`

	// Deadline is parsed when possible; DeadlineRaw keeps the source text.
	Deadline    *time.Time `json:"deadline"`
	DeadlineRaw string     `json:"deadline_raw,omitempty"`

	EMD               FeeRequirement `json:"emd"`
	TenderFee         FeeRequirement `json:"tender_fee"`
	DocumentsRequired []string       `json:"documents_required"`

	// RawEligibility and StructuredEligibility are filled lazily on the first
	// matching attempt and persisted, so later runs skip re-extraction.
	// StructuredEligibility is only meaningful once RawEligibility is set.
	RawEligibility        *string                `json:"raw_eligibility"`
	StructuredEligibility *StructuredEligibility `json:"structured_eligibility"`
	LastUpdated           *time.Time             `json:"last_updated"`

	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// FeeRequirement captures an amount that certain bidder classes may be
// exempted from (EMD, tender fee).
type FeeRequirement struct {
	Amount    float64  `json:"amount"`
	ExemptFor []string `json:"exempt_for,omitempty"`
}
