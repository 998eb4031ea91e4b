package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Company is one registrant profile.
type Company struct {
	ID     uuid.UUID  `json:"id"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Name   string     `json:"name"`

	PAN               bool `json:"pan"`
	GSTIN             bool `json:"gstin"`
	RegistrationOnGeM bool `json:"registration_on_gem"`

	ExperienceYears int     `json:"experience_years"`
	AnnualTurnover  float64 `json:"annual_turnover"`

	DocumentsAvailable []string `json:"documents_available"`
	Certifications     []string `json:"certifications"`
	Description        string   `json:"description"`

	Capabilities Capabilities `json:"capabilities"`

	CreatedAt time.Time `json:"created_at"`
}

// Capabilities holds the free-text capability lists exactly as registration
// records carry them: comma-delimited strings per field.
type Capabilities struct {
	BusinessRoles          string `json:"business_roles"`
	IndustrySectors        string `json:"industry_sectors"`
	ProductServiceKeywords string `json:"product_service_keywords"`
	TechnicalCapabilities  string `json:"technical_capabilities"`
	TenderTypesHandled     string `json:"tender_types_handled"`
}

// CapabilityKeywords flattens all capability fields into the normalized
// keyword set used for similarity comparisons: split on commas, trimmed,
// lower-cased, deduplicated. Order follows first appearance.
func (c *Company) CapabilityKeywords() []string {
	fields := []string{
		c.Capabilities.BusinessRoles,
		c.Capabilities.IndustrySectors,
		c.Capabilities.ProductServiceKeywords,
		c.Capabilities.TechnicalCapabilities,
		c.Capabilities.TenderTypesHandled,
	}

	seen := make(map[string]bool)
	var keywords []string
	for _, field := range fields {
		for _, part := range strings.Split(field, ",") {
			kw := strings.ToLower(strings.TrimSpace(part))
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
