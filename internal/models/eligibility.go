package models

// StructuredEligibility is the machine-readable extraction of a tender's
// eligibility text. The extraction model returns whatever subset of fields it
// found, so every field is optional; an absent field means "not required" or
// empty, never an error.
type StructuredEligibility struct {
	PAN               *BoolRequirement       `json:"pan,omitempty"`
	GSTIN             *BoolRequirement       `json:"gstin,omitempty"`
	RegistrationOnGeM *BoolRequirement       `json:"registration_on_gem,omitempty"`
	Experience        *ExperienceRequirement `json:"experience,omitempty"`
	Financial         *FinancialRequirement  `json:"financial_requirements,omitempty"`
	Blacklisting      *LitigationMention     `json:"blacklisting_or_litigation,omitempty"`
	RequiredDocuments []string               `json:"required_documents,omitempty"`
	Certifications    []string               `json:"certifications,omitempty"`
	OtherCriteria     map[string]any         `json:"other_criteria,omitempty"`
}

type BoolRequirement struct {
	Required bool `json:"required"`
}

type ExperienceRequirement struct {
	Required     bool    `json:"required"`
	MinimumYears float64 `json:"minimum_years"`
}

type FinancialRequirement struct {
	AnnualTurnoverRequired bool    `json:"annual_turnover_required"`
	MinimumTurnoverAmount  float64 `json:"minimum_turnover_amount"`
}

type LitigationMention struct {
	Mentioned bool `json:"mentioned"`
}

// IsEmpty reports whether the extraction yielded nothing usable. Callers
// treat an empty record as a failed extraction and skip the tender.
func (e *StructuredEligibility) IsEmpty() bool {
	if e == nil {
		return true
	}
	return e.PAN == nil && e.GSTIN == nil && e.RegistrationOnGeM == nil &&
		e.Experience == nil && e.Financial == nil && e.Blacklisting == nil &&
		len(e.RequiredDocuments) == 0 && len(e.Certifications) == 0 &&
		len(e.OtherCriteria) == 0
}
