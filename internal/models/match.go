package models

// MatchResult is the scorer output for one tender/company pair. The score is
// in [0,100] rounded to two decimals; FieldScores maps each criterion to 0 or
// 1 and MissingFields lists every 0-scored criterion in evaluation order.
type MatchResult struct {
	TenderID        string         `json:"tender_id,omitempty"`
	TenderTitle     string         `json:"tender_title,omitempty"`
	ReferenceNumber string         `json:"reference_number,omitempty"`
	FormURL         string         `json:"form_url,omitempty"`
	MatchingScore   float64        `json:"matching_score"`
	Eligible        bool           `json:"eligible"`
	FieldScores     map[string]int `json:"field_scores"`
	MissingFields   []string       `json:"missing_fields"`
}
