package ai

import (
	"testing"
)

func TestParseEligibilityResponse_PlainJSON(t *testing.T) {
	resp := `{"pan": {"required": true}, "experience": {"required": true, "minimum_years": 3}}`

	elig, err := parseEligibilityResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elig.PAN == nil || !elig.PAN.Required {
		t.Fatal("expected pan.required=true")
	}
	if elig.Experience == nil || elig.Experience.MinimumYears != 3 {
		t.Fatalf("expected minimum_years=3, got %+v", elig.Experience)
	}
}

func TestParseEligibilityResponse_MarkdownFenced(t *testing.T) {
	resp := "```json\n{\"gstin\": {\"required\": true}}\n```"

	elig, err := parseEligibilityResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elig.GSTIN == nil || !elig.GSTIN.Required {
		t.Fatal("expected gstin.required=true")
	}
}

func TestParseEligibilityResponse_PreambleBeforeObject(t *testing.T) {
	resp := `Here is the extracted eligibility:
{"required_documents": ["PAN card", "EMD receipt"], "blacklisting_or_litigation": {"mentioned": true}}
Hope this helps!`

	elig, err := parseEligibilityResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(elig.RequiredDocuments) != 2 {
		t.Fatalf("expected 2 required documents, got %v", elig.RequiredDocuments)
	}
	if elig.Blacklisting == nil || !elig.Blacklisting.Mentioned {
		t.Fatal("expected blacklisting mentioned")
	}
}

func TestParseEligibilityResponse_BracesInsideStrings(t *testing.T) {
	resp := `{"other_criteria": {"note": "use format {dd/mm/yyyy} on forms"}}`

	elig, err := parseEligibilityResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elig.OtherCriteria["note"] != "use format {dd/mm/yyyy} on forms" {
		t.Fatalf("unexpected other_criteria: %v", elig.OtherCriteria)
	}
}

func TestParseEligibilityResponse_NoObject(t *testing.T) {
	if _, err := parseEligibilityResponse("the document does not mention eligibility"); err == nil {
		t.Fatal("expected error for response without JSON object")
	}
}

func TestParseEligibilityResponse_NullMinimumTurnover(t *testing.T) {
	resp := `{"financial_requirements": {"annual_turnover_required": true, "minimum_turnover_amount": null}}`

	elig, err := parseEligibilityResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elig.Financial == nil || !elig.Financial.AnnualTurnoverRequired {
		t.Fatal("expected annual_turnover_required=true")
	}
	if elig.Financial.MinimumTurnoverAmount != 0 {
		t.Fatalf("null minimum should decode to 0, got %v", elig.Financial.MinimumTurnoverAmount)
	}
}

func TestExtractFirstJSONObject_Unbalanced(t *testing.T) {
	if _, ok := extractFirstJSONObject(`{"pan": {"required": true}`); ok {
		t.Fatal("expected failure on unbalanced braces")
	}
}
