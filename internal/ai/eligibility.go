package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/priyansh/tender-match/internal/models"
)

const eligibilityPromptTemplate = `You are an intelligent assistant that extracts structured eligibility requirements from tender eligibility text.

Respond only with a valid JSON object (no markdown, no explanation).

Expected output format:
{
  "pan": { "required": true },
  "gstin": { "required": true },
  "registration_on_gem": { "required": true },
  "experience": { "required": true, "minimum_years": 3 },
  "financial_requirements": { "annual_turnover_required": true, "minimum_turnover_amount": null },
  "blacklisting_or_litigation": { "mentioned": false },
  "required_documents": ["EMD receipt", "PAN card"],
  "certifications": ["ISO 9001"],
  "other_criteria": { "site_visit": "mandatory before bid submission" }
}

If a field is not mentioned, mark required: false, use null, or an empty list as appropriate.

Eligibility Criteria Text:
%s

Respond only with the JSON.`

// ExtractStructured turns raw eligibility text into a structured record via
// the generation model. Model output is untrusted: markdown fences are
// stripped and, failing a whole-text parse, the first balanced JSON object
// is recovered by brace scanning. If nothing parseable is found an empty
// record is returned, which callers treat as a failed extraction rather
// than an error.
func (c *OllamaClient) ExtractStructured(ctx context.Context, rawText string) (*models.StructuredEligibility, error) {
	prompt := fmt.Sprintf(eligibilityPromptTemplate, rawText)

	// JSON mode first; models that honor it need no cleanup. Fall back to
	// text mode with the defensive parser.
	resp, err := c.GenerateCompletion(ctx, prompt, true)
	if err == nil {
		if elig, parseErr := parseEligibilityResponse(resp); parseErr == nil {
			return elig, nil
		} else {
			log.Printf("JSON mode output unparseable: %v. Retrying in text mode...", parseErr)
		}
	} else {
		log.Printf("JSON mode generation failed: %v. Retrying in text mode...", err)
	}

	resp, err = c.GenerateCompletion(ctx, prompt, false)
	if err != nil {
		return nil, err
	}

	elig, err := parseEligibilityResponse(resp)
	if err != nil {
		// Unrecoverable model output: report an empty extraction, not a crash.
		return &models.StructuredEligibility{}, nil
	}
	return elig, nil
}

func parseEligibilityResponse(resp string) (*models.StructuredEligibility, error) {
	cleaned := strings.TrimSpace(resp)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var elig models.StructuredEligibility
	if err := json.Unmarshal([]byte(cleaned), &elig); err == nil {
		return &elig, nil
	}

	jsonStr, ok := extractFirstJSONObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(jsonStr), &elig); err != nil {
		return nil, fmt.Errorf("balanced block is not valid JSON: %w", err)
	}
	return &elig, nil
}

// extractFirstJSONObject finds the first outermost balanced {...},
// ignoring braces inside string literals.
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if char == '{' {
				depth++
			} else if char == '}' {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
