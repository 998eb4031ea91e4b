package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var amountRegex = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// parseAmountINR extracts a rupee amount from free text as it appears in
// tender notices: "Rs. 5,00,000/-", "₹ 2.5 lakh", "1.2 crore", "EMD: 25000".
// Indian digit grouping (5,00,000) is handled by stripping separators.
// Returns 0 when no amount is present.
func parseAmountINR(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	textLower := strings.ToLower(text)

	m := amountRegex.FindString(text)
	if m == "" {
		return 0
	}

	clean := strings.ReplaceAll(m, ",", "")
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil || value < 0 {
		return 0
	}

	// Scale words follow the number in Indian notices.
	switch {
	case strings.Contains(textLower, "crore") || strings.Contains(textLower, "cr."):
		value *= 1e7
	case strings.Contains(textLower, "lakh") || strings.Contains(textLower, "lac"):
		value *= 1e5
	}

	return value
}
