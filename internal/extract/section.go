package extract

import (
	"strings"
)

// Headings that open an eligibility section in tender documents.
var eligibilityHeadings = []string{
	"eligibility criteria",
	"eligibility conditions",
	"eligibility of bidder",
	"eligibility of the bidder",
	"qualification criteria",
	"pre-qualification criteria",
	"prequalification criteria",
	"qualification of bidders",
	"who can apply",
	"eligibility",
}

// Headings that usually follow the eligibility section and terminate it.
var terminatorHeadings = []string{
	"scope of work",
	"terms and conditions",
	"general conditions",
	"instructions to bidder",
	"payment terms",
	"evaluation criteria",
	"submission of bid",
	"annexure",
	"appendix",
	"schedule of requirement",
}

// maxSectionLength bounds how much text is handed to the structured
// extraction model for one tender.
const maxSectionLength = 6000

// FindEligibilitySection locates the eligibility criteria portion of a
// tender document's text. It scans for a known section heading and captures
// everything up to the next terminator heading or the length cap. Returns
// "" when no eligibility language is present at all.
func FindEligibilitySection(text string) string {
	lower := strings.ToLower(text)

	start := -1
	for _, heading := range eligibilityHeadings {
		if idx := strings.Index(lower, heading); idx >= 0 && (start == -1 || idx < start) {
			start = idx
		}
	}
	if start == -1 {
		return ""
	}

	section := text[start:]
	lowerSection := lower[start:]

	end := len(section)
	for _, terminator := range terminatorHeadings {
		// Skip the heading itself so a terminator appearing immediately at
		// the start does not produce an empty section.
		if idx := strings.Index(lowerSection[1:], terminator); idx >= 0 && idx+1 < end {
			end = idx + 1
		}
	}
	section = section[:end]

	if len(section) > maxSectionLength {
		section = section[:maxSectionLength]
	}
	return strings.TrimSpace(section)
}
