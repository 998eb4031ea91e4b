package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// appendUnique appends a string to a slice if it doesn't already exist
// (case-insensitive).
func appendUnique(list []string, v string) []string {
	vClean := strings.TrimSpace(v)
	if vClean == "" {
		return list
	}

	vLower := strings.ToLower(vClean)
	for _, existing := range list {
		if strings.ToLower(existing) == vLower {
			return list
		}
	}
	return append(list, vClean)
}

// cleanList trims and deduplicates a string list, dropping empties.
func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		out = appendUnique(out, v)
	}
	return out
}

// splitCSV splits a comma-separated field into trimmed non-empty strings.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		out = appendUnique(out, part)
	}
	return out
}

// stripHTML removes unsafe markup and flattens any remaining HTML to
// whitespace-normalized text.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return normalizeSpace(s)
	}

	safe := bluemonday.UGCPolicy().Sanitize(s)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(safe))
	if err != nil {
		return normalizeSpace(safe)
	}
	return normalizeSpace(doc.Text())
}
