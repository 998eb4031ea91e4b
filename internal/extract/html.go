package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// htmlToText strips scripts and unsafe markup, then flattens the document to
// whitespace-normalized text.
func htmlToText(html string) string {
	safe := bluemonday.UGCPolicy().Sanitize(html)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(safe))
	if err != nil {
		return normalizeSpace(safe)
	}
	doc.Find("script, style, nav, footer").Remove()
	return normalizeSpace(doc.Text())
}

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
