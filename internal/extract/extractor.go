// Package extract pulls eligibility criteria text out of tender source
// documents (PDF or HTML) referenced by a tender's form URL.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxDocumentBytes caps how much of a source document is read.
const maxDocumentBytes = 10 * 1024 * 1024

// DocumentExtractor fetches a tender's source document and slices the
// eligibility section out of its text. It implements the text-extraction
// collaborator of the matching pipeline.
type DocumentExtractor struct {
	client *http.Client
}

func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// ExtractEligibilityText downloads the document at sourceURL and returns the
// eligibility section of its text. An empty string with nil error means the
// document was readable but carried no recognizable eligibility section;
// callers treat that as a skip, not a failure.
func (d *DocumentExtractor) ExtractEligibilityText(ctx context.Context, sourceURL string) (string, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid source URL %q", sourceURL)
	}

	body, contentType, err := d.fetch(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	var text string
	if isPDF(contentType, parsed.Path) {
		text, err = pdfToText(body)
		if err != nil {
			return "", fmt.Errorf("pdf text extraction failed: %w", err)
		}
	} else {
		text = htmlToText(string(body))
	}

	return FindEligibilitySection(text), nil
}

func (d *DocumentExtractor) fetch(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/pdf,text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, sourceURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func isPDF(contentType, path string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}
