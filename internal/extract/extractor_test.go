package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractEligibilityText_HTMLDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<h1>Tender Notice</h1>
			<h2>Eligibility Criteria</h2>
			<ol><li>Valid PAN mandatory.</li><li>GST registration mandatory.</li></ol>
			<h2>Scope of Work</h2>
			<p>Supply of laboratory equipment.</p>
		</body></html>`))
	}))
	defer srv.Close()

	extractor := NewDocumentExtractor()
	text, err := extractor.ExtractEligibilityText(context.Background(), srv.URL+"/tender.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Valid PAN mandatory") {
		t.Fatalf("expected eligibility body, got %q", text)
	}
	if strings.Contains(text, "laboratory equipment") {
		t.Fatalf("expected extraction to stop at scope of work, got %q", text)
	}
}

func TestExtractEligibilityText_NoSectionReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>Delivery within 30 days.</p></body></html>`))
	}))
	defer srv.Close()

	extractor := NewDocumentExtractor()
	text, err := extractor.ExtractEligibilityText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("missing section is not an error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestExtractEligibilityText_InvalidURL(t *testing.T) {
	extractor := NewDocumentExtractor()
	for _, bad := range []string{"", "ftp://host/doc.pdf", "::not-a-url::"} {
		if _, err := extractor.ExtractEligibilityText(context.Background(), bad); err == nil {
			t.Fatalf("expected error for URL %q", bad)
		}
	}
}

func TestExtractEligibilityText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	extractor := NewDocumentExtractor()
	if _, err := extractor.ExtractEligibilityText(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestIsPDF(t *testing.T) {
	cases := []struct {
		contentType string
		path        string
		want        bool
	}{
		{"application/pdf", "/doc", true},
		{"application/pdf; charset=binary", "/doc", true},
		{"text/html", "/tender.PDF", true},
		{"text/html", "/tender.html", false},
		{"", "/doc", false},
	}
	for _, tc := range cases {
		if got := isPDF(tc.contentType, tc.path); got != tc.want {
			t.Fatalf("isPDF(%q, %q) = %v, want %v", tc.contentType, tc.path, got, tc.want)
		}
	}
}
