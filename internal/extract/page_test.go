package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const transcriptPage = `<!DOCTYPE html>
<html>
<head><title>Apple Q3 2024 Earnings Call</title>
<style>.hidden { display: none }</style>
<script>trackVisitor();</script>
</head>
<body>
<nav><ul><li>Home</li><li>Markets</li></ul></nav>
<article>
<h1>Apple Q3 2024 Earnings Call Transcript</h1>
<p>Operator: Good afternoon and welcome to the call.</p>
<p>CEO: Revenue for the quarter was a record, and earnings per share exceeded guidance.</p>
</article>
<aside><p>Subscribe to our newsletter!</p></aside>
<footer><p>Copyright 2024</p></footer>
</body>
</html>`

func TestPageExtractorStripsBoilerplate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(transcriptPage))
	}))
	defer server.Close()

	extractor := NewPageExtractor("")
	extraction, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if !strings.Contains(extraction.Content, "Revenue for the quarter") {
		t.Errorf("Expected article body in content, got %q", extraction.Content)
	}
	for _, boilerplate := range []string{"trackVisitor", "display: none", "Subscribe to our newsletter", "Copyright 2024", "Home"} {
		if strings.Contains(extraction.Content, boilerplate) {
			t.Errorf("Expected %q stripped from content", boilerplate)
		}
	}
}

func TestPageExtractorSendsUserAgent(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(transcriptPage))
	}))
	defer server.Close()

	extractor := NewPageExtractor("finhelp-test/1.0")
	if _, err := extractor.Extract(context.Background(), server.URL); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if gotUserAgent != "finhelp-test/1.0" {
		t.Errorf("Expected configured user agent, got %q", gotUserAgent)
	}
}

func TestPageExtractorNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	extractor := NewPageExtractor("")
	_, err := extractor.Extract(context.Background(), server.URL)
	if !errors.Is(err, ErrExtractorUnavailable) {
		t.Errorf("Expected ErrExtractorUnavailable, got %v", err)
	}
}

func TestFactoryCreatesExtractors(t *testing.T) {
	factory := NewFactory()

	page, err := factory.CreateExtractor(ExtractorTypePage, map[string]string{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if page.GetName() != "Page" {
		t.Errorf("Expected Page extractor, got %s", page.GetName())
	}

	_, err = factory.CreateExtractor(ExtractorTypeTavily, map[string]string{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}

	_, err = factory.CreateExtractor(ExtractorType("readability"), nil)
	if !errors.Is(err, ErrUnsupportedExtractor) {
		t.Errorf("Expected ErrUnsupportedExtractor, got %v", err)
	}
}
