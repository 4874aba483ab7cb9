package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"finhelp/internal/logger"
)

var collapseNewlines = regexp.MustCompile(`(\n\s*){2,}`)

// PageExtractor implements Extractor by fetching the page directly and
// stripping boilerplate with goquery. It is the fallback engine for pages
// the hosted extract API cannot reach.
type PageExtractor struct {
	client    *http.Client
	userAgent string
}

// NewPageExtractor creates a direct-fetch extraction provider
func NewPageExtractor(userAgent string) *PageExtractor {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	}
	return &PageExtractor{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: userAgent,
	}
}

// GetName returns the name of this provider
func (p *PageExtractor) GetName() string {
	return "Page"
}

// Extract fetches the URL and returns the main article text as Content and
// the whole-body text as RawContent.
func (p *PageExtractor) Extract(ctx context.Context, url string) (*Extraction, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractorUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch of %s returned status %d", ErrExtractorUnavailable, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", url, err)
	}

	content, rawContent, err := extractText(string(body))
	if err != nil {
		return nil, err
	}

	logger.Debug("page extraction completed", "url", url, "content_length", len(content), "raw_length", len(rawContent))

	return &Extraction{
		Content:    content,
		RawContent: rawContent,
	}, nil
}

// extractText pulls the main article text out of an HTML document. It removes
// common non-content elements first, then walks semantic content containers;
// if none match it falls back to the whole body.
func extractText(html string) (content, rawContent string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript, .sidebar, #sidebar, .ad, .advertisement, .popup, .modal, .cookie-banner").Remove()

	mainContentSelectors := []string{
		"article", "main", ".main-content", ".entry-content", ".post-content",
		".article-body", ".transcript", "[role='main']", ".content", "#content",
	}

	var builder strings.Builder
	for _, selector := range mainContentSelectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			s.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, item *goquery.Selection) {
				builder.WriteString(strings.TrimSpace(item.Text()))
				builder.WriteString("\n\n")
			})
		})
		if builder.Len() > 0 {
			break
		}
	}

	var rawBuilder strings.Builder
	doc.Find("body").Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, item *goquery.Selection) {
		rawBuilder.WriteString(strings.TrimSpace(item.Text()))
		rawBuilder.WriteString("\n\n")
	})

	content = cleanText(builder.String())
	rawContent = cleanText(rawBuilder.String())
	return content, rawContent, nil
}

func cleanText(text string) string {
	text = collapseNewlines.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
