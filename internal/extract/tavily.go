package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"finhelp/internal/logger"
)

const tavilyExtractURL = "https://api.tavily.com/extract"

// TavilyExtractor implements Extractor using the Tavily extract API
type TavilyExtractor struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewTavilyExtractor creates a new Tavily extraction provider
func NewTavilyExtractor(apiKey string) *TavilyExtractor {
	return &TavilyExtractor{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: tavilyExtractURL,
	}
}

// SetBaseURL overrides the API endpoint. Test hook.
func (t *TavilyExtractor) SetBaseURL(u string) {
	t.baseURL = u
}

// GetName returns the name of this provider
func (t *TavilyExtractor) GetName() string {
	return "Tavily"
}

// Extract fetches page content through the Tavily extract endpoint. Tavily
// returns raw page text in raw_content; failed URLs come back in a separate
// list rather than as an HTTP error.
func (t *TavilyExtractor) Extract(ctx context.Context, url string) (*Extraction, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"api_key": t.apiKey,
		"urls":    []string{url},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode Tavily extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tavily extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractorUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: Tavily extract returned status %d", ErrExtractorUnavailable, resp.StatusCode)
	}

	var apiResponse struct {
		Results []struct {
			URL        string `json:"url"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
		FailedResults []struct {
			URL   string `json:"url"`
			Error string `json:"error"`
		} `json:"failed_results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse Tavily extract response: %w", err)
	}

	if len(apiResponse.Results) == 0 {
		// Not an error: the page had nothing Tavily could pull out.
		logger.Debug("Tavily extract returned no content", "url", url, "failed", len(apiResponse.FailedResults))
		return &Extraction{}, nil
	}

	raw := apiResponse.Results[0].RawContent
	logger.Debug("Tavily extract completed", "url", url, "content_length", len(raw))

	return &Extraction{
		Content:    raw,
		RawContent: raw,
	}, nil
}
