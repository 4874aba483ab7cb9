package search

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

const tavilySearchURL = "https://api.tavily.com/search"

// TavilyProvider implements Provider using the Tavily search API
type TavilyProvider struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewTavilyProvider creates a new Tavily search provider
func NewTavilyProvider(apiKey string) *TavilyProvider {
	return &TavilyProvider{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: tavilySearchURL,
	}
}

// SetBaseURL overrides the API endpoint. Test hook.
func (t *TavilyProvider) SetBaseURL(u string) {
	t.baseURL = u
}

// GetName returns the name of this provider
func (t *TavilyProvider) GetName() string {
	return "Tavily"
}

// Search performs a search using the Tavily API
func (t *TavilyProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	depth := config.SearchDepth
	if depth == "" {
		depth = "advanced"
	}

	reqBody := map[string]any{
		"api_key":      t.apiKey,
		"query":        query,
		"max_results":  config.MaxResults,
		"search_depth": depth,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode Tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: Tavily returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var apiResponse struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse Tavily response: %w", err)
	}

	var results []Result
	for i, item := range apiResponse.Results {
		results = append(results, Result{
			URL:     item.URL,
			Title:   item.Title,
			Snippet: item.Content,
			Domain:  extractDomain(item.URL),
			Source:  "Tavily",
			Rank:    i + 1,
		})
	}

	logger.Debug("Tavily search completed", "query", query, "results_found", len(results))

	return results, nil
}
