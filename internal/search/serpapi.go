package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"finhelp/internal/logger"
)

// SerpAPIProvider implements Provider using SerpAPI (premium fallback engine)
type SerpAPIProvider struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewSerpAPIProvider creates a new SerpAPI search provider
func NewSerpAPIProvider(apiKey string) *SerpAPIProvider {
	return &SerpAPIProvider{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// GetName returns the name of this provider
func (s *SerpAPIProvider) GetName() string {
	return "SerpAPI"
}

// Search performs a search using SerpAPI
func (s *SerpAPIProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := "https://serpapi.com/search"
	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", "google")
	params.Set("api_key", s.apiKey)
	params.Set("num", strconv.Itoa(config.MaxResults))

	fullURL := apiURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SerpAPI request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: SerpAPI returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var apiResponse struct {
		OrganicResults []struct {
			Title    string `json:"title"`
			Link     string `json:"link"`
			Snippet  string `json:"snippet"`
			Position int    `json:"position"`
		} `json:"organic_results"`
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse SerpAPI response: %w", err)
	}

	if apiResponse.Error.Code != 0 {
		return nil, fmt.Errorf("SerpAPI error (%d): %s", apiResponse.Error.Code, apiResponse.Error.Message)
	}

	var results []Result
	for _, item := range apiResponse.OrganicResults {
		results = append(results, Result{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
			Domain:  extractDomain(item.Link),
			Source:  "SerpAPI",
			Rank:    item.Position,
		})
	}

	logger.Debug("SerpAPI search completed", "query", query, "results_found", len(results))

	return results, nil
}
