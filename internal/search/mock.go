package search

import (
	"context"
)

// MockProvider implements Provider for testing purposes. Results can be
// scripted per query, or a single default set returned for every query.
type MockProvider struct {
	name     string
	results  []Result
	byQuery  map[string][]Result
	err      error
	Queries  []string // Records every query received, in order
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name:    "Mock",
		byQuery: make(map[string][]Result),
	}
}

// GetName returns the name of this provider
func (m *MockProvider) GetName() string {
	return m.name
}

// Search returns the scripted results for the query, falling back to the
// default result set.
func (m *MockProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	m.Queries = append(m.Queries, query)

	if m.err != nil {
		return nil, m.err
	}

	results := m.results
	if scripted, ok := m.byQuery[query]; ok {
		results = scripted
	}

	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > len(results) {
		maxResults = len(results)
	}

	out := make([]Result, maxResults)
	copy(out, results[:maxResults])
	return out, nil
}

// SetResults sets the default results returned for any query
func (m *MockProvider) SetResults(results []Result) {
	m.results = results
}

// SetResultsForQuery scripts results for one exact query string
func (m *MockProvider) SetResultsForQuery(query string, results []Result) {
	m.byQuery[query] = results
}

// SetError makes every search fail with the given error
func (m *MockProvider) SetError(err error) {
	m.err = err
}

// SetName allows customization of provider name for testing
func (m *MockProvider) SetName(name string) {
	m.name = name
}
