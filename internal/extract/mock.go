package extract

import (
	"context"
)

// MockExtractor implements Extractor for testing purposes. Extractions can be
// scripted per URL; unscripted URLs yield the default extraction.
type MockExtractor struct {
	name    string
	result  Extraction
	byURL   map[string]Extraction
	err     error
	URLs    []string // Records every URL received, in order
}

// NewMockExtractor creates a new mock extraction provider
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		name:  "Mock",
		byURL: make(map[string]Extraction),
	}
}

// GetName returns the name of this provider
func (m *MockExtractor) GetName() string {
	return m.name
}

// Extract returns the scripted extraction for the URL
func (m *MockExtractor) Extract(ctx context.Context, url string) (*Extraction, error) {
	m.URLs = append(m.URLs, url)

	if m.err != nil {
		return nil, m.err
	}

	if scripted, ok := m.byURL[url]; ok {
		out := scripted
		return &out, nil
	}

	out := m.result
	return &out, nil
}

// SetResult sets the default extraction returned for any URL
func (m *MockExtractor) SetResult(result Extraction) {
	m.result = result
}

// SetResultForURL scripts an extraction for one exact URL
func (m *MockExtractor) SetResultForURL(url string, result Extraction) {
	m.byURL[url] = result
}

// SetError makes every extraction fail with the given error
func (m *MockExtractor) SetError(err error) {
	m.err = err
}
