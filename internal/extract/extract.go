package extract

import (
	"context"
)

// Extractor defines the interface for full-content extraction providers
type Extractor interface {
	// Extract fetches the extractable text for a URL. A page with no
	// extractable text yields an empty Extraction, not an error.
	Extract(ctx context.Context, url string) (*Extraction, error)

	// GetName returns the name of the extraction provider
	GetName() string
}

// Extraction holds the primary extracted content and, when the provider
// supplies one, a secondary raw-content field usable as a fallback.
type Extraction struct {
	Content    string `json:"content"`
	RawContent string `json:"raw_content,omitempty"`
}

// ExtractorType represents the type of extraction provider
type ExtractorType string

const (
	ExtractorTypeTavily ExtractorType = "tavily"
	ExtractorTypePage   ExtractorType = "page"
	ExtractorTypeMock   ExtractorType = "mock"
)

// Factory creates extractors based on type and configuration
type Factory struct{}

// NewFactory creates a new extractor factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateExtractor creates an extractor of the specified type
func (f *Factory) CreateExtractor(extractorType ExtractorType, config map[string]string) (Extractor, error) {
	switch extractorType {
	case ExtractorTypeTavily:
		apiKey, exists := config["api_key"]
		if !exists || apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewTavilyExtractor(apiKey), nil
	case ExtractorTypePage:
		return NewPageExtractor(config["user_agent"]), nil
	case ExtractorTypeMock:
		return NewMockExtractor(), nil
	default:
		return nil, ErrUnsupportedExtractor
	}
}
