package extract

import "errors"

var (
	// ErrMissingAPIKey is returned when a required API key is not provided
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrUnsupportedExtractor is returned when an unsupported extractor type is specified
	ErrUnsupportedExtractor = errors.New("unsupported extractor")

	// ErrExtractorUnavailable is returned when an extractor fails at the
	// transport level, as opposed to a page that simply has no text.
	ErrExtractorUnavailable = errors.New("extractor is currently unavailable")
)
