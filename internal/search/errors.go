package search

import "errors"

var (
	// ErrMissingAPIKey is returned when a required API key is not provided
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrUnsupportedProvider is returned when an unsupported provider type is specified
	ErrUnsupportedProvider = errors.New("unsupported search provider")

	// ErrProviderUnavailable is returned when a provider fails at the transport
	// level. Callers use this to distinguish an outage from an empty result set.
	ErrProviderUnavailable = errors.New("search provider is currently unavailable")
)
