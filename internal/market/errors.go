package market

import "errors"

// Error kinds surfaced to callers. Wrap with fmt.Errorf("%w: ...", ...)
// and classify with errors.Is.
var (
	// ErrInvalidInput marks requests rejected before any upstream call:
	// malformed codes, empty queries, reversed date ranges.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the provider has no data for the symbol.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable covers transport failures and unexpected
	// provider responses. Calls are never retried.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
