package providers

import (
	"context"
	"errors"

	"solana-token-radar/internal/fetch"
)

// ErrMalformedResponse is returned when a provider answers 200 but the
// payload fails schema validation.
var ErrMalformedResponse = errors.New("malformed provider response")

// Fetcher abstracts fetch.Client for tests.
type Fetcher interface {
	Fetch(ctx context.Context, provider, rawURL string, params map[string]string, opts fetch.Options) ([]byte, bool, error)
}
