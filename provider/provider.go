package provider

import (
	"net/http"
)

// HTTPClient is the minimal interface required from an HTTP client.
// It matches the Do method on *http.Client and allows callers to
// substitute custom clients or middleware.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOptions are shared options for all provider clients.
// Providers typically accept these options in their constructors.
type ClientOptions struct {
	// BaseURL is the root URL of the provider API.
	BaseURL string
	// APIKey is the API key or bearer token used for authentication.
	APIKey string
	// HTTPClient is the underlying HTTP client. If nil, a default
	// client should be used by the provider.
	HTTPClient HTTPClient
	// Headers contains additional HTTP headers that providers should
	// attach to every outbound request. Provider implementations
	// decide how these interact with their own required headers.
	Headers http.Header
}
