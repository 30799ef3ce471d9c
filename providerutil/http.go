package providerutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a failed response body is retained.
const maxErrorBody = 8 * 1024

// StatusError is returned when a provider answers with a non-2xx status.
// Body holds at most the first 8 KiB of the response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("provider: http status %d: %s", e.StatusCode, e.Body)
}

// ReadJSONRaw decodes a JSON response body into v, closes the body and
// returns the raw bytes so callers can log the provider payload verbatim.
//
// If the response status code is not in the 2xx range, ReadJSONRaw
// returns a *StatusError of the form:
//
//	provider: http status <code>: <truncated-body>
func ReadJSONRaw(resp *http.Response, v any) ([]byte, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: read body: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return raw, fmt.Errorf("provider: decode body: %w", err)
	}
	return raw, nil
}

// DefaultHTTPClient returns the default HTTP client used when none is provided.
func DefaultHTTPClient() *http.Client {
	return http.DefaultClient
}
