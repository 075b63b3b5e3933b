package asaas

import (
	"fmt"
	"strings"
)

// ErrorItem is one entry of the gateway's error envelope.
type ErrorItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// APIError is a non-retryable rejection from the gateway (4xx other than
// 429). It is surfaced to the caller immediately, without retry or
// transport fallback.
type APIError struct {
	StatusCode int
	Errors     []ErrorItem `json:"errors"`
	RawBody    string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		parts := make([]string, len(e.Errors))
		for i, item := range e.Errors {
			parts[i] = item.Description
		}
		return fmt.Sprintf("gateway rejected request (%d): %s", e.StatusCode, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("gateway rejected request (%d): %s", e.StatusCode, e.RawBody)
}

// TransportError reports that both the proxy and the direct transport
// failed after all retries. Both failure descriptions are carried so the
// operation can be retried manually with full context.
type TransportError struct {
	Proxy  error
	Direct error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway unreachable: proxy transport: %v; direct transport: %v", e.Proxy, e.Direct)
}

// transientError wraps a failure the resilience policy may retry:
// 429/5xx responses, network errors, per-attempt timeouts and malformed
// proxy responses.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }
