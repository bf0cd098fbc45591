package orchestrator

import (
	"fmt"
)

// TransportError is a network-level failure (connection refused, timeout,
// DNS) talking to an endpoint. Transport errors are retryable
type TransportError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %q after %d attempt(s): %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderError is a well-formed error response from an endpoint (a non-2xx
// status). The provider answered, so retrying the same request is pointless;
// the endpoint is marked unhealthy and fallback is triggered immediately
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error from %q: HTTP %d %s", e.Endpoint, e.StatusCode, e.Status)
}

// NoFallbackError indicates that the primary fetch failed and the endpoint's
// fallback tier could not satisfy the request either
type NoFallbackError struct {
	Endpoint string
	Tier     FallbackTier
	Reason   string
	Err      error
}

func (e *NoFallbackError) Error() string {
	return fmt.Sprintf("no fallback available for %q (tier %v): %s", e.Endpoint, e.Tier, e.Reason)
}

func (e *NoFallbackError) Unwrap() error {
	return e.Err
}

// NotRegisteredError is returned when an endpoint name is not known to the
// orchestrator
type NotRegisteredError struct {
	Endpoint string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("endpoint %q is not registered", e.Endpoint)
}
