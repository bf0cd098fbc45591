package orchestrator

import (
	"fmt"
	"time"
)

// FallbackTier determines what the orchestrator does when the primary fetch
// for an endpoint has failed after all retries
type FallbackTier int

const (
	// TierNone propagates the primary error to the caller
	TierNone FallbackTier = iota

	// TierCache serves the last good payload if it has not expired
	TierCache

	// TierAlternateSource walks an ordered list of alternate providers for
	// the same logical resource, falling through to built-in data if they all
	// fail
	TierAlternateSource

	// TierBuiltIn serves a static, hand-maintained dataset
	TierBuiltIn
)

func (t FallbackTier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierCache:
		return "cache"
	case TierAlternateSource:
		return "alternate-source"
	case TierBuiltIn:
		return "built-in"
	default:
		return fmt.Sprintf("FallbackTier(%d)", int(t))
	}
}

// HealthStatus is the last-known classification of an endpoint
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusUnknown   HealthStatus = "unknown"
)

// NoRetries opts an endpoint out of retrying. A MaxRetries of zero inherits
// the orchestrator default, so disabling retries needs an explicit sentinel
const NoRetries = -1

// EndpointConfig describes one outbound data source endpoint. Configs are
// immutable once registered; to change one, call Register again with the same
// Name
type EndpointConfig struct {
	// Name is the unique key for this endpoint
	Name string

	// URL is the target of both real fetches and health probes
	URL string

	// Method is the HTTP method, defaulting to GET
	Method string

	// RequiresAuth adds a bearer token (from Options.AuthToken) to requests
	RequiresAuth bool

	// Timeout bounds every individual request attempt
	Timeout time.Duration

	// MaxRetries is the number of additional attempts made after the first
	// one fails at the transport level. Zero inherits the orchestrator
	// default; use NoRetries to disable retrying entirely
	MaxRetries int

	// FallbackTier selects the strategy used when the primary fetch fails
	FallbackTier FallbackTier

	// HealthCheck opts this endpoint in to the periodic probe loop
	HealthCheck bool
}

// HealthRecord is the last-known health of an endpoint. Records are
// overwritten on every probe or real fetch; no history is kept
type HealthRecord struct {
	Endpoint     string        `json:"endpoint"`
	Status       HealthStatus  `json:"status"`
	ResponseTime time.Duration `json:"responseTime"`
	LastCheck    time.Time     `json:"lastCheck"`
	Error        string        `json:"error,omitempty"`

	// DataQuality is a 0-100 confidence score derived from the status and
	// the measured latency
	DataQuality int `json:"dataQuality"`
}

// HealthSummary aggregates the current health records for all endpoints
type HealthSummary struct {
	Healthy     int           `json:"healthy"`
	Degraded    int           `json:"degraded"`
	Unhealthy   int           `json:"unhealthy"`
	Unknown     int           `json:"unknown"`
	Total       int           `json:"total"`
	MeanLatency time.Duration `json:"meanLatency"`
}

// PayloadSource records which path produced a payload
type PayloadSource string

const (
	SourcePrimary   PayloadSource = "primary"
	SourceCache     PayloadSource = "cache"
	SourceAlternate PayloadSource = "alternate-source"
	SourceBuiltIn   PayloadSource = "built-in"
)

// Payload is the result of a Fetch, including provenance and a data quality
// score so that consumers can tell primary data from fallback data
type Payload struct {
	Body       []byte
	Quality    int
	Source     PayloadSource
	CapturedAt time.Time
}

// AlternateSource is a secondary provider for the same logical resource as a
// primary endpoint. Transform reshapes the alternate's response body into the
// payload shape the primary endpoint's consumers expect; a nil Transform
// passes the body through unchanged
type AlternateSource struct {
	Name      string
	URL       string
	Quality   int
	Transform func([]byte) ([]byte, error)
}

// BuiltinProvider returns the static dataset served by the built-in fallback
// tier. It must return non-empty, production-quality data: built-in payloads
// can surface to end users and must never look like placeholders
type BuiltinProvider func() []byte
