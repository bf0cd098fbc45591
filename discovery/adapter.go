package discovery

import (
	"context"
	"strings"

	"github.com/grantscout/grantscout/grant"
)

// Native is a single record in a provider's own shape. NativeID must be cheap
// and must not require the whole record to be well-formed; Unify does the full
// conversion and may fail on malformed records
type Native interface {
	NativeID() (string, error)
	Unify() (grant.Grant, error)
}

// Filter is a search profile translated into the shape adapters filter by.
// Adapters apply whatever subset their provider supports and ignore the rest;
// the engine re-scores everything anyway
type Filter struct {
	Category   string
	Locations  []string
	Industries []string
	Keywords   []string
	AmountMin  float64
	AmountMax  float64
	Status     grant.Status
	Page       int
	PageSize   int
}

// NewFilter translates caller criteria into an adapter filter
func NewFilter(c grant.Criteria) Filter {
	return Filter{
		Category:   c.Category,
		Locations:  c.Locations,
		Industries: c.Industries,
		Keywords:   c.Keywords,
		AmountMin:  c.Amount.Min,
		AmountMax:  c.Amount.Max,
		Status:     c.Status,
	}
}

// Adapter is a single data source. Implementations must be idempotent and
// side-effect-free: List can be called concurrently and repeatedly with the
// same filter
type Adapter interface {
	// Name is the human-readable source name attached to every grant this
	// adapter produces
	Name() string

	// Prefix is the short ID prefix (e.g. "sa") that keeps grant IDs globally
	// unique across sources
	Prefix() string

	List(ctx context.Context, filter Filter) ([]Native, error)
}

// GetterAdapter is an Adapter that can fetch a single record by its native ID
// without listing everything
type GetterAdapter interface {
	Adapter
	Get(ctx context.Context, nativeID string) (Native, error)
}

// VocabularyAdapter is an Adapter that can report the vocabularies its
// provider uses, so callers can populate search form options
type VocabularyAdapter interface {
	Adapter
	Categories(ctx context.Context) ([]string, error)
	Industries(ctx context.Context) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
}

// SplitID splits a prefixed grant ID ("sa-12345") into its source prefix and
// native ID
func SplitID(id string) (prefix, nativeID string, ok bool) {
	prefix, nativeID, ok = strings.Cut(id, "-")
	if !ok || prefix == "" || nativeID == "" {
		return "", "", false
	}
	return prefix, nativeID, true
}
