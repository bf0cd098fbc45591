package grant

import (
	"time"
)

// Status is the lifecycle state of a funding opportunity
type Status string

const (
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusUpcoming Status = "upcoming"
)

// Priority is the coarse display bucket derived from a match score
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Amount is a funding range in a single currency. Min and Max are equal for
// fixed-amount grants
type Amount struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Contact holds the application contact details for a grant
type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// Grant is the canonical, source-agnostic representation of a funding
// opportunity. Grants are built fresh from adapter output on every discovery
// call and are never persisted by this library.
//
// The ID is prefixed with the adapter's prefix (e.g. "sa-12345") so that it
// remains globally unique across providers
type Grant struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Amount         Amount    `json:"amount"`
	Deadline       time.Time `json:"deadline"`
	Category       string    `json:"category"`
	Eligibility    []string  `json:"eligibility"`
	Locations      []string  `json:"location"`
	Industries     []string  `json:"industry"`
	ApplicationURL string    `json:"application_url"`
	Contact        Contact   `json:"contact_info"`
	LastUpdated    time.Time `json:"last_updated"`
	Status         Status    `json:"status"`
	Tags           []string  `json:"tags"`
	Requirements   []string  `json:"requirements"`

	// SuccessRate is the historical application success rate for this
	// program, if the provider publishes one
	SuccessRate *float64 `json:"success_rate,omitempty"`

	// Source is the name of the adapter that produced this grant
	Source string `json:"source"`
}

// AmountRange is the funding band a caller is searching for
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Criteria is a caller-supplied search profile. Empty slices and zero values
// mean "not specified": scoring only uses the factors that were actually
// supplied. Callers may submit a range where Min > Max; scoring must tolerate
// this rather than rejecting the request
type Criteria struct {
	Industries []string    `json:"industry"`
	Locations  []string    `json:"location"`
	Amount     AmountRange `json:"fundingAmount"`

	Eligibility []string `json:"eligibility"`

	// Deadline is the caller's target date. It is a reference point for
	// proximity scoring, not a hard filter
	Deadline time.Time `json:"deadline"`

	Keywords []string `json:"keywords"`
	Category string   `json:"category,omitempty"`
	Status   Status   `json:"status,omitempty"`
}

// Match is a Grant scored against a Criteria. Matches are derived and
// ephemeral: the score is reproducible from the grant, the criteria and the
// clock alone
type Match struct {
	Grant    Grant    `json:"grant"`
	Score    int      `json:"matchScore"`
	Reasons  []string `json:"matchReasons"`
	Priority Priority `json:"priority"`
	Source   string   `json:"source"`
}

// Result is the envelope returned by a discovery call.
//
// TotalFound counts every grant that was normalized, before the score-zero
// discard; Matches holds only the grants that scored above zero. The two
// numbers are intentionally different
type Result struct {
	Matches    []Match       `json:"matches"`
	TotalFound int           `json:"totalFound"`
	Criteria   Criteria      `json:"searchCriteria"`
	SearchTime time.Duration `json:"searchTime"`

	// Sources lists the adapters that contributed at least one record, in
	// fan-out order
	Sources []string `json:"sources"`
}
