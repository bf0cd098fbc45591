// Package screenaustralia adapts the Screen Australia funding API
package screenaustralia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grantscout/grantscout/discovery"
	"github.com/grantscout/grantscout/grant"
	"github.com/grantscout/grantscout/orchestrator"
)

const (
	// EndpointName is the orchestrator endpoint this adapter fetches through
	EndpointName = "screen-australia"

	sourceName = "Screen Australia"
	prefix     = "sa"
)

// Fetcher is the orchestrator surface this adapter needs
type Fetcher interface {
	Fetch(ctx context.Context, name string, opts *orchestrator.FetchOptions) (*orchestrator.Payload, error)
}

// DefaultEndpoint is the endpoint config to register with the orchestrator
// for this adapter. Screen Australia publishes reliably, so stale cached data
// beats no data when it has an outage
func DefaultEndpoint() orchestrator.EndpointConfig {
	return orchestrator.EndpointConfig{
		Name:         EndpointName,
		URL:          "https://www.screenaustralia.gov.au/api/funding/opportunities",
		FallbackTier: orchestrator.TierCache,
		HealthCheck:  true,
	}
}

// Adapter lists Screen Australia funding opportunities through the
// orchestrator
type Adapter struct {
	fetcher Fetcher
}

func New(fetcher Fetcher) *Adapter {
	return &Adapter{fetcher: fetcher}
}

func (a *Adapter) Name() string {
	return sourceName
}

func (a *Adapter) Prefix() string {
	return prefix
}

// listResponse is the provider's envelope. Records stay raw so that one
// malformed record cannot sink the batch
type listResponse struct {
	FundingOpportunities []json.RawMessage `json:"funding_opportunities"`
	TotalCount           int               `json:"total_count"`
}

func (a *Adapter) List(ctx context.Context, filter discovery.Filter) ([]discovery.Native, error) {
	params := url.Values{}
	if filter.Category != "" {
		params.Set("type", filter.Category)
	}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}
	if filter.PageSize > 0 {
		params.Set("limit", strconv.Itoa(filter.PageSize))
	}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}

	payload, err := a.fetcher.Fetch(ctx, EndpointName, &orchestrator.FetchOptions{Params: params})
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(payload.Body, &resp); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", sourceName, err)
	}

	natives := make([]discovery.Native, 0, len(resp.FundingOpportunities))
	for _, raw := range resp.FundingOpportunities {
		natives = append(natives, record{raw: raw})
	}

	return natives, nil
}

// Get fetches a single opportunity by its native ID
func (a *Adapter) Get(ctx context.Context, nativeID string) (discovery.Native, error) {
	params := url.Values{}
	params.Set("id", nativeID)

	payload, err := a.fetcher.Fetch(ctx, EndpointName, &orchestrator.FetchOptions{Params: params})
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(payload.Body, &resp); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", sourceName, err)
	}

	for _, raw := range resp.FundingOpportunities {
		rec := record{raw: raw}
		if id, err := rec.NativeID(); err == nil && id == nativeID {
			return rec, nil
		}
	}

	return nil, &discovery.NotFoundError{ID: prefix + "-" + nativeID}
}

// nativeGrant is one opportunity in the provider's own shape
type nativeGrant struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Amount            float64  `json:"amount"`
	Deadline          string   `json:"deadline"`
	Category          string   `json:"category"`
	Organization      string   `json:"organization"`
	Eligibility       []string `json:"eligibility_criteria"`
	RequiredDocuments []string `json:"required_documents"`
	SuccessScore      float64  `json:"success_score"`
	ApplicationURL    string   `json:"application_url"`
	UpdatedAt         string   `json:"updated_at"`
}

type record struct {
	raw json.RawMessage
}

func (r record) NativeID() (string, error) {
	var peek struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(r.raw, &peek); err != nil {
		return "", err
	}
	if peek.ID == "" {
		return "", fmt.Errorf("record has no id")
	}
	return peek.ID, nil
}

func (r record) Unify() (grant.Grant, error) {
	var native nativeGrant
	if err := json.Unmarshal(r.raw, &native); err != nil {
		return grant.Grant{}, err
	}

	if native.Title == "" {
		return grant.Grant{}, fmt.Errorf("record %q has no title", native.ID)
	}

	deadline, err := parseDate(native.Deadline)
	if err != nil {
		return grant.Grant{}, fmt.Errorf("record %q has unusable deadline %q: %w", native.ID, native.Deadline, err)
	}

	updated, err := parseDate(native.UpdatedAt)
	if err != nil {
		updated = time.Time{}
	}

	status := grant.StatusOpen
	if deadline.Before(time.Now()) {
		status = grant.StatusClosed
	}

	g := grant.Grant{
		Title:       native.Title,
		Description: native.Description,
		Amount: grant.Amount{
			Min:      native.Amount,
			Max:      native.Amount,
			Currency: "AUD",
		},
		Deadline:       deadline,
		Category:       categoryFor(native.Category),
		Eligibility:    native.Eligibility,
		Locations:      []string{"National"},
		Industries:     industriesFor(native.Category),
		ApplicationURL: native.ApplicationURL,
		Contact: grant.Contact{
			Website: "https://www.screenaustralia.gov.au/funding-and-support",
		},
		LastUpdated:  updated,
		Status:       status,
		Tags:         tagsFor(native.Category),
		Requirements: native.RequiredDocuments,
	}

	if native.SuccessScore > 0 {
		rate := native.SuccessScore / 100
		g.SuccessRate = &rate
	}

	return g, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date format")
}

// categoryFor maps provider category slugs onto display categories
func categoryFor(slug string) string {
	switch strings.ToLower(slug) {
	case "documentary_production", "documentary_development":
		return "Documentary"
	case "narrative_production", "feature_production":
		return "Feature Film"
	case "development":
		return "Development"
	case "online_production", "digital":
		return "Online & Games"
	default:
		return "Screen Production"
	}
}

func industriesFor(slug string) []string {
	switch strings.ToLower(slug) {
	case "documentary_production", "documentary_development":
		return []string{"Film", "Documentary", "Screen Production"}
	case "online_production", "digital":
		return []string{"Digital Media", "Screen Production"}
	case "television":
		return []string{"Television", "Screen Production"}
	default:
		return []string{"Film", "Screen Production"}
	}
}

func tagsFor(slug string) []string {
	tags := []string{"screen"}
	slug = strings.ToLower(slug)
	if strings.Contains(slug, "documentary") {
		tags = append(tags, "documentary")
	}
	if strings.Contains(slug, "development") {
		tags = append(tags, "development")
	}
	if strings.Contains(slug, "production") {
		tags = append(tags, "production")
	}
	return tags
}
