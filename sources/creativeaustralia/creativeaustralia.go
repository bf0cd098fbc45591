// Package creativeaustralia adapts the Creative Australia grants API
package creativeaustralia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/grantscout/grantscout/discovery"
	"github.com/grantscout/grantscout/grant"
	"github.com/grantscout/grantscout/orchestrator"
)

const (
	// EndpointName is the orchestrator endpoint this adapter fetches through
	EndpointName = "creative-australia"

	sourceName = "Creative Australia"
	prefix     = "ca"
)

// Fetcher is the orchestrator surface this adapter needs
type Fetcher interface {
	Fetch(ctx context.Context, name string, opts *orchestrator.FetchOptions) (*orchestrator.Payload, error)
}

// DefaultEndpoint is the endpoint config to register with the orchestrator.
// The legacy Australia Council API still mirrors this data, so an alternate
// source beats serving stale cache
func DefaultEndpoint() orchestrator.EndpointConfig {
	return orchestrator.EndpointConfig{
		Name:         EndpointName,
		URL:          "https://creative.gov.au/api/v1/grants",
		FallbackTier: orchestrator.TierAlternateSource,
		HealthCheck:  true,
	}
}

// DefaultAlternates are the alternate providers registered alongside
// DefaultEndpoint
func DefaultAlternates() []orchestrator.AlternateSource {
	return []orchestrator.AlternateSource{
		{
			Name:      "Australia Council legacy API",
			URL:       "https://www.australiacouncil.gov.au/api/grants",
			Quality:   85,
			Transform: transformLegacy,
		},
	}
}

// transformLegacy reshapes the legacy envelope ({"results": [...]}) into the
// current one ({"grants": [...]}). Record shapes are identical across the two
// APIs
func transformLegacy(body []byte) ([]byte, error) {
	var legacy struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &legacy); err != nil {
		return nil, fmt.Errorf("decoding legacy envelope: %w", err)
	}

	return json.Marshal(listResponse{
		Grants:     legacy.Results,
		TotalCount: len(legacy.Results),
	})
}

// Adapter lists Creative Australia grants through the orchestrator
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

type listResponse struct {
	Grants     []json.RawMessage `json:"grants"`
	TotalCount int               `json:"total_count"`
}

func (a *Adapter) List(ctx context.Context, filter discovery.Filter) ([]discovery.Native, error) {
	params := url.Values{}
	if filter.Category != "" {
		params.Set("category", filter.Category)
	}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}
	if filter.AmountMax > 0 {
		params.Set("amount_max", strconv.FormatFloat(filter.AmountMax, 'f', -1, 64))
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

	natives := make([]discovery.Native, 0, len(resp.Grants))
	for _, raw := range resp.Grants {
		natives = append(natives, record{raw: raw})
	}

	return natives, nil
}

// Categories reports the grant categories this provider uses
func (a *Adapter) Categories(ctx context.Context) ([]string, error) {
	return []string{"Arts & Culture", "Documentary", "First Nations Arts", "Youth Arts"}, nil
}

// Industries reports the art-form vocabulary this provider uses
func (a *Adapter) Industries(ctx context.Context) ([]string, error) {
	return []string{"Arts", "Community Arts", "Documentary", "Film", "Music", "Theatre", "Visual Arts"}, nil
}

// Locations reports the coverage vocabulary this provider uses
func (a *Adapter) Locations(ctx context.Context) ([]string, error) {
	return []string{"ACT", "NSW", "NT", "National", "QLD", "SA", "TAS", "VIC", "WA"}, nil
}

// nativeGrant is one grant in the provider's own shape
type nativeGrant struct {
	GrantID      string   `json:"grant_id"`
	Name         string   `json:"name"`
	Summary      string   `json:"summary"`
	AmountMin    float64  `json:"amount_min"`
	AmountMax    float64  `json:"amount_max"`
	ClosingDate  string   `json:"closing_date"`
	OpeningDate  string   `json:"opening_date"`
	Category     string   `json:"category"`
	Organisation string   `json:"organisation"`
	Eligibility  []string `json:"eligibility"`
	States       []string `json:"states"`
	ArtForms     []string `json:"art_forms"`
	ContactEmail string   `json:"contact_email"`
	URL          string   `json:"url"`
	UpdatedAt    string   `json:"updated_at"`
}

type record struct {
	raw json.RawMessage
}

func (r record) NativeID() (string, error) {
	var peek struct {
		GrantID string `json:"grant_id"`
	}
	if err := json.Unmarshal(r.raw, &peek); err != nil {
		return "", err
	}
	if peek.GrantID == "" {
		return "", fmt.Errorf("record has no grant_id")
	}
	return peek.GrantID, nil
}

func (r record) Unify() (grant.Grant, error) {
	var native nativeGrant
	if err := json.Unmarshal(r.raw, &native); err != nil {
		return grant.Grant{}, err
	}

	if native.Name == "" {
		return grant.Grant{}, fmt.Errorf("record %q has no name", native.GrantID)
	}

	closing, err := time.Parse("2006-01-02", native.ClosingDate)
	if err != nil {
		return grant.Grant{}, fmt.Errorf("record %q has unusable closing_date %q: %w", native.GrantID, native.ClosingDate, err)
	}

	now := time.Now()
	status := grant.StatusOpen
	if closing.Before(now) {
		status = grant.StatusClosed
	} else if native.OpeningDate != "" {
		if opening, err := time.Parse("2006-01-02", native.OpeningDate); err == nil && opening.After(now) {
			status = grant.StatusUpcoming
		}
	}

	var updated time.Time
	if native.UpdatedAt != "" {
		updated, _ = time.Parse("2006-01-02", native.UpdatedAt)
	}

	locations := native.States
	if len(locations) == 0 {
		locations = []string{"National"}
	}

	industries := native.ArtForms
	if len(industries) == 0 {
		industries = []string{"Arts"}
	}

	return grant.Grant{
		Title:       native.Name,
		Description: native.Summary,
		Amount: grant.Amount{
			Min:      native.AmountMin,
			Max:      native.AmountMax,
			Currency: "AUD",
		},
		Deadline:       closing,
		Category:       native.Category,
		Eligibility:    native.Eligibility,
		Locations:      locations,
		Industries:     industries,
		ApplicationURL: native.URL,
		Contact: grant.Contact{
			Email:   native.ContactEmail,
			Website: "https://creative.gov.au/investment-and-development",
		},
		LastUpdated: updated,
		Status:      status,
		Tags:        native.ArtForms,
	}, nil
}
