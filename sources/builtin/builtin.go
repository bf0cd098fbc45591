// Package builtin is the hand-maintained grant dataset of last resort. It
// backs two things: the orchestrator's built-in fallback tier, and a
// discovery adapter that keeps results flowing when every live source is down
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grantscout/grantscout/discovery"
	"github.com/grantscout/grantscout/grant"
)

const (
	sourceName = "Curated Dataset"
	prefix     = "fb"
)

// Adapter serves the static dataset. It needs no orchestrator: the data is
// compiled in
type Adapter struct{}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Name() string {
	return sourceName
}

func (a *Adapter) Prefix() string {
	return prefix
}

func (a *Adapter) List(ctx context.Context, filter discovery.Filter) ([]discovery.Native, error) {
	natives := make([]discovery.Native, 0, len(dataset))
	for _, g := range dataset {
		natives = append(natives, record{grant: g})
	}
	return natives, nil
}

// Get returns a single record by its native ID
func (a *Adapter) Get(ctx context.Context, nativeID string) (discovery.Native, error) {
	for _, g := range dataset {
		if g.id == nativeID {
			return record{grant: g}, nil
		}
	}
	return nil, &discovery.NotFoundError{ID: prefix + "-" + nativeID}
}

// Categories reports the category vocabulary of the dataset
func (a *Adapter) Categories(ctx context.Context) ([]string, error) {
	return distinct(func(g staticGrant) []string { return []string{g.category} }), nil
}

// Industries reports the industry vocabulary of the dataset
func (a *Adapter) Industries(ctx context.Context) ([]string, error) {
	return distinct(func(g staticGrant) []string { return g.industries }), nil
}

// Locations reports the location vocabulary of the dataset
func (a *Adapter) Locations(ctx context.Context) ([]string, error) {
	return distinct(func(g staticGrant) []string { return g.locations }), nil
}

func distinct(get func(staticGrant) []string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, g := range dataset {
		for _, v := range get(g) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	return values
}

// Dataset renders the static grants as a JSON payload, for registration as an
// orchestrator built-in tier provider
func Dataset() []byte {
	grants := make([]grant.Grant, 0, len(dataset))
	for _, g := range dataset {
		unified, err := record{grant: g}.Unify()
		if err != nil {
			continue
		}
		unified.ID = prefix + "-" + g.id
		unified.Source = sourceName
		grants = append(grants, unified)
	}

	body, _ := json.Marshal(map[string]any{
		"grants":      grants,
		"total_count": len(grants),
	})
	return body
}

type record struct {
	grant staticGrant
}

func (r record) NativeID() (string, error) {
	if r.grant.id == "" {
		return "", fmt.Errorf("record has no id")
	}
	return r.grant.id, nil
}

func (r record) Unify() (grant.Grant, error) {
	deadline := time.Now().AddDate(0, 0, r.grant.closesInDays)

	return grant.Grant{
		Title:       r.grant.title,
		Description: r.grant.description,
		Amount: grant.Amount{
			Min:      r.grant.amountMin,
			Max:      r.grant.amountMax,
			Currency: "AUD",
		},
		Deadline:       deadline,
		Category:       r.grant.category,
		Eligibility:    r.grant.eligibility,
		Locations:      r.grant.locations,
		Industries:     r.grant.industries,
		ApplicationURL: r.grant.url,
		Contact: grant.Contact{
			Website: r.grant.url,
		},
		LastUpdated: time.Now(),
		Status:      grant.StatusOpen,
		Tags:        r.grant.tags,
	}, nil
}

// staticGrant keeps the dataset compact. Closing dates are relative so the
// data never reads as expired
type staticGrant struct {
	id           string
	title        string
	description  string
	amountMin    float64
	amountMax    float64
	closesInDays int
	category     string
	eligibility  []string
	locations    []string
	industries   []string
	url          string
	tags         []string
}

var dataset = []staticGrant{
	{
		id:           "regional-arts-fund",
		title:        "Regional Arts Fund Project Grants",
		description:  "Supports sustainable cultural development in regional and remote communities, funding arts projects that build local creative capacity.",
		amountMin:    5000,
		amountMax:    30000,
		closesInDays: 55,
		category:     "Arts & Culture",
		eligibility:  []string{"Regional artists", "Community organisations"},
		locations:    []string{"Regional"},
		industries:   []string{"Arts", "Community Arts"},
		url:          "https://regionalarts.com.au/opportunities/regional-arts-fund",
		tags:         []string{"regional", "community", "arts"},
	},
	{
		id:           "screen-production-incentive",
		title:        "Producer Offset and Screen Production Incentive",
		description:  "Tax offset for the production of Australian feature films, television and documentary content with significant Australian content.",
		amountMin:    100000,
		amountMax:    500000,
		closesInDays: 85,
		category:     "Screen Production",
		eligibility:  []string{"Production companies"},
		locations:    []string{"National"},
		industries:   []string{"Film", "Television", "Screen Production"},
		url:          "https://www.screenaustralia.gov.au/funding-and-support/producer-offset",
		tags:         []string{"production", "offset", "screen"},
	},
	{
		id:           "documentary-producer-program",
		title:        "Documentary Producer Program",
		description:  "Production funding for documentary projects with strong storytelling, audience appeal and cultural value, including social impact documentaries.",
		amountMin:    50000,
		amountMax:    500000,
		closesInDays: 40,
		category:     "Documentary",
		eligibility:  []string{"Documentary producers", "Production companies"},
		locations:    []string{"National"},
		industries:   []string{"Film", "Documentary"},
		url:          "https://www.screenaustralia.gov.au/funding-and-support/documentary",
		tags:         []string{"documentary", "production", "feature film"},
	},
	{
		id:           "community-broadcasting-fund",
		title:        "Community Broadcasting Foundation Content Grants",
		description:  "Funds content production and development for community radio and television, including youth, First Nations and multicultural programming.",
		amountMin:    5000,
		amountMax:    60000,
		closesInDays: 70,
		category:     "Media",
		eligibility:  []string{"Community broadcasters", "Independent producers"},
		locations:    []string{"National"},
		industries:   []string{"Media", "Television", "Community Arts"},
		url:          "https://cbf.org.au/grants",
		tags:         []string{"broadcasting", "community", "media"},
	},
	{
		id:           "nsw-screen-development",
		title:        "Screen NSW Development Fund",
		description:  "Early development finance for NSW practitioners creating feature film, television and online projects with market potential.",
		amountMin:    10000,
		amountMax:    50000,
		closesInDays: 65,
		category:     "Development",
		eligibility:  []string{"NSW residents", "NSW production companies"},
		locations:    []string{"NSW"},
		industries:   []string{"Film", "Television", "Digital Media"},
		url:          "https://www.screen.nsw.gov.au/funding/development",
		tags:         []string{"development", "screen", "feature film"},
	},
	{
		id:           "youth-media-initiative",
		title:        "Youth Media Makers Initiative",
		description:  "Supports organisations running hands-on media production programs for young people, from screen storytelling to podcasting.",
		amountMin:    15000,
		amountMax:    45000,
		closesInDays: 95,
		category:     "Youth Arts",
		eligibility:  []string{"Youth organisations", "Arts organisations", "Schools"},
		locations:    []string{"National", "Regional"},
		industries:   []string{"Media", "Digital Media", "Community Arts"},
		url:          "https://www.youthmedia.org.au/grants",
		tags:         []string{"youth", "media", "education"},
	},
}
