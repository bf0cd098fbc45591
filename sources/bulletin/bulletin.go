// Package bulletin adapts RSS funding bulletins into grant listings. Bulletin
// feeds are unstructured compared to the JSON APIs, so amounts and deadlines
// are recovered from the item text where possible
package bulletin

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/grantscout/grantscout/discovery"
	"github.com/grantscout/grantscout/grant"
	"github.com/grantscout/grantscout/orchestrator"
)

const (
	// EndpointName is the orchestrator endpoint this adapter fetches through
	EndpointName = "funding-bulletin"

	sourceName = "Funding Bulletin"
	prefix     = "rss"
)

// Fetcher is the orchestrator surface this adapter needs
type Fetcher interface {
	Fetch(ctx context.Context, name string, opts *orchestrator.FetchOptions) (*orchestrator.Payload, error)
}

// DefaultEndpoint is the endpoint config to register with the orchestrator.
// A bulletin is supplementary signal, not a system of record, so a failed
// fetch just propagates and the engine carries on without it
func DefaultEndpoint() orchestrator.EndpointConfig {
	return orchestrator.EndpointConfig{
		Name:         EndpointName,
		URL:          "https://www.grants.gov.au/rss/newGrants",
		FallbackTier: orchestrator.TierNone,
		HealthCheck:  true,
	}
}

// Adapter lists funding opportunities from an RSS bulletin feed
type Adapter struct {
	fetcher Fetcher
	parser  *gofeed.Parser
}

func New(fetcher Fetcher) *Adapter {
	return &Adapter{
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
	}
}

func (a *Adapter) Name() string {
	return sourceName
}

func (a *Adapter) Prefix() string {
	return prefix
}

func (a *Adapter) List(ctx context.Context, filter discovery.Filter) ([]discovery.Native, error) {
	payload, err := a.fetcher.Fetch(ctx, EndpointName, nil)
	if err != nil {
		return nil, err
	}

	feed, err := a.parser.ParseString(string(payload.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s feed: %w", sourceName, err)
	}

	natives := make([]discovery.Native, 0, len(feed.Items))
	for _, item := range feed.Items {
		natives = append(natives, record{item: item})
	}

	return natives, nil
}

type record struct {
	item *gofeed.Item
}

func (r record) NativeID() (string, error) {
	switch {
	case r.item.GUID != "":
		return slug(r.item.GUID), nil
	case r.item.Link != "":
		return slug(r.item.Link), nil
	default:
		return "", fmt.Errorf("feed item has no guid or link")
	}
}

func (r record) Unify() (grant.Grant, error) {
	if r.item.Title == "" {
		return grant.Grant{}, fmt.Errorf("feed item has no title")
	}

	text := r.item.Title + " " + r.item.Description + " " + r.item.Content

	published := time.Now()
	if r.item.PublishedParsed != nil {
		published = *r.item.PublishedParsed
	}

	deadline, found := parseDeadline(text)
	if !found {
		// Bulletins rarely restate closing dates; assume a standard round
		deadline = published.AddDate(0, 0, 60)
	}

	amountMin, amountMax := parseAmounts(text)

	status := grant.StatusOpen
	if deadline.Before(time.Now()) {
		status = grant.StatusClosed
	}

	return grant.Grant{
		Title:       r.item.Title,
		Description: strings.TrimSpace(r.item.Description),
		Amount: grant.Amount{
			Min:      amountMin,
			Max:      amountMax,
			Currency: "AUD",
		},
		Deadline:       deadline,
		Category:       "Funding Bulletin",
		Locations:      []string{"National"},
		Industries:     r.item.Categories,
		ApplicationURL: r.item.Link,
		LastUpdated:    published,
		Status:         status,
		Tags:           lowerAll(r.item.Categories),
	}, nil
}

var deadlineRe = regexp.MustCompile(`(?i)clos(?:es|ing)[^0-9]*(\d{1,2} \w+ \d{4})`)

// parseDeadline recovers a closing date from phrases like
// "Applications close 2 January 2026"
func parseDeadline(text string) (time.Time, bool) {
	match := deadlineRe.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}

	t, err := time.Parse("2 January 2006", match[1])
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

var amountRe = regexp.MustCompile(`\$([0-9][0-9,]*)`)

// parseAmounts recovers a funding range from dollar figures in the text. A
// single figure becomes a fixed amount; multiple figures span from the lowest
// to the highest
func parseAmounts(text string) (min, max float64) {
	matches := amountRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, 0
	}

	for _, match := range matches {
		value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if min == 0 || value < min {
			min = value
		}
		if value > max {
			max = value
		}
	}

	return min, max
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(value string) string {
	value = strings.ToLower(value)
	value = strings.TrimPrefix(value, "https://")
	value = strings.TrimPrefix(value, "http://")
	return strings.Trim(slugRe.ReplaceAllString(value, "-"), "-")
}

func lowerAll(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		lowered = append(lowered, strings.ToLower(v))
	}
	return lowered
}
