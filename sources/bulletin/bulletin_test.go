package bulletin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscout/grantscout/discovery"
	"github.com/grantscout/grantscout/grant"
	"github.com/grantscout/grantscout/orchestrator"
)

type fakeFetcher struct {
	body []byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, name string, opts *orchestrator.FetchOptions) (*orchestrator.Payload, error) {
	return &orchestrator.Payload{Body: f.body, Quality: 100, Source: orchestrator.SourcePrimary}, nil
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Funding Bulletin</title>
		<item>
			<title>Regional Film Fund now open</title>
			<link>https://example.com/grants/regional-film-fund</link>
			<guid>https://example.com/grants/regional-film-fund</guid>
			<description>Grants of $10,000 to $75,000 for regional filmmakers. Applications close 30 June 2026.</description>
			<category>Film</category>
			<category>Regional</category>
			<pubDate>Mon, 02 Mar 2026 09:00:00 GMT</pubDate>
		</item>
		<item>
			<title>Arts bulletin roundup</title>
			<link>https://example.com/bulletin/roundup</link>
			<pubDate>Mon, 02 Mar 2026 09:00:00 GMT</pubDate>
		</item>
	</channel>
</rss>`

func TestListParsesFeed(t *testing.T) {
	adapter := New(&fakeFetcher{body: []byte(sampleFeed)})

	natives, err := adapter.List(context.Background(), discovery.Filter{})

	require.NoError(t, err)
	require.Len(t, natives, 2)

	id, err := natives[0].NativeID()
	require.NoError(t, err)
	assert.Equal(t, "example-com-grants-regional-film-fund", id)
}

func TestListBadFeed(t *testing.T) {
	adapter := New(&fakeFetcher{body: []byte("{json, not xml}")})

	_, err := adapter.List(context.Background(), discovery.Filter{})
	assert.Error(t, err)
}

func TestUnifyRecoversStructure(t *testing.T) {
	adapter := New(&fakeFetcher{body: []byte(sampleFeed)})

	natives, err := adapter.List(context.Background(), discovery.Filter{})
	require.NoError(t, err)

	g, err := natives[0].Unify()
	require.NoError(t, err)

	assert.Equal(t, "Regional Film Fund now open", g.Title)
	assert.Equal(t, grant.Amount{Min: 10000, Max: 75000, Currency: "AUD"}, g.Amount)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), g.Deadline)
	assert.Equal(t, []string{"Film", "Regional"}, g.Industries)
	assert.Equal(t, []string{"film", "regional"}, g.Tags)
	assert.Equal(t, []string{"National"}, g.Locations)
	assert.Equal(t, "https://example.com/grants/regional-film-fund", g.ApplicationURL)
}

func TestUnifyDefaultsDeadline(t *testing.T) {
	adapter := New(&fakeFetcher{body: []byte(sampleFeed)})

	natives, err := adapter.List(context.Background(), discovery.Filter{})
	require.NoError(t, err)

	g, err := natives[1].Unify()
	require.NoError(t, err)

	published := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	assert.True(t, g.Deadline.Equal(published.AddDate(0, 0, 60)), "items without a closing date default to published+60d")
	assert.Equal(t, grant.Amount{Min: 0, Max: 0, Currency: "AUD"}, g.Amount)
}

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  time.Time
		found bool
	}{
		{
			"closes phrasing",
			"Applications close 2 January 2026 at 5pm",
			time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"closing phrasing",
			"Closing date: 15 August 2026",
			time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"no date",
			"Applications are now open",
			time.Time{},
			false,
		},
		{
			"unparseable month",
			"Closes 32 Nothember 2026",
			time.Time{},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := parseDeadline(tt.text)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseAmounts(t *testing.T) {
	min, max := parseAmounts("Grants of $10,000 to $75,000 available")
	assert.Equal(t, 10000.0, min)
	assert.Equal(t, 75000.0, max)

	min, max = parseAmounts("Up to $50,000 per project")
	assert.Equal(t, 50000.0, min)
	assert.Equal(t, 50000.0, max)

	min, max = parseAmounts("no figures here")
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 0.0, max)
}

func TestDefaultEndpoint(t *testing.T) {
	cfg := DefaultEndpoint()

	assert.Equal(t, EndpointName, cfg.Name)
	assert.Equal(t, orchestrator.TierNone, cfg.FallbackTier)
}
