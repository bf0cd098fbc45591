package builtin

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscout/grantscout/discovery"
	"github.com/grantscout/grantscout/grant"
)

func TestListServesEveryGrant(t *testing.T) {
	adapter := New()

	natives, err := adapter.List(context.Background(), discovery.Filter{})

	require.NoError(t, err)
	require.NotEmpty(t, natives, "the curated dataset must never be empty")

	for _, native := range natives {
		id, err := native.NativeID()
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		g, err := native.Unify()
		require.NoError(t, err)
		assert.NotEmpty(t, g.Title)
		assert.NotEmpty(t, g.Description)
		assert.Greater(t, g.Amount.Max, 0.0)
		assert.True(t, g.Deadline.After(time.Now()), "curated deadlines must stay in the future")
		assert.Equal(t, grant.StatusOpen, g.Status)
	}
}

func TestGet(t *testing.T) {
	adapter := New()

	native, err := adapter.Get(context.Background(), "regional-arts-fund")
	require.NoError(t, err)

	g, err := native.Unify()
	require.NoError(t, err)
	assert.Equal(t, "Regional Arts Fund Project Grants", g.Title)
}

func TestGetNotFound(t *testing.T) {
	adapter := New()

	_, err := adapter.Get(context.Background(), "missing")

	var notFound *discovery.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDataset(t *testing.T) {
	body := Dataset()

	var envelope struct {
		Grants     []grant.Grant `json:"grants"`
		TotalCount int           `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))

	require.NotEmpty(t, envelope.Grants)
	assert.Equal(t, len(envelope.Grants), envelope.TotalCount)

	for _, g := range envelope.Grants {
		assert.Regexp(t, "^fb-", g.ID, "dataset grants must carry the source prefix")
		assert.Equal(t, "Curated Dataset", g.Source)
	}
}

func TestVocabularies(t *testing.T) {
	adapter := New()
	ctx := context.Background()

	industries, err := adapter.Industries(ctx)
	require.NoError(t, err)
	assert.Contains(t, industries, "Film")

	locations, err := adapter.Locations(ctx)
	require.NoError(t, err)
	assert.Contains(t, locations, "National")
	assert.Contains(t, locations, "Regional")

	categories, err := adapter.Categories(ctx)
	require.NoError(t, err)
	assert.Contains(t, categories, "Documentary")
}
