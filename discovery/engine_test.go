package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscout/grantscout/grant"
)

var engineNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, adapters ...Adapter) *Engine {
	t.Helper()

	e, err := NewEngine(&EngineConfig{Clock: fixedClock(engineNow)})
	require.NoError(t, err)
	require.NoError(t, e.AddAdapters(adapters...))
	return e
}

func TestNewEngineRequiresConfig(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}

func TestAddAdaptersRejectsDuplicates(t *testing.T) {
	e, err := NewEngine(&EngineConfig{})
	require.NoError(t, err)

	require.NoError(t, e.AddAdapters(&testAdapter{name: "one", prefix: "a"}))

	assert.Error(t, e.AddAdapters(&testAdapter{name: "one", prefix: "b"}), "duplicate names must be rejected")
	assert.Error(t, e.AddAdapters(&testAdapter{name: "two", prefix: "a"}), "duplicate prefixes must be rejected")
}

func TestDiscoverNoAdapters(t *testing.T) {
	e, err := NewEngine(&EngineConfig{})
	require.NoError(t, err)

	_, err = e.Discover(context.Background(), grant.Criteria{})

	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
}

func TestDiscoverRanksAndPrefixes(t *testing.T) {
	good := filmGrant(engineNow)
	weak := grant.Grant{
		Title:      "Community Music Grant",
		Amount:     grant.Amount{Min: 1000, Max: 5000},
		Deadline:   engineNow.AddDate(0, 0, 45),
		Locations:  []string{"National"},
		Industries: []string{"Music"},
	}

	e := newTestEngine(t, &testAdapter{
		name:   "Test Source",
		prefix: "ts",
		natives: []Native{
			testNative{id: "weak-1", grant: weak},
			testNative{id: "good-1", grant: good},
		},
	})

	result, err := e.Discover(context.Background(), filmCriteria(engineNow))

	require.NoError(t, err)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "ts-good-1", result.Matches[0].Grant.ID)
	assert.Equal(t, "Test Source", result.Matches[0].Grant.Source)
	assert.Equal(t, "Test Source", result.Matches[0].Source)
	assert.GreaterOrEqual(t, result.Matches[0].Score, result.Matches[1].Score)
	assert.Equal(t, 2, result.TotalFound)
	assert.Equal(t, []string{"Test Source"}, result.Sources)
}

func TestDiscoverDiscardsZeroScores(t *testing.T) {
	disjoint := grant.Grant{
		Title:      "Soil Health Research Grant",
		Amount:     grant.Amount{Min: 1000000, Max: 2000000},
		Deadline:   engineNow.AddDate(0, 0, -10),
		Locations:  []string{"WA"},
		Industries: []string{"Agriculture"},
	}

	e := newTestEngine(t, &testAdapter{
		name:   "Test Source",
		prefix: "ts",
		natives: []Native{
			testNative{id: "good-1", grant: filmGrant(engineNow)},
			testNative{id: "bad-1", grant: disjoint},
		},
	})

	result, err := e.Discover(context.Background(), filmCriteria(engineNow))

	require.NoError(t, err)
	assert.Len(t, result.Matches, 1)
	assert.Equal(t, 2, result.TotalFound, "TotalFound counts grants before the score-zero discard")
}

func TestDiscoverSurvivesAdapterFailure(t *testing.T) {
	e := newTestEngine(t,
		&testAdapter{name: "Broken", prefix: "br", listErr: errors.New("boom")},
		&testAdapter{name: "Working", prefix: "wk", natives: []Native{
			testNative{id: "1", grant: filmGrant(engineNow)},
		}},
	)

	result, err := e.Discover(context.Background(), filmCriteria(engineNow))

	require.NoError(t, err, "one failing source must not abort the others")
	assert.Len(t, result.Matches, 1)
	assert.Equal(t, []string{"Working"}, result.Sources, "failed sources must not be listed as contributors")
}

func TestDiscoverSurvivesAdapterPanic(t *testing.T) {
	e := newTestEngine(t,
		&testAdapter{name: "Panicky", prefix: "pn", panics: true},
		&testAdapter{name: "Working", prefix: "wk", natives: []Native{
			testNative{id: "1", grant: filmGrant(engineNow)},
		}},
	)

	result, err := e.Discover(context.Background(), filmCriteria(engineNow))

	require.NoError(t, err)
	assert.Len(t, result.Matches, 1)
}

func TestDiscoverSkipsMalformedRecords(t *testing.T) {
	e := newTestEngine(t, &testAdapter{
		name:   "Test Source",
		prefix: "ts",
		natives: []Native{
			testNative{idErr: errors.New("no id")},
			testNative{id: "bad", unifyErr: errors.New("mangled")},
			testNative{id: "good", grant: filmGrant(engineNow)},
		},
	})

	result, err := e.Discover(context.Background(), filmCriteria(engineNow))

	require.NoError(t, err)
	assert.Len(t, result.Matches, 1, "a malformed record must not sink its batch")
	assert.Equal(t, 1, result.TotalFound)
}

func TestDiscoverIsDeterministic(t *testing.T) {
	adapters := []Adapter{
		&testAdapter{name: "A", prefix: "a", natives: []Native{
			testNative{id: "1", grant: filmGrant(engineNow)},
		}},
		&testAdapter{name: "B", prefix: "b", natives: []Native{
			testNative{id: "1", grant: filmGrant(engineNow)},
		}},
	}
	e := newTestEngine(t, adapters...)

	first, err := e.Discover(context.Background(), filmCriteria(engineNow))
	require.NoError(t, err)
	second, err := e.Discover(context.Background(), filmCriteria(engineNow))
	require.NoError(t, err)

	require.Equal(t, len(first.Matches), len(second.Matches))
	for i := range first.Matches {
		assert.Equal(t, first.Matches[i].Grant.ID, second.Matches[i].Grant.ID)
		assert.Equal(t, first.Matches[i].Score, second.Matches[i].Score)
	}

	// Equal scores keep the adapter fan-out order
	assert.Equal(t, "a-1", first.Matches[0].Grant.ID)
	assert.Equal(t, "b-1", first.Matches[1].Grant.ID)
}

func TestDiscoverEchoesCriteria(t *testing.T) {
	e := newTestEngine(t, &testAdapter{name: "A", prefix: "a"})
	criteria := filmCriteria(engineNow)

	result, err := e.Discover(context.Background(), criteria)

	require.NoError(t, err)
	assert.Equal(t, criteria, result.Criteria)
	assert.Empty(t, result.Sources)
}

func TestGrantByID(t *testing.T) {
	e := newTestEngine(t, &testAdapter{
		name:   "Test Source",
		prefix: "ts",
		natives: []Native{
			testNative{id: "42", grant: filmGrant(engineNow)},
		},
	})

	g, err := e.GrantByID(context.Background(), "ts-42")

	require.NoError(t, err)
	assert.Equal(t, "ts-42", g.ID)
	assert.Equal(t, "Test Source", g.Source)
	assert.Equal(t, "Feature Film Production Fund", g.Title)
}

func TestGrantByIDNotFound(t *testing.T) {
	e := newTestEngine(t, &testAdapter{name: "Test Source", prefix: "ts"})

	var notFound *NotFoundError

	_, err := e.GrantByID(context.Background(), "ts-missing")
	assert.ErrorAs(t, err, &notFound)

	_, err = e.GrantByID(context.Background(), "zz-42")
	assert.ErrorAs(t, err, &notFound, "an unknown prefix must not resolve")

	_, err = e.GrantByID(context.Background(), "malformed")
	assert.ErrorAs(t, err, &notFound)
}

func TestVocabularyMerge(t *testing.T) {
	e := newTestEngine(t,
		&testAdapter{
			name: "A", prefix: "a",
			industries: []string{"Film", "Music"},
		},
		&testAdapter{
			name: "B", prefix: "b",
			industries: []string{"Music", "Arts"},
		},
	)

	industries := e.Industries(context.Background())

	assert.Equal(t, []string{"Arts", "Film", "Music"}, industries, "vocabularies merge as a sorted distinct set")
}

func TestVocabularyHonorsParallelBound(t *testing.T) {
	gauge := &concurrencyGauge{}

	e, err := NewEngine(&EngineConfig{MaxParallelQueries: 1, Clock: fixedClock(engineNow)})
	require.NoError(t, err)
	require.NoError(t, e.AddAdapters(
		&testAdapter{name: "A", prefix: "a", industries: []string{"Film"}, vocabGauge: gauge, vocabDelay: 5 * time.Millisecond},
		&testAdapter{name: "B", prefix: "b", industries: []string{"Music"}, vocabGauge: gauge, vocabDelay: 5 * time.Millisecond},
		&testAdapter{name: "C", prefix: "c", industries: []string{"Arts"}, vocabGauge: gauge, vocabDelay: 5 * time.Millisecond},
	))

	industries := e.Industries(context.Background())

	assert.Equal(t, []string{"Arts", "Film", "Music"}, industries)
	assert.LessOrEqual(t, gauge.max.Load(), int32(1), "vocabulary fan-out must respect MaxParallelQueries")
}

func TestVocabularyToleratesFailures(t *testing.T) {
	e := newTestEngine(t,
		&testAdapter{name: "A", prefix: "a", categories: []string{"Documentary"}},
		&testAdapter{name: "B", prefix: "b"},
	)

	categories := e.Categories(context.Background())

	assert.Equal(t, []string{"Documentary"}, categories)
}

func TestSplitID(t *testing.T) {
	prefix, nativeID, ok := SplitID("sa-doc-prod-2026")
	assert.True(t, ok)
	assert.Equal(t, "sa", prefix)
	assert.Equal(t, "doc-prod-2026", nativeID)

	_, _, ok = SplitID("noprefix")
	assert.False(t, ok)

	_, _, ok = SplitID("-leading")
	assert.False(t, ok)
}
