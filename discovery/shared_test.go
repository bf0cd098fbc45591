package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/grantscout/grantscout/grant"
)

// testNative wraps a grant, optionally failing at either conversion stage
type testNative struct {
	id       string
	grant    grant.Grant
	idErr    error
	unifyErr error
}

func (n testNative) NativeID() (string, error) {
	if n.idErr != nil {
		return "", n.idErr
	}
	return n.id, nil
}

func (n testNative) Unify() (grant.Grant, error) {
	if n.unifyErr != nil {
		return grant.Grant{}, n.unifyErr
	}
	return n.grant, nil
}

// testAdapter serves a fixed set of natives and counts its calls
type testAdapter struct {
	name    string
	prefix  string
	natives []Native

	listErr error
	panics  bool

	categories []string
	industries []string
	locations  []string

	// vocabGauge, when set, tracks concurrent vocabulary calls; vocabDelay
	// holds each call open long enough for overlap to be observable
	vocabGauge *concurrencyGauge
	vocabDelay time.Duration

	listCalls atomic.Int32
}

func (a *testAdapter) Name() string {
	return a.name
}

func (a *testAdapter) Prefix() string {
	return a.prefix
}

func (a *testAdapter) List(ctx context.Context, filter Filter) ([]Native, error) {
	a.listCalls.Add(1)
	if a.panics {
		panic("adapter exploded")
	}
	if a.listErr != nil {
		return nil, a.listErr
	}
	return a.natives, nil
}

func (a *testAdapter) Categories(ctx context.Context) ([]string, error) {
	if a.categories == nil {
		return nil, errors.New("no categories")
	}
	return a.categories, nil
}

func (a *testAdapter) Industries(ctx context.Context) ([]string, error) {
	if a.vocabGauge != nil {
		a.vocabGauge.enter()
		defer a.vocabGauge.exit()
	}
	if a.vocabDelay > 0 {
		time.Sleep(a.vocabDelay)
	}
	return a.industries, nil
}

func (a *testAdapter) Locations(ctx context.Context) ([]string, error) {
	return a.locations, nil
}

// concurrencyGauge records the high-water mark of concurrent calls
type concurrencyGauge struct {
	active atomic.Int32
	max    atomic.Int32
}

func (g *concurrencyGauge) enter() {
	n := g.active.Add(1)
	for {
		m := g.max.Load()
		if n <= m || g.max.CompareAndSwap(m, n) {
			return
		}
	}
}

func (g *concurrencyGauge) exit() {
	g.active.Add(-1)
}

// fixedClock returns a deterministic clock for scoring
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// filmGrant is a well-matched grant for criteria built by filmCriteria
func filmGrant(now time.Time) grant.Grant {
	return grant.Grant{
		Title:       "Feature Film Production Fund",
		Description: "Production funding for Australian feature film projects.",
		Amount:      grant.Amount{Min: 50000, Max: 200000, Currency: "AUD"},
		Deadline:    now.AddDate(0, 0, 45),
		Category:    "Feature Film",
		Locations:   []string{"NSW", "VIC"},
		Industries:  []string{"Film"},
		Status:      grant.StatusOpen,
		Tags:        []string{"feature film", "production"},
	}
}

func filmCriteria(now time.Time) grant.Criteria {
	return grant.Criteria{
		Industries: []string{"Film"},
		Locations:  []string{"NSW"},
		Amount:     grant.AmountRange{Min: 50000, Max: 150000},
		Deadline:   now.AddDate(0, 0, 60),
		Keywords:   []string{"feature film"},
	}
}
