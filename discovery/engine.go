package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/grantscout/grantscout/grant"
	"github.com/grantscout/grantscout/tracing"
)

// EngineConfig holds the configuration for a discovery engine
type EngineConfig struct {
	// MaxParallelQueries bounds the source fan-out. Zero means one goroutine
	// per adapter
	MaxParallelQueries int

	// Clock supplies "now" for deadline scoring. Defaults to time.Now;
	// injectable so that scoring is reproducible in tests
	Clock func() time.Time
}

// Engine fans a search out over its registered adapters, normalizes whatever
// comes back, and ranks the results against the caller's criteria.
//
// An Engine is explicitly constructed and carries no global state; create one
// per composition root and share it freely, all methods are goroutine safe
type Engine struct {
	config *EngineConfig

	mu       sync.RWMutex
	adapters []Adapter
	byPrefix map[string]Adapter
}

// NewEngine creates a new engine with the given config
func NewEngine(config *EngineConfig) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Engine{
		config:   config,
		byPrefix: make(map[string]Adapter),
	}, nil
}

// AddAdapters registers adapters with the engine. Names and prefixes must be
// unique across all registered adapters
func (e *Engine) AddAdapters(adapters ...Adapter) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, adapter := range adapters {
		if _, exists := e.byPrefix[adapter.Prefix()]; exists {
			return fmt.Errorf("adapter prefix %q already registered", adapter.Prefix())
		}
		for _, existing := range e.adapters {
			if existing.Name() == adapter.Name() {
				return fmt.Errorf("adapter name %q already registered", adapter.Name())
			}
		}

		e.adapters = append(e.adapters, adapter)
		e.byPrefix[adapter.Prefix()] = adapter

		log.WithFields(log.Fields{
			"adapter": adapter.Name(),
			"prefix":  adapter.Prefix(),
		}).Info("Registered adapter")
	}

	return nil
}

// Adapters returns the registered adapters in registration order
func (e *Engine) Adapters() []Adapter {
	e.mu.RLock()
	defer e.mu.RUnlock()

	adapters := make([]Adapter, len(e.adapters))
	copy(adapters, e.adapters)
	return adapters
}

// Discover runs the search criteria against every registered adapter
// concurrently and returns the scored, ranked result envelope.
//
// One source failing never aborts the others: a failed or panicking adapter
// contributes nothing and the search carries on. Discover itself only fails
// when it cannot start at all, e.g. when no adapters are registered
func (e *Engine) Discover(ctx context.Context, criteria grant.Criteria) (*grant.Result, error) {
	adapters := e.Adapters()
	if len(adapters) == 0 {
		return nil, &EngineError{Op: "discover", Reason: "no adapters registered"}
	}

	searchID := uuid.New()
	start := e.config.Clock()

	ctx, span := tracing.Tracer().Start(ctx, "discovery.Discover")
	defer span.End()
	span.SetAttributes(
		attribute.String("grantscout.search.id", searchID.String()),
		attribute.Int("grantscout.search.numAdapters", len(adapters)),
	)

	log.WithContext(ctx).WithFields(log.Fields{
		"searchID":    searchID,
		"numAdapters": len(adapters),
	}).Debug("Starting discovery")

	filter := NewFilter(criteria)

	// Indexed by adapter position so the fan-out order survives the
	// concurrency
	contributions := make([][]grant.Grant, len(adapters))

	base := pool.New()
	if e.config.MaxParallelQueries > 0 {
		base = base.WithMaxGoroutines(e.config.MaxParallelQueries)
	}
	p := base.WithContext(ctx)

	for i, adapter := range adapters {
		p.Go(func(ctx context.Context) error {
			defer tracing.LogRecoverToReturn(ctx, "discovery.list "+adapter.Name())

			natives, err := adapter.List(ctx, filter)
			if err != nil {
				log.WithContext(ctx).WithFields(log.Fields{
					"searchID": searchID,
					"adapter":  adapter.Name(),
				}).WithError(err).Warn("Adapter failed, continuing without it")
				return nil
			}

			contributions[i] = e.unifyBatch(ctx, adapter, natives)
			return nil
		})
	}
	// Adapter errors are contained above, not returned
	_ = p.Wait()

	now := e.config.Clock()
	totalFound := 0
	sources := make([]string, 0, len(adapters))
	matches := make([]grant.Match, 0)

	for i, grants := range contributions {
		if len(grants) > 0 {
			sources = append(sources, adapters[i].Name())
		}
		totalFound += len(grants)

		for _, g := range grants {
			score, factors := matchScore(g, criteria, now)
			if score == 0 {
				continue
			}

			matches = append(matches, grant.Match{
				Grant:    g,
				Score:    score,
				Reasons:  matchReasons(g, factors),
				Priority: priorityFor(score),
				Source:   g.Source,
			})
		}
	}

	// Stable so that ties keep the source fan-out order
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	elapsed := e.config.Clock().Sub(start)

	span.SetAttributes(
		attribute.Int("grantscout.search.totalFound", totalFound),
		attribute.Int("grantscout.search.numMatches", len(matches)),
	)

	log.WithContext(ctx).WithFields(log.Fields{
		"searchID":   searchID,
		"totalFound": totalFound,
		"numMatches": len(matches),
		"sources":    sources,
		"searchTime": elapsed.String(),
	}).Info("Discovery complete")

	return &grant.Result{
		Matches:    matches,
		TotalFound: totalFound,
		Criteria:   criteria,
		SearchTime: elapsed,
		Sources:    sources,
	}, nil
}

// unifyBatch converts one adapter's native records, skipping malformed ones.
// A bad record never aborts the batch
func (e *Engine) unifyBatch(ctx context.Context, adapter Adapter, natives []Native) []grant.Grant {
	grants := make([]grant.Grant, 0, len(natives))

	for _, native := range natives {
		nativeID, err := native.NativeID()
		if err != nil {
			log.WithContext(ctx).WithFields(log.Fields{
				"adapter": adapter.Name(),
			}).WithError(&NormalizationError{
				Adapter: adapter.Name(),
				Err:     err,
			}).Warn("Skipping record with no usable ID")
			continue
		}

		g, err := native.Unify()
		if err != nil {
			log.WithContext(ctx).WithFields(log.Fields{
				"adapter": adapter.Name(),
			}).WithError(&NormalizationError{
				Adapter:  adapter.Name(),
				NativeID: nativeID,
				Err:      err,
			}).Warn("Skipping malformed record")
			continue
		}

		g.ID = adapter.Prefix() + "-" + nativeID
		g.Source = adapter.Name()
		grants = append(grants, g)
	}

	return grants
}

// GrantByID resolves a prefixed grant ID back to its source adapter and
// fetches the single record
func (e *Engine) GrantByID(ctx context.Context, id string) (*grant.Grant, error) {
	prefix, nativeID, ok := SplitID(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	e.mu.RLock()
	adapter, found := e.byPrefix[prefix]
	e.mu.RUnlock()

	if !found {
		return nil, &NotFoundError{ID: id}
	}

	native, err := e.lookup(ctx, adapter, nativeID)
	if err != nil {
		return nil, err
	}

	g, err := native.Unify()
	if err != nil {
		return nil, &NormalizationError{
			Adapter:  adapter.Name(),
			NativeID: nativeID,
			Err:      err,
		}
	}

	g.ID = adapter.Prefix() + "-" + nativeID
	g.Source = adapter.Name()

	return &g, nil
}

func (e *Engine) lookup(ctx context.Context, adapter Adapter, nativeID string) (Native, error) {
	if getter, ok := adapter.(GetterAdapter); ok {
		return getter.Get(ctx, nativeID)
	}

	// Fall back to listing everything and scanning for the ID
	natives, err := adapter.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	for _, native := range natives {
		id, err := native.NativeID()
		if err != nil {
			continue
		}
		if id == nativeID {
			return native, nil
		}
	}

	return nil, &NotFoundError{ID: adapter.Prefix() + "-" + nativeID}
}

// Categories merges the category vocabularies of every adapter that publishes
// one, as a sorted distinct set
func (e *Engine) Categories(ctx context.Context) []string {
	return e.vocabulary(ctx, func(ctx context.Context, v VocabularyAdapter) ([]string, error) {
		return v.Categories(ctx)
	})
}

// Industries merges the industry vocabularies of every adapter that publishes
// one, as a sorted distinct set
func (e *Engine) Industries(ctx context.Context) []string {
	return e.vocabulary(ctx, func(ctx context.Context, v VocabularyAdapter) ([]string, error) {
		return v.Industries(ctx)
	})
}

// Locations merges the location vocabularies of every adapter that publishes
// one, as a sorted distinct set
func (e *Engine) Locations(ctx context.Context) []string {
	return e.vocabulary(ctx, func(ctx context.Context, v VocabularyAdapter) ([]string, error) {
		return v.Locations(ctx)
	})
}

func (e *Engine) vocabulary(ctx context.Context, get func(context.Context, VocabularyAdapter) ([]string, error)) []string {
	adapters := e.Adapters()

	contributions := make([][]string, len(adapters))

	base := pool.New()
	if e.config.MaxParallelQueries > 0 {
		base = base.WithMaxGoroutines(e.config.MaxParallelQueries)
	}
	p := base.WithContext(ctx)

	for i, adapter := range adapters {
		vocab, ok := adapter.(VocabularyAdapter)
		if !ok {
			continue
		}

		p.Go(func(ctx context.Context) error {
			defer tracing.LogRecoverToReturn(ctx, "discovery.vocabulary "+adapter.Name())

			values, err := get(ctx, vocab)
			if err != nil {
				log.WithContext(ctx).WithFields(log.Fields{
					"adapter": adapter.Name(),
				}).WithError(err).Warn("Adapter vocabulary unavailable")
				return nil
			}

			contributions[i] = values
			return nil
		})
	}
	_ = p.Wait()

	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, values := range contributions {
		for _, value := range values {
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			merged = append(merged, value)
		}
	}

	sort.Strings(merged)
	return merged
}
