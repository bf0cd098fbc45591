package orchestrator

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/grantscout/grantscout/tracing"
)

const (
	DefaultTimeout         = 10 * time.Second
	DefaultMaxRetries      = 3
	DefaultProbeInterval   = 30 * time.Second
	DefaultHealthThreshold = 5 * time.Second
	DefaultBackoffBase     = 250 * time.Millisecond
	DefaultBackoffCap      = 10 * time.Second
	DefaultCacheTTL        = 2 * time.Hour
)

// Doer is the subset of http.Client used by the orchestrator. Tests inject
// scripted implementations
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures an Orchestrator. Zero values are replaced with the
// package defaults
type Options struct {
	// ProbeInterval is how often the probe loop checks every health-checked
	// endpoint
	ProbeInterval time.Duration

	// HealthThreshold is the latency above which a successful response is
	// classified as degraded rather than healthy
	HealthThreshold time.Duration

	// DefaultTimeout and DefaultMaxRetries apply to endpoints registered
	// without their own values
	DefaultTimeout    time.Duration
	DefaultMaxRetries int

	// EnableFallbacks can be set to false to make every Fetch propagate its
	// primary error instead of walking the fallback chain. Defaults to true
	EnableFallbacks *bool

	// BackoffBase is the first retry delay; each subsequent retry doubles it,
	// capped at BackoffCap
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// CacheTTL is how long successful payloads stay valid in the fallback
	// cache
	CacheTTL time.Duration

	// Client is the HTTP client used for all requests. Defaults to an
	// http.Client with no global timeout (timeouts are applied per-request
	// from each endpoint's config)
	Client Doer

	// AuthToken supplies the bearer token attached to endpoints that have
	// RequiresAuth set. May be nil when no registered endpoint requires auth
	AuthToken func() string
}

// Orchestrator wraps every outbound data source with timeout, retry, health
// tracking and tiered fallback. It is an explicitly constructed service: the
// composition root owns the instance and passes it to whatever needs it.
// All methods are safe to call concurrently
type Orchestrator struct {
	opts Options

	mu         sync.RWMutex
	endpoints  map[string]EndpointConfig
	health     map[string]HealthRecord
	alternates map[string][]AlternateSource
	builtins   map[string]BuiltinProvider

	cache *fallbackCache

	probeMu     sync.Mutex
	probeCancel context.CancelFunc
}

// New creates an Orchestrator with the given options, filling in defaults for
// anything left at its zero value
func New(opts Options) *Orchestrator {
	if opts.ProbeInterval == 0 {
		opts.ProbeInterval = DefaultProbeInterval
	}
	if opts.HealthThreshold == 0 {
		opts.HealthThreshold = DefaultHealthThreshold
	}
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.DefaultMaxRetries == 0 {
		opts.DefaultMaxRetries = DefaultMaxRetries
	}
	if opts.EnableFallbacks == nil {
		enabled := true
		opts.EnableFallbacks = &enabled
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.BackoffCap == 0 {
		opts.BackoffCap = DefaultBackoffCap
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}

	return &Orchestrator{
		opts:       opts,
		endpoints:  make(map[string]EndpointConfig),
		health:     make(map[string]HealthRecord),
		alternates: make(map[string][]AlternateSource),
		builtins:   make(map[string]BuiltinProvider),
		cache:      newFallbackCache(),
	}
}

// Register adds an endpoint, or replaces its config if the name is already
// known. Missing timeout, retry and method values inherit the orchestrator
// defaults
func (o *Orchestrator) Register(cfg EndpointConfig) {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = o.opts.DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = o.opts.DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	o.mu.Lock()
	_, existing := o.endpoints[cfg.Name]
	o.endpoints[cfg.Name] = cfg
	if !existing {
		o.health[cfg.Name] = HealthRecord{
			Endpoint: cfg.Name,
			Status:   StatusUnknown,
		}
	}
	o.mu.Unlock()

	log.WithFields(log.Fields{
		"endpoint":     cfg.Name,
		"url":          cfg.URL,
		"fallbackTier": cfg.FallbackTier.String(),
		"updated":      existing,
	}).Info("Registered endpoint")
}

// RegisterAlternates sets the ordered list of alternate providers used by the
// alternate-source fallback tier for an endpoint
func (o *Orchestrator) RegisterAlternates(endpoint string, alts ...AlternateSource) {
	o.mu.Lock()
	o.alternates[endpoint] = alts
	o.mu.Unlock()
}

// RegisterBuiltin sets the static dataset provider used by the built-in
// fallback tier for an endpoint
func (o *Orchestrator) RegisterBuiltin(endpoint string, provider BuiltinProvider) {
	o.mu.Lock()
	o.builtins[endpoint] = provider
	o.mu.Unlock()
}

// Endpoints returns a snapshot of all registered endpoint configs
func (o *Orchestrator) Endpoints() []EndpointConfig {
	o.mu.RLock()
	defer o.mu.RUnlock()

	configs := make([]EndpointConfig, 0, len(o.endpoints))
	for _, cfg := range o.endpoints {
		configs = append(configs, cfg)
	}

	return configs
}

func (o *Orchestrator) endpoint(name string) (EndpointConfig, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	cfg, ok := o.endpoints[name]
	return cfg, ok
}

// FetchOptions tune a single Fetch call
type FetchOptions struct {
	// DisableFallback propagates the primary error instead of walking the
	// endpoint's fallback chain
	DisableFallback bool

	// Params are appended to the endpoint URL's query string
	Params url.Values
}

// Fetch performs the primary request for an endpoint, retrying transport
// failures with capped exponential backoff, and walks the endpoint's fallback
// tier if the primary ultimately fails. Successful payloads are cached for
// the fallback path.
//
// Well-formed HTTP error responses are not retried: the provider answered,
// so the same request will keep failing, and fallback is triggered
// immediately instead
func (o *Orchestrator) Fetch(ctx context.Context, name string, opts *FetchOptions) (*Payload, error) {
	if opts == nil {
		opts = &FetchOptions{}
	}

	cfg, ok := o.endpoint(name)
	if !ok {
		return nil, &NotRegisteredError{Endpoint: name}
	}

	ctx, span := tracing.Tracer().Start(ctx, "orchestrator.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("grantscout.endpoint.name", name),
		attribute.String("grantscout.endpoint.fallbackTier", cfg.FallbackTier.String()),
	)

	payload, primaryErr := o.fetchPrimary(ctx, cfg, opts.Params)
	if primaryErr == nil {
		o.cache.Set(name, payload.Body, payload.Quality, o.opts.CacheTTL)
		span.SetAttributes(attribute.String("grantscout.payload.source", string(SourcePrimary)))
		return payload, nil
	}

	log.WithContext(ctx).WithFields(log.Fields{
		"endpoint": name,
	}).WithError(primaryErr).Warn("Primary endpoint failed, using fallback")

	if opts.DisableFallback || !*o.opts.EnableFallbacks {
		return nil, primaryErr
	}

	payload, err := o.fallback(ctx, cfg, primaryErr)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("grantscout.payload.source", string(payload.Source)),
		attribute.Int("grantscout.payload.quality", payload.Quality),
	)

	return payload, nil
}

// fetchPrimary runs the retry loop against the endpoint's own URL. Each
// attempt is bounded by the endpoint timeout. Only transport errors are
// retried; a non-2xx response returns a ProviderError straight away
func (o *Orchestrator) fetchPrimary(ctx context.Context, cfg EndpointConfig, params url.Values) (*Payload, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := o.backoff(ctx, attempt); err != nil {
				break
			}
		}

		attempts++
		start := time.Now()
		body, status, err := o.doRequest(ctx, cfg, cfg.URL, params)
		elapsed := time.Since(start)

		if err != nil {
			// Transport-level failure: record it and try again
			lastErr = err
			continue
		}

		if status < 200 || status > 299 {
			provErr := &ProviderError{
				Endpoint:   cfg.Name,
				StatusCode: status,
				Status:     http.StatusText(status),
			}
			o.recordHealth(cfg.Name, StatusUnhealthy, elapsed, provErr)
			return nil, provErr
		}

		healthStatus := StatusHealthy
		if elapsed > o.opts.HealthThreshold {
			healthStatus = StatusDegraded
		}
		o.recordHealth(cfg.Name, healthStatus, elapsed, nil)

		return &Payload{
			Body:       body,
			Quality:    100,
			Source:     SourcePrimary,
			CapturedAt: time.Now(),
		}, nil
	}

	transportErr := &TransportError{
		Endpoint: cfg.Name,
		Attempts: attempts,
		Err:      lastErr,
	}
	o.recordHealth(cfg.Name, StatusUnhealthy, 0, transportErr)

	return nil, transportErr
}

// fallback dispatches on the endpoint's fallback tier. Tiers are tried in
// strict order: the alternate-source tier falls through to built-in data when
// every alternate fails
func (o *Orchestrator) fallback(ctx context.Context, cfg EndpointConfig, primaryErr error) (*Payload, error) {
	switch cfg.FallbackTier {
	case TierCache:
		if entry, ok := o.cache.Get(cfg.Name); ok {
			log.WithContext(ctx).WithFields(log.Fields{
				"endpoint": cfg.Name,
				"quality":  entry.Quality,
				"captured": entry.CapturedAt,
			}).Info("Serving cached fallback data")

			return &Payload{
				Body:       entry.Payload,
				Quality:    entry.Quality,
				Source:     SourceCache,
				CapturedAt: entry.CapturedAt,
			}, nil
		}

		return nil, &NoFallbackError{
			Endpoint: cfg.Name,
			Tier:     TierCache,
			Reason:   "no valid cache",
			Err:      primaryErr,
		}

	case TierAlternateSource:
		if payload, ok := o.fetchAlternates(ctx, cfg); ok {
			return payload, nil
		}

		// All alternates failed, fall through to built-in data
		return o.builtinPayload(ctx, cfg, primaryErr)

	case TierBuiltIn:
		return o.builtinPayload(ctx, cfg, primaryErr)

	case TierNone:
		return nil, primaryErr

	default:
		return nil, primaryErr
	}
}

// fetchAlternates walks the endpoint's alternate providers in order and
// returns the first successful, transformed payload. Alternate payloads are
// cached at their reduced quality so the cache tier stays useful afterwards
func (o *Orchestrator) fetchAlternates(ctx context.Context, cfg EndpointConfig) (*Payload, bool) {
	o.mu.RLock()
	alts := o.alternates[cfg.Name]
	o.mu.RUnlock()

	for _, alt := range alts {
		body, status, err := o.doRequest(ctx, cfg, alt.URL, nil)
		if err != nil || status < 200 || status > 299 {
			log.WithContext(ctx).WithFields(log.Fields{
				"endpoint":  cfg.Name,
				"alternate": alt.Name,
				"status":    status,
			}).WithError(err).Warn("Alternate source failed")
			continue
		}

		if alt.Transform != nil {
			body, err = alt.Transform(body)
			if err != nil {
				log.WithContext(ctx).WithFields(log.Fields{
					"endpoint":  cfg.Name,
					"alternate": alt.Name,
				}).WithError(err).Warn("Alternate source payload could not be transformed")
				continue
			}
		}

		quality := alt.Quality
		if quality == 0 {
			quality = 85
		}

		o.cache.Set(cfg.Name, body, quality, o.opts.CacheTTL)

		return &Payload{
			Body:       body,
			Quality:    quality,
			Source:     SourceAlternate,
			CapturedAt: time.Now(),
		}, true
	}

	return nil, false
}

func (o *Orchestrator) builtinPayload(ctx context.Context, cfg EndpointConfig, primaryErr error) (*Payload, error) {
	o.mu.RLock()
	provider := o.builtins[cfg.Name]
	o.mu.RUnlock()

	if provider == nil {
		return nil, &NoFallbackError{
			Endpoint: cfg.Name,
			Tier:     cfg.FallbackTier,
			Reason:   "no built-in dataset registered",
			Err:      primaryErr,
		}
	}

	body := provider()
	if len(body) == 0 {
		return nil, &NoFallbackError{
			Endpoint: cfg.Name,
			Tier:     cfg.FallbackTier,
			Reason:   "built-in dataset is empty",
			Err:      primaryErr,
		}
	}

	log.WithContext(ctx).WithFields(log.Fields{
		"endpoint": cfg.Name,
	}).Info("Serving built-in fallback data")

	return &Payload{
		Body:       body,
		Quality:    70,
		Source:     SourceBuiltIn,
		CapturedAt: time.Now(),
	}, nil
}

// doRequest performs a single attempt against a URL, bounded by the endpoint
// timeout. It returns the body and status on any well-formed HTTP exchange,
// and an error only for transport-level failures
func (o *Orchestrator) doRequest(ctx context.Context, cfg EndpointConfig, rawURL string, params url.Values) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	target := rawURL
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, 0, err
		}
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(reqCtx, cfg.Method, target, nil)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "grantscout/"+tracing.Version())

	if cfg.RequiresAuth && o.opts.AuthToken != nil {
		if token := o.opts.AuthToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := o.opts.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return body, resp.StatusCode, nil
}

// backoff sleeps for the capped exponential retry delay, or returns early if
// the context is cancelled
func (o *Orchestrator) backoff(ctx context.Context, attempt int) error {
	delay := o.opts.BackoffBase << (attempt - 1)
	if delay > o.opts.BackoffCap {
		delay = o.opts.BackoffCap
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PurgeCache evicts expired fallback cache entries. Reads evict lazily, so
// this is only needed to reclaim memory for endpoints that stopped being read
func (o *Orchestrator) PurgeCache() PurgeStats {
	return o.cache.Purge(time.Now())
}

func (o *Orchestrator) recordHealth(name string, status HealthStatus, elapsed time.Duration, err error) {
	record := HealthRecord{
		Endpoint:     name,
		Status:       status,
		ResponseTime: elapsed,
		LastCheck:    time.Now(),
		DataQuality:  o.dataQuality(status, elapsed),
	}
	if err != nil {
		record.Error = err.Error()
	}

	o.mu.Lock()
	o.health[name] = record
	o.mu.Unlock()
}

// dataQuality derives a 0-100 confidence score from a health classification
// and the measured latency
func (o *Orchestrator) dataQuality(status HealthStatus, elapsed time.Duration) int {
	ms := float64(elapsed.Milliseconds())
	thresholdMs := float64(o.opts.HealthThreshold.Milliseconds())

	switch status {
	case StatusHealthy:
		if elapsed <= time.Second {
			return 100
		}
		return int(max(80, 100-(ms-1000)/100))
	case StatusDegraded:
		return int(max(60, 80-(ms-thresholdMs)/1000))
	default:
		return 0
	}
}

// HealthSnapshot returns a copy of the last-known health record for every
// endpoint, keyed by endpoint name
func (o *Orchestrator) HealthSnapshot() map[string]HealthRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snapshot := make(map[string]HealthRecord, len(o.health))
	for name, record := range o.health {
		snapshot[name] = record
	}

	return snapshot
}

// HealthSummary aggregates the current health records into per-status counts
// and a mean latency
func (o *Orchestrator) HealthSummary() HealthSummary {
	o.mu.RLock()
	defer o.mu.RUnlock()

	summary := HealthSummary{}
	var totalLatency time.Duration
	measured := 0

	for _, record := range o.health {
		summary.Total++
		switch record.Status {
		case StatusHealthy:
			summary.Healthy++
		case StatusDegraded:
			summary.Degraded++
		case StatusUnhealthy:
			summary.Unhealthy++
		default:
			summary.Unknown++
		}

		if record.ResponseTime > 0 {
			totalLatency += record.ResponseTime
			measured++
		}
	}

	if measured > 0 {
		summary.MeanLatency = totalLatency / time.Duration(measured)
	}

	return summary
}
