package orchestrator

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// Probe performs a single health check against an endpoint and records the
// result. The health record is overwritten regardless of outcome, so the
// snapshot always reflects the most recent observation
func (o *Orchestrator) Probe(ctx context.Context, name string) HealthRecord {
	cfg, ok := o.endpoint(name)
	if !ok {
		return HealthRecord{
			Endpoint: name,
			Status:   StatusUnknown,
			Error:    (&NotRegisteredError{Endpoint: name}).Error(),
		}
	}

	start := time.Now()
	_, statusCode, err := o.doRequest(ctx, cfg, cfg.URL, nil)
	elapsed := time.Since(start)

	var status HealthStatus
	var probeErr error

	switch {
	case err != nil:
		status = StatusUnhealthy
		probeErr = err
	case statusCode < 200 || statusCode > 299:
		status = StatusUnhealthy
		probeErr = &ProviderError{
			Endpoint:   name,
			StatusCode: statusCode,
			Status:     http.StatusText(statusCode),
		}
	case elapsed > o.opts.HealthThreshold:
		status = StatusDegraded
	default:
		status = StatusHealthy
	}

	o.recordHealth(name, status, elapsed, probeErr)

	o.mu.RLock()
	record := o.health[name]
	o.mu.RUnlock()

	fields := log.Fields{
		"endpoint":     name,
		"status":       status,
		"responseTime": elapsed.String(),
		"dataQuality":  record.DataQuality,
	}

	switch status {
	case StatusHealthy:
		log.WithContext(ctx).WithFields(fields).Debug("Endpoint healthy")
	case StatusDegraded:
		log.WithContext(ctx).WithFields(fields).Warn("Endpoint degraded")
	default:
		log.WithContext(ctx).WithFields(fields).WithError(probeErr).Error("Endpoint unhealthy")
	}

	return record
}

// ProbeAll probes every endpoint registered with HealthCheck set, in parallel,
// then logs a summary report at the severity of the worst status observed
func (o *Orchestrator) ProbeAll(ctx context.Context) {
	o.mu.RLock()
	names := make([]string, 0, len(o.endpoints))
	for name, cfg := range o.endpoints {
		if cfg.HealthCheck {
			names = append(names, name)
		}
	}
	o.mu.RUnlock()

	if len(names) == 0 {
		return
	}

	p := pool.New().WithContext(ctx)
	for _, name := range names {
		p.Go(func(ctx context.Context) error {
			o.Probe(ctx, name)
			return nil
		})
	}
	// Probes never return errors, they record them
	_ = p.Wait()

	o.logHealthReport(ctx)
}

func (o *Orchestrator) logHealthReport(ctx context.Context) {
	summary := o.HealthSummary()

	fields := log.Fields{
		"healthy":     summary.Healthy,
		"degraded":    summary.Degraded,
		"unhealthy":   summary.Unhealthy,
		"total":       summary.Total,
		"meanLatency": summary.MeanLatency.String(),
	}

	switch {
	case summary.Unhealthy > 0:
		log.WithContext(ctx).WithFields(fields).Error("Endpoint health report")
	case summary.Degraded > 0:
		log.WithContext(ctx).WithFields(fields).Warn("Endpoint health report")
	default:
		log.WithContext(ctx).WithFields(fields).Info("Endpoint health report")
	}
}

// StartProbing launches the background probe loop. An immediate probe pass
// runs first so that health is known before the first interval elapses.
// Calling StartProbing while a loop is already running is a no-op
func (o *Orchestrator) StartProbing(ctx context.Context) {
	o.probeMu.Lock()
	defer o.probeMu.Unlock()

	if o.probeCancel != nil {
		log.WithContext(ctx).Warn("Probe loop already running, ignoring")
		return
	}

	probeCtx, cancel := context.WithCancel(ctx)
	o.probeCancel = cancel

	log.WithContext(ctx).WithFields(log.Fields{
		"interval": o.opts.ProbeInterval.String(),
	}).Info("Starting endpoint health probes")

	go func() {
		o.ProbeAll(probeCtx)

		ticker := time.NewTicker(o.opts.ProbeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-probeCtx.Done():
				return
			case <-ticker.C:
				o.ProbeAll(probeCtx)
			}
		}
	}()
}

// StopProbing stops the background probe loop. Safe to call when no loop is
// running
func (o *Orchestrator) StopProbing() {
	o.probeMu.Lock()
	defer o.probeMu.Unlock()

	if o.probeCancel != nil {
		o.probeCancel()
		o.probeCancel = nil
	}
}
