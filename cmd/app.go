package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/grantscout/grantscout/discovery"
	"github.com/grantscout/grantscout/orchestrator"
	"github.com/grantscout/grantscout/sources/builtin"
	"github.com/grantscout/grantscout/sources/bulletin"
	"github.com/grantscout/grantscout/sources/creativeaustralia"
	"github.com/grantscout/grantscout/sources/screenaustralia"
)

// app is the composition root. Everything is constructed explicitly here and
// handed down; no package keeps global state
type app struct {
	orchestrator *orchestrator.Orchestrator
	engine       *discovery.Engine
}

func newApp() (*app, error) {
	orc := orchestrator.New(orchestrator.Options{
		DefaultTimeout:  viper.GetDuration("timeout"),
		ProbeInterval:   viper.GetDuration("probe-interval"),
		HealthThreshold: viper.GetDuration("health-threshold"),
		CacheTTL:        viper.GetDuration("cache-ttl"),
	})

	for _, cfg := range []orchestrator.EndpointConfig{
		screenaustralia.DefaultEndpoint(),
		creativeaustralia.DefaultEndpoint(),
		bulletin.DefaultEndpoint(),
	} {
		// Allow per-endpoint URL overrides from the config file
		if override := viper.GetString("endpoints." + cfg.Name + ".url"); override != "" {
			cfg.URL = override
		}
		orc.Register(cfg)
	}

	orc.RegisterAlternates(creativeaustralia.EndpointName, creativeaustralia.DefaultAlternates()...)
	orc.RegisterBuiltin(creativeaustralia.EndpointName, creativeaustralia.FallbackData)

	engine, err := discovery.NewEngine(&discovery.EngineConfig{
		MaxParallelQueries: viper.GetInt("max-parallel"),
	})
	if err != nil {
		return nil, err
	}

	err = engine.AddAdapters(
		screenaustralia.New(orc),
		creativeaustralia.New(orc),
		bulletin.New(orc),
		builtin.New(),
	)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"numAdapters":  len(engine.Adapters()),
		"numEndpoints": len(orc.Endpoints()),
	}).Debug("Constructed application")

	return &app{
		orchestrator: orc,
		engine:       engine,
	}, nil
}

func init() {
	rootCmd.PersistentFlags().Duration("timeout", orchestrator.DefaultTimeout, "Default per-request timeout for source endpoints")
	rootCmd.PersistentFlags().Duration("probe-interval", orchestrator.DefaultProbeInterval, "How often the health probe loop runs")
	rootCmd.PersistentFlags().Duration("health-threshold", orchestrator.DefaultHealthThreshold, "Latency above which a responding endpoint counts as degraded")
	rootCmd.PersistentFlags().Duration("cache-ttl", orchestrator.DefaultCacheTTL, "How long fallback cache entries stay valid")
	rootCmd.PersistentFlags().Int("max-parallel", 0, "Bound the source fan-out; 0 means one goroutine per source")
}
