package cmd

import (
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grantscout/grantscout/tracing"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every source endpoint and print the health snapshot",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		initTracing()
		defer tracing.ShutdownTracer(cmd.Context())

		application, err := newApp()
		if err != nil {
			return err
		}

		orc := application.orchestrator
		orc.ProbeAll(cmd.Context())

		snapshot := orc.HealthSnapshot()
		names := make([]string, 0, len(snapshot))
		for name := range snapshot {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("%-22s %-10s %-12s %-8s %s\n", "ENDPOINT", "STATUS", "LATENCY", "QUALITY", "ERROR")
		for _, name := range names {
			record := snapshot[name]
			fmt.Printf("%-22s %-10s %-12s %-8d %s\n",
				record.Endpoint,
				record.Status,
				record.ResponseTime.Round(time.Millisecond),
				record.DataQuality,
				record.Error)
		}

		summary := orc.HealthSummary()
		fmt.Printf("\n%d healthy, %d degraded, %d unhealthy of %d endpoints (mean latency %s)\n",
			summary.Healthy, summary.Degraded, summary.Unhealthy, summary.Total,
			summary.MeanLatency.Round(time.Millisecond))

		if viper.GetBool("purge-cache") {
			stats := orc.PurgeCache()
			log.WithFields(log.Fields{
				"numPurged": stats.NumPurged,
			}).Info("Purged expired cache entries")
		}

		return nil
	},
}

func init() {
	healthCmd.Flags().Bool("purge-cache", false, "Also evict expired fallback cache entries")

	rootCmd.AddCommand(healthCmd)
}
