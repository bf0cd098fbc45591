package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grantscout/grantscout/logging"
	"github.com/grantscout/grantscout/tracing"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "grantscout",
	Short:   "Discover and rank funding opportunities",
	Long:    `grantscout aggregates funding opportunities from Australian screen and arts funding bodies, reconciles them into a single schema, and ranks them against your search profile.`,
	Version: tracing.Version(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Bind these to viper
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("could not bind flags: %w", err)
		}

		if configFile := viper.GetString("config"); configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("could not read config file: %w", err)
			}
		}

		if viper.GetBool("json-logs") {
			logging.ConfigureLogrusJSON(log.StandardLogger())
		}
		logging.ApplyLevel(log.StandardLogger(), viper.GetString("log"))

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log", "info", "Set the log level. Valid values: panic, fatal, error, warn, info, debug, trace")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file location. Defaults to no config file")
	rootCmd.PersistentFlags().String("sentry-dsn", "", "If specified, errors and panics will be reported to sentry using this DSN")
	rootCmd.PersistentFlags().Bool("trace", false, "Dump traces to stdout for debugging")

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("GRANTSCOUT")
		viper.AutomaticEnv()
	})
}

// initTracing starts the tracer for commands that do real work. Callers must
// defer tracing.ShutdownTracer
func initTracing() {
	if !viper.GetBool("trace") && viper.GetString("sentry-dsn") == "" {
		return
	}

	if err := tracing.InitTracerWithSentry("grantscout", viper.GetString("sentry-dsn"), "cli"); err != nil {
		log.WithError(err).Error("Could not initialise tracing")
	}
}
