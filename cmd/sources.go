package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered source adapters and their endpoints",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}

		fmt.Println("Adapters:")
		for _, adapter := range application.engine.Adapters() {
			fmt.Printf("  %-22s prefix %s\n", adapter.Name(), adapter.Prefix())
		}

		endpoints := application.orchestrator.Endpoints()
		sort.Slice(endpoints, func(a, b int) bool {
			return endpoints[a].Name < endpoints[b].Name
		})

		fmt.Println("\nEndpoints:")
		for _, cfg := range endpoints {
			fmt.Printf("  %-22s %s\n", cfg.Name, cfg.URL)
			fmt.Printf("  %-22s timeout %s, retries %d, fallback %s\n", "", cfg.Timeout, cfg.MaxRetries, cfg.FallbackTier)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
