package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grantscout/grantscout/grant"
	"github.com/grantscout/grantscout/tracing"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search all sources and rank the results against your profile",
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

		criteria, err := criteriaFromFlags()
		if err != nil {
			return err
		}

		result, err := application.engine.Discover(cmd.Context(), criteria)
		if err != nil {
			return err
		}

		if viper.GetBool("json") {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		}

		printResult(result)
		return nil
	},
}

func criteriaFromFlags() (grant.Criteria, error) {
	criteria := grant.Criteria{
		Industries: viper.GetStringSlice("industry"),
		Locations:  viper.GetStringSlice("location"),
		Keywords:   viper.GetStringSlice("keyword"),
		Category:   viper.GetString("category"),
		Amount: grant.AmountRange{
			Min: viper.GetFloat64("amount-min"),
			Max: viper.GetFloat64("amount-max"),
		},
	}

	if deadline := viper.GetString("deadline"); deadline != "" {
		t, err := time.Parse("2006-01-02", deadline)
		if err != nil {
			return grant.Criteria{}, fmt.Errorf("could not parse --deadline %q, expected YYYY-MM-DD: %w", deadline, err)
		}
		criteria.Deadline = t
	}

	if status := viper.GetString("status"); status != "" {
		criteria.Status = grant.Status(status)
	}

	return criteria, nil
}

func printResult(result *grant.Result) {
	fmt.Printf("Found %d grants across %d sources, %d matched your profile (%s)\n\n",
		result.TotalFound, len(result.Sources), len(result.Matches), result.SearchTime.Round(time.Millisecond))

	for _, match := range result.Matches {
		g := match.Grant
		fmt.Printf("[%3d] %-6s %s\n", match.Score, match.Priority, g.Title)
		fmt.Printf("      %s | $%s to $%s | closes %s\n",
			g.Source,
			humanize.Commaf(g.Amount.Min),
			humanize.Commaf(g.Amount.Max),
			g.Deadline.Format("2 Jan 2006"))
		for _, reason := range match.Reasons {
			fmt.Printf("      - %s\n", reason)
		}
		if g.ApplicationURL != "" {
			fmt.Printf("      %s\n", g.ApplicationURL)
		}
		fmt.Println()
	}
}

func init() {
	discoverCmd.Flags().StringSlice("industry", nil, "Industries to match, e.g. Film,Documentary")
	discoverCmd.Flags().StringSlice("location", nil, "Locations to match, e.g. NSW,VIC")
	discoverCmd.Flags().StringSlice("keyword", nil, "Keywords to look for in titles and descriptions")
	discoverCmd.Flags().String("category", "", "Grant category to match exactly")
	discoverCmd.Flags().Float64("amount-min", 0, "Minimum funding amount sought")
	discoverCmd.Flags().Float64("amount-max", 0, "Maximum funding amount sought")
	discoverCmd.Flags().String("deadline", "", "Target application date (YYYY-MM-DD)")
	discoverCmd.Flags().String("status", "", "Only search grants with this status (open, closed, upcoming)")
	discoverCmd.Flags().Bool("json", false, "Output the full result envelope as JSON")

	rootCmd.AddCommand(discoverCmd)
}
