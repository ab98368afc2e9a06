package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"inkcopilot/config"
	"inkcopilot/pkg/pricing"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "inkcopilot",
	Short:   "InkCopilot web backend",
	Long:    `Serves the InkCopilot site and dashboard, and runs checkout payment confirmation against the content API.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("InkCopilot %s\n", Version)
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

var quotePosts int

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a Custom plan for a number of posts per month",
	RunE: func(cmd *cobra.Command, args []string) error {
		tier := config.Load().Pricing
		if err := tier.ValidatePosts(quotePosts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d posts/month: $%.2f\n", quotePosts, tier.Price(quotePosts))
		return nil
	},
}

func init() {
	quoteCmd.Flags().IntVar(&quotePosts, "posts", pricing.DefaultTier.BasePosts, "posts per month")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(quoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
