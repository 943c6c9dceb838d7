package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var outputFormat string

func main() {
	rootCmd := &cobra.Command{
		Use:   "stratactl",
		Short: "Strata CLI - run and inspect learning cycles",
		Long: `stratactl is a command-line interface for the strata learning orchestrator.
All output is structured JSON by default (pipe through jq for human-readable formatting).`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "Output format: json")

	rootCmd.AddCommand(newLearnCommand())
	rootCmd.AddCommand(newStrategiesCommand())
	rootCmd.AddCommand(newPublishCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newSnapshotCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getDefaultNATS() string {
	if url := os.Getenv("STRATA_NATS_URL"); url != "" {
		return url
	}
	return "nats://localhost:4222"
}
