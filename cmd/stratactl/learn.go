package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jordanhubbard/strata/internal/learner"
	"github.com/jordanhubbard/strata/internal/messagebus"
	"github.com/jordanhubbard/strata/pkg/messages"
	"github.com/jordanhubbard/strata/pkg/models"
)

func loadBatch(path string) ([]models.ExperienceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var experiences []models.ExperienceRecord
	if err := json.Unmarshal(data, &experiences); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	return experiences, nil
}

// newLearnCommand runs a batch through a local orchestrator, offline. Useful
// for replaying a recorded batch without a daemon.
func newLearnCommand() *cobra.Command {
	var file string
	var mode string
	var seed int64

	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Run one learning cycle over a JSON batch file locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			experiences, err := loadBatch(file)
			if err != nil {
				return err
			}

			cfg := learner.DefaultConfig()
			cfg.ScorerSeed = seed
			orch, err := learner.New(models.Mode(mode), cfg)
			if err != nil {
				return err
			}

			result, err := orch.Learn(cmd.Context(), experiences)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with an array of experience records")
	cmd.Flags().StringVarP(&mode, "mode", "m", "pool", "Pipeline mode: pool or streaming")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Scorer seed for reproducible runs")
	cmd.MarkFlagRequired("file")
	return cmd
}

// newStrategiesCommand prints the seed strategy catalog for a mode.
func newStrategiesCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List the registered strategies for a mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := learner.New(models.Mode(mode), nil)
			if err != nil {
				return err
			}
			return printJSON(orch.Strategies())
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "pool", "Pipeline mode: pool or streaming")
	return cmd
}

// newPublishCommand publishes a batch file onto the experience bus for a
// running daemon to consume.
func newPublishCommand() *cobra.Command {
	var file string
	var mode string
	var natsURL string
	var source string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a JSON batch file to the experience bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			experiences, err := loadBatch(file)
			if err != nil {
				return err
			}

			bus, err := messagebus.NewNatsBus(messagebus.Config{URL: natsURL})
			if err != nil {
				return err
			}
			defer bus.Close()

			batch := messages.NewExperienceBatch(uuid.New().String(), models.Mode(mode), source, experiences, uuid.New().String())
			if err := bus.PublishExperiences(cmd.Context(), batch); err != nil {
				return err
			}
			fmt.Printf("published batch %s (%d records) to %s\n", batch.BatchID, len(experiences), messagebus.ExperienceSubject(batch.Mode))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with an array of experience records")
	cmd.Flags().StringVarP(&mode, "mode", "m", "pool", "Pipeline mode: pool or streaming")
	cmd.Flags().StringVar(&natsURL, "nats", getDefaultNATS(), "NATS server URL")
	cmd.Flags().StringVar(&source, "source", "stratactl", "Batch source identifier")
	cmd.MarkFlagRequired("file")
	return cmd
}
