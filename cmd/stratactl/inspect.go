package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordanhubbard/strata/internal/cache"
	"github.com/jordanhubbard/strata/internal/database"
	"github.com/jordanhubbard/strata/pkg/models"
)

// newHistoryCommand reads persisted learn cycles from the history store.
func newHistoryCommand() *cobra.Command {
	var dsn string
	var limit int
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent learn cycles and per-category efficiency",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = os.Getenv("STRATA_DB_DSN")
			}
			if dsn == "" {
				return fmt.Errorf("no database DSN (use --dsn or STRATA_DB_DSN)")
			}

			db, err := database.New(dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			cycles, err := db.RecentCycles(limit)
			if err != nil {
				return err
			}
			efficiency, err := db.CategoryEfficiency(window)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"cycles":              cycles,
				"category_efficiency": efficiency,
			})
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Max cycles to show")
	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "Efficiency aggregation window")
	return cmd
}

// newSnapshotCommand reads the cached orchestrator snapshot from Redis.
func newSnapshotCommand() *cobra.Command {
	var addr string
	var mode string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the cached orchestrator metrics snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = os.Getenv("STRATA_REDIS_ADDR")
			}
			if addr == "" {
				return fmt.Errorf("no redis address (use --redis or STRATA_REDIS_ADDR)")
			}

			c, err := cache.New(cmd.Context(), &cache.Config{Addr: addr})
			if err != nil {
				return err
			}
			defer c.Close()

			snap, err := c.GetSnapshot(cmd.Context(), models.Mode(mode))
			if err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("no snapshot cached for %s mode", mode)
			}
			return printJSON(snap)
		},
	}
	cmd.Flags().StringVar(&addr, "redis", "", "Redis address")
	cmd.Flags().StringVarP(&mode, "mode", "m", "pool", "Pipeline mode: pool or streaming")
	return cmd
}
