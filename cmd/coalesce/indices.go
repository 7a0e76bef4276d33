package coalesce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/coalesce-search/coalesce/pkg/config"
	"github.com/coalesce-search/coalesce/pkg/graph"
)

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "Create graph store indexes",
	Long: `Create the full-text and tenant indexes the graph lookups depend on.
Safe to run repeatedly; existing indexes are left untouched.`,
	RunE: runIndices,
}

func init() {
	rootCmd.AddCommand(indicesCmd)
}

func runIndices(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	driver, err := graph.NewNeo4jDriver(cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
	if err != nil {
		return fmt.Errorf("failed to create graph driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	defer driver.Close(ctx)

	if err := driver.CreateIndices(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	slog.Info("graph indexes created", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return nil
}
