package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldops/territory-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "territory-cli",
	Short: "Field-sales registry ingestion and territory matching",
	Long:  "Ingests government business-registry extracts and a territory assignment sheet, links records to managers by address similarity, and serves the enriched dataset to the dashboard.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
