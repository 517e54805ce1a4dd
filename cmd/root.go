package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kaishiraishi/sightline/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sightline",
	Short: "Terrain line-of-sight scanner",
	Long:  "Casts sight rays over a digital surface model, finds where they strike terrain or structures, and reports visibility as JSON, GeoJSON, or XLSX.",
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
