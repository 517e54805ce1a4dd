package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kaishiraishi/sightline/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the profile cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !cfg.Cache.Enabled {
			return eris.New("cache is disabled in config")
		}

		st, err := store.Open(ctx, cfg.Cache.Driver, cfg.Cache.DSN)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !cfg.Cache.Enabled {
			return eris.New("cache is disabled in config")
		}

		st, err := store.Open(ctx, cfg.Cache.Driver, cfg.Cache.DSN)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		removed, err := st.Prune(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("cache pruned", zap.Int64("removed", removed))
		return printJSON(map[string]int64{"removed": removed})
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
