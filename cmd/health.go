package main

import (
	"github.com/spf13/cobra"

	"github.com/kaishiraishi/sightline/internal/dsm"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the profile service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := dsm.NewClient(cfg.Provider.BaseURL)
		if err := client.Health(cmd.Context()); err != nil {
			return err
		}
		return printJSON(map[string]string{"status": "ok", "provider": cfg.Provider.BaseURL})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
