package main

import (
	"github.com/spf13/cobra"

	"github.com/kaishiraishi/sightline/internal/geodesy"
	"github.com/kaishiraishi/sightline/internal/scan"
)

var singleTarget string

var scanSingleCmd = &cobra.Command{
	Use:   "single",
	Short: "Cast one sight ray toward a target",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("scan"); err != nil {
			return err
		}

		source, err := parsePoint(scanSource)
		if err != nil {
			return err
		}
		target, err := parsePoint(singleTarget)
		if err != nil {
			return err
		}

		env, err := initScanEnv(ctx, scanScenario)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Scanner.Single(ctx, source, target, scanAngle)
		if err != nil {
			return err
		}

		if scanOut != "" {
			wrapped := scan.WrapSingle(*result, geodesy.InitialBearing(source, target), target)
			geo, err := scan.EncodeGeoJSON([]scan.FanRayResult{wrapped})
			if err != nil {
				return err
			}
			if err := writeGeoJSON(scanOut, geo); err != nil {
				return err
			}
		}

		return printJSON(result)
	},
}

func init() {
	scanSingleCmd.Flags().StringVar(&singleTarget, "target", "", "target position as lng,lat (required)")
	_ = scanSingleCmd.MarkFlagRequired("target")
	scanCmd.AddCommand(scanSingleCmd)
}
