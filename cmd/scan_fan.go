package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kaishiraishi/sightline/internal/scan"
)

var (
	fanTarget string
	fanDelta  float64
	fanRays   int
)

var scanFanCmd = &cobra.Command{
	Use:   "fan",
	Short: "Cast a bounded fan of rays centered on a target bearing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("scan"); err != nil {
			return err
		}

		source, err := parsePoint(scanSource)
		if err != nil {
			return err
		}
		target, err := parsePoint(fanTarget)
		if err != nil {
			return err
		}

		delta := fanDelta
		if delta == 0 {
			delta = cfg.Scan.FanDeltaThetaDeg
		}
		rays := fanRays
		if rays == 0 {
			rays = cfg.Scan.FanRayCount
		}

		env, err := initScanEnv(ctx, scanScenario)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Scanner.Fan(ctx, source, target, scan.FanConfig{
			DeltaThetaDeg: delta,
			RayCount:      rays,
		}, scanAngle)
		if err != nil {
			return err
		}

		zap.L().Info("fan scan complete",
			zap.String("scan_id", result.ID),
			zap.Int("rays", len(result.Results)),
		)

		if scanOut != "" {
			geo, err := scan.EncodeGeoJSON(result.Results)
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
	scanFanCmd.Flags().StringVar(&fanTarget, "target", "", "target position as lng,lat (required)")
	scanFanCmd.Flags().Float64Var(&fanDelta, "delta", 0, "total angular width of the fan in degrees (default from config)")
	scanFanCmd.Flags().IntVar(&fanRays, "rays", 0, "number of rays in the fan (default from config)")
	_ = scanFanCmd.MarkFlagRequired("target")
	scanCmd.AddCommand(scanFanCmd)
}
