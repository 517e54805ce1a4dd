package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kaishiraishi/sightline/internal/scan"
)

var (
	replayRays  int
	replayRange float64
)

var scanReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run a full sweep against a scenario file",
	Long:  "Replays a sweep entirely from a YAML scenario, with no profile service or cache involved. Useful for reproducing a reported result offline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if scanScenario == "" {
			return eris.New("replay requires --scenario")
		}

		source, err := parsePoint(scanSource)
		if err != nil {
			return err
		}

		rays := replayRays
		if rays == 0 {
			rays = cfg.Scan.SweepRayCount
		}
		rangeM := replayRange
		if rangeM == 0 {
			rangeM = cfg.Scan.SweepRangeM
		}

		env, err := initScanEnv(ctx, scanScenario)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Scanner.Sweep(ctx, source, scan.FanConfig{
			RayCount:  rays,
			MaxRangeM: rangeM,
			FullScan:  true,
		}, scanAngle)
		if err != nil {
			return err
		}

		if scanOut != "" {
			geo, err := scan.EncodeGeoJSON(results)
			if err != nil {
				return err
			}
			if err := writeGeoJSON(scanOut, geo); err != nil {
				return err
			}
		}

		return printJSON(results)
	},
}

func init() {
	scanReplayCmd.Flags().IntVar(&replayRays, "rays", 0, "number of rays over 360 degrees (default from config)")
	scanReplayCmd.Flags().Float64Var(&replayRange, "range", 0, "ray range in meters (default from config)")
	scanCmd.AddCommand(scanReplayCmd)
}
