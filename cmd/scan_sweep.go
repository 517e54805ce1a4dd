package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kaishiraishi/sightline/internal/scan"
)

var (
	sweepRays  int
	sweepRange float64
	sweepXLSX  string
)

var scanSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Cast rays over the full circle around the observer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("scan"); err != nil {
			return err
		}

		source, err := parsePoint(scanSource)
		if err != nil {
			return err
		}

		rays := sweepRays
		if rays == 0 {
			rays = cfg.Scan.SweepRayCount
		}
		rangeM := sweepRange
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

		var hits, degraded int
		for _, r := range results {
			if r.Hit {
				hits++
			}
			if r.Degraded {
				degraded++
			}
		}
		zap.L().Info("sweep complete",
			zap.Int("rays", len(results)),
			zap.Int("hits", hits),
			zap.Int("degraded", degraded),
		)

		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stderr, "%d rays at %.0f m range: %d obstructed, %d clear, %d degraded\n",
			len(results), rangeM, hits, len(results)-hits, degraded)

		if scanOut != "" {
			geo, err := scan.EncodeGeoJSON(results)
			if err != nil {
				return err
			}
			if err := writeGeoJSON(scanOut, geo); err != nil {
				return err
			}
		}
		if sweepXLSX != "" {
			if err := writeSweepXLSX(sweepXLSX, results); err != nil {
				return err
			}
		}

		return printJSON(results)
	},
}

func init() {
	scanSweepCmd.Flags().IntVar(&sweepRays, "rays", 0, "number of rays over 360 degrees (default from config)")
	scanSweepCmd.Flags().Float64Var(&sweepRange, "range", 0, "ray range in meters (default from config)")
	scanSweepCmd.Flags().StringVar(&sweepXLSX, "xlsx", "", "write per-ray results to this XLSX file")
	scanCmd.AddCommand(scanSweepCmd)
}
