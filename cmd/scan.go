package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kaishiraishi/sightline/internal/geodesy"
)

var (
	scanSource   string
	scanAngle    float64
	scanScenario string
	scanOut      string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run visibility scans from an observer position",
}

func init() {
	scanCmd.PersistentFlags().StringVar(&scanSource, "source", "", "observer position as lng,lat (required)")
	scanCmd.PersistentFlags().Float64Var(&scanAngle, "angle", 0, "sight angle in degrees above horizontal")
	scanCmd.PersistentFlags().StringVar(&scanScenario, "scenario", "", "scenario YAML file (offline, bypasses the profile service)")
	scanCmd.PersistentFlags().StringVar(&scanOut, "out", "", "write ray geometry as GeoJSON to this file ('-' for stdout)")
	_ = scanCmd.MarkPersistentFlagRequired("source")
	rootCmd.AddCommand(scanCmd)
}

// parsePoint parses "lng,lat" into a point, rejecting out-of-range values.
func parsePoint(s string) (geodesy.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geodesy.Point{}, eris.Errorf("expected lng,lat, got %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geodesy.Point{}, eris.Errorf("invalid longitude %q", parts[0])
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geodesy.Point{}, eris.Errorf("invalid latitude %q", parts[1])
	}
	if lng < -180 || lng > 180 {
		return geodesy.Point{}, eris.Errorf("longitude %v out of range", lng)
	}
	if lat < -90 || lat > 90 {
		return geodesy.Point{}, eris.Errorf("latitude %v out of range", lat)
	}
	return geodesy.Point{Lng: lng, Lat: lat}, nil
}

// writeGeoJSON writes encoded geometry to the --out target.
func writeGeoJSON(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return eris.Wrap(err, "write geojson")
	}
	return nil
}

// printJSON renders a result on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
