package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/kaishiraishi/sightline/internal/config"
	"github.com/kaishiraishi/sightline/internal/geodesy"
	"github.com/kaishiraishi/sightline/internal/scan"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    geodesy.Point
		wantErr string
	}{
		{name: "valid", in: "139.70,35.68", want: geodesy.Point{Lng: 139.70, Lat: 35.68}},
		{name: "spaces", in: " 139.70 , 35.68 ", want: geodesy.Point{Lng: 139.70, Lat: 35.68}},
		{name: "negative", in: "-73.99,40.75", want: geodesy.Point{Lng: -73.99, Lat: 40.75}},
		{name: "missing comma", in: "139.70", wantErr: "expected lng,lat"},
		{name: "too many parts", in: "1,2,3", wantErr: "expected lng,lat"},
		{name: "bad longitude", in: "abc,35.68", wantErr: "invalid longitude"},
		{name: "bad latitude", in: "139.70,xyz", wantErr: "invalid latitude"},
		{name: "longitude out of range", in: "181,35.68", wantErr: "longitude 181 out of range"},
		{name: "latitude out of range", in: "139.70,91", wantErr: "latitude 91 out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePoint(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteSweepXLSX(t *testing.T) {
	d := 420.5
	results := []scan.FanRayResult{
		{
			RayResult: scan.RayResult{
				Hit:        true,
				DistanceM:  &d,
				HitPoint:   &scan.Vertex{Lng: 139.705, Lat: 35.68, Elev: 62.0},
				Reason:     scan.ReasonBuilding,
				ReasonText: scan.ReasonBuilding.String(),
			},
			AzimuthDeg: 90,
			RayIndex:   0,
		},
		{
			RayResult:  scan.RayResult{Reason: scan.ReasonClear, ReasonText: scan.ReasonClear.String()},
			AzimuthDeg: 180,
			RayIndex:   1,
			Degraded:   true,
		},
	}

	path := filepath.Join(t.TempDir(), "sweep.xlsx")
	require.NoError(t, writeSweepXLSX(path, results))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3) // header + two rays

	assert.Equal(t, "azimuth_deg", sheet.Rows[0].Cells[1].Value)

	hitRow := sheet.Rows[1]
	az, err := hitRow.Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 90.0, az, 0.001)
	dist, err := hitRow.Cells[4].Float()
	require.NoError(t, err)
	assert.InDelta(t, 420.5, dist, 0.001)

	clearRow := sheet.Rows[2]
	assert.Equal(t, scan.ReasonClear.String(), clearRow.Cells[3].Value)
	assert.Empty(t, clearRow.Cells[4].Value)
}

func TestScanSingleCmd_RunE_FailsOnValidation(t *testing.T) {
	// Concurrency of zero fails config validation before any fetch.
	cfg = &config.Config{}
	cfg.Provider.BaseURL = "http://localhost:8000"

	scanSingleCmd.SetContext(context.Background())
	defer scanSingleCmd.SetContext(context.TODO())

	scanSource = "139.70,35.68"
	singleTarget = "139.71,35.68"
	defer func() {
		scanSource = ""
		singleTarget = ""
	}()

	err := scanSingleCmd.RunE(scanSingleCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
}

func TestScanSingleCmd_RunE_BadSource(t *testing.T) {
	cfg = validScanConfig()

	scanSingleCmd.SetContext(context.Background())
	defer scanSingleCmd.SetContext(context.TODO())

	scanSource = "not-a-point"
	singleTarget = "139.71,35.68"
	defer func() {
		scanSource = ""
		singleTarget = ""
	}()

	err := scanSingleCmd.RunE(scanSingleCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected lng,lat")
}

func TestScanSweepCmd_RunE_ScenarioFileMissing(t *testing.T) {
	cfg = validScanConfig()

	scanSweepCmd.SetContext(context.Background())
	defer scanSweepCmd.SetContext(context.TODO())

	scanSource = "139.70,35.68"
	scanScenario = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() {
		scanSource = ""
		scanScenario = ""
	}()

	err := scanSweepCmd.RunE(scanSweepCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open scenario")
}

func validScanConfig() *config.Config {
	c := &config.Config{}
	c.Provider.BaseURL = "http://localhost:8000"
	c.Scan.SampleMin = 120
	c.Scan.SampleMax = 500
	c.Scan.MetersPerSample = 20
	c.Scan.Concurrency = 8
	c.Scan.FanRayCount = 13
	c.Scan.SweepRayCount = 36
	c.Scan.SweepRangeM = 5000
	c.Server.Port = 8080
	return c
}
