package main

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/kaishiraishi/sightline/internal/scan"
)

// writeSweepXLSX writes one row per ray with azimuth, outcome, and hit
// position so survey teams can sort and filter in a spreadsheet.
func writeSweepXLSX(path string, results []scan.FanRayResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("sweep")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"ray", "azimuth_deg", "obstructed", "reason", "distance_m", "hit_lng", "hit_lat", "hit_elev_m", "degraded"} {
		header.AddCell().Value = h
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.RayIndex)
		row.AddCell().SetFloat(r.AzimuthDeg)
		row.AddCell().SetBool(r.Hit)
		row.AddCell().Value = r.Reason.String()
		if r.DistanceM != nil {
			row.AddCell().SetFloat(*r.DistanceM)
		} else {
			row.AddCell()
		}
		if r.HitPoint != nil {
			row.AddCell().SetFloat(r.HitPoint.Lng)
			row.AddCell().SetFloat(r.HitPoint.Lat)
			row.AddCell().SetFloat(r.HitPoint.Elev)
		} else {
			row.AddCell()
			row.AddCell()
			row.AddCell()
		}
		row.AddCell().SetBool(r.Degraded)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save")
	}
	return nil
}
