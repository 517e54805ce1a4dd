package scan

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/kaishiraishi/sightline/internal/geodesy"
)

// EncodeGeoJSON renders a batch of ray results as a GeoJSON
// FeatureCollection for the map layer: one XYZ LineString per ray, one XYZ
// Point per hit, and a Point per max-range marker on clear rays.
func EncodeGeoJSON(results []FanRayResult) ([]byte, error) {
	fc := geojson.FeatureCollection{}

	for _, r := range results {
		rayProps := map[string]any{
			"kind":        "ray",
			"ray_index":   r.RayIndex,
			"azimuth_deg": r.AzimuthDeg,
			"hit":         r.Hit,
			"reason":      r.Reason.String(),
		}
		if r.Degraded {
			rayProps["degraded"] = true
		}
		if r.DistanceM != nil {
			rayProps["distance_m"] = *r.DistanceM
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewLineStringFlat(geom.XYZ, []float64{
				r.Geometry.Start.Lng, r.Geometry.Start.Lat, r.Geometry.Start.Elev,
				r.Geometry.End.Lng, r.Geometry.End.Lat, r.Geometry.End.Elev,
			}),
			Properties: rayProps,
		})

		if r.Hit && r.HitPoint != nil {
			fc.Features = append(fc.Features, &geojson.Feature{
				Geometry: geom.NewPointFlat(geom.XYZ, []float64{
					r.HitPoint.Lng, r.HitPoint.Lat, r.HitPoint.Elev,
				}),
				Properties: map[string]any{
					"kind":        "hit",
					"ray_index":   r.RayIndex,
					"azimuth_deg": r.AzimuthDeg,
					"reason":      r.Reason.String(),
				},
			})
		} else {
			fc.Features = append(fc.Features, &geojson.Feature{
				Geometry: geom.NewPointFlat(geom.XY, []float64{
					r.MaxRangePoint.Lng, r.MaxRangePoint.Lat,
				}),
				Properties: map[string]any{
					"kind":        "max_range",
					"ray_index":   r.RayIndex,
					"azimuth_deg": r.AzimuthDeg,
				},
			})
		}
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "scan: encode geojson")
	}
	return data, nil
}

// WrapSingle lifts a lone RayResult into the fan result shape so single-ray
// scans share the GeoJSON and export paths.
func WrapSingle(r RayResult, azimuthDeg float64, maxRange geodesy.Point) FanRayResult {
	return FanRayResult{
		RayResult:     r,
		AzimuthDeg:    azimuthDeg,
		RayIndex:      0,
		MaxRangePoint: maxRange,
	}
}
