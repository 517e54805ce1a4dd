package scan

import (
	"math"

	"github.com/kaishiraishi/sightline/internal/geodesy"
)

// Detect walks one elevation profile and reports the first point where the
// surface rises above the observer's sight ray, or a clear result if no
// sample does. It is a pure function of its inputs.
//
// The ray baseline is baselineOverride when non-nil; otherwise the first
// sample's elevation plus eye height, falling back to eye height alone when
// the first sample has no data. Fan scans pass a shared override so every
// ray of one scan leaves from the same height.
func Detect(profile *Profile, params DetectParams, source geodesy.Point, baselineOverride *float64) RayResult {
	eye := params.eyeHeight()

	z0 := eye
	if baselineOverride != nil {
		z0 = *baselineOverride
	} else if profile.Len() > 0 && profile.Elevations[0] != nil {
		z0 = *profile.Elevations[0] + eye
	}

	slope := math.Tan(params.SightAngleDeg * math.Pi / 180)
	rayHeight := func(d float64) float64 { return z0 + slope*d }

	start := Vertex{Lng: source.Lng, Lat: source.Lat, Elev: z0}
	result := RayResult{
		Reason:     ReasonClear,
		ReasonText: ReasonClear.String(),
		Source:     start,
		Geometry:   RayGeometry{Start: start, End: start},
	}

	// A single-sample (or empty) profile has nothing to compare against.
	if profile.Len() < 2 {
		return result
	}

	// prevDelta tracks the last comparable sample, starting empty: a hit at
	// index 1 lands exactly on the sample. A no-data gap resets it so the
	// crossing is never interpolated across missing surface.
	var prevDelta *float64

	for i := 1; i < profile.Len(); i++ {
		elev := profile.Elevations[i]
		if elev == nil {
			prevDelta = nil
			continue
		}

		delta := *elev - rayHeight(profile.Distances[i])
		if delta <= 0 {
			prevDelta = &delta
			continue
		}

		// First sample above the ray: this is the hit.
		hitDist := profile.Distances[i]
		hit := Vertex{Lng: profile.Lngs[i], Lat: profile.Lats[i], Elev: *elev}

		if prevDelta != nil && *prevDelta <= 0 {
			// The sign crossed between i-1 and i; place the hit at the
			// interpolated crossing point.
			t := -*prevDelta / (delta - *prevDelta)
			hitDist = lerp(profile.Distances[i-1], profile.Distances[i], t)
			hit = Vertex{
				Lng:  lerp(profile.Lngs[i-1], profile.Lngs[i], t),
				Lat:  lerp(profile.Lats[i-1], profile.Lats[i], t),
				Elev: lerp(*profile.Elevations[i-1], *elev, t),
			}
		}

		result.Hit = true
		result.DistanceM = &hitDist
		result.HitPoint = &hit
		result.ElevationM = &hit.Elev
		result.Reason = classify(profile, params, *elev)
		result.ReasonText = result.Reason.String()
		result.Geometry.End = Vertex{Lng: hit.Lng, Lat: hit.Lat, Elev: rayHeight(hitDist)}
		return result
	}

	// Clear: the ray runs to the profile's full extent.
	last := profile.Len() - 1
	result.Geometry.End = Vertex{
		Lng:  profile.Lngs[last],
		Lat:  profile.Lats[last],
		Elev: rayHeight(profile.Distances[last]),
	}
	return result
}

// classify labels a hit as building or terrain by how far the obstruction
// sample rises above the midpoint between the observer's ground and that
// sample. The sample elevation is the surface the ray actually struck;
// the interpolated crossing sits on the ray by construction and says
// nothing about the obstruction's height.
func classify(profile *Profile, params DetectParams, sampleElev float64) HitReason {
	first := params.eyeHeight()
	if profile.Elevations[0] != nil {
		first = *profile.Elevations[0]
	}
	avgGround := (first + sampleElev) / 2
	if sampleElev > avgGround+params.buildingThreshold() {
		return ReasonBuilding
	}
	return ReasonTerrain
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
