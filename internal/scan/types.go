// Package scan implements the visibility scanning engine: first-collision
// search over sampled elevation profiles and orchestration of single, fan,
// and full-circle ray evaluations.
package scan

import (
	"github.com/kaishiraishi/sightline/internal/geodesy"
)

// HitReason classifies what terminated a ray.
type HitReason int

const (
	// ReasonClear means the sight line reached its full range unobstructed.
	ReasonClear HitReason = iota
	// ReasonTerrain means the ray was stopped by ground relief.
	ReasonTerrain
	// ReasonBuilding means the hit rose far enough above the surrounding
	// ground to look like a structure rather than terrain.
	ReasonBuilding
)

func (r HitReason) String() string {
	switch r {
	case ReasonClear:
		return "clear"
	case ReasonTerrain:
		return "terrain"
	case ReasonBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// Vertex is a 3-D geographic position: WGS84 degrees plus elevation in meters.
type Vertex struct {
	Lng  float64 `json:"lng"`
	Lat  float64 `json:"lat"`
	Elev float64 `json:"elev_m"`
}

// RayGeometry is the rendered extent of one sight ray.
type RayGeometry struct {
	Start Vertex `json:"start"`
	End   Vertex `json:"end"`
}

// RayResult is the outcome of evaluating one sight ray against one elevation
// profile. It is created once per evaluation and never mutated afterwards.
type RayResult struct {
	Hit        bool        `json:"hit"`
	DistanceM  *float64    `json:"distance_m,omitempty"`
	HitPoint   *Vertex     `json:"hit_point,omitempty"`
	ElevationM *float64    `json:"elevation_m,omitempty"`
	Reason     HitReason   `json:"-"`
	ReasonText string      `json:"reason"`
	Source     Vertex      `json:"source_point"`
	Geometry   RayGeometry `json:"ray_geometry"`
}

// FanRayResult tags a RayResult with its place in a multi-ray scan.
type FanRayResult struct {
	RayResult
	AzimuthDeg    float64       `json:"azimuth_deg"`
	RayIndex      int           `json:"ray_index"`
	MaxRangePoint geodesy.Point `json:"max_range_point"`

	// Degraded marks a ray whose profile fetch failed; its geometry is
	// synthesized from pure math and its reason is always clear.
	Degraded bool `json:"degraded,omitempty"`
}

// FanScan is the aggregate outcome of a bounded-fan scan.
type FanScan struct {
	ID             string         `json:"scan_id"`
	Results        []FanRayResult `json:"results"`
	Representative *FanRayResult  `json:"representative,omitempty"`
}

// FanConfig shapes a multi-ray scan.
type FanConfig struct {
	// DeltaThetaDeg is the angular window of a bounded fan, centered on the
	// bearing to the target. Ignored when FullScan is set.
	DeltaThetaDeg float64 `json:"delta_theta_deg"`
	// RayCount is the number of rays to evaluate. Bounded fans need at
	// least 2; full scans at least 1.
	RayCount int `json:"ray_count"`
	// MaxRangeM is the per-ray range of a full scan. Bounded fans ignore it
	// and use the distance to the target instead.
	MaxRangeM float64 `json:"max_range_m"`
	// FullScan spreads RayCount rays evenly over 360 degrees, independent
	// of any target.
	FullScan bool `json:"full_scan"`
}

// DetectParams are the sight parameters of a single detection pass.
type DetectParams struct {
	// SightAngleDeg tilts the sight line above (positive) or below
	// (negative) horizontal.
	SightAngleDeg float64
	// EyeHeightM is added to the ground elevation at the observer to form
	// the ray baseline. Zero means DefaultEyeHeightM.
	EyeHeightM float64
	// BuildingThresholdM is how far above the local average ground a hit
	// must rise to be classified as a building. Zero means
	// DefaultBuildingThresholdM. The threshold is a heuristic carried over
	// from field calibration, not a data-driven building mask.
	BuildingThresholdM float64
}

// Defaults for DetectParams and Options fields left at zero.
const (
	DefaultEyeHeightM         = 1.6
	DefaultBuildingThresholdM = 10.0
)

func (p DetectParams) eyeHeight() float64 {
	if p.EyeHeightM == 0 {
		return DefaultEyeHeightM
	}
	return p.EyeHeightM
}

func (p DetectParams) buildingThreshold() float64 {
	if p.BuildingThresholdM == 0 {
		return DefaultBuildingThresholdM
	}
	return p.BuildingThresholdM
}
