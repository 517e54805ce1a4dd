package scan

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kaishiraishi/sightline/internal/geodesy"
)

// Options tunes a Scanner. Zero fields take the documented defaults.
type Options struct {
	// EyeHeightM is the observer's eye height above ground. Default 1.6.
	EyeHeightM float64
	// BuildingThresholdM is the building classification threshold. Default 10.
	BuildingThresholdM float64
	// SampleMin and SampleMax clamp the per-ray sample count. Defaults 120
	// and 500.
	SampleMin int
	SampleMax int
	// MetersPerSample sets the target sample spacing before clamping.
	// Default 20.
	MetersPerSample float64
	// Concurrency caps the number of profile fetches in flight. Default 8.
	Concurrency int
	// ProbeRangeM is the length of the short reference profile used to
	// establish the shared baseline of a full sweep. Default 10.
	ProbeRangeM float64
}

func (o Options) withDefaults() Options {
	if o.EyeHeightM == 0 {
		o.EyeHeightM = DefaultEyeHeightM
	}
	if o.BuildingThresholdM == 0 {
		o.BuildingThresholdM = DefaultBuildingThresholdM
	}
	if o.SampleMin <= 0 {
		o.SampleMin = 120
	}
	if o.SampleMax <= 0 {
		o.SampleMax = 500
	}
	if o.MetersPerSample <= 0 {
		o.MetersPerSample = 20
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	if o.ProbeRangeM <= 0 {
		o.ProbeRangeM = 10
	}
	return o
}

// Scanner orchestrates scans: it plans ray sets, fans out profile fetches,
// and runs the occlusion detector per ray. Every scan produces a fresh
// result batch; the Scanner itself holds no mutable state and is safe for
// concurrent use.
type Scanner struct {
	provider Provider
	opt      Options
}

// NewScanner creates a Scanner over the given elevation profile provider.
func NewScanner(provider Provider, opt Options) *Scanner {
	return &Scanner{provider: provider, opt: opt.withDefaults()}
}

func (s *Scanner) detectParams(sightAngleDeg float64) DetectParams {
	return DetectParams{
		SightAngleDeg:      sightAngleDeg,
		EyeHeightM:         s.opt.EyeHeightM,
		BuildingThresholdM: s.opt.BuildingThresholdM,
	}
}

// sampleCount picks the per-ray sample density: one sample per
// MetersPerSample meters, clamped to [SampleMin, SampleMax].
func (s *Scanner) sampleCount(distanceM float64) int {
	n := int(math.Ceil(distanceM / s.opt.MetersPerSample))
	if n < s.opt.SampleMin {
		return s.opt.SampleMin
	}
	if n > s.opt.SampleMax {
		return s.opt.SampleMax
	}
	return n
}

// Single evaluates the one ray from source toward target. The profile fetch
// for that ray doubles as the baseline probe, so a fetch failure is a
// scan-level error.
func (s *Scanner) Single(ctx context.Context, source, target geodesy.Point, sightAngleDeg float64) (*RayResult, error) {
	distance := geodesy.Distance(source, target)
	if distance <= 0 {
		return nil, eris.New("scan: source and target coincide")
	}

	profile, err := s.provider.Profile(ctx, source, target, s.sampleCount(distance))
	if err != nil {
		return nil, eris.Wrap(err, "scan: baseline probe")
	}
	if err := profile.Validate(); err != nil {
		return nil, eris.Wrap(err, "scan: baseline probe")
	}

	result := Detect(profile, s.detectParams(sightAngleDeg), source, nil)
	return &result, nil
}

// Fan evaluates a bounded fan of rays centered on the bearing from source to
// target. The center-ray profile establishes the shared baseline; individual
// ray failures degrade, they never abort the scan.
func (s *Scanner) Fan(ctx context.Context, source, target geodesy.Point, fan FanConfig, sightAngleDeg float64) (*FanScan, error) {
	specs, err := buildFanRays(source, target, fan)
	if err != nil {
		return nil, err
	}

	// Baseline from the profile belonging to the ray toward the target.
	distance := geodesy.Distance(source, target)
	if distance <= 0 {
		return nil, eris.New("scan: source and target coincide")
	}
	probe, err := s.provider.Profile(ctx, source, target, s.sampleCount(distance))
	if err != nil {
		return nil, eris.Wrap(err, "scan: baseline probe")
	}
	z0 := s.baseline(probe)

	scanID := uuid.New().String()
	results, err := s.fanOut(ctx, scanID, source, specs, sightAngleDeg, z0)
	if err != nil {
		return nil, err
	}

	// The center ray stands in for the whole fan on single-ray UI surfaces.
	// With an even ray count there is no exact center; len/2 is the
	// documented convention.
	rep := results[len(results)/2]
	return &FanScan{ID: scanID, Results: results, Representative: &rep}, nil
}

// Sweep evaluates rays evenly spaced over the full circle at the configured
// max range. A short reference probe from the source establishes the shared
// baseline. All rays are peers; callers wanting a single display ray
// conventionally take azimuth 0.
func (s *Scanner) Sweep(ctx context.Context, source geodesy.Point, fan FanConfig, sightAngleDeg float64) ([]FanRayResult, error) {
	if fan.MaxRangeM <= 0 {
		return nil, eris.Errorf("scan: full sweep needs a positive max range, got %v", fan.MaxRangeM)
	}
	specs, err := buildSweepRays(fan)
	if err != nil {
		return nil, err
	}

	probeEnd := geodesy.Destination(source, 0, s.opt.ProbeRangeM)
	probe, err := s.provider.Profile(ctx, source, probeEnd, 2)
	if err != nil {
		return nil, eris.Wrap(err, "scan: baseline probe")
	}
	z0 := s.baseline(probe)

	return s.fanOut(ctx, uuid.New().String(), source, specs, sightAngleDeg, z0)
}

// baseline derives the shared eye-height baseline from a probe profile,
// falling back to eye height alone over a no-data first sample.
func (s *Scanner) baseline(probe *Profile) float64 {
	if probe.Len() > 0 && probe.Elevations[0] != nil {
		return *probe.Elevations[0] + s.opt.EyeHeightM
	}
	return s.opt.EyeHeightM
}

// fanOut evaluates every planned ray concurrently. Results keep their
// planned index regardless of completion order. Rays never fail the scan:
// a fetch error produces a degraded result instead.
func (s *Scanner) fanOut(ctx context.Context, scanID string, source geodesy.Point, specs []raySpec, sightAngleDeg, z0 float64) ([]FanRayResult, error) {
	results := make([]FanRayResult, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opt.Concurrency)
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = s.evaluateRay(gctx, scanID, source, spec, i, sightAngleDeg, z0)
			return nil // individual ray failures degrade, never abort
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scan: canceled")
	}
	return results, nil
}

// evaluateRay fetches one ray's profile and runs the detector with the
// shared baseline. On provider failure it synthesizes a clear result from
// pure geometry so the visualization layer still has something to draw.
func (s *Scanner) evaluateRay(ctx context.Context, scanID string, source geodesy.Point, spec raySpec, index int, sightAngleDeg, z0 float64) FanRayResult {
	end := geodesy.Destination(source, spec.azimuthDeg, spec.rangeM)

	profile, err := s.provider.Profile(ctx, source, end, s.sampleCount(spec.rangeM))
	if err == nil {
		err = profile.Validate()
	}
	if err != nil {
		zap.L().Warn("ray degraded to synthetic geometry",
			zap.String("scan_id", scanID),
			zap.Int("ray_index", index),
			zap.Float64("azimuth_deg", spec.azimuthDeg),
			zap.Error(err),
		)
		return s.degradedRay(source, spec, index, sightAngleDeg, z0, end)
	}

	result := Detect(profile, s.detectParams(sightAngleDeg), source, &z0)
	return FanRayResult{
		RayResult:     result,
		AzimuthDeg:    spec.azimuthDeg,
		RayIndex:      index,
		MaxRangePoint: end,
	}
}

// degradedRay builds the best-effort result for a ray whose profile could
// not be fetched: clear, no hit, geometry computed from the ray equation at
// full range.
func (s *Scanner) degradedRay(source geodesy.Point, spec raySpec, index int, sightAngleDeg, z0 float64, end geodesy.Point) FanRayResult {
	slope := math.Tan(sightAngleDeg * math.Pi / 180)
	start := Vertex{Lng: source.Lng, Lat: source.Lat, Elev: z0}
	return FanRayResult{
		RayResult: RayResult{
			Reason:     ReasonClear,
			ReasonText: ReasonClear.String(),
			Source:     start,
			Geometry: RayGeometry{
				Start: start,
				End:   Vertex{Lng: end.Lng, Lat: end.Lat, Elev: z0 + slope*spec.rangeM},
			},
		},
		AzimuthDeg:    spec.azimuthDeg,
		RayIndex:      index,
		MaxRangePoint: end,
		Degraded:      true,
	}
}
