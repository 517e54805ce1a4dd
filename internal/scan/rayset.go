package scan

import (
	"github.com/rotisserie/eris"

	"github.com/kaishiraishi/sightline/internal/geodesy"
)

// raySpec is one planned ray: where it points and how far it reaches.
type raySpec struct {
	azimuthDeg float64
	rangeM     float64
}

// FanAzimuths returns count azimuths evenly spaced across the window
// [center-delta/2, center+delta/2], inclusive of both endpoints. The values
// are not wrapped into [0, 360); wrapping is the coordinate consumer's
// concern.
func FanAzimuths(centerDeg, deltaThetaDeg float64, count int) ([]float64, error) {
	if count < 2 {
		return nil, eris.Errorf("scan: bounded fan needs at least 2 rays, got %d", count)
	}
	azimuths := make([]float64, count)
	start := centerDeg - deltaThetaDeg/2
	step := deltaThetaDeg / float64(count-1)
	for j := range azimuths {
		azimuths[j] = start + float64(j)*step
	}
	return azimuths, nil
}

// SweepAzimuths returns count azimuths evenly spaced over the full circle,
// starting at 0 with step 360/count. The wraparound duplicate at 360 is
// not emitted.
func SweepAzimuths(count int) ([]float64, error) {
	if count < 1 {
		return nil, eris.Errorf("scan: full sweep needs at least 1 ray, got %d", count)
	}
	azimuths := make([]float64, count)
	step := 360.0 / float64(count)
	for j := range azimuths {
		azimuths[j] = float64(j) * step
	}
	return azimuths, nil
}

// buildFanRays plans a bounded fan toward target: the window centers on the
// bearing to the target and every ray runs the target distance, not the
// configured max range.
func buildFanRays(source, target geodesy.Point, fan FanConfig) ([]raySpec, error) {
	center := geodesy.InitialBearing(source, target)
	azimuths, err := FanAzimuths(center, fan.DeltaThetaDeg, fan.RayCount)
	if err != nil {
		return nil, err
	}
	rangeM := geodesy.Distance(source, target)
	specs := make([]raySpec, len(azimuths))
	for i, az := range azimuths {
		specs[i] = raySpec{azimuthDeg: az, rangeM: rangeM}
	}
	return specs, nil
}

// buildSweepRays plans a full-circle sweep at the configured max range.
func buildSweepRays(fan FanConfig) ([]raySpec, error) {
	azimuths, err := SweepAzimuths(fan.RayCount)
	if err != nil {
		return nil, err
	}
	specs := make([]raySpec, len(azimuths))
	for i, az := range azimuths {
		specs[i] = raySpec{azimuthDeg: az, rangeM: fan.MaxRangeM}
	}
	return specs, nil
}
