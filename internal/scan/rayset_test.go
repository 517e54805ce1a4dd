package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaishiraishi/sightline/internal/geodesy"
)

func TestFanAzimuths_SpansWindowInclusive(t *testing.T) {
	azimuths, err := FanAzimuths(90, 30, 13)
	require.NoError(t, err)
	require.Len(t, azimuths, 13)

	assert.InDelta(t, 75.0, azimuths[0], 1e-9)
	assert.InDelta(t, 105.0, azimuths[12], 1e-9)
	assert.InDelta(t, 90.0, azimuths[6], 1e-9)

	for j := 1; j < len(azimuths); j++ {
		assert.InDelta(t, 2.5, azimuths[j]-azimuths[j-1], 1e-9)
	}
}

func TestFanAzimuths_TwoRays(t *testing.T) {
	azimuths, err := FanAzimuths(0, 10, 2)
	require.NoError(t, err)
	assert.InDelta(t, -5.0, azimuths[0], 1e-9)
	assert.InDelta(t, 5.0, azimuths[1], 1e-9)
}

func TestFanAzimuths_Unwrapped(t *testing.T) {
	// A window straddling north keeps negative azimuths; wrapping belongs
	// to the coordinate consumer.
	azimuths, err := FanAzimuths(2, 20, 5)
	require.NoError(t, err)
	assert.InDelta(t, -8.0, azimuths[0], 1e-9)
	assert.InDelta(t, 12.0, azimuths[4], 1e-9)
}

func TestFanAzimuths_RejectsTooFewRays(t *testing.T) {
	_, err := FanAzimuths(90, 30, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2")
}

func TestSweepAzimuths_36Rays(t *testing.T) {
	azimuths, err := SweepAzimuths(36)
	require.NoError(t, err)
	require.Len(t, azimuths, 36)

	for j, az := range azimuths {
		assert.InDelta(t, float64(j)*10, az, 1e-9)
	}
	// No wraparound duplicate at 360.
	assert.Less(t, azimuths[35], 360.0)
}

func TestSweepAzimuths_SingleRay(t *testing.T) {
	azimuths, err := SweepAzimuths(1)
	require.NoError(t, err)
	require.Len(t, azimuths, 1)
	assert.Equal(t, 0.0, azimuths[0])
}

func TestSweepAzimuths_RejectsZero(t *testing.T) {
	_, err := SweepAzimuths(0)
	require.Error(t, err)
}

func TestBuildFanRays_RangeFollowsTarget(t *testing.T) {
	source := geodesy.Point{Lng: 139.7, Lat: 35.68}
	target := geodesy.Point{Lng: 139.71, Lat: 35.681}

	specs, err := buildFanRays(source, target, FanConfig{
		DeltaThetaDeg: 20,
		RayCount:      5,
		MaxRangeM:     99999, // ignored for bounded fans
	})
	require.NoError(t, err)
	require.Len(t, specs, 5)

	want := geodesy.Distance(source, target)
	for _, spec := range specs {
		assert.InDelta(t, want, spec.rangeM, 1e-9)
	}

	center := geodesy.InitialBearing(source, target)
	assert.InDelta(t, center-10, specs[0].azimuthDeg, 1e-9)
	assert.InDelta(t, center+10, specs[4].azimuthDeg, 1e-9)
}

func TestBuildSweepRays_RangeFromConfig(t *testing.T) {
	specs, err := buildSweepRays(FanConfig{RayCount: 4, MaxRangeM: 5000, FullScan: true})
	require.NoError(t, err)
	require.Len(t, specs, 4)
	for i, spec := range specs {
		assert.Equal(t, 5000.0, spec.rangeM)
		assert.InDelta(t, float64(i)*90, spec.azimuthDeg, 1e-9)
	}
}
