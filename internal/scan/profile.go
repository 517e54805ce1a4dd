package scan

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/kaishiraishi/sightline/internal/geodesy"
)

// Profile is an ordered sequence of elevation samples along a geodesic.
// The four slices are parallel; a nil Elevations entry marks a no-data
// sample (a gap in the surface model, not sea level).
type Profile struct {
	Distances  []float64  `json:"distances_m"`
	Elevations []*float64 `json:"elev_m"`
	Lngs       []float64  `json:"lngs"`
	Lats       []float64  `json:"lats"`
}

// Provider returns an elevation profile sampled along the geodesic from
// start to end, first sample at distance 0 and last at the full distance.
// Implementations own their transport, timeouts, and caching.
type Provider interface {
	Profile(ctx context.Context, start, end geodesy.Point, sampleCount int) (*Profile, error)
}

// Len returns the number of samples.
func (p *Profile) Len() int { return len(p.Distances) }

// Validate checks the profile invariants: parallel slices of equal length,
// at least one sample, distances strictly increasing from 0.
func (p *Profile) Validate() error {
	n := len(p.Distances)
	if n == 0 {
		return eris.New("profile: no samples")
	}
	if len(p.Elevations) != n || len(p.Lngs) != n || len(p.Lats) != n {
		return eris.Errorf("profile: mismatched sample arrays (%d distances, %d elevations, %d lngs, %d lats)",
			n, len(p.Elevations), len(p.Lngs), len(p.Lats))
	}
	if p.Distances[0] != 0 {
		return eris.Errorf("profile: first sample at distance %v, want 0", p.Distances[0])
	}
	for i := 1; i < n; i++ {
		if p.Distances[i] <= p.Distances[i-1] {
			return eris.Errorf("profile: distances not strictly increasing at index %d (%v after %v)",
				i, p.Distances[i], p.Distances[i-1])
		}
	}
	return nil
}

// TotalDistance returns the distance of the last sample.
func (p *Profile) TotalDistance() float64 {
	if len(p.Distances) == 0 {
		return 0
	}
	return p.Distances[len(p.Distances)-1]
}
