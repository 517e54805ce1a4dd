package dsm

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/kaishiraishi/sightline/internal/geodesy"
	"github.com/kaishiraishi/sightline/internal/scan"
)

// Obstacle is a synthetic ridge or structure in a fixture scenario. It
// applies to rays whose azimuth falls inside [AzimuthFromDeg, AzimuthToDeg]
// and raises the surface to ElevationM over [StartFrac, EndFrac] of the
// ray's length.
type Obstacle struct {
	AzimuthFromDeg float64 `yaml:"azimuth_from_deg"`
	AzimuthToDeg   float64 `yaml:"azimuth_to_deg"`
	StartFrac      float64 `yaml:"start_frac"`
	EndFrac        float64 `yaml:"end_frac"`
	ElevationM     float64 `yaml:"elevation_m"`
}

// Gap marks a span of samples with no elevation data, the same way a real
// raster reports voids over water or outside coverage.
type Gap struct {
	AzimuthFromDeg float64 `yaml:"azimuth_from_deg"`
	AzimuthToDeg   float64 `yaml:"azimuth_to_deg"`
	StartFrac      float64 `yaml:"start_frac"`
	EndFrac        float64 `yaml:"end_frac"`
}

// Scenario is a synthetic terrain description loaded from YAML. It lets
// scans run offline against known geometry, both for demos and for replaying
// a reported result without the live service.
type Scenario struct {
	Name      string     `yaml:"name"`
	GroundM   float64    `yaml:"ground_m"`
	Obstacles []Obstacle `yaml:"obstacles"`
	Gaps      []Gap      `yaml:"gaps"`
}

// FixtureProvider serves profiles synthesized from a Scenario.
type FixtureProvider struct {
	scenario Scenario
}

// LoadScenario reads a Scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dsm: open scenario")
	}
	defer f.Close() //nolint:errcheck
	return ParseScenario(f)
}

// ParseScenario decodes a Scenario from YAML.
func ParseScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, eris.Wrap(err, "dsm: parse scenario")
	}
	for i, o := range s.Obstacles {
		if o.StartFrac < 0 || o.EndFrac > 1 || o.StartFrac > o.EndFrac {
			return nil, eris.Errorf("dsm: obstacle %d has invalid span [%g, %g]", i, o.StartFrac, o.EndFrac)
		}
	}
	for i, g := range s.Gaps {
		if g.StartFrac < 0 || g.EndFrac > 1 || g.StartFrac > g.EndFrac {
			return nil, eris.Errorf("dsm: gap %d has invalid span [%g, %g]", i, g.StartFrac, g.EndFrac)
		}
	}
	return &s, nil
}

// NewFixtureProvider wraps a Scenario as a scan.Provider.
func NewFixtureProvider(s *Scenario) *FixtureProvider {
	return &FixtureProvider{scenario: *s}
}

// Profile synthesizes a profile along the geodesic from start to end. The
// azimuth of the request selects which obstacles and gaps apply.
func (p *FixtureProvider) Profile(ctx context.Context, start, end geodesy.Point, sampleCount int) (*scan.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sampleCount < 1 {
		return nil, eris.Errorf("dsm: sample count %d out of range", sampleCount)
	}

	azimuth := geodesy.InitialBearing(start, end)
	total := geodesy.Distance(start, end)

	profile := &scan.Profile{
		Distances:  make([]float64, sampleCount),
		Elevations: make([]*float64, sampleCount),
		Lngs:       make([]float64, sampleCount),
		Lats:       make([]float64, sampleCount),
	}
	for i := 0; i < sampleCount; i++ {
		frac := 0.0
		if sampleCount > 1 {
			frac = float64(i) / float64(sampleCount-1)
		}
		d := frac * total
		pos := geodesy.Destination(start, azimuth, d)
		profile.Distances[i] = d
		profile.Lngs[i] = pos.Lng
		profile.Lats[i] = pos.Lat

		if p.inGap(azimuth, frac) {
			continue
		}
		elev := p.scenario.GroundM
		for _, o := range p.scenario.Obstacles {
			if azimuthInRange(azimuth, o.AzimuthFromDeg, o.AzimuthToDeg) && frac >= o.StartFrac && frac <= o.EndFrac && o.ElevationM > elev {
				elev = o.ElevationM
			}
		}
		e := elev
		profile.Elevations[i] = &e
	}
	return profile, nil
}

func (p *FixtureProvider) inGap(azimuth, frac float64) bool {
	for _, g := range p.scenario.Gaps {
		if azimuthInRange(azimuth, g.AzimuthFromDeg, g.AzimuthToDeg) && frac >= g.StartFrac && frac <= g.EndFrac {
			return true
		}
	}
	return false
}

// azimuthInRange handles ranges that wrap through north, e.g. [350, 10].
func azimuthInRange(azimuth, from, to float64) bool {
	if from <= to {
		return azimuth >= from && azimuth <= to
	}
	return azimuth >= from || azimuth <= to
}
