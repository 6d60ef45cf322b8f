package carstate

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/config"
	"github.com/banshee-data/circuit/internal/geom"
)

// Vehicle is the read-only view of a car the extractor needs.
type Vehicle interface {
	ID() int
	Position() r2.Vec
	Velocity() r2.Vec
	Forward() r2.Vec
	Side() r2.Vec
	AngularVelocity() float64
	WheelCount() int
	WheelJointAngles() [2]float64
	WheelOmegas() [4]float64
	TrackIndex() int
}

// Opponent describes another car relative to the observed one.
type Opponent struct {
	ID       int
	Index    int // opponent's nearest centerline index
	Distance float64
	Position r2.Vec
	Velocity r2.Vec
	Forward  r2.Vec
}

// State is the observation of one car at one sample.
type State struct {
	DistanceFromRoad float64    // signed, in track half widths; positive is right of the road
	VelocityRoadRef  [2]float64 // along, across the road, in MaxSpeed units
	AngleWithRoad    float64    // in units of π
	WheelAngles      [2]float64 // front wheel joint angles, in units of π
	WheelOmegas      [4]float64 // in MaxOmega units
	CarOmega         float64    // in MaxOmega units
	DriftAngle       float64    // heading vs velocity, in units of π

	// Per lookahead distance: unit direction to the centerline point as
	// (forward, side) pairs in the car frame and in the road frame, plus
	// the raw distance from the car.
	PointsCarRef   []float64
	PointsRoadRef  []float64
	PointDistances []float64

	Opponents []Opponent // ascending distance, then id
}

// Features flattens the scalar part of the state (everything except the
// opponents and raw distances) into one vector.
func (s State) Features() []float64 {
	out := make([]float64, 0, 12+len(s.PointsCarRef)+len(s.PointsRoadRef))
	out = append(out, s.DistanceFromRoad)
	out = append(out, s.VelocityRoadRef[:]...)
	out = append(out, s.AngleWithRoad)
	out = append(out, s.WheelAngles[:]...)
	out = append(out, s.WheelOmegas[:]...)
	out = append(out, s.CarOmega, s.DriftAngle)
	out = append(out, s.PointsCarRef...)
	out = append(out, s.PointsRoadRef...)
	return out
}

// Config holds the normalization constants and lookahead distances.
type Config struct {
	Step      float64 // centerline sample spacing
	HalfWidth float64
	MaxSpeed  float64
	MaxOmega  float64
	Lookahead []float64
}

// ConfigFromSim builds a Config from a loaded SimConfig.
func ConfigFromSim(cfg *config.SimConfig) Config {
	return Config{
		Step:      cfg.GetTrackDetailStep(),
		HalfWidth: cfg.GetTrackHalfWidth(),
		MaxSpeed:  cfg.GetMaxSpeed(),
		MaxOmega:  cfg.GetMaxOmega(),
		Lookahead: cfg.GetLookaheadDistances(),
	}
}

// lookahead is a lookahead distance split into whole centerline segments
// and the remainder.
type lookahead struct {
	segments  int
	remainder float64
}

// Extractor generates states with the lookahead split computed once.
type Extractor struct {
	cfg   Config
	ahead []lookahead
}

// NewExtractor precomputes the lookahead split for cfg.
func NewExtractor(cfg Config) *Extractor {
	e := &Extractor{cfg: cfg, ahead: make([]lookahead, len(cfg.Lookahead))}
	for i, d := range cfg.Lookahead {
		if cfg.Step <= 0 {
			e.ahead[i] = lookahead{remainder: d}
			continue
		}
		n := int(math.Floor(d / cfg.Step))
		e.ahead[i] = lookahead{segments: n, remainder: d - float64(n)*cfg.Step}
	}
	return e
}

// Generate builds the state of v. See Extractor.Generate.
func Generate(v Vehicle, path []r2.Vec, index int, reverse bool, opponents []Vehicle, cfg Config) State {
	return NewExtractor(cfg).Generate(v, path, index, reverse, opponents)
}

// Generate builds the state of v on the closed centerline path, starting
// from its nearest index. The road frame follows the direction of travel,
// so it is flipped for a reverse car. Opponents may include v itself; it is
// skipped. A nil vehicle, a car without four wheels or an empty path yields
// the zero State.
func (e *Extractor) Generate(v Vehicle, path []r2.Vec, index int, reverse bool, opponents []Vehicle) State {
	var s State
	if v == nil || v.WheelCount() != 4 || len(path) == 0 {
		return s
	}
	n := len(path)
	index = geom.Wrap(index, n)

	pos := v.Position()
	vel := v.Velocity()
	forward := v.Forward()
	side := v.Side()

	// Pick the segment on the side of the nearer neighbour.
	prev, next := geom.Prev(index, n), geom.Next(index, n)
	a, b := index, next
	if geom.Distance(pos, path[prev]) < geom.Distance(pos, path[next]) {
		a, b = prev, index
	}
	from, to := path[a], path[b]
	base := a
	if reverse {
		from, to = to, from
		base = b
	}

	roadDir := geom.NormalizeWithEpsilon(r2.Sub(to, from))
	roadSide := geom.Side(roadDir)
	proj := r2.Dot(r2.Sub(pos, from), roadDir)
	onRoad := r2.Add(from, r2.Scale(proj, roadDir))

	offset := r2.Sub(pos, onRoad)
	dist := r2.Norm(offset)
	if r2.Dot(offset, roadSide) <= 0 {
		dist = -dist
	}
	if e.cfg.HalfWidth > 0 {
		dist /= e.cfg.HalfWidth
	}
	s.DistanceFromRoad = dist

	s.VelocityRoadRef = [2]float64{
		r2.Dot(vel, roadDir) / e.cfg.MaxSpeed,
		r2.Dot(vel, roadSide) / e.cfg.MaxSpeed,
	}
	s.AngleWithRoad = geom.SignedAngle(forward, roadDir) / math.Pi

	joints := v.WheelJointAngles()
	for i := range joints {
		s.WheelAngles[i] = joints[i] / math.Pi
	}
	omegas := v.WheelOmegas()
	for i := range omegas {
		s.WheelOmegas[i] = omegas[i] / e.cfg.MaxOmega
	}
	s.CarOmega = v.AngularVelocity() / e.cfg.MaxOmega
	s.DriftAngle = geom.SignedAngle(forward, geom.NormalizeWithEpsilon(vel)) / math.Pi

	s.PointsCarRef = make([]float64, 2*len(e.ahead))
	s.PointsRoadRef = make([]float64, 2*len(e.ahead))
	s.PointDistances = make([]float64, len(e.ahead))
	for i, la := range e.ahead {
		point := e.samplePoint(path, base, proj, la, reverse)

		dir := geom.NormalizeWithEpsilon(r2.Sub(point, pos))
		s.PointsCarRef[2*i] = r2.Dot(dir, forward)
		s.PointsCarRef[2*i+1] = r2.Dot(dir, side)

		dir = geom.NormalizeWithEpsilon(r2.Sub(point, onRoad))
		s.PointsRoadRef[2*i] = r2.Dot(dir, roadDir)
		s.PointsRoadRef[2*i+1] = r2.Dot(dir, roadSide)

		s.PointDistances[i] = geom.Distance(point, pos)
	}

	s.Opponents = opponentsOf(v, pos, opponents)
	return s
}

// samplePoint walks the loop from base in travel order until the remaining
// distance is shorter than one step, then interpolates on that segment.
func (e *Extractor) samplePoint(path []r2.Vec, base int, proj float64, la lookahead, reverse bool) r2.Vec {
	n := len(path)
	idx := geom.Advance(base, la.segments, n, reverse)
	rest := la.remainder + proj
	if e.cfg.Step > 0 {
		for rest >= e.cfg.Step {
			idx = geom.Advance(idx, 1, n, reverse)
			rest -= e.cfg.Step
		}
	}
	p0 := path[idx]
	p1 := path[geom.Advance(idx, 1, n, reverse)]
	return r2.Add(p0, r2.Scale(rest, geom.NormalizeWithEpsilon(r2.Sub(p1, p0))))
}

func opponentsOf(self Vehicle, pos r2.Vec, others []Vehicle) []Opponent {
	out := make([]Opponent, 0, len(others))
	for _, o := range others {
		if o == nil || o.ID() == self.ID() {
			continue
		}
		op := o.Position()
		out = append(out, Opponent{
			ID:       o.ID(),
			Index:    o.TrackIndex(),
			Distance: geom.Distance(pos, op),
			Position: op,
			Velocity: o.Velocity(),
			Forward:  o.Forward(),
		})
	}
	slices.SortFunc(out, func(x, y Opponent) int {
		if c := cmp.Compare(x.Distance, y.Distance); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}
