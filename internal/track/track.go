package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/geom"
)

// Track is a generated closed loop. Path is cyclic: Path[0] follows
// Path[len-1]. It is read-only once built and safe to share between cars.
type Track struct {
	Path         []r2.Vec  // Centerline samples, about Step apart
	Headings     []float64 // Smoothed tracer heading per sample
	Borders      []bool    // Hard-turn border flags (plotting only)
	InitialAngle float64   // Heading at Path[0]
	Step         float64
	HalfWidth    float64
	BorderWidth  float64
}

// Quad is a road or border tile: two edge points at the start sample and
// two at the end sample.
type Quad [4]r2.Vec

// BorderQuad is a border strip on the outside of a hard turn.
type BorderQuad struct {
	Index   int
	Red     bool // alternating red and white strips
	Corners Quad
}

func newTrack(lap []Sample, borders []bool, cfg Config) *Track {
	t := &Track{
		Path:        make([]r2.Vec, len(lap)),
		Headings:    make([]float64, len(lap)),
		Borders:     borders,
		Step:        cfg.DetailStep,
		HalfWidth:   cfg.HalfWidth,
		BorderWidth: cfg.Border,
	}
	for i, s := range lap {
		t.Path[i] = s.Pos
		t.Headings[i] = s.Beta
	}
	if len(lap) > 0 {
		t.InitialAngle = lap[0].Beta
	}
	return t
}

// FromPath rebuilds a Track from stored centerline data.
func FromPath(path []r2.Vec, headings []float64, borders []bool, cfg Config) *Track {
	t := &Track{
		Path:        append([]r2.Vec(nil), path...),
		Headings:    append([]float64(nil), headings...),
		Borders:     append([]bool(nil), borders...),
		Step:        cfg.DetailStep,
		HalfWidth:   cfg.HalfWidth,
		BorderWidth: cfg.Border,
	}
	if len(t.Headings) > 0 {
		t.InitialAngle = t.Headings[0]
	}
	return t
}

// Len returns the number of centerline samples.
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Path)
}

// Clear drops all generated data, as done on race reset.
func (t *Track) Clear() {
	t.Path = nil
	t.Headings = nil
	t.Borders = nil
	t.InitialAngle = 0
}

// Point returns the centerline sample at index, wrapping around the loop.
func (t *Track) Point(index int) r2.Vec {
	return t.Path[geom.Wrap(index, len(t.Path))]
}

// Direction returns the unit vector from sample index to the next one in
// travel order (the previous one when reverse is set).
func (t *Track) Direction(index int, reverse bool) r2.Vec {
	n := len(t.Path)
	from := t.Path[geom.Wrap(index, n)]
	to := t.Path[geom.Advance(index, 1, n, reverse)]
	return geom.NormalizeWithEpsilon(r2.Sub(to, from))
}

// SpawnPose returns the position and body angle for a car placed on sample
// index facing the direction of travel.
func (t *Track) SpawnPose(index int, reverse bool) (r2.Vec, float64) {
	return t.Point(index), geom.HeadingAngle(t.Direction(index, reverse))
}

// Length returns the total centerline length including the closing segment.
func (t *Track) Length() float64 {
	n := len(t.Path)
	total := 0.0
	for i := 0; i < n; i++ {
		total += geom.Distance(t.Path[i], t.Path[geom.Next(i, n)])
	}
	return total
}

// ClosureGap measures the head-to-tail join of the loop with the same metric
// the generator accepts tracks by.
func (t *Track) ClosureGap() float64 {
	if t.Len() == 0 {
		return math.Inf(1)
	}
	first := Sample{Beta: t.Headings[0], Pos: t.Path[0]}
	last := Sample{Beta: t.Headings[len(t.Headings)-1], Pos: t.Path[len(t.Path)-1]}
	return closureGap([]Sample{first, last})
}

// edge returns the point half width away from sample i on the side selected
// by sign, measured along the heading normal.
func (t *Track) edge(i int, sign, width float64) r2.Vec {
	c, s := math.Cos(t.Headings[i]), math.Sin(t.Headings[i])
	return r2.Add(t.Path[i], r2.Scale(sign*width, r2.Vec{X: c, Y: s}))
}

// Tiles returns one road quad per segment.
func (t *Track) Tiles() []Quad {
	n := t.Len()
	tiles := make([]Quad, 0, n)
	for i := 0; i < n; i++ {
		j := geom.Next(i, n)
		tiles = append(tiles, Quad{
			t.edge(i, -1, t.HalfWidth),
			t.edge(i, 1, t.HalfWidth),
			t.edge(j, -1, t.HalfWidth),
			t.edge(j, 1, t.HalfWidth),
		})
	}
	return tiles
}

// BorderQuads returns the border strips for every flagged segment, placed on
// the outside of the turn.
func (t *Track) BorderQuads() []BorderQuad {
	n := t.Len()
	var quads []BorderQuad
	for i := 0; i < n && i < len(t.Borders); i++ {
		if !t.Borders[i] {
			continue
		}
		j := geom.Next(i, n)
		side := 1.0
		if math.Signbit(t.Headings[i] - t.Headings[j]) {
			side = -1
		}
		quads = append(quads, BorderQuad{
			Index: i,
			Red:   i%2 != 0,
			Corners: Quad{
				t.edge(i, side, t.HalfWidth),
				t.edge(i, side, t.HalfWidth+t.BorderWidth),
				t.edge(j, side, t.HalfWidth),
				t.edge(j, side, t.HalfWidth+t.BorderWidth),
			},
		})
	}
	return quads
}
