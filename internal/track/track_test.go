package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/geom"
)

// circleTrack builds a counter-clockwise circle the way the tracer would:
// heading beta makes the car travel along (-sin beta, cos beta).
func circleTrack(n int, radius float64) *Track {
	path := make([]r2.Vec, n)
	headings := make([]float64, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		path[i] = r2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
		headings[i] = a
	}
	borders := make([]bool, n)
	borders[3] = true
	cfg := DefaultConfig()
	cfg.DetailStep = 2 * radius * math.Sin(math.Pi/float64(n))
	return FromPath(path, headings, borders, cfg)
}

func TestSpawnPoseFacesTravelDirection(t *testing.T) {
	t.Parallel()
	tr := circleTrack(64, 100)

	pos, angle := tr.SpawnPose(0, false)
	assert.Equal(t, tr.Path[0], pos)
	fwd := geom.Forward(angle)
	assert.InDelta(t, 0.0, fwd.X, 0.1)
	assert.Greater(t, fwd.Y, 0.9)

	_, reverseAngle := tr.SpawnPose(0, true)
	assert.Less(t, geom.Forward(reverseAngle).Y, -0.9)
}

func TestDirectionWraps(t *testing.T) {
	t.Parallel()
	tr := circleTrack(16, 10)
	last := tr.Len() - 1
	want := geom.NormalizeWithEpsilon(r2.Sub(tr.Path[0], tr.Path[last]))
	got := tr.Direction(last, false)
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)

	back := tr.Direction(0, true)
	want = geom.NormalizeWithEpsilon(r2.Sub(tr.Path[last], tr.Path[0]))
	assert.InDelta(t, want.X, back.X, 1e-12)
	assert.InDelta(t, want.Y, back.Y, 1e-12)
}

func TestPointWraps(t *testing.T) {
	t.Parallel()
	tr := circleTrack(10, 5)
	assert.Equal(t, tr.Path[0], tr.Point(10))
	assert.Equal(t, tr.Path[9], tr.Point(-1))
	assert.Equal(t, tr.Path[3], tr.Point(-27))
}

func TestLengthOfCircle(t *testing.T) {
	t.Parallel()
	tr := circleTrack(360, 50)
	assert.InDelta(t, 2*math.Pi*50, tr.Length(), 0.01)
}

func TestTilesSpanRoadWidth(t *testing.T) {
	t.Parallel()
	tr := circleTrack(32, 100)
	tiles := tr.Tiles()
	require.Len(t, tiles, 32)
	for i, q := range tiles {
		assert.InDelta(t, 2*tr.HalfWidth, geom.Distance(q[0], q[1]), 1e-9, "tile %d", i)
		assert.InDelta(t, 2*tr.HalfWidth, geom.Distance(q[2], q[3]), 1e-9, "tile %d", i)
	}
}

func TestBorderQuadsOnlyForFlaggedSegments(t *testing.T) {
	t.Parallel()
	tr := circleTrack(32, 100)
	quads := tr.BorderQuads()
	require.Len(t, quads, 1)
	assert.Equal(t, 3, quads[0].Index)
	assert.True(t, quads[0].Red)
	assert.InDelta(t, tr.BorderWidth, geom.Distance(quads[0].Corners[0], quads[0].Corners[1]), 1e-9)
}

func TestClear(t *testing.T) {
	t.Parallel()
	tr := circleTrack(8, 1)
	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	assert.Nil(t, tr.Borders)
	assert.Equal(t, 0.0, tr.InitialAngle)
	assert.True(t, math.IsInf(tr.ClosureGap(), 1))
}

func TestFromPathCopiesInput(t *testing.T) {
	t.Parallel()
	path := []r2.Vec{{X: 1}, {X: 2}, {X: 3}}
	tr := FromPath(path, []float64{0.5, 0.5, 0.5}, []bool{false, true, false}, DefaultConfig())
	path[0].X = 99
	assert.Equal(t, 1.0, tr.Path[0].X)
	assert.Equal(t, 0.5, tr.InitialAngle)
}
