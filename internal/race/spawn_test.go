package race

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/car"
	"github.com/banshee-data/circuit/internal/geom"
	"github.com/banshee-data/circuit/internal/testutil"
)

func TestParseStrategy(t *testing.T) {
	t.Parallel()
	for _, s := range []Strategy{AllOnStart, Random, Spaced, Formula1} {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseStrategy("FORMULA1")
	require.NoError(t, err)
	assert.Equal(t, Formula1, got)

	_, err = ParseStrategy("pit-lane")
	assert.Error(t, err)
	assert.Equal(t, "Strategy(9)", Strategy(9).String())
}

func TestSpawner_AllOnStart(t *testing.T) {
	t.Parallel()
	r := circleRace(t, 40, 30)
	s := NewSpawner(AllOnStart, nil)
	for range 3 {
		c, err := s.Spawn(r)
		require.NoError(t, err)
		assert.Equal(t, 0, c.TrackIndex())
		assert.Equal(t, 0, c.Lap().Laps)
	}
}

func TestSpawner_Random(t *testing.T) {
	t.Parallel()
	r := circleRace(t, 40, 30)
	s := NewSpawner(Random, testutil.NewRand(11))
	for range 20 {
		c, err := s.Spawn(r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, c.TrackIndex(), 0)
		assert.Less(t, c.TrackIndex(), 40)
	}
}

func TestSpawner_Spaced(t *testing.T) {
	t.Parallel()
	r := circleRace(t, 40, 30)
	s := NewSpawner(Spaced, nil)

	var got []int
	for range 4 {
		c, err := s.Spawn(r)
		require.NoError(t, err)
		got = append(got, c.TrackIndex())
	}
	assert.Equal(t, []int{0, 20, 10, 30}, got)
}

func TestSpacedIndex_WrapsGap(t *testing.T) {
	t.Parallel()
	r := circleRace(t, 40, 30)
	for _, i := range []int{30, 34} {
		_, err := r.SpawnVehicle(i, false, 0)
		require.NoError(t, err)
	}
	// The largest gap runs from 34 over the seam back to 30.
	assert.Equal(t, (34+36/2)%40, spacedIndex(r.Cars(), 40))
}

func TestSpawner_Formula1Grid(t *testing.T) {
	t.Parallel()
	const n = 40
	r := circleRace(t, n, 30)
	s := NewSpawner(Formula1, nil)
	half := r.Track().HalfWidth / 2

	var cars []*car.Car
	for range 3 {
		c, err := s.Spawn(r)
		require.NoError(t, err)
		cars = append(cars, c)
	}
	assert.Equal(t, []int{n - 2, n - 4, n - 6}, []int{cars[0].TrackIndex(), cars[1].TrackIndex(), cars[2].TrackIndex()})

	for i, c := range cars {
		center := r.Track().Point(c.TrackIndex())
		side := geom.Side(r.Track().Direction(c.TrackIndex(), false))
		lateral := r2.Dot(r2.Sub(c.Position(), center), side)
		want := half
		if i%2 == 1 {
			want = -half
		}
		assert.InDelta(t, want, lateral, 1e-6, "car %d", i)
		assert.Equal(t, -1, c.Lap().Laps)
	}

	s.Reset()
	c, err := s.Spawn(r)
	require.NoError(t, err)
	assert.Equal(t, n-2, c.TrackIndex())
}

func TestFillScenario(t *testing.T) {
	t.Parallel()
	r := circleRace(t, 40, 30)
	fill := &FillScenario{
		Target:  3,
		Spawner: NewSpawner(Spaced, nil),
		NewController: func(*car.Car) car.Controller {
			return ConstantController{Throttle: 0.2, Every: 2}
		},
	}
	r.SetScenario(fill)

	r.Tick(dt)
	require.Len(t, r.Cars(), 3)
	for _, c := range r.Cars() {
		assert.NotNil(t, c.Controller())
	}

	require.True(t, r.UnspawnVehicle(r.Cars()[0].ID()))
	r.Tick(dt)
	assert.Len(t, r.Cars(), 3)
	assert.Equal(t, 4, fill.Spawned)
	assert.Equal(t, 1, fill.Unspawned)
}

func TestFillScenario_NoTrack(t *testing.T) {
	t.Parallel()
	r := New(testConfig(), testutil.NewRand(1))
	fill := &FillScenario{Target: 2, Spawner: NewSpawner(AllOnStart, nil)}
	r.SetScenario(fill)
	r.Tick(dt)
	assert.Empty(t, r.Cars())
	assert.Zero(t, fill.Spawned)
}
