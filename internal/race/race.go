package race

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/car"
	"github.com/banshee-data/circuit/internal/carstate"
	"github.com/banshee-data/circuit/internal/geom"
	"github.com/banshee-data/circuit/internal/monitoring"
	"github.com/banshee-data/circuit/internal/physics"
	"github.com/banshee-data/circuit/internal/track"
)

// ErrNoTrack is returned when cars are spawned before Reset built a track.
var ErrNoTrack = errors.New("race has no track")

// Race owns the world, the track and the cars.
type Race struct {
	cfg       Config
	gen       *track.Generator
	track     *track.Track
	world     *physics.World
	extractor *carstate.Extractor
	scenario  Scenario

	cars   []*car.Car // spawn order
	nextID int
	ticks  int
	time   float64
	leader int
}

// New creates a race. Call Reset to generate the first track.
func New(cfg Config, rng track.Source) *Race {
	return &Race{
		cfg:       cfg,
		gen:       track.NewGenerator(cfg.Track, rng),
		world:     physics.NewWorld(cfg.Physics),
		extractor: carstate.NewExtractor(cfg.State),
		leader:    -1,
	}
}

// NewWithTrack creates a race on an existing track, for replaying stored
// tracks. Reset still generates a fresh one.
func NewWithTrack(cfg Config, rng track.Source, t *track.Track) *Race {
	r := New(cfg, rng)
	r.setTrack(t)
	return r
}

// setTrack installs t and rebuilds the extractor from the track's own
// sample spacing and half width, which may differ from the configured ones
// for stored tracks.
func (r *Race) setTrack(t *track.Track) {
	r.track = t
	sc := r.cfg.State
	if t != nil {
		if t.Step > 0 {
			sc.Step = t.Step
		}
		if t.HalfWidth > 0 {
			sc.HalfWidth = t.HalfWidth
		}
	}
	r.extractor = carstate.NewExtractor(sc)
}

// SetScenario attaches the scenario hooks.
func (r *Race) SetScenario(s Scenario) { r.scenario = s }

// Track returns the current track, nil before the first Reset.
func (r *Race) Track() *track.Track { return r.track }

// World returns the physics world.
func (r *Race) World() *physics.World { return r.world }

// Cars returns the cars in spawn order. The slice must not be modified.
func (r *Race) Cars() []*car.Car { return r.cars }

// Car returns the car with the given id.
func (r *Race) Car(id int) (*car.Car, bool) {
	for _, c := range r.cars {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// Time returns the simulated time since the last reset.
func (r *Race) Time() float64 { return r.time }

// Ticks returns the number of ticks since the last reset.
func (r *Race) Ticks() int { return r.ticks }

// Reset destroys every car, drops the track and generates a new one.
// Generation exhaustion is returned to the caller.
func (r *Race) Reset() error {
	for len(r.cars) > 0 {
		r.removeAt(len(r.cars) - 1)
	}
	if r.track != nil {
		r.track.Clear()
		r.track = nil
	}
	r.ticks, r.time, r.leader = 0, 0, -1

	t, attempts, err := r.gen.GenerateWithRetry()
	if err != nil {
		return fmt.Errorf("reset race: %w", err)
	}
	r.setTrack(t)
	monitoring.Opsf("race: reset with %d-sample track (%.1f long) after %d attempt(s)", t.Len(), t.Length(), attempts)
	return nil
}

// SpawnVehicle creates a car on centerline index, facing the direction of
// travel, shifted offset along its right side. A forward car spawned on
// index 0 starts on lap 0; every other car starts on the -1 sentinel until
// it first crosses the start line.
func (r *Race) SpawnVehicle(index int, reverse bool, offset float64) (*car.Car, error) {
	if r.track.Len() < 2 {
		return nil, ErrNoTrack
	}
	index = geom.Wrap(index, r.track.Len())

	r.nextID++
	c, err := car.New(r.world, r.nextID, r.cfg.Car)
	if err != nil {
		return nil, fmt.Errorf("spawn vehicle: %w", err)
	}
	pos, angle := r.track.SpawnPose(index, reverse)
	c.SetInitialState(pos, angle, offset)
	c.SetTrackIndex(index)
	c.SetReverse(reverse)

	lap := c.Lap()
	lap.LapStart = r.time
	if index == 0 && !reverse {
		lap.Laps = 0
	}

	r.cars = append(r.cars, c)
	monitoring.Diagf("race: spawned car %d at index %d reverse=%t offset=%.2f", c.ID(), index, reverse, offset)
	if r.scenario != nil {
		r.scenario.OnVehicleSpawned(c)
	}
	return c, nil
}

// UnspawnVehicle removes a car and releases its physics handles. It returns
// false when no car has that id.
func (r *Race) UnspawnVehicle(id int) bool {
	for i, c := range r.cars {
		if c.ID() == id {
			r.removeAt(i)
			return true
		}
	}
	return false
}

func (r *Race) removeAt(i int) {
	c := r.cars[i]
	if r.scenario != nil {
		r.scenario.OnVehicleUnspawned(c)
	}
	c.Destroy()
	r.cars = slices.Delete(r.cars, i, i+1)
	monitoring.Diagf("race: unspawned car %d", c.ID())
}

// Tick advances the race by dt seconds.
func (r *Race) Tick(dt float64) {
	if r.scenario != nil {
		r.scenario.Update(r)
	}
	if r.track.Len() == 0 {
		return
	}

	for _, c := range r.cars {
		prev := c.TrackIndex()
		cur := r.nearestIndex(c.Position(), prev)
		c.SetTrackIndex(cur)
		r.updateLap(c, prev, cur)
	}

	var vehicles []carstate.Vehicle
	for _, c := range r.cars {
		ctrl := c.Controller()
		if ctrl == nil || r.ticks%Cadence(ctrl.Interval(), r.cfg.Speed) != 0 {
			continue
		}
		if vehicles == nil {
			vehicles = r.vehicles()
		}
		ctrl.Update(r.extractor.Generate(c, r.track.Path, c.TrackIndex(), c.Reverse(), vehicles), c)
	}

	for _, c := range r.cars {
		c.Step(dt)
	}
	r.world.Step(dt)

	r.ticks++
	r.time += dt

	if r.cfg.ComputeRankings && len(r.cars) > 0 && monitoring.Enabled(monitoring.Trace) {
		if lead := r.Ranking()[0]; lead != r.leader {
			monitoring.Tracef("race: car %d leads at t=%.2f", lead, r.time)
			r.leader = lead
		}
	}
}

// State builds the observation of car id as its controller would see it.
func (r *Race) State(id int) (carstate.State, bool) {
	c, ok := r.Car(id)
	if !ok || r.track.Len() == 0 {
		return carstate.State{}, false
	}
	return r.extractor.Generate(c, r.track.Path, c.TrackIndex(), c.Reverse(), r.vehicles()), true
}

func (r *Race) vehicles() []carstate.Vehicle {
	out := make([]carstate.Vehicle, len(r.cars))
	for i, c := range r.cars {
		out[i] = c
	}
	return out
}

// nearestIndex searches ±searchWindow around prev for the closest
// centerline point.
func (r *Race) nearestIndex(pos r2.Vec, prev int) int {
	n := r.track.Len()
	best := geom.Wrap(prev, n)
	bestDist := geom.Distance(pos, r.track.Path[best])
	for d := -searchWindow; d <= searchWindow; d++ {
		i := geom.Advance(prev, d, n, false)
		if dist := geom.Distance(pos, r.track.Path[i]); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// updateLap counts a lap when the car crosses the start line in its
// direction of travel. Crossing it backwards is owed: the next forward
// crossing only pays that back.
func (r *Race) updateLap(c *car.Car, prev, cur int) {
	n := r.track.Len()
	lap := c.Lap()
	if geom.Crossed(prev, cur, n, searchWindow, !c.Reverse()) {
		lap.Owed++
		return
	}
	if !geom.Crossed(prev, cur, n, searchWindow, c.Reverse()) {
		return
	}
	if lap.Owed > 0 {
		lap.Owed--
		return
	}
	if lap.Laps < 0 {
		lap.Laps = 0
		lap.LapStart = r.time
		monitoring.Diagf("race: car %d started timing at t=%.2f", c.ID(), r.time)
		return
	}
	lapTime := r.time - lap.LapStart
	lap.Laps++
	lap.LastLapTime = lapTime
	if lap.BestLapTime == 0 || lapTime < lap.BestLapTime {
		lap.BestLapTime = lapTime
	}
	lap.LapStart = r.time
	monitoring.Diagf("race: car %d completed lap %d in %.3fs", c.ID(), lap.Laps, lapTime)
}

// LapInfo returns the lap record of car id.
func (r *Race) LapInfo(id int) (car.LapRecord, bool) {
	c, ok := r.Car(id)
	if !ok {
		return car.LapRecord{}, false
	}
	return *c.Lap(), true
}

// progress is the ranking score: completed laps times track length plus
// the distance in samples from the start line in the direction of travel.
func (r *Race) progress(c *car.Car) int {
	n := r.track.Len()
	idx := c.TrackIndex()
	if c.Reverse() {
		idx = geom.Wrap(-idx, n)
	}
	return max(c.Lap().Laps, 0)*n + idx
}

// Ranking returns car ids from first to last. Equal progress is ordered by
// ascending id.
func (r *Race) Ranking() []int {
	type entry struct{ id, score int }
	entries := make([]entry, len(r.cars))
	for i, c := range r.cars {
		entries[i] = entry{c.ID(), r.progress(c)}
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// OutOfBounds reports whether any car has left the playfield square.
func (r *Race) OutOfBounds() bool {
	limit := r.cfg.Track.Playfield
	for _, c := range r.cars {
		p := c.Position()
		if math.Abs(p.X) > limit || math.Abs(p.Y) > limit {
			return true
		}
	}
	return false
}
