package race

import (
	"fmt"
	"slices"
	"strings"

	"github.com/banshee-data/circuit/internal/car"
	"github.com/banshee-data/circuit/internal/track"
)

// Strategy selects where a Spawner places the next car.
type Strategy int

const (
	// AllOnStart places every car on index 0.
	AllOnStart Strategy = iota
	// Random places cars on a uniformly drawn index.
	Random
	// Spaced places the car halfway across the largest gap between cars.
	Spaced
	// Formula1 builds a staggered grid behind the start line.
	Formula1
)

var strategyNames = map[Strategy]string{
	AllOnStart: "all-on-start",
	Random:     "random",
	Spaced:     "spaced",
	Formula1:   "formula1",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses a strategy name as printed by String.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown spawn strategy %q", name)
}

// gridStep is the index gap between consecutive Formula1 grid slots.
const gridStep = 2

// Spawner places cars on the track following a Strategy.
type Spawner struct {
	strategy Strategy
	rng      track.Source

	gridIndex  int
	gridOffset float64
}

// NewSpawner returns a Spawner. rng is only used by the Random strategy.
func NewSpawner(strategy Strategy, rng track.Source) *Spawner {
	s := &Spawner{strategy: strategy, rng: rng}
	s.Reset()
	return s
}

// Reset restarts the Formula1 grid.
func (s *Spawner) Reset() {
	s.gridIndex = 0
	s.gridOffset = 1
}

// Spawn places one forward car on r.
func (s *Spawner) Spawn(r *Race) (*car.Car, error) {
	n := r.Track().Len()
	if n < 2 {
		return nil, ErrNoTrack
	}

	switch s.strategy {
	case AllOnStart:
		return r.SpawnVehicle(0, false, 0)
	case Random:
		idx := 0
		if s.rng != nil {
			idx = min(int(s.rng.Float64()*float64(n)), n-1)
		}
		return r.SpawnVehicle(idx, false, 0)
	case Spaced:
		return r.SpawnVehicle(spacedIndex(r.Cars(), n), false, 0)
	default:
		if s.gridIndex < gridStep {
			s.gridIndex += n
		}
		s.gridIndex -= gridStep
		offset := s.gridOffset * r.Track().HalfWidth / 2
		s.gridOffset = -s.gridOffset
		return r.SpawnVehicle(s.gridIndex, false, offset)
	}
}

// spacedIndex is the midpoint of the largest gap between the cars' track
// indices, or 0 for an empty field.
func spacedIndex(cars []*car.Car, n int) int {
	if len(cars) == 0 {
		return 0
	}
	idx := make([]int, len(cars))
	for i, c := range cars {
		idx[i] = c.TrackIndex()
	}
	slices.Sort(idx)

	from, biggest := idx[0], 0
	for i, cur := range idx {
		next := idx[0] + n
		if i+1 < len(idx) {
			next = idx[i+1]
		}
		if diff := next - cur; diff > biggest {
			biggest, from = diff, cur
		}
	}
	return (from + biggest/2) % n
}
