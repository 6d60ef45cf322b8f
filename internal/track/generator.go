package track

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/geom"
	"github.com/banshee-data/circuit/internal/monitoring"
)

// ErrGenerationExhausted is returned when no closed track could be produced
// within the configured number of attempts.
var ErrGenerationExhausted = errors.New("track generation exhausted retry budget")

// Tracer steering constants. Projections below the dead band leave the
// heading alone; above it the turn grows with the projection up to TurnRate.
const (
	steerDeadBand = 0.3
	steerGain     = 0.001
	tracerLaps    = 5
	tailTrim      = 2
)

// Source is the random source consumed by the generator. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic PCG-backed source for seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Checkpoint is a target point on the nominal circle, keyed by polar angle.
type Checkpoint struct {
	Alpha float64
	Pos   r2.Vec
}

// Sample is one tracer step: unwrapped polar angle, smoothed heading and
// position.
type Sample struct {
	Alpha float64
	Beta  float64
	Pos   r2.Vec
}

// Generator produces tracks from an injected random source.
type Generator struct {
	cfg Config
	rng Source
}

// NewGenerator creates a Generator. The random source is owned by the caller
// so runs can be reproduced by seeding it.
func NewGenerator(cfg Config, rng Source) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Config returns the generation parameters.
func (g *Generator) Config() Config { return g.cfg }

// Generate runs one generation attempt. It returns false when the traced
// curve could not be cut into a cleanly closed lap; callers retry.
func (g *Generator) Generate() (*Track, bool) {
	if g.rng == nil || g.cfg.Checkpoints < 2 || g.cfg.DetailStep <= 0 {
		return nil, false
	}

	trace := g.trace(g.checkpoints())
	lap, ok := sliceLap(trace, g.cfg.StartAlpha())
	if !ok {
		monitoring.Diagf("track: no full lap in %d trace samples", len(trace))
		return nil, false
	}

	if gap := closureGap(lap); gap > g.cfg.DetailStep {
		monitoring.Diagf("track: not well glued, gap %.3f vs step %.3f", gap, g.cfg.DetailStep)
		return nil, false
	}

	return newTrack(lap, hardTurnBorders(lap, g.cfg.BorderMinCount, g.cfg.TurnRate), g.cfg), true
}

// GenerateWithRetry calls Generate until it succeeds or MaxAttempts is
// reached. It returns the track and the number of attempts used.
func (g *Generator) GenerateWithRetry() (*Track, int, error) {
	attempts := g.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		if tr, ok := g.Generate(); ok {
			monitoring.Diagf("track: generated %d samples after %d attempt(s)", tr.Len(), i)
			return tr, i, nil
		}
	}
	return nil, attempts, fmt.Errorf("%w: %d attempts", ErrGenerationExhausted, attempts)
}

// checkpoints places the randomized checkpoints in increasing angle order.
// The first and last are pinned to full radius so the loop starts and ends
// on the nominal circle.
func (g *Generator) checkpoints() []Checkpoint {
	n := g.cfg.Checkpoints
	cps := make([]Checkpoint, 0, n)
	for i := 0; i < n; i++ {
		alpha := 2 * math.Pi / float64(n) * (float64(i) + g.rng.Float64())
		rad := g.cfg.Radius * (g.rng.Float64()*0.66 + 0.33)
		switch i {
		case 0:
			alpha = 0
			rad = g.cfg.Radius
		case n - 1:
			alpha = 2 * math.Pi * float64(i) / float64(n)
			rad = g.cfg.Radius
		}
		cps = append(cps, Checkpoint{
			Alpha: alpha,
			Pos:   r2.Vec{X: rad * math.Cos(alpha), Y: rad * math.Sin(alpha)},
		})
	}
	return cps
}

// trace steers a point through the checkpoints until it has circled the
// origin tracerLaps times or the iteration budget runs out.
func (g *Generator) trace(cps []Checkpoint) []Sample {
	n := len(cps)
	pos := r2.Vec{X: g.cfg.Radius}
	var alpha, beta float64
	destI, laps := 0, 0
	visitedOtherSide := false
	budget := g.cfg.MaxIterations

	samples := make([]Sample, 0, max(budget, 0))
	for {
		alpha = math.Atan2(pos.Y, pos.X)
		if visitedOtherSide && alpha > 0 {
			laps++
			visitedOtherSide = false
		}
		if alpha < 0 {
			visitedOtherSide = true
			alpha += 2 * math.Pi
		}

		// Find the destination checkpoint. When the rest of the list is
		// behind us, unwrap alpha by one turn and search again.
		var cp Checkpoint
		for {
			found := false
			for {
				cp = cps[destI%n]
				if alpha <= cp.Alpha {
					found = true
					break
				}
				destI++
				if destI%n == 0 {
					break
				}
			}
			if found {
				break
			}
			alpha -= 2 * math.Pi
		}

		r1 := r2.Vec{X: math.Cos(beta), Y: math.Sin(beta)}
		p1 := r2.Vec{X: -r1.Y, Y: r1.X}
		proj := r2.Dot(r1, r2.Sub(cp.Pos, pos))

		for beta-alpha > 1.5*math.Pi {
			beta -= 2 * math.Pi
		}
		for beta-alpha < -1.5*math.Pi {
			beta += 2 * math.Pi
		}
		prevBeta := beta

		proj /= g.cfg.Scale
		turn := math.Min(g.cfg.TurnRate, math.Abs(steerGain*proj))
		if proj > steerDeadBand {
			beta -= turn
		}
		if proj < -steerDeadBand {
			beta += turn
		}

		pos = r2.Add(pos, r2.Scale(g.cfg.DetailStep, p1))
		samples = append(samples, Sample{Alpha: alpha, Beta: prevBeta*0.5 + beta*0.5, Pos: pos})

		if laps >= tracerLaps {
			break
		}
		budget--
		if budget <= 0 {
			break
		}
	}
	return samples
}

// sliceLap cuts one lap out of the trace. Scanning backwards from the end,
// the first start-line crossing found closes the lap and the second opens
// it. The closing end is trimmed by tailTrim samples.
func sliceLap(trace []Sample, startAlpha float64) ([]Sample, bool) {
	i1, i2 := -1, -1
	i := len(trace)
	for {
		i--
		if i <= 0 {
			return nil, false
		}
		pass := trace[i].Alpha > startAlpha && trace[i-1].Alpha <= startAlpha
		if pass && i2 == -1 {
			i2 = i
		} else if pass && i1 == -1 {
			i1 = i
			break
		}
	}
	if i2-tailTrim <= i1 {
		return nil, false
	}
	return trace[i1 : i2-tailTrim], true
}

// closureGap measures how far apart the head and tail of a lap are, with
// each axis weighted by the first sample's heading normal.
func closureGap(lap []Sample) float64 {
	if len(lap) == 0 {
		return math.Inf(1)
	}
	first, last := lap[0], lap[len(lap)-1]
	px, py := math.Cos(first.Beta), math.Sin(first.Beta)
	dx := px * (first.Pos.X - last.Pos.X)
	dy := py * (first.Pos.Y - last.Pos.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// hardTurnBorders flags samples that end a run of window same-signed heading
// changes each larger than a fifth of the turn rate, then spreads every flag
// back over its window so borders render as continuous strips.
func hardTurnBorders(lap []Sample, window int, turnRate float64) []bool {
	n := len(lap)
	borders := make([]bool, n)
	for i := 0; i < n; i++ {
		good := true
		oneSide := 0
		for neg := 0; neg < window; neg++ {
			index := geom.Wrap(i-neg-1, n)
			delta := lap[geom.Next(index, n)].Beta - lap[index].Beta
			good = good && math.Abs(delta) > turnRate*0.2
			if math.Signbit(delta) {
				oneSide--
			} else {
				oneSide++
			}
		}
		borders[i] = good && (oneSide == window || oneSide == -window)
	}
	for i := 0; i < n; i++ {
		for neg := 0; neg < window; neg++ {
			index := geom.Wrap(i-neg, n)
			borders[index] = borders[index] || borders[i]
		}
	}
	return borders
}
