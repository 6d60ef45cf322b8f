// Command racesim runs a headless race with scripted drivers and prints the
// lap table and standings when it finishes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/car"
	"github.com/banshee-data/circuit/internal/config"
	"github.com/banshee-data/circuit/internal/monitoring"
	"github.com/banshee-data/circuit/internal/race"
	"github.com/banshee-data/circuit/internal/timeutil"
	"github.com/banshee-data/circuit/internal/track"
	"github.com/banshee-data/circuit/internal/trackplot"
	"github.com/banshee-data/circuit/internal/trackstore"
	"github.com/banshee-data/circuit/internal/units"
	"github.com/banshee-data/circuit/internal/version"
)

var (
	seed        = flag.Uint64("seed", 1, "Random seed for track generation and spawning")
	configPath  = flag.String("config", "", "Simulation config JSON (defaults compiled in)")
	ticks       = flag.Int("ticks", 3000, "Number of simulation ticks to run")
	cars        = flag.Int("cars", 4, "Number of cars kept on track")
	strategy    = flag.String("strategy", "formula1", "Spawn strategy: all-on-start, random, spaced, formula1")
	throttle    = flag.Float64("throttle", 0.4, "Gas applied by the scripted drivers")
	realtime    = flag.Bool("realtime", false, "Pace ticks to wall-clock time")
	speedUnits  = flag.String("units", "kph", "Display units for speed")
	dbPath      = flag.String("db", "", "Track database for -track-id")
	trackID     = flag.String("track-id", "", "Race on a stored track instead of generating one")
	plotPath    = flag.String("plot", "", "Write the track and final car positions to this file")
	features    = flag.Bool("features", false, "Print each car's final observation vector")
	diag        = flag.Bool("diag", false, "Log spawn and lap diagnostics")
	trace       = flag.Bool("trace", false, "Log per-tick telemetry")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	seed       uint64
	configPath string
	ticks      int
	cars       int
	strategy   string
	throttle   float64
	realtime   bool
	clock      timeutil.Clock
	units      string
	dbPath     string
	trackID    string
	plotPath   string
	features   bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("racesim"))
		return
	}
	if !units.IsValid(*speedUnits) {
		log.Fatalf("racesim: invalid -units %q, valid: %s", *speedUnits, units.GetValidUnitsString())
	}

	w := monitoring.LogWriters{Ops: os.Stderr}
	if *diag {
		w.Diag = os.Stderr
	}
	if *trace {
		w.Trace = os.Stderr
	}
	monitoring.SetLogWriters(w)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		seed:       *seed,
		configPath: *configPath,
		ticks:      *ticks,
		cars:       *cars,
		strategy:   *strategy,
		throttle:   *throttle,
		realtime:   *realtime,
		clock:      timeutil.RealClock{},
		units:      *speedUnits,
		dbPath:     *dbPath,
		trackID:    *trackID,
		plotPath:   *plotPath,
		features:   *features,
	}
	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("racesim: %v", err)
	}
}

func loadConfig(path string) (*config.SimConfig, error) {
	if path == "" {
		return config.EmptySimConfig(), nil
	}
	return config.LoadSimConfig(path)
}

func newRace(ctx context.Context, opts options, cfg race.Config) (*race.Race, error) {
	rng := track.NewSource(opts.seed)
	if opts.trackID == "" {
		r := race.New(cfg, rng)
		return r, r.Reset()
	}
	if opts.dbPath == "" {
		return nil, fmt.Errorf("-track-id requires -db")
	}
	store, err := trackstore.Open(opts.dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	rec, err := store.Load(ctx, opts.trackID)
	if err != nil {
		return nil, fmt.Errorf("loading track %s: %w", opts.trackID, err)
	}
	monitoring.Opsf("racing on stored track %s (seed %d)", rec.ID, rec.Seed)
	return race.NewWithTrack(cfg, rng, rec.Track), nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	simCfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	strat, err := race.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}

	cfg := race.ConfigFromSim(simCfg)
	r, err := newRace(ctx, opts, cfg)
	if err != nil {
		return err
	}
	stored := opts.trackID != ""

	fill := &race.FillScenario{
		Target:  opts.cars,
		Spawner: race.NewSpawner(strat, track.NewSource(opts.seed+1)),
		NewController: func(*car.Car) car.Controller {
			return race.ConstantController{Throttle: opts.throttle}
		},
	}
	r.SetScenario(fill)

	dt := simCfg.GetDt()
	var pacer *timeutil.Pacer
	if opts.realtime {
		pacer = timeutil.NewPacer(opts.clock, timeutil.PeriodFor(dt, cfg.Speed))
	}

	var (
		ran    int
		resets int
		totals tally
	)
	for ; ran < opts.ticks; ran++ {
		if err := ctx.Err(); err != nil {
			monitoring.Opsf("interrupted after %d ticks", ran)
			break
		}
		if pacer != nil {
			pacer.Wait()
		}
		r.Tick(dt)
		if !r.OutOfBounds() {
			continue
		}
		resets++
		totals.add(r.Cars())
		if stored {
			// Keep the stored track; the scenario refills on the next tick.
			ids := make([]int, 0, len(r.Cars()))
			for _, c := range r.Cars() {
				ids = append(ids, c.ID())
			}
			for _, id := range ids {
				r.UnspawnVehicle(id)
			}
			continue
		}
		if err := r.Reset(); err != nil {
			return err
		}
	}

	totals.add(r.Cars())
	printSummary(out, r, summary{
		ticks:  ran,
		time:   float64(ran) * dt,
		resets: resets,
		totals: totals,
		units:  opts.units,
	})
	if opts.features {
		printFeatures(out, r)
	}

	if opts.plotPath != "" {
		positions := make([]r2.Vec, 0, len(r.Cars()))
		for _, c := range r.Cars() {
			positions = append(positions, c.Position())
		}
		title := fmt.Sprintf("t=%.1fs", r.Time())
		if err := trackplot.Render(r.Track(), positions, opts.plotPath, trackplot.Options{Title: title}); err != nil {
			return err
		}
	}
	return nil
}

// tally accumulates lap results across race resets.
type tally struct {
	laps int
	best float64
}

func (t *tally) add(cars []*car.Car) {
	for _, c := range cars {
		lap := c.Lap()
		t.laps += max(lap.Laps, 0)
		if lap.BestLapTime > 0 && (t.best == 0 || lap.BestLapTime < t.best) {
			t.best = lap.BestLapTime
		}
	}
}

type summary struct {
	ticks  int
	time   float64
	resets int
	totals tally
	units  string
}

func printSummary(out io.Writer, r *race.Race, s summary) {
	fmt.Fprintf(out, "simulated %.2fs over %d ticks, %d reset(s)\n", s.time, s.ticks, s.resets)
	fmt.Fprintf(out, "all runs: %d lap(s), best lap %s\n", s.totals.laps, units.FormatLapTime(s.totals.best))
	fmt.Fprintf(out, "since last reset: %.2fs on a %.1f long track\n", r.Time(), r.Track().Length())
	fmt.Fprintf(out, "%-4s %-5s %-10s %-10s %s\n", "car", "laps", "last", "best", "speed ("+s.units+")")
	for _, c := range r.Cars() {
		lap := c.Lap()
		speed := units.ConvertSpeed(r2.Norm(c.Velocity()), s.units)
		fmt.Fprintf(out, "%-4d %-5d %-10s %-10s %.1f\n",
			c.ID(), max(lap.Laps, 0), units.FormatLapTime(lap.LastLapTime), units.FormatLapTime(lap.BestLapTime), speed)
	}
	if len(r.Cars()) > 0 {
		fmt.Fprintf(out, "standings: %v\n", r.Ranking())
	}
}

// printFeatures writes each car's observation vector, one car per line.
func printFeatures(out io.Writer, r *race.Race) {
	for _, c := range r.Cars() {
		s, ok := r.State(c.ID())
		if !ok {
			continue
		}
		fmt.Fprintf(out, "features %d:", c.ID())
		for _, f := range s.Features() {
			fmt.Fprintf(out, " %.4f", f)
		}
		fmt.Fprintln(out)
	}
}
