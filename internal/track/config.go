package track

import (
	"math"

	"github.com/banshee-data/circuit/internal/config"
)

// Config holds the track generation parameters.
type Config struct {
	Checkpoints    int     // Number of random checkpoints on the circle
	Scale          float64 // Track scale; steering projections are divided by it
	Radius         float64 // Nominal checkpoint circle radius
	DetailStep     float64 // Arc length between centerline samples
	TurnRate       float64 // Maximum heading change per tracer step (rad)
	HalfWidth      float64 // Centerline to road edge
	Border         float64 // Hard-turn border strip width
	BorderMinCount int     // Window length for hard-turn detection
	MaxIterations  int     // Tracer iteration budget
	MaxAttempts    int     // Retry cap for GenerateWithRetry
	Playfield      float64 // Half extent of the playable square
}

// DefaultConfig returns the compiled default generation parameters.
func DefaultConfig() Config {
	return ConfigFromSim(config.EmptySimConfig())
}

// ConfigFromSim builds a Config from a loaded SimConfig.
func ConfigFromSim(cfg *config.SimConfig) Config {
	return Config{
		Checkpoints:    cfg.GetTrackCheckpoints(),
		Scale:          cfg.GetTrackScale(),
		Radius:         cfg.GetTrackRadius(),
		DetailStep:     cfg.GetTrackDetailStep(),
		TurnRate:       cfg.GetTrackTurnRate(),
		HalfWidth:      cfg.GetTrackHalfWidth(),
		Border:         cfg.GetTrackBorder(),
		BorderMinCount: cfg.GetTrackBorderMinCount(),
		MaxIterations:  cfg.GetTrackMaxIterations(),
		MaxAttempts:    cfg.GetTrackMaxAttempts(),
		Playfield:      cfg.GetPlayfield(),
	}
}

// StartAlpha is the polar angle of the start line used to cut one lap out of
// the trace.
func (c Config) StartAlpha() float64 {
	return -math.Pi / float64(c.Checkpoints)
}
