package race

import (
	"math"

	"github.com/banshee-data/circuit/internal/car"
	"github.com/banshee-data/circuit/internal/carstate"
	"github.com/banshee-data/circuit/internal/config"
	"github.com/banshee-data/circuit/internal/physics"
	"github.com/banshee-data/circuit/internal/track"
)

// searchWindow is how far the nearest-index search looks either side of the
// previous index. Cars are assumed to move less than this per tick.
const searchWindow = 2

// Config collects everything a race needs.
type Config struct {
	Track           track.Config
	Car             car.Params
	State           carstate.Config
	Physics         physics.StepConfig
	Speed           float64 // time dilation applied to controller cadence
	ComputeRankings bool
}

// ConfigFromSim builds a Config from a loaded SimConfig.
func ConfigFromSim(cfg *config.SimConfig) Config {
	return Config{
		Track: track.ConfigFromSim(cfg),
		Car:   car.ParamsFromConfig(cfg),
		State: carstate.ConfigFromSim(cfg),
		Physics: physics.StepConfig{
			VelocityIterations: cfg.GetVelocityIterations(),
			PositionIterations: cfg.GetPositionIterations(),
		},
		Speed:           cfg.GetSpeed(),
		ComputeRankings: cfg.GetComputeRankings(),
	}
}

// Cadence returns the number of ticks between two controller updates for a
// controller asking for interval ticks under the given time dilation.
func Cadence(interval int, speed float64) int {
	if speed <= 0 {
		speed = 1
	}
	n := int(math.Round(float64(interval) * speed))
	if n < 1 {
		return 1
	}
	return n
}
