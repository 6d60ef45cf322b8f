package race

import (
	"github.com/banshee-data/circuit/internal/car"
	"github.com/banshee-data/circuit/internal/carstate"
	"github.com/banshee-data/circuit/internal/monitoring"
)

// Scenario hooks into the race loop. Update runs at the start of every tick.
type Scenario interface {
	Update(r *Race)
	OnVehicleSpawned(c *car.Car)
	OnVehicleUnspawned(c *car.Car)
}

// ConstantController drives with fixed inputs.
type ConstantController struct {
	Throttle float64
	Braking  float64
	Steering float64
	Every    int // ticks between updates, at least 1
}

// Interval implements car.Controller.
func (cc ConstantController) Interval() int { return max(cc.Every, 1) }

// Update implements car.Controller.
func (cc ConstantController) Update(_ carstate.State, d car.Driver) {
	d.Gas(cc.Throttle)
	d.Brake(cc.Braking)
	d.Steer(cc.Steering)
}

// FillScenario keeps Target cars on track, placing new ones with Spawner and
// attaching a controller from NewController.
type FillScenario struct {
	Target        int
	Spawner       *Spawner
	NewController func(c *car.Car) car.Controller

	Spawned   int
	Unspawned int
}

// Update implements Scenario.
func (f *FillScenario) Update(r *Race) {
	if len(r.Cars()) == 0 {
		f.Spawner.Reset()
	}
	for len(r.Cars()) < f.Target {
		if _, err := f.Spawner.Spawn(r); err != nil {
			monitoring.Opsf("race: fill scenario could not spawn: %v", err)
			return
		}
	}
}

// OnVehicleSpawned implements Scenario.
func (f *FillScenario) OnVehicleSpawned(c *car.Car) {
	f.Spawned++
	if f.NewController != nil {
		c.SetController(f.NewController(c))
	}
}

// OnVehicleUnspawned implements Scenario.
func (f *FillScenario) OnVehicleUnspawned(*car.Car) {
	f.Unspawned++
}
