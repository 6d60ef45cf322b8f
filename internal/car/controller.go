package car

import "github.com/banshee-data/circuit/internal/carstate"

// Driver is the control surface a Controller acts on.
type Driver interface {
	Gas(g float64)
	Brake(b float64)
	Steer(s float64)
}

// Controller decides a car's inputs from its observed state. Update is
// called every Interval() ticks.
type Controller interface {
	Interval() int
	Update(state carstate.State, d Driver)
}
