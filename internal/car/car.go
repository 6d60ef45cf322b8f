package car

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/geom"
	"github.com/banshee-data/circuit/internal/physics"
)

// WheelCount is the fixed number of wheels on every car.
const WheelCount = 4

// Wheel is the physics state of one tire.
type Wheel struct {
	Gas    float64 // [0, 1]
	Brake  float64 // [0, 1]
	Steer  float64 // joint angle target, [-1, 1]
	Omega  float64 // spin rate, rad/s
	Radius float64

	body  physics.BodyID
	joint physics.JointID
}

// RenderWheel is the drawing-only state of a wheel, linked to its physics
// record by car id and wheel index.
type RenderWheel struct {
	CarID int
	Index int
	Phase float64 // accumulated spin angle
}

// LapRecord is the per-car lap bookkeeping. Laps is -1 until the car first
// crosses the start line.
type LapRecord struct {
	Laps        int
	LapStart    float64 // race time of the last start line crossing
	LastLapTime float64
	BestLapTime float64 // zero until a lap completes
	Owed        int     // backward start line crossings not yet driven back over
}

// Car owns a hull body and four wheel bodies in a physics.World.
type Car struct {
	id     int
	world  *physics.World
	params Params

	hull   physics.BodyID
	wheels [WheelCount]Wheel
	render [WheelCount]RenderWheel

	trackIndex int
	reverse    bool
	lap        LapRecord
	controller Controller
	destroyed  bool
}

func scaled(p [2]float64) r2.Vec {
	return r2.Vec{X: p[0] * Size, Y: p[1] * Size}
}

// New creates a car at the world origin pointing along +Y.
func New(world *physics.World, id int, params Params) (*Car, error) {
	if world == nil {
		return nil, fmt.Errorf("car %d: nil physics world", id)
	}

	hullDef := physics.BodyDef{}
	for _, poly := range hullPolygons {
		verts := make([]r2.Vec, len(poly))
		for i, p := range poly {
			verts[i] = scaled(p)
		}
		hullDef.Fixtures = append(hullDef.Fixtures, physics.FixtureDef{Vertices: verts, Density: 1})
	}
	hull, err := world.CreateBody(hullDef)
	if err != nil {
		return nil, fmt.Errorf("car %d: hull: %w", id, err)
	}

	c := &Car{id: id, world: world, params: params, hull: hull, lap: LapRecord{Laps: -1}}

	hx, hy := wheelHalfWidth*Size, wheelHalfLength*Size
	wheelShape := []r2.Vec{{X: -hx, Y: hy}, {X: hx, Y: hy}, {X: hx, Y: -hy}, {X: -hx, Y: -hy}}
	for i, pos := range wheelPositions {
		anchor := scaled(pos)
		body, err := world.CreateBody(physics.BodyDef{
			Position: anchor,
			Fixtures: []physics.FixtureDef{{
				Vertices:     wheelShape,
				Density:      0.1,
				CategoryBits: wheelCategoryBits,
				MaskBits:     wheelMaskBits,
			}},
		})
		if err != nil {
			c.Destroy()
			return nil, fmt.Errorf("car %d: wheel %d: %w", id, i, err)
		}
		joint, err := world.CreateRevoluteJoint(physics.RevoluteJointDef{
			BodyA:          hull,
			BodyB:          body,
			LocalAnchorA:   anchor,
			EnableMotor:    true,
			EnableLimit:    true,
			MaxMotorTorque: params.MaxMotorTorque,
			LowerAngle:     -steerLimit,
			UpperAngle:     steerLimit,
		})
		if err != nil {
			world.DestroyBody(body)
			c.Destroy()
			return nil, fmt.Errorf("car %d: wheel %d joint: %w", id, i, err)
		}
		c.wheels[i] = Wheel{Radius: params.WheelRadius, body: body, joint: joint}
		c.render[i] = RenderWheel{CarID: id, Index: i}
	}
	return c, nil
}

// ID returns the car's unique identifier.
func (c *Car) ID() int { return c.id }

// Gas sets the throttle of the rear wheels, clamped to [0, 1].
func (c *Car) Gas(g float64) {
	g = clamp(g, 0, 1)
	for i := 2; i < WheelCount; i++ {
		c.wheels[i].Gas = g
	}
}

// Brake sets the brake of every wheel, clamped to [0, 1].
func (c *Car) Brake(b float64) {
	b = clamp(b, 0, 1)
	for i := range c.wheels {
		c.wheels[i].Brake = b
	}
}

// Steer sets the steering target of the front wheels, clamped to [-1, 1].
func (c *Car) Steer(s float64) {
	s = clamp(s, -1, 1)
	for i := 0; i < 2; i++ {
		c.wheels[i].Steer = s
	}
}

// Step computes and applies the tire forces of every wheel. It does not
// advance the world; the caller steps the world once all cars are done.
func (c *Car) Step(dt float64) {
	if c.destroyed {
		return
	}
	p := c.params
	for i := range c.wheels {
		w := &c.wheels[i]

		c.world.SetMotorSpeed(w.joint, SteerMotorSpeed(w.Steer, c.world.JointAngle(w.joint), p))

		forward := c.world.WorldVector(w.body, r2.Vec{X: 0, Y: 1})
		side := c.world.WorldVector(w.body, r2.Vec{X: 1, Y: 0})
		v := c.world.LinearVelocity(w.body)
		vf := r2.Dot(forward, v)
		vs := r2.Dot(side, v)

		w.Omega = IntegrateEngine(w.Omega, w.Gas, dt, p)
		w.Omega = ApplyBrake(w.Omega, w.Brake, p)
		c.render[i].Phase += w.Omega * dt

		fForce, pForce := TireForce(vf, vs, w.Omega, p)
		w.Omega -= dt * fForce * w.Radius / p.WheelInertia

		c.world.ApplyForceToCenter(w.body, r2.Add(r2.Scale(pForce, side), r2.Scale(fForce, forward)))
	}
}

// SetInitialState teleports the car so its hull sits at pos with the given
// angle, shifted lateralOffset along the hull's right side. Velocities, spin,
// phase and controls are zeroed.
func (c *Car) SetInitialState(pos r2.Vec, angle, lateralOffset float64) {
	if c.destroyed {
		return
	}
	origin := r2.Add(pos, r2.Scale(lateralOffset, geom.Rotate(r2.Vec{X: 1, Y: 0}, angle)))
	c.world.SetTransform(c.hull, origin, angle)
	for i := range c.wheels {
		w := &c.wheels[i]
		c.world.SetTransform(w.body, r2.Add(origin, geom.Rotate(scaled(wheelPositions[i]), angle)), angle)
		c.world.SetMotorSpeed(w.joint, 0)
		w.Gas, w.Brake, w.Steer, w.Omega = 0, 0, 0, 0
		c.render[i].Phase = 0
	}
}

// Destroy releases every joint and body the car created. It is safe to call
// more than once.
func (c *Car) Destroy() {
	if c.destroyed {
		return
	}
	for i := range c.wheels {
		c.world.DestroyJoint(c.wheels[i].joint)
	}
	for i := range c.wheels {
		c.world.DestroyBody(c.wheels[i].body)
	}
	c.world.DestroyBody(c.hull)
	c.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (c *Car) Destroyed() bool { return c.destroyed }

// Position returns the hull origin.
func (c *Car) Position() r2.Vec { return c.world.Position(c.hull) }

// Angle returns the hull rotation.
func (c *Car) Angle() float64 { return c.world.Angle(c.hull) }

// Velocity returns the hull linear velocity.
func (c *Car) Velocity() r2.Vec { return c.world.LinearVelocity(c.hull) }

// Forward returns the hull's local +Y axis in world coordinates.
func (c *Car) Forward() r2.Vec { return c.world.WorldVector(c.hull, r2.Vec{X: 0, Y: 1}) }

// Side returns the hull's local +X axis (right side) in world coordinates.
func (c *Car) Side() r2.Vec { return c.world.WorldVector(c.hull, r2.Vec{X: 1, Y: 0}) }

// AngularVelocity returns the hull yaw rate.
func (c *Car) AngularVelocity() float64 { return c.world.AngularVelocity(c.hull) }

// WheelCount returns the number of wheels.
func (c *Car) WheelCount() int { return len(c.wheels) }

// WheelJointAngles returns the steering joint angles of the front wheels
// relative to the hull.
func (c *Car) WheelJointAngles() [2]float64 {
	return [2]float64{c.world.JointAngle(c.wheels[0].joint), c.world.JointAngle(c.wheels[1].joint)}
}

// WheelOmegas returns the spin rate of every wheel.
func (c *Car) WheelOmegas() [WheelCount]float64 {
	var out [WheelCount]float64
	for i, w := range c.wheels {
		out[i] = w.Omega
	}
	return out
}

// Wheels returns a copy of the wheel physics records.
func (c *Car) Wheels() [WheelCount]Wheel { return c.wheels }

// RenderWheels returns a copy of the wheel drawing records.
func (c *Car) RenderWheels() [WheelCount]RenderWheel { return c.render }

// TrackIndex returns the nearest centerline index last assigned to the car.
func (c *Car) TrackIndex() int { return c.trackIndex }

// SetTrackIndex records the nearest centerline index.
func (c *Car) SetTrackIndex(i int) { c.trackIndex = i }

// Reverse reports whether the car drives the loop backwards.
func (c *Car) Reverse() bool { return c.reverse }

// SetReverse sets the travel direction.
func (c *Car) SetReverse(r bool) { c.reverse = r }

// Lap returns the car's lap record for in-place updates.
func (c *Car) Lap() *LapRecord { return &c.lap }

// Controller returns the attached controller, or nil.
func (c *Car) Controller() Controller { return c.controller }

// SetController attaches a controller.
func (c *Car) SetController(ctrl Controller) { c.controller = ctrl }
