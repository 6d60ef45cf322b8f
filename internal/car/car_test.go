package car

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/config"
	"github.com/banshee-data/circuit/internal/physics"
	"github.com/banshee-data/circuit/internal/testutil"
)

func newTestCar(t *testing.T) (*physics.World, *Car) {
	t.Helper()
	cfg := config.EmptySimConfig()
	w := physics.NewWorld(physics.StepConfig{
		VelocityIterations: cfg.GetVelocityIterations(),
		PositionIterations: cfg.GetPositionIterations(),
	})
	c, err := New(w, 1, ParamsFromConfig(cfg))
	require.NoError(t, err)
	return w, c
}

func TestNew_CreatesHullAndFourWheels(t *testing.T) {
	t.Parallel()
	w, c := newTestCar(t)

	assert.Equal(t, 5, w.BodyCount())
	assert.Equal(t, 4, w.JointCount())
	assert.Equal(t, WheelCount, c.WheelCount())
	assert.Equal(t, -1, c.Lap().Laps)
	for i, rw := range c.RenderWheels() {
		assert.Equal(t, 1, rw.CarID)
		assert.Equal(t, i, rw.Index)
	}

	_, err := New(nil, 2, DefaultParams())
	assert.Error(t, err)
}

func TestControls_ClampAndTargetWheels(t *testing.T) {
	t.Parallel()
	_, c := newTestCar(t)

	c.Gas(3)
	c.Brake(-1)
	c.Steer(-7)
	wheels := c.Wheels()
	assert.Equal(t, 0.0, wheels[0].Gas)
	assert.Equal(t, 0.0, wheels[1].Gas)
	assert.Equal(t, 1.0, wheels[2].Gas)
	assert.Equal(t, 1.0, wheels[3].Gas)
	for _, wh := range wheels {
		assert.Equal(t, 0.0, wh.Brake)
	}
	assert.Equal(t, -1.0, wheels[0].Steer)
	assert.Equal(t, -1.0, wheels[1].Steer)
	assert.Equal(t, 0.0, wheels[2].Steer)
	assert.Equal(t, 0.0, wheels[3].Steer)

	c.Gas(-0.5)
	c.Brake(0.4)
	c.Steer(0.25)
	wheels = c.Wheels()
	assert.Equal(t, 0.0, wheels[3].Gas)
	assert.Equal(t, 0.4, wheels[0].Brake)
	assert.Equal(t, 0.25, wheels[1].Steer)
}

func TestStep_HardBrakeLocksWheels(t *testing.T) {
	t.Parallel()
	w, c := newTestCar(t)
	dt := 1.0 / 60

	c.Gas(1)
	for range 20 {
		c.Step(dt)
		w.Step(dt)
	}
	require.NotZero(t, c.WheelOmegas()[2])

	c.Gas(0)
	c.Brake(0.9)
	c.Step(dt)
	omegas := c.WheelOmegas()
	for i := range omegas {
		// The lock happens before the tire reaction term, which only acts
		// on residual slip.
		assert.Less(t, math.Abs(omegas[i]), 5.0, "wheel %d", i)
	}
}

func TestStep_GasAcceleratesForward(t *testing.T) {
	t.Parallel()
	w, c := newTestCar(t)
	dt := 1.0 / 60

	c.SetInitialState(r2.Vec{X: 10, Y: -5}, 0.3, 0)
	dir := c.Forward()

	prev := 0.0
	for tick := range 60 {
		c.Gas(1)
		c.Brake(0)
		c.Steer(0)
		c.Step(dt)
		w.Step(dt)
		speed := r2.Dot(c.Velocity(), dir)
		if tick < 10 {
			assert.Greater(t, speed, 0.0, "tick %d", tick)
			assert.GreaterOrEqual(t, speed, prev-1e-6, "tick %d", tick)
		}
		prev = speed
	}
	assert.Greater(t, prev, 1.0)
	assert.Greater(t, c.RenderWheels()[2].Phase, 0.0)
}

func TestSetInitialState_TeleportsRigidly(t *testing.T) {
	t.Parallel()
	w, c := newTestCar(t)
	dt := 1.0 / 60

	c.Gas(1)
	c.Steer(1)
	for range 30 {
		c.Step(dt)
		w.Step(dt)
	}

	angle := math.Pi / 2
	c.SetInitialState(r2.Vec{X: 5, Y: 5}, angle, 2)
	pos := c.Position()
	// Offset is along the right-hand side, which is +Y at a quarter turn.
	testutil.AssertVecNear(t, r2.Vec{X: 5, Y: 7}, pos, 1e-9)
	assert.InDelta(t, angle, c.Angle(), 1e-9)
	assert.Equal(t, r2.Vec{}, c.Velocity())
	assert.Equal(t, [WheelCount]float64{}, c.WheelOmegas())
	for _, wh := range c.Wheels() {
		assert.Zero(t, wh.Gas)
		assert.Zero(t, wh.Steer)
	}
	for _, rw := range c.RenderWheels() {
		assert.Zero(t, rw.Phase)
	}
	ja := c.WheelJointAngles()
	assert.InDelta(t, 0, ja[0], 1e-9)
	assert.InDelta(t, 0, ja[1], 1e-9)
}

func TestDestroy_ReleasesHandles(t *testing.T) {
	t.Parallel()
	w, c := newTestCar(t)

	other, err := New(w, 2, DefaultParams())
	require.NoError(t, err)

	c.Destroy()
	assert.True(t, c.Destroyed())
	assert.Equal(t, 5, w.BodyCount())
	assert.Equal(t, 4, w.JointCount())

	c.Destroy()
	c.Step(1.0 / 60)
	other.Destroy()
	assert.Equal(t, 0, w.BodyCount())
	assert.Equal(t, 0, w.JointCount())
}

func TestParamsScaleWithConfiguredCarSize(t *testing.T) {
	t.Parallel()
	p := DefaultParams()
	assert.InDelta(t, wheelHalfLength*config.CarSize, p.WheelRadius, 1e-12)
	assert.InDelta(t, 180*900*config.CarSize*config.CarSize, p.MaxMotorTorque, 1e-12)
	assert.InDelta(t, 1000000*config.CarSize*config.CarSize, p.FrictionLimit, 1e-9)
	assert.InDelta(t, 205000*config.CarSize*config.CarSize, p.ForceScale, 1e-9)
}
