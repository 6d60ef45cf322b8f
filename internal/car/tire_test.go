package car

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTireForce_FrictionCircleClamp(t *testing.T) {
	t.Parallel()
	p := DefaultParams()

	tests := []struct {
		name       string
		vf, vs, om float64
	}{
		{"pure wheelspin", 0, 0, 80},
		{"pure slide", 0, 30, 0},
		{"combined", 10, -12, 70},
		{"reverse skid", -20, 5, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rawF := (-tt.vf + tt.om*p.WheelRadius) * p.ForceScale
			rawP := -tt.vs * p.ForceScale
			if math.Hypot(rawF, rawP) <= p.FrictionLimit {
				t.Fatalf("case does not saturate: %v", math.Hypot(rawF, rawP))
			}

			f, pf := TireForce(tt.vf, tt.vs, tt.om, p)
			assert.InDelta(t, p.FrictionLimit, math.Hypot(f, pf), 1e-9)
			// Direction is preserved.
			assert.InDelta(t, 0, f*rawP-pf*rawF, 1e-6*math.Abs(rawF*rawP)+1e-9)
			assert.Equal(t, math.Signbit(rawF), math.Signbit(f))
			assert.Equal(t, math.Signbit(rawP), math.Signbit(pf))
		})
	}
}

func TestTireForce_BelowLimitUnchanged(t *testing.T) {
	t.Parallel()
	p := DefaultParams()

	f, pf := TireForce(1, 0.5, 1/p.WheelRadius, p)
	assert.InDelta(t, 0, f, 1e-12)
	assert.InDelta(t, -0.5*p.ForceScale, pf, 1e-12)
}

func TestApplyBrake(t *testing.T) {
	t.Parallel()
	p := DefaultParams()

	for _, omega := range []float64{-500, -1, 0, 0.3, 42, 1e6} {
		for _, b := range []float64{0.9, 0.95, 1} {
			assert.Equal(t, 0.0, ApplyBrake(omega, b, p), "omega=%v brake=%v", omega, b)
		}
	}

	assert.Equal(t, 12.0, ApplyBrake(12, 0, p))
	assert.InDelta(t, 20-p.BrakeForce*0.5, ApplyBrake(20, 0.5, p), 1e-12)
	assert.InDelta(t, -20+p.BrakeForce*0.5, ApplyBrake(-20, 0.5, p), 1e-12)
	// Soft braking never reverses the spin.
	assert.Equal(t, 0.0, ApplyBrake(1, 0.8, p))
	assert.Equal(t, 0.0, ApplyBrake(-1, 0.8, p))
}

func TestIntegrateEngine(t *testing.T) {
	t.Parallel()
	p := DefaultParams()
	dt := 1.0 / 60

	assert.Equal(t, 7.0, IntegrateEngine(7, 0, dt, p))

	fromRest := IntegrateEngine(0, 1, dt, p)
	assert.InDelta(t, dt*p.EnginePower/(p.WheelInertia*p.EngineEpsilon), fromRest, 1e-9)
	assert.False(t, math.IsInf(fromRest, 0))

	// Torque falls off with spin.
	fast := IntegrateEngine(100, 1, dt, p) - 100
	assert.Less(t, fast, fromRest)
}

func TestSteerMotorSpeed(t *testing.T) {
	t.Parallel()
	p := DefaultParams()

	assert.Equal(t, 0.0, SteerMotorSpeed(0.2, 0.2, p))
	assert.InDelta(t, p.SteerGain*0.01, SteerMotorSpeed(0.01, 0, p), 1e-12)
	assert.InDelta(t, -p.SteerGain*0.01, SteerMotorSpeed(0, 0.01, p), 1e-12)
	assert.Equal(t, p.SteerMaxSpeed, SteerMotorSpeed(1, -0.4, p))
	assert.Equal(t, -p.SteerMaxSpeed, SteerMotorSpeed(-1, 0.4, p))
}
