package car

import "math"

// IntegrateEngine spins a driven wheel up. The epsilon term keeps the
// update finite when the wheel is at rest.
func IntegrateEngine(omega, gas, dt float64, p Params) float64 {
	return omega + dt*p.EnginePower*gas/(p.WheelInertia*(math.Abs(omega)+p.EngineEpsilon))
}

// ApplyBrake returns the wheel spin after braking. At or above the hard
// brake threshold the wheel locks; below it the spin is reduced by
// BrakeForce*brake without crossing zero.
func ApplyBrake(omega, brake float64, p Params) float64 {
	if brake >= p.HardBrakeThreshold {
		return 0
	}
	if brake <= 0 {
		return omega
	}
	val := math.Min(p.BrakeForce*brake, math.Abs(omega))
	if omega > 0 {
		return omega - val
	}
	return omega + val
}

// TireForce returns the longitudinal and lateral tire forces for a wheel
// moving at (vForward, vSide) while spinning at omega. The combined force is
// clamped to the friction circle, keeping its direction.
func TireForce(vForward, vSide, omega float64, p Params) (fForce, pForce float64) {
	fForce = (-vForward + omega*p.WheelRadius) * p.ForceScale
	pForce = -vSide * p.ForceScale
	force := math.Hypot(fForce, pForce)
	if force > p.FrictionLimit {
		k := p.FrictionLimit / force
		fForce *= k
		pForce *= k
	}
	return fForce, pForce
}

// SteerMotorSpeed is the clamped proportional servo driving a wheel joint
// toward its steering target.
func SteerMotorSpeed(target, angle float64, p Params) float64 {
	delta := target - angle
	speed := math.Min(p.SteerGain*math.Abs(delta), p.SteerMaxSpeed)
	switch {
	case delta > 0:
		return speed
	case delta < 0:
		return -speed
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
