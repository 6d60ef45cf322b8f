package car

import (
	"github.com/banshee-data/circuit/internal/config"
)

// Size is the factor the reference car geometry below is drawn at.
const Size = config.CarSize

// Wheel dimensions in reference units.
const (
	wheelHalfLength = 27.0
	wheelHalfWidth  = 14.0
)

// Collision filtering: wheels only collide with the default category, so
// they never touch their own hull.
const (
	wheelCategoryBits uint16 = 0x0020
	wheelMaskBits     uint16 = 0x0001
)

// steerLimit bounds the wheel joint angle in radians.
const steerLimit = 0.4

// hullPolygons is the hull outline in reference units (front bumper,
// cabin, body, rear bumper).
var hullPolygons = [][][2]float64{
	{{-60, 130}, {60, 130}, {60, 110}, {-60, 110}},
	{{-15, 120}, {15, 120}, {20, 20}, {-20, 20}},
	{{25, 20}, {50, -10}, {50, -40}, {20, -90}, {-20, -90}, {-50, -40}, {-50, -10}, {-25, 20}},
	{{-50, -120}, {50, -120}, {50, -90}, {-50, -90}},
}

// wheelPositions are the hull-local wheel anchors in reference units,
// ordered front-left, front-right, rear-left, rear-right.
var wheelPositions = [4][2]float64{
	{-55, 80}, {55, 80}, {-55, -82}, {55, -82},
}

// Params are the tire and drivetrain constants used by Step.
type Params struct {
	EnginePower        float64
	WheelInertia       float64
	FrictionLimit      float64
	ForceScale         float64 // slip speed to tire force
	EngineEpsilon      float64 // keeps the engine term finite at rest
	BrakeForce         float64
	HardBrakeThreshold float64
	SteerGain          float64
	SteerMaxSpeed      float64
	WheelRadius        float64
	MaxMotorTorque     float64
}

// DefaultParams returns the compiled default parameters.
func DefaultParams() Params {
	return ParamsFromConfig(config.EmptySimConfig())
}

// ParamsFromConfig builds Params from a loaded SimConfig.
func ParamsFromConfig(cfg *config.SimConfig) Params {
	return Params{
		EnginePower:        cfg.GetEnginePower(),
		WheelInertia:       cfg.GetWheelInertia(),
		FrictionLimit:      cfg.GetFrictionLimit(),
		ForceScale:         cfg.GetForceScale(),
		EngineEpsilon:      cfg.GetEngineEpsilon(),
		BrakeForce:         cfg.GetBrakeForce(),
		HardBrakeThreshold: cfg.GetHardBrakeThreshold(),
		SteerGain:          cfg.GetSteerGain(),
		SteerMaxSpeed:      cfg.GetSteerMaxSpeed(),
		WheelRadius:        wheelHalfLength * Size,
		MaxMotorTorque:     180 * 900 * Size * Size,
	}
}
