package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical simulation defaults file.
const DefaultConfigPath = "config/sim.defaults.json"

// SimConfig is the root configuration for the simulation. Every field is
// optional: a nil field falls back to the compiled default returned by the
// matching Get* accessor, so partial files are safe.
type SimConfig struct {
	// Track generation
	TrackCheckpoints    *int     `json:"track_checkpoints,omitempty"`
	TrackScale          *float64 `json:"track_scale,omitempty"`
	TrackRadius         *float64 `json:"track_radius,omitempty"`
	TrackDetailStep     *float64 `json:"track_detail_step,omitempty"`
	TrackTurnRate       *float64 `json:"track_turn_rate,omitempty"`
	TrackHalfWidth      *float64 `json:"track_half_width,omitempty"`
	TrackBorder         *float64 `json:"track_border,omitempty"`
	TrackBorderMinCount *int     `json:"track_border_min_count,omitempty"`
	TrackMaxIterations  *int     `json:"track_max_iterations,omitempty"`
	TrackMaxAttempts    *int     `json:"track_max_attempts,omitempty"`
	Playfield           *float64 `json:"playfield,omitempty"`

	// Car physics. Values are already scaled to world units.
	EnginePower        *float64 `json:"engine_power,omitempty"`
	WheelInertia       *float64 `json:"wheel_inertia,omitempty"`
	FrictionLimit      *float64 `json:"friction_limit,omitempty"`
	ForceScale         *float64 `json:"force_scale,omitempty"`
	EngineEpsilon      *float64 `json:"engine_epsilon,omitempty"`
	BrakeForce         *float64 `json:"brake_force,omitempty"`
	HardBrakeThreshold *float64 `json:"hard_brake_threshold,omitempty"`
	SteerGain          *float64 `json:"steer_gain,omitempty"`
	SteerMaxSpeed      *float64 `json:"steer_max_speed,omitempty"`

	// State extraction
	MaxSpeed           *float64  `json:"max_speed,omitempty"`
	MaxOmega           *float64  `json:"max_omega,omitempty"`
	LookaheadDistances []float64 `json:"lookahead_distances,omitempty"`

	// Simulation loop
	FPS                *int     `json:"fps,omitempty"`
	Speed              *float64 `json:"speed,omitempty"` // time dilation factor
	VelocityIterations *int     `json:"velocity_iterations,omitempty"`
	PositionIterations *int     `json:"position_iterations,omitempty"`
	ComputeRankings    *bool    `json:"compute_rankings,omitempty"`
}

// CarSize is the factor the reference car geometry is drawn at. Physical
// constants below scale with its square.
const CarSize = 0.02

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySimConfig returns a SimConfig with all fields nil.
func EmptySimConfig() *SimConfig {
	return &SimConfig{}
}

// DefaultSimConfig returns a SimConfig with every field populated from the
// compiled defaults.
func DefaultSimConfig() *SimConfig {
	e := EmptySimConfig()
	return &SimConfig{
		TrackCheckpoints:    ptrInt(e.GetTrackCheckpoints()),
		TrackScale:          ptrFloat64(e.GetTrackScale()),
		TrackRadius:         ptrFloat64(e.GetTrackRadius()),
		TrackDetailStep:     ptrFloat64(e.GetTrackDetailStep()),
		TrackTurnRate:       ptrFloat64(e.GetTrackTurnRate()),
		TrackHalfWidth:      ptrFloat64(e.GetTrackHalfWidth()),
		TrackBorder:         ptrFloat64(e.GetTrackBorder()),
		TrackBorderMinCount: ptrInt(e.GetTrackBorderMinCount()),
		TrackMaxIterations:  ptrInt(e.GetTrackMaxIterations()),
		TrackMaxAttempts:    ptrInt(e.GetTrackMaxAttempts()),
		Playfield:           ptrFloat64(e.GetPlayfield()),
		EnginePower:         ptrFloat64(e.GetEnginePower()),
		WheelInertia:        ptrFloat64(e.GetWheelInertia()),
		FrictionLimit:       ptrFloat64(e.GetFrictionLimit()),
		ForceScale:          ptrFloat64(e.GetForceScale()),
		EngineEpsilon:       ptrFloat64(e.GetEngineEpsilon()),
		BrakeForce:          ptrFloat64(e.GetBrakeForce()),
		HardBrakeThreshold:  ptrFloat64(e.GetHardBrakeThreshold()),
		SteerGain:           ptrFloat64(e.GetSteerGain()),
		SteerMaxSpeed:       ptrFloat64(e.GetSteerMaxSpeed()),
		MaxSpeed:            ptrFloat64(e.GetMaxSpeed()),
		MaxOmega:            ptrFloat64(e.GetMaxOmega()),
		LookaheadDistances:  e.GetLookaheadDistances(),
		FPS:                 ptrInt(e.GetFPS()),
		Speed:               ptrFloat64(e.GetSpeed()),
		VelocityIterations:  ptrInt(e.GetVelocityIterations()),
		PositionIterations:  ptrInt(e.GetPositionIterations()),
		ComputeRankings:     ptrBool(e.GetComputeRankings()),
	}
}

// LoadSimConfig loads a SimConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadSimConfig(path string) (*SimConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySimConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *SimConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<tool>/ nested deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadSimConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *SimConfig) Validate() error {
	if c.TrackCheckpoints != nil && *c.TrackCheckpoints < 3 {
		return fmt.Errorf("track_checkpoints must be at least 3, got %d", *c.TrackCheckpoints)
	}
	positive := map[string]*float64{
		"track_scale":       c.TrackScale,
		"track_radius":      c.TrackRadius,
		"track_detail_step": c.TrackDetailStep,
		"track_turn_rate":   c.TrackTurnRate,
		"track_half_width":  c.TrackHalfWidth,
		"playfield":         c.Playfield,
		"wheel_inertia":     c.WheelInertia,
		"friction_limit":    c.FrictionLimit,
		"engine_epsilon":    c.EngineEpsilon,
		"max_speed":         c.MaxSpeed,
		"max_omega":         c.MaxOmega,
		"speed":             c.Speed,
	}
	for name, v := range positive {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}
	nonNegative := map[string]*float64{
		"brake_force":     c.BrakeForce,
		"steer_gain":      c.SteerGain,
		"steer_max_speed": c.SteerMaxSpeed,
	}
	for name, v := range nonNegative {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}
	if c.HardBrakeThreshold != nil && (*c.HardBrakeThreshold <= 0 || *c.HardBrakeThreshold > 1) {
		return fmt.Errorf("hard_brake_threshold must be in (0, 1], got %f", *c.HardBrakeThreshold)
	}
	if c.TrackBorderMinCount != nil && *c.TrackBorderMinCount < 1 {
		return fmt.Errorf("track_border_min_count must be at least 1, got %d", *c.TrackBorderMinCount)
	}
	if c.TrackMaxIterations != nil && *c.TrackMaxIterations < 1 {
		return fmt.Errorf("track_max_iterations must be at least 1, got %d", *c.TrackMaxIterations)
	}
	if c.TrackMaxAttempts != nil && *c.TrackMaxAttempts < 1 {
		return fmt.Errorf("track_max_attempts must be at least 1, got %d", *c.TrackMaxAttempts)
	}
	if c.FPS != nil && *c.FPS < 1 {
		return fmt.Errorf("fps must be at least 1, got %d", *c.FPS)
	}
	for i, d := range c.LookaheadDistances {
		if d < 0 {
			return fmt.Errorf("lookahead_distances[%d] must be non-negative, got %f", i, d)
		}
	}
	return nil
}

// GetTrackCheckpoints returns the track_checkpoints value or the default.
func (c *SimConfig) GetTrackCheckpoints() int {
	if c.TrackCheckpoints == nil {
		return 12
	}
	return *c.TrackCheckpoints
}

// GetTrackScale returns the track_scale value or the default.
func (c *SimConfig) GetTrackScale() float64 {
	if c.TrackScale == nil {
		return 1.0 / 6.0
	}
	return *c.TrackScale
}

// GetTrackRadius returns the nominal checkpoint circle radius.
func (c *SimConfig) GetTrackRadius() float64 {
	if c.TrackRadius == nil {
		return 900.0 * c.GetTrackScale()
	}
	return *c.TrackRadius
}

// GetTrackDetailStep returns the arc length between centerline samples.
func (c *SimConfig) GetTrackDetailStep() float64 {
	if c.TrackDetailStep == nil {
		return 21.0 * c.GetTrackScale()
	}
	return *c.TrackDetailStep
}

// GetTrackTurnRate returns the maximum heading change per tracer step.
func (c *SimConfig) GetTrackTurnRate() float64 {
	if c.TrackTurnRate == nil {
		return 0.31
	}
	return *c.TrackTurnRate
}

// GetTrackHalfWidth returns the distance from centerline to road edge.
func (c *SimConfig) GetTrackHalfWidth() float64 {
	if c.TrackHalfWidth == nil {
		return 40.0 * c.GetTrackScale()
	}
	return *c.TrackHalfWidth
}

// GetTrackBorder returns the width of hard-turn border strips.
func (c *SimConfig) GetTrackBorder() float64 {
	if c.TrackBorder == nil {
		return 8.0 * c.GetTrackScale()
	}
	return *c.TrackBorder
}

// GetTrackBorderMinCount returns the hard-turn window length.
func (c *SimConfig) GetTrackBorderMinCount() int {
	if c.TrackBorderMinCount == nil {
		return 6
	}
	return *c.TrackBorderMinCount
}

// GetTrackMaxIterations returns the tracer iteration budget.
func (c *SimConfig) GetTrackMaxIterations() int {
	if c.TrackMaxIterations == nil {
		return 2500
	}
	return *c.TrackMaxIterations
}

// GetTrackMaxAttempts returns the generation retry cap.
func (c *SimConfig) GetTrackMaxAttempts() int {
	if c.TrackMaxAttempts == nil {
		return 200
	}
	return *c.TrackMaxAttempts
}

// GetPlayfield returns the half extent of the playable square.
func (c *SimConfig) GetPlayfield() float64 {
	if c.Playfield == nil {
		return 2000.0 * c.GetTrackScale()
	}
	return *c.Playfield
}

// GetEnginePower returns the engine_power value or the default.
func (c *SimConfig) GetEnginePower() float64 {
	if c.EnginePower == nil {
		return 100000000.0 * CarSize * CarSize
	}
	return *c.EnginePower
}

// GetWheelInertia returns the wheel moment of inertia.
func (c *SimConfig) GetWheelInertia() float64 {
	if c.WheelInertia == nil {
		return 4000.0 * CarSize * CarSize
	}
	return *c.WheelInertia
}

// GetFrictionLimit returns the tire friction circle radius.
func (c *SimConfig) GetFrictionLimit() float64 {
	if c.FrictionLimit == nil {
		return 1000000.0 * CarSize * CarSize
	}
	return *c.FrictionLimit
}

// GetForceScale returns the empirical slip-to-force coefficient.
func (c *SimConfig) GetForceScale() float64 {
	if c.ForceScale == nil {
		return 205000.0 * CarSize * CarSize
	}
	return *c.ForceScale
}

// GetEngineEpsilon returns the additive term guarding engine torque at rest.
func (c *SimConfig) GetEngineEpsilon() float64 {
	if c.EngineEpsilon == nil {
		return 5.0
	}
	return *c.EngineEpsilon
}

// GetBrakeForce returns the soft brake strength in rad/s per step.
func (c *SimConfig) GetBrakeForce() float64 {
	if c.BrakeForce == nil {
		return 15.0
	}
	return *c.BrakeForce
}

// GetHardBrakeThreshold returns the brake level that locks the wheels.
func (c *SimConfig) GetHardBrakeThreshold() float64 {
	if c.HardBrakeThreshold == nil {
		return 0.9
	}
	return *c.HardBrakeThreshold
}

// GetSteerGain returns the steering servo proportional gain.
func (c *SimConfig) GetSteerGain() float64 {
	if c.SteerGain == nil {
		return 50.0
	}
	return *c.SteerGain
}

// GetSteerMaxSpeed returns the steering servo speed cap.
func (c *SimConfig) GetSteerMaxSpeed() float64 {
	if c.SteerMaxSpeed == nil {
		return 3.0
	}
	return *c.SteerMaxSpeed
}

// GetMaxSpeed returns the velocity normalisation constant.
func (c *SimConfig) GetMaxSpeed() float64 {
	if c.MaxSpeed == nil {
		return 40.0
	}
	return *c.MaxSpeed
}

// GetMaxOmega returns the angular velocity normalisation constant.
func (c *SimConfig) GetMaxOmega() float64 {
	if c.MaxOmega == nil {
		return 100.0
	}
	return *c.MaxOmega
}

// GetLookaheadDistances returns a copy of the lookahead distances.
func (c *SimConfig) GetLookaheadDistances() []float64 {
	if len(c.LookaheadDistances) == 0 {
		return []float64{3.0, 5.0, 10.0, 25.0}
	}
	return append([]float64(nil), c.LookaheadDistances...)
}

// GetFPS returns the fps value or the default.
func (c *SimConfig) GetFPS() int {
	if c.FPS == nil {
		return 60
	}
	return *c.FPS
}

// GetDt returns the fixed simulation step in seconds.
func (c *SimConfig) GetDt() float64 {
	return 1.0 / float64(c.GetFPS())
}

// GetSpeed returns the time dilation factor.
func (c *SimConfig) GetSpeed() float64 {
	if c.Speed == nil {
		return 1.0
	}
	return *c.Speed
}

// GetVelocityIterations returns the solver velocity iteration count.
func (c *SimConfig) GetVelocityIterations() int {
	if c.VelocityIterations == nil {
		return 6 * 30
	}
	return *c.VelocityIterations
}

// GetPositionIterations returns the solver position iteration count.
func (c *SimConfig) GetPositionIterations() int {
	if c.PositionIterations == nil {
		return 2 * 30
	}
	return *c.PositionIterations
}

// GetComputeRankings returns the compute_rankings value or the default.
func (c *SimConfig) GetComputeRankings() bool {
	if c.ComputeRankings == nil {
		return true
	}
	return *c.ComputeRankings
}
