package dynamo

import "math"

// Rider is the immutable rider plus bicycle record.
type Rider struct {
	Mass              float64 `yaml:"mass" json:"mass"`                             // kg, rider + bike
	FrontalArea       float64 `yaml:"frontal_area" json:"frontal_area"`             // m²
	DragCoefficient   float64 `yaml:"drag_coefficient" json:"drag_coefficient"`     // Cd
	RollingResistance float64 `yaml:"rolling_resistance" json:"rolling_resistance"` // Crr
	Efficiency        float64 `yaml:"efficiency" json:"efficiency"`                 // drivetrain, (0, 1]
}

// CdA returns the drag area Cd·A in m².
func (r Rider) CdA() float64 {
	return r.DragCoefficient * r.FrontalArea
}

// WithCdA returns a copy whose drag area equals cda, keeping the frontal area
// when it is set.
func (r Rider) WithCdA(cda float64) Rider {
	if r.FrontalArea > 0 {
		r.DragCoefficient = cda / r.FrontalArea
		return r
	}
	r.FrontalArea = 1
	r.DragCoefficient = cda
	return r
}

func (r Rider) Validate() error {
	switch {
	case !finite(r.Mass) || r.Mass <= 0:
		return &InputError{Field: "mass", Value: r.Mass, Reason: "must be > 0"}
	case !finite(r.FrontalArea) || r.FrontalArea < 0:
		return &InputError{Field: "frontal_area", Value: r.FrontalArea, Reason: "must be >= 0"}
	case !finite(r.DragCoefficient) || r.DragCoefficient < 0:
		return &InputError{Field: "drag_coefficient", Value: r.DragCoefficient, Reason: "must be >= 0"}
	case !finite(r.RollingResistance) || r.RollingResistance < 0:
		return &InputError{Field: "rolling_resistance", Value: r.RollingResistance, Reason: "must be >= 0"}
	case !finite(r.Efficiency) || r.Efficiency <= 0 || r.Efficiency > 1:
		return &InputError{Field: "efficiency", Value: r.Efficiency, Reason: "must be in (0, 1]"}
	}
	return nil
}

// Environment describes the air and road the rider moves through.
// Grade is rise over run. WindDirection is in degrees relative to the
// direction of travel: 0 is a pure headwind, 180 a pure tailwind.
type Environment struct {
	AirDensity    float64 `yaml:"air_density" json:"air_density"`
	Grade         float64 `yaml:"grade" json:"grade"`
	WindSpeed     float64 `yaml:"wind_speed" json:"wind_speed"`
	WindDirection float64 `yaml:"wind_direction" json:"wind_direction"`
}

// GradePercent converts a grade in percent to rise over run.
func GradePercent(pct float64) float64 {
	return pct / 100
}

// EffectiveWind is the headwind component in m/s; negative for a tailwind.
func (e Environment) EffectiveWind() float64 {
	if e.WindSpeed == 0 {
		return 0
	}
	return math.Cos(e.WindDirection*math.Pi/180) * e.WindSpeed
}

// WithGrade returns a copy on a different slope.
func (e Environment) WithGrade(grade float64) Environment {
	e.Grade = grade
	return e
}

func (e Environment) Validate() error {
	switch {
	case !finite(e.AirDensity) || e.AirDensity <= 0:
		return &InputError{Field: "air_density", Value: e.AirDensity, Reason: "must be > 0"}
	case !finite(e.Grade):
		return &InputError{Field: "grade", Value: e.Grade, Reason: "must be finite"}
	case !finite(e.WindSpeed):
		return &InputError{Field: "wind_speed", Value: e.WindSpeed, Reason: "must be finite"}
	case !finite(e.WindDirection):
		return &InputError{Field: "wind_direction", Value: e.WindDirection, Reason: "must be finite"}
	}
	return nil
}

// Forces holds the resisting force components in newtons. Gravity is
// negative downhill; Drag is negative when a tailwind outruns the rider.
type Forces struct {
	Drag    float64 `json:"drag"`
	Rolling float64 `json:"rolling"`
	Gravity float64 `json:"gravity"`
}

func (f Forces) Total() float64 {
	return f.Drag + f.Rolling + f.Gravity
}

// PowerBreakdown splits the pedal power needed at a speed into watts per
// resisting component plus the drivetrain loss.
type PowerBreakdown struct {
	Drag       float64 `json:"drag_watts"`
	Rolling    float64 `json:"rolling_watts"`
	Climbing   float64 `json:"climbing_watts"`
	Drivetrain float64 `json:"drivetrain_loss_watts"`
	Total      float64 `json:"total_watts"`
}

// QueryKind names the unknown of a dynamics query.
type QueryKind int

const (
	// SolvePower: speed is known, power is the unknown.
	SolvePower QueryKind = iota
	// SolveSpeed: power is known, speed is the unknown.
	SolveSpeed
)

func (k QueryKind) String() string {
	switch k {
	case SolvePower:
		return "power"
	case SolveSpeed:
		return "speed"
	default:
		return "unknown"
	}
}

// Query carries the known quantity: speed in m/s for SolvePower, pedal
// power in watts for SolveSpeed.
type Query struct {
	Kind  QueryKind
	Value float64
}

// Solution is a fully resolved operating point.
type Solution struct {
	Speed  float64 `json:"speed"`
	Power  float64 `json:"power"`
	Forces Forces  `json:"forces"`
}

// SolverMethod selects the root finder for speed-from-power.
type SolverMethod string

const (
	Bisection SolverMethod = "bisection"
	Newton    SolverMethod = "newton"
)

// SolverConfig bounds the numeric solve. Zero fields take defaults.
type SolverConfig struct {
	Method        SolverMethod `yaml:"method" json:"method"`
	Tolerance     float64      `yaml:"tolerance" json:"tolerance"`           // m/s
	MaxIterations int          `yaml:"max_iterations" json:"max_iterations"` //
	InitialUpper  float64      `yaml:"initial_upper" json:"initial_upper"`   // first bracket upper bound, m/s
	MaxSpeed      float64      `yaml:"max_speed" json:"max_speed"`           // bracket growth limit, m/s
	MinPower      float64      `yaml:"min_power" json:"min_power"`           // watts treated as freewheeling
}

const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 100
	DefaultInitialUpper  = 20.0
	DefaultMaxSpeed      = 500.0
)

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Method:        Bisection,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		InitialUpper:  DefaultInitialUpper,
		MaxSpeed:      DefaultMaxSpeed,
	}
}

// WithDefaults fills zero fields.
func (c SolverConfig) WithDefaults() SolverConfig {
	d := DefaultSolverConfig()
	if c.Method == "" {
		c.Method = d.Method
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.InitialUpper <= 0 {
		c.InitialUpper = d.InitialUpper
	}
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = d.MaxSpeed
	}
	return c
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
