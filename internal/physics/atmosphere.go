package physics

import "math"

const (
	// SeaLevelPressure in pascals.
	SeaLevelPressure = 101325.0
	// SpecificGasConstant for dry air, J/(kg·K).
	SpecificGasConstant = 287.05
	// DefaultTemperature in °C assumed when a ride log carries none.
	DefaultTemperature = 30.0

	celsiusToKelvin = 273.15
	molarMassAir    = 0.0289644 // kg/mol
	gasConstant     = 8.3144598 // J/(mol·K)
	lapseRate       = -0.0065   // K per metre
)

// AirDensity estimates dry air density in kg/m³ from temperature (°C) and
// altitude (m) with an isothermal exponential pressure decay.
func AirDensity(temperature, altitude float64) float64 {
	rho0 := SeaLevelPressure / (SpecificGasConstant * celsiusToKelvin)
	return rho0 *
		(celsiusToKelvin / (temperature + celsiusToKelvin)) *
		math.Exp(-rho0*Gravity*(altitude/SeaLevelPressure))
}

// AirDensityBarometric returns air density at elevation given the pressure
// (Pa) and temperature (°C) measured at baseElevation, using the
// barometric formula with the standard lapse rate.
func AirDensityBarometric(pressure, temperature, elevation, baseElevation float64) float64 {
	t := temperature + celsiusToKelvin
	rho := pressure * molarMassAir / (gasConstant * t)

	x := (elevation - baseElevation) * lapseRate / t
	y := -(1 + Gravity*molarMassAir/(gasConstant*lapseRate))
	return rho * math.Pow(1+x, y)
}
