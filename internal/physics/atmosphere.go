package physics

import "math"

// Atmosphere maps an altitude in kilometres to a density in kg/m^3.
type Atmosphere interface {
	Density(altitudeKm float64) float64
}

// Exponential is the simplified exospheric model: a fixed temperature proxy
// built from solar flux terms and a molar mass proxy that falls linearly
// with altitude.
type Exponential struct {
	BaseDensity float64
	F107        float64
	F107Mean    float64
	Ap          float64
}

func NewExponential() *Exponential {
	return &Exponential{
		BaseDensity: 6e-10,
		F107:        129.0,
		F107Mean:    70.0,
		Ap:          26.0,
	}
}

// Temperature returns the exospheric temperature proxy in kelvin.
func (e *Exponential) Temperature() float64 {
	return 900.0 + 2.5*(e.F107-e.F107Mean) + 1.5*e.Ap
}

// MolarMass returns the molar mass proxy at altitude h (km).
func (e *Exponential) MolarMass(h float64) float64 {
	return 27.0 - 0.012*(h-200.0)
}

func (e *Exponential) Density(h float64) float64 {
	return e.BaseDensity * math.Exp((-h-175.0)*e.MolarMass(h)/e.Temperature())
}

// Vacuum has zero density everywhere, which turns drag off.
type Vacuum struct{}

func (Vacuum) Density(float64) float64 { return 0 }
