package density

import (
	"fmt"
	"strings"
)

// Variable is an independent variable of a model. Symbol is used when the
// fitted equation is printed, Name when grids are exported.
type Variable struct {
	Symbol string
	Name   string
}

var (
	temperature = Variable{Symbol: "t", Name: "temperature_c"}
	massRatio   = Variable{Symbol: "r", Name: "mass_ratio"}
)

// term is one monomial c_k * x[v]^power of a model, printed with format.
// The constant term has power 0 and ignores v.
type term struct {
	v      int
	power  int
	format string
}

// Model is a polynomial density model that is linear in its coefficients.
// Models are values without state; Eval is a pure function of its arguments.
type Model struct {
	name    string
	vars    []Variable
	terms   []term
	seed    []float64
	display []int
}

// TemperatureRatioModel is the arity-2 model
//
//	density = a*t^2 + b*t + c*r^2 + d*r + e
//
// with t in °C and r the solute/water mass ratio. Coefficients are ordered
// (a, b, c, d, e).
func TemperatureRatioModel() Model {
	return Model{
		name: "quadratic-t-r",
		vars: []Variable{temperature, massRatio},
		terms: []term{
			{v: 0, power: 2, format: "%.4e"},
			{v: 0, power: 1, format: "%.4e"},
			{v: 1, power: 2, format: "%.4g"},
			{v: 1, power: 1, format: "%.4g"},
			{power: 0, format: "%.4f"},
		},
		seed:    []float64{0.0001, 2, 3, 4, 1},
		display: []int{2, 3, 0, 1, 4},
	}
}

// RatioModel is the arity-1 model
//
//	density = c*r^2 + d*r + e
//
// Coefficients are ordered (c, d, e).
func RatioModel() Model {
	return Model{
		name: "quadratic-r",
		vars: []Variable{massRatio},
		terms: []term{
			{v: 0, power: 2, format: "%.4g"},
			{v: 0, power: 1, format: "%.4g"},
			{power: 0, format: "%.4f"},
		},
		seed:    []float64{3, 4, 1},
		display: []int{0, 1, 2},
	}
}

func (m Model) Name() string { return m.name }

// Arity is the number of independent variables.
func (m Model) Arity() int { return len(m.vars) }

// NumCoefficients is the length every coefficient vector for m must have.
func (m Model) NumCoefficients() int { return len(m.terms) }

func (m Model) Variables() []Variable {
	return append([]Variable(nil), m.vars...)
}

// Seed is the initial guess used by iterative strategies.
func (m Model) Seed() []float64 {
	return append([]float64(nil), m.seed...)
}

// Basis returns the monomials of x, one per coefficient. A row of the design
// matrix is Basis(point.X).
func (m Model) Basis(x []float64) []float64 {
	out := make([]float64, len(m.terms))
	for k, t := range m.terms {
		out[k] = monomial(x, t)
	}
	return out
}

// Eval returns the model's density at x. It does not check lengths; use
// CheckCoefficients for untrusted input.
func (m Model) Eval(coefficients, x []float64) float64 {
	sum := 0.0
	for k, t := range m.terms {
		sum += coefficients[k] * monomial(x, t)
	}
	return sum
}

// CheckCoefficients verifies that coefficients fits the model's parameter count.
func (m Model) CheckCoefficients(coefficients []float64) error {
	if len(coefficients) != len(m.terms) {
		return &ConfigurationError{
			Model:  m.name,
			Reason: fmt.Sprintf("got %d coefficients, model has %d", len(coefficients), len(m.terms)),
		}
	}
	return nil
}

// Equation renders the fitted model in the form
//
//	Density = 0.1 r^2 + 0.2 r + 1.0000
//
// where r is the mass ratio and t the temperature.
func (m Model) Equation(coefficients []float64) (string, error) {
	if err := m.CheckCoefficients(coefficients); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(m.display))
	for _, k := range m.display {
		t := m.terms[k]
		s := fmt.Sprintf(t.format, coefficients[k])
		if sym := m.symbol(t); sym != "" {
			s += " " + sym
		}
		parts = append(parts, s)
	}
	return "Density = " + strings.Join(parts, " + "), nil
}

func (m Model) symbol(t term) string {
	switch t.power {
	case 0:
		return ""
	case 1:
		return m.vars[t.v].Symbol
	default:
		return fmt.Sprintf("%s^%d", m.vars[t.v].Symbol, t.power)
	}
}

func monomial(x []float64, t term) float64 {
	v := 1.0
	for i := 0; i < t.power; i++ {
		v *= x[t.v]
	}
	return v
}
