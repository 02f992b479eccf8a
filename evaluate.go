package density

import "fmt"

// Evaluate applies fitted coefficients of solute s to a query. The mass ratio
// is computed here from the two masses. Values outside the reference table's
// range are evaluated anyway and flagged as extrapolated.
func Evaluate(s Solute, coefficients []float64, q Query) (Estimate, error) {
	model, err := s.Model()
	if err != nil {
		return Estimate{}, err
	}
	if err := model.CheckCoefficients(coefficients); err != nil {
		return Estimate{}, err
	}
	table, err := s.Table()
	if err != nil {
		return Estimate{}, err
	}

	ratio, err := q.massRatio()
	if err != nil {
		return Estimate{}, err
	}

	if q.Temperature != nil && !finite(*q.Temperature) {
		return Estimate{}, &InvalidQueryError{Field: "temperature", Value: *q.Temperature, Reason: "not finite"}
	}

	est := Estimate{Solute: s, MassRatio: ratio}
	x := []float64{ratio}
	if model.Arity() == 2 {
		if q.Temperature == nil {
			return Estimate{}, &InvalidQueryError{Field: "temperature", Reason: "required", Missing: true}
		}
		t := *q.Temperature
		x = []float64{t, ratio}
		est.Temperature = Celsius(t)
	} else if q.Temperature != nil {
		est.Caveats = append(est.Caveats, fmt.Sprintf("%s model does not depend on temperature; %g °C ignored", s, *q.Temperature))
	}

	vars := model.Variables()
	for j, bounds := range table.Ranges() {
		if x[j] < bounds[0] || x[j] > bounds[1] {
			est.Extrapolated = true
			est.Caveats = append(est.Caveats, fmt.Sprintf("%s %.4g outside fitted range [%.4g, %.4g]",
				vars[j].Name, x[j], bounds[0], bounds[1]))
		}
	}

	est.Density = model.Eval(coefficients, x)
	return est, nil
}

func (q Query) massRatio() (float64, error) {
	switch {
	case !finite(q.MassSolute):
		return 0, &InvalidQueryError{Field: "mass_solute", Value: q.MassSolute, Reason: "not finite"}
	case !finite(q.MassWater):
		return 0, &InvalidQueryError{Field: "mass_water", Value: q.MassWater, Reason: "not finite"}
	case q.MassSolute < 0:
		return 0, &InvalidQueryError{Field: "mass_solute", Value: q.MassSolute, Reason: "negative"}
	case q.MassWater <= 0:
		return 0, &InvalidQueryError{Field: "mass_water", Value: q.MassWater, Reason: "must be positive"}
	}
	ratio := q.MassSolute / q.MassWater
	if !finite(ratio) {
		return 0, &InvalidQueryError{Field: "mass_ratio", Value: ratio, Reason: "not finite"}
	}
	return ratio, nil
}
