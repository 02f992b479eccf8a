package density

// Point is one measurement row: the independent variables of a model (in the
// model's variable order) and the density measured there in g/mL.
type Point struct {
	X       []float64 `json:"x"`
	Density float64   `json:"density"`
}

// GridPoint pairs a table density with the fitted density at the same
// independent variables. A slice of these is what a scatter plot consumes.
type GridPoint struct {
	X        []float64 `json:"x"`
	Table    float64   `json:"table"`
	Fitted   float64   `json:"fitted"`
	Residual float64   `json:"residual"`
}

// FitResult is the JSON schema written by the fit command and handed to the
// evaluator. It is recomputed on every run and never persisted.
type FitResult struct {
	Solute           Solute      `json:"solute,omitempty"`
	Model            string      `json:"model"`
	Strategy         string      `json:"strategy"`
	Coefficients     []float64   `json:"coefficients"`
	MaxResidual      float64     `json:"max_residual"`
	RSS              float64     `json:"rss"`
	ResidualVariance float64     `json:"residual_variance"`
	Rows             int         `json:"rows"`
	Iterations       int         `json:"iterations,omitempty"`
	Evaluations      int         `json:"evaluations,omitempty"`
	Converged        bool        `json:"converged"`
	Grid             []GridPoint `json:"grid,omitempty"`
}

// Query is a composition to evaluate. Temperature is in °C and is only
// required by temperature-dependent models.
type Query struct {
	MassSolute  float64
	MassWater   float64
	Temperature *float64
}

// Celsius returns a pointer suitable for Query.Temperature.
func Celsius(t float64) *float64 {
	return &t
}

// Estimate is the evaluator's answer for one query.
type Estimate struct {
	Solute       Solute   `json:"solute"`
	Density      float64  `json:"density"`
	MassRatio    float64  `json:"mass_ratio"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Extrapolated bool     `json:"extrapolated"`
	Caveats      []string `json:"caveats,omitempty"`
}
