package density

import "fmt"

// ConfigurationError reports a table/model pair that cannot be fitted, such
// as too few rows or a rank-deficient design matrix. It is raised before any
// search starts.
type ConfigurationError struct {
	Model  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Model != "" {
		msg += fmt.Sprintf(" (%s)", e.Model)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NonConvergenceError is returned alongside the best coefficients found when
// an iterative strategy stops on a budget limit instead of a tolerance.
type NonConvergenceError struct {
	Strategy    string
	Status      string
	Iterations  int
	Evaluations int
	Err         error
}

func (e *NonConvergenceError) Error() string {
	msg := fmt.Sprintf("%s did not converge: %s after %d iterations and %d evaluations",
		e.Strategy, e.Status, e.Iterations, e.Evaluations)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NonConvergenceError) Unwrap() error { return e.Err }

// InvalidQueryError reports a query value the evaluator refuses to use.
// Value is meaningless when Missing is set.
type InvalidQueryError struct {
	Field   string
	Value   float64
	Reason  string
	Missing bool
}

func (e *InvalidQueryError) Error() string {
	if e.Missing {
		return fmt.Sprintf("invalid query: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid query: %s = %g: %s", e.Field, e.Value, e.Reason)
}
