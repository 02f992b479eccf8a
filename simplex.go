package density

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"
)

// NelderMead minimizes the objective with a derivative-free simplex search
// started from the model's seed. It reproduces the classic fitting procedure
// for these tables; QR reaches the same minimum directly.
type NelderMead struct {
	MaxIterations  int
	MaxEvaluations int
	// Tolerance is the absolute and relative objective improvement that
	// counts as progress.
	Tolerance float64
	// ConvergeIterations is how many iterations without progress end the
	// search successfully.
	ConvergeIterations int
}

// DefaultNelderMead uses tight tolerances and a 10000 step budget.
func DefaultNelderMead() NelderMead {
	return NelderMead{
		MaxIterations:      10000,
		MaxEvaluations:     10000,
		Tolerance:          1e-29,
		ConvergeIterations: 200,
	}
}

func (NelderMead) Name() string { return "nelder-mead" }

func (nm NelderMead) Solve(p *Problem) (Solution, error) {
	settings := &optimize.Settings{
		MajorIterations: nm.MaxIterations,
		FuncEvaluations: nm.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   nm.Tolerance,
			Relative:   nm.Tolerance,
			Iterations: nm.ConvergeIterations,
		},
	}
	problem := optimize.Problem{Func: p.Objective}

	result, err := optimize.Minimize(problem, p.Seed(), settings, &optimize.NelderMead{})
	if result == nil {
		return Solution{}, errors.Wrap(err, "nelder-mead")
	}

	sol := Solution{
		Coefficients: append([]float64(nil), result.X...),
		Iterations:   result.MajorIterations,
		Evaluations:  result.FuncEvaluations,
		Converged:    err == nil && !result.Status.Early(),
	}
	if !sol.Converged {
		return sol, &NonConvergenceError{
			Strategy:    nm.Name(),
			Status:      result.Status.String(),
			Iterations:  sol.Iterations,
			Evaluations: sol.Evaluations,
			Err:         err,
		}
	}
	return sol, nil
}
