package density

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// NormalEquations solves (XᵀX + ridge·I) θ = Xᵀy with Gaussian elimination.
// A positive Ridge stabilizes nearly singular tables at the cost of a small
// bias; the plain least-squares solution has Ridge 0.
type NormalEquations struct {
	Ridge float64
}

func (NormalEquations) Name() string { return "normal" }

func (ne NormalEquations) Solve(p *Problem) (Solution, error) {
	_, k := p.design.Dims()

	var normal mat.Dense
	normal.Mul(p.design.T(), p.design)
	var moment mat.VecDense
	moment.MulVec(p.design.T(), p.Target())

	A := make([][]float64, k)
	b := make([]float64, k)
	for i := 0; i < k; i++ {
		A[i] = normal.RawRowView(i)
		A[i][i] += ne.Ridge
		b[i] = moment.AtVec(i)
	}

	x, err := solveLinear(A, b)
	if err != nil {
		return Solution{}, &ConfigurationError{
			Model:  p.model.Name(),
			Reason: "could not solve normal equations",
			Err:    err,
		}
	}
	return Solution{Coefficients: x, Converged: true}, nil
}

// solveLinear solves A x = b for square A using Gaussian elimination with
// partial pivoting. A and b are modified. Pivots that are negligible relative
// to the largest entry of A are treated as singular.
func solveLinear(A [][]float64, b []float64) ([]float64, error) {
	n := len(A)
	scale := 0.0
	for i := range A {
		for j := range A[i] {
			scale = math.Max(scale, math.Abs(A[i][j]))
		}
	}
	if scale == 0 {
		return nil, errors.New("matrix is zero")
	}
	tol := float64(n) * scale * epsilon

	// Forward elimination with partial pivoting
	for col := 0; col < n; col++ {
		pivot := col
		maxAbs := math.Abs(A[col][col])
		for r := col + 1; r < n; r++ {
			if math.Abs(A[r][col]) > maxAbs {
				maxAbs = math.Abs(A[r][col])
				pivot = r
			}
		}
		if maxAbs <= tol {
			return nil, errors.New("matrix is singular (zero pivot)")
		}
		if pivot != col {
			A[col], A[pivot] = A[pivot], A[col]
			b[col], b[pivot] = b[pivot], b[col]
		}
		for r := col + 1; r < n; r++ {
			factor := A[r][col] / A[col][col]
			for c := col; c < n; c++ {
				A[r][c] -= factor * A[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	// Back substitution
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= A[i][j] * x[j]
		}
		x[i] = sum / A[i][i]
	}
	return x, nil
}
