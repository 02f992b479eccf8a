package density

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"solution-density/internal/logging"
)

const epsilon = 0x1p-52

// Problem is a least-squares problem over one table and one model: the design
// matrix X (one row of monomials per measurement) and the measured densities y.
// Strategies minimize Objective.
type Problem struct {
	model  Model
	design *mat.Dense
	target []float64
}

func newProblem(model Model, table *DataTable) *Problem {
	n, k := table.Len(), model.NumCoefficients()
	design := mat.NewDense(n, k, nil)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		row := table.rows[i]
		design.SetRow(i, model.Basis(row.X))
		target[i] = row.Density
	}
	return &Problem{model: model, design: design, target: target}
}

func (p *Problem) Model() Model { return p.model }

// Design returns the n×k design matrix.
func (p *Problem) Design() mat.Matrix { return p.design }

// Target returns the measured densities.
func (p *Problem) Target() mat.Vector { return mat.NewVecDense(len(p.target), p.target) }

// Seed is the starting point for iterative strategies.
func (p *Problem) Seed() []float64 { return p.model.Seed() }

// Objective is the sum of squared residuals J(θ) = Σ (Xθ - y)².
func (p *Problem) Objective(theta []float64) float64 {
	var r mat.VecDense
	r.MulVec(p.design, mat.NewVecDense(len(theta), theta))
	r.SubVec(&r, p.Target())
	return mat.Dot(&r, &r)
}

// checkRank fails when the design matrix does not have full column rank.
// Columns are scaled to unit norm first; t² and r columns differ by orders
// of magnitude.
func (p *Problem) checkRank() error {
	n, k := p.design.Dims()
	scaled := mat.DenseCopyOf(p.design)
	for j := 0; j < k; j++ {
		norm := mat.Norm(scaled.ColView(j), 2)
		if norm == 0 {
			return &ConfigurationError{
				Model:  p.model.Name(),
				Reason: fmt.Sprintf("design matrix column %d is zero", j),
			}
		}
		for i := 0; i < n; i++ {
			scaled.Set(i, j, scaled.At(i, j)/norm)
		}
	}

	var qr mat.QR
	qr.Factorize(scaled)
	var r mat.Dense
	qr.RTo(&r)

	tol := float64(max(n, k)) * epsilon * 16
	for j := 0; j < k; j++ {
		if math.Abs(r.At(j, j)) <= tol {
			return &ConfigurationError{
				Model:  p.model.Name(),
				Reason: fmt.Sprintf("design matrix is rank deficient at column %d", j),
			}
		}
	}
	return nil
}

// Solution is what a Strategy found.
type Solution struct {
	Coefficients []float64
	Iterations   int
	Evaluations  int
	Converged    bool
}

// Strategy minimizes a Problem's objective. Strategies must be deterministic.
// A strategy that stops early returns its best Solution together with a
// *NonConvergenceError.
type Strategy interface {
	Name() string
	Solve(p *Problem) (Solution, error)
}

// QR solves the least-squares problem with a Householder QR factorization of
// the design matrix. It is the default strategy.
type QR struct{}

func (QR) Name() string { return "qr" }

func (QR) Solve(p *Problem) (Solution, error) {
	_, k := p.design.Dims()
	var qr mat.QR
	qr.Factorize(p.design)

	c := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(c, false, p.Target()); err != nil {
		return Solution{}, &ConfigurationError{
			Model:  p.model.Name(),
			Reason: "could not solve QR",
			Err:    err,
		}
	}
	coefficients := make([]float64, k)
	for j := range coefficients {
		coefficients[j] = c.AtVec(j)
	}
	return Solution{Coefficients: coefficients, Converged: true}, nil
}

// Fitter fits models to tables with a configurable Strategy. A Fitter holds
// no mutable state and may be shared between goroutines.
type Fitter struct {
	strategy Strategy
	logger   logrus.FieldLogger
}

// Option configures a Fitter.
type Option func(*Fitter)

// WithStrategy replaces the default QR strategy.
func WithStrategy(s Strategy) Option {
	return func(f *Fitter) {
		if s != nil {
			f.strategy = s
		}
	}
}

// WithLogger sets a logger for fit diagnostics. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fitter) {
		if l != nil {
			f.logger = l
		}
	}
}

func NewFitter(opts ...Option) *Fitter {
	f := &Fitter{strategy: QR{}, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit fits the reference table of s with the default Fitter.
func Fit(s Solute) (FitResult, error) {
	return NewFitter().Fit(s)
}

func (f *Fitter) Strategy() Strategy { return f.strategy }

// Fit fits the built-in model of s to its reference table.
func (f *Fitter) Fit(s Solute) (FitResult, error) {
	model, err := s.Model()
	if err != nil {
		return FitResult{}, err
	}
	table, err := s.Table()
	if err != nil {
		return FitResult{}, errors.Wrapf(err, "building %s table", s)
	}
	res, err := f.FitTable(model, table)
	res.Solute = s
	return res, err
}

// FitTable finds the coefficients of model minimizing the sum of squared
// residuals over table. A *ConfigurationError is returned, with an empty
// result, when the table cannot determine the coefficients. A
// *NonConvergenceError is returned with a populated result.
func (f *Fitter) FitTable(model Model, table *DataTable) (FitResult, error) {
	if table == nil {
		return FitResult{}, &ConfigurationError{Model: model.Name(), Reason: "no table"}
	}
	if table.Arity() != model.Arity() {
		return FitResult{}, &ConfigurationError{
			Model:  model.Name(),
			Reason: fmt.Sprintf("table %s has %d variables, model has %d", table.Name(), table.Arity(), model.Arity()),
		}
	}
	if table.Len() < model.NumCoefficients() {
		return FitResult{}, &ConfigurationError{
			Model:  model.Name(),
			Reason: fmt.Sprintf("table %s has %d rows, model needs at least %d", table.Name(), table.Len(), model.NumCoefficients()),
		}
	}

	p := newProblem(model, table)
	if err := p.checkRank(); err != nil {
		return FitResult{}, err
	}

	log := f.logger.WithFields(logrus.Fields{
		"model":    model.Name(),
		"table":    table.Name(),
		"strategy": f.strategy.Name(),
		"rows":     table.Len(),
	})
	log.Debug("fitting")

	sol, err := f.strategy.Solve(p)
	var nonConv *NonConvergenceError
	if err != nil && !errors.As(err, &nonConv) {
		return FitResult{}, errors.Wrapf(err, "%s fit of %s", f.strategy.Name(), table.Name())
	}
	if len(sol.Coefficients) != model.NumCoefficients() {
		return FitResult{}, errors.Errorf("%s returned %d coefficients, want %d",
			f.strategy.Name(), len(sol.Coefficients), model.NumCoefficients())
	}

	res := summarize(model, table, sol)
	res.Strategy = f.strategy.Name()
	log = log.WithFields(logrus.Fields{
		"coefficients": res.Coefficients,
		"rss":          res.RSS,
		"max_residual": res.MaxResidual,
	})
	if nonConv != nil {
		log.WithError(nonConv).Warn("search stopped before converging")
		return res, nonConv
	}
	log.Debug("fitted")
	return res, nil
}

// summarize computes the residual diagnostics and the plotting grid.
func summarize(model Model, table *DataTable, sol Solution) FitResult {
	n, k := table.Len(), model.NumCoefficients()
	res := FitResult{
		Model:        model.Name(),
		Coefficients: append([]float64(nil), sol.Coefficients...),
		Rows:         n,
		Iterations:   sol.Iterations,
		Evaluations:  sol.Evaluations,
		Converged:    sol.Converged,
		Grid:         make([]GridPoint, n),
	}
	for i := 0; i < n; i++ {
		row := table.Row(i)
		fitted := model.Eval(res.Coefficients, row.X)
		residual := fitted - row.Density
		res.Grid[i] = GridPoint{X: row.X, Table: row.Density, Fitted: fitted, Residual: residual}
		res.RSS += residual * residual
		res.MaxResidual = math.Max(res.MaxResidual, math.Abs(residual))
	}
	if n > k {
		res.ResidualVariance = res.RSS / float64(n-k)
	}
	return res
}
