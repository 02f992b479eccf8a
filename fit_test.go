package density

import (
	"bytes"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitOrFail(t *testing.T, s Solute, opts ...Option) FitResult {
	t.Helper()
	res, err := NewFitter(opts...).Fit(s)
	require.NoError(t, err)
	return res
}

func problemFor(t *testing.T, s Solute) *Problem {
	t.Helper()
	model, err := s.Model()
	require.NoError(t, err)
	table, err := s.Table()
	require.NoError(t, err)
	return newProblem(model, table)
}

func TestFit_Sucrose(t *testing.T) {
	res := fitOrFail(t, Sucrose)

	assert.Equal(t, Sucrose, res.Solute)
	assert.Equal(t, "qr", res.Strategy)
	assert.Equal(t, "quadratic-r", res.Model)
	assert.Equal(t, 34, res.Rows)
	assert.True(t, res.Converged)
	require.Len(t, res.Coefficients, 3)

	// The quadratic cannot follow the most concentrated rows exactly; the
	// worst residual is at 6.817 mol/kg.
	assert.Less(t, res.MaxResidual, 0.05)
	assert.InDelta(t, 0.0443, res.MaxResidual, 5e-4)
	assert.InDelta(t, 0.00510, res.RSS, 1e-5)
	assert.InDelta(t, res.RSS/31, res.ResidualVariance, 1e-15)

	assert.InDelta(t, -0.03971, res.Coefficients[0], 1e-5)
	assert.InDelta(t, 0.25458, res.Coefficients[1], 1e-5)
	assert.InDelta(t, 1.01363, res.Coefficients[2], 1e-5)
}

func TestFit_NaCl(t *testing.T) {
	res := fitOrFail(t, NaCl)

	assert.Equal(t, NaCl, res.Solute)
	assert.Equal(t, 36, res.Rows)
	require.Len(t, res.Coefficients, 5)
	assert.Less(t, res.MaxResidual, 0.002)

	want := []float64{-2.8010e-06, -2.2981e-04, -0.346816, 0.676707, 1.005244}
	for i, w := range want {
		assert.InEpsilon(t, w, res.Coefficients[i], 1e-4, "coefficient %d", i)
	}
}

func TestFit_Deterministic(t *testing.T) {
	for _, s := range Solutes() {
		first := fitOrFail(t, s)
		second := fitOrFail(t, s)
		assert.Equal(t, first.Coefficients, second.Coefficients, s.String())
		assert.Equal(t, first.MaxResidual, second.MaxResidual, s.String())
	}
}

func TestFit_MinimizesObjective(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, s := range Solutes() {
		res := fitOrFail(t, s)
		p := problemFor(t, s)
		best := p.Objective(res.Coefficients)
		assert.InDelta(t, res.RSS, best, 1e-15)

		for trial := 0; trial < 200; trial++ {
			perturbed := make([]float64, len(res.Coefficients))
			scale := math.Pow(10, -float64(2+rng.Intn(6)))
			for i, c := range res.Coefficients {
				perturbed[i] = c + (rng.Float64()*2-1)*scale*math.Abs(c)
			}
			assert.GreaterOrEqual(t, p.Objective(perturbed), best, "%s trial %d", s, trial)
		}
	}
}

func TestFit_GridMatchesTable(t *testing.T) {
	res := fitOrFail(t, NaCl)
	table, err := NaCl.Table()
	require.NoError(t, err)
	model := TemperatureRatioModel()

	require.Len(t, res.Grid, table.Len())
	maxAbs := 0.0
	for i, g := range res.Grid {
		row := table.Row(i)
		assert.Equal(t, row.X, g.X)
		assert.Equal(t, row.Density, g.Table)
		assert.Equal(t, model.Eval(res.Coefficients, row.X), g.Fitted)
		assert.Equal(t, g.Fitted-g.Table, g.Residual)
		maxAbs = math.Max(maxAbs, math.Abs(g.Residual))
	}
	assert.Equal(t, res.MaxResidual, maxAbs)
}

func TestProblem_Objective(t *testing.T) {
	for _, s := range Solutes() {
		p := problemFor(t, s)
		res := fitOrFail(t, s)
		assert.InDelta(t, res.RSS, p.Objective(res.Coefficients), 1e-14, s.String())

		table, err := s.Table()
		require.NoError(t, err)
		sumSquares := 0.0
		for _, row := range table.Rows() {
			sumSquares += row.Density * row.Density
		}
		zero := make([]float64, p.Model().NumCoefficients())
		assert.InDelta(t, sumSquares, p.Objective(zero), 1e-9, s.String())
	}
}

func TestFit_StrategiesAgree(t *testing.T) {
	for _, s := range Solutes() {
		qr := fitOrFail(t, s)
		normal := fitOrFail(t, s, WithStrategy(NormalEquations{}))
		assert.Equal(t, "normal", normal.Strategy)
		assert.InDeltaSlice(t, qr.Coefficients, normal.Coefficients, 1e-9, s.String())
		assert.InDelta(t, qr.RSS, normal.RSS, 1e-12, s.String())
	}
}

func TestFit_RidgeShrinksCoefficients(t *testing.T) {
	plain := fitOrFail(t, Sucrose, WithStrategy(NormalEquations{}))
	ridge := fitOrFail(t, Sucrose, WithStrategy(NormalEquations{Ridge: 10}))

	norm := func(v []float64) float64 {
		sum := 0.0
		for _, x := range v {
			sum += x * x
		}
		return sum
	}
	assert.Less(t, norm(ridge.Coefficients), norm(plain.Coefficients))
	assert.Greater(t, ridge.RSS, plain.RSS)
}

func TestFit_NelderMead(t *testing.T) {
	qr := fitOrFail(t, Sucrose)

	res, err := NewFitter(WithStrategy(DefaultNelderMead())).Fit(Sucrose)
	if err != nil {
		var nonConv *NonConvergenceError
		require.ErrorAs(t, err, &nonConv)
	}
	assert.Equal(t, "nelder-mead", res.Strategy)
	assert.Positive(t, res.Evaluations)
	assert.LessOrEqual(t, res.Evaluations, 10000+10)
	assert.InDelta(t, qr.RSS, res.RSS, 1e-6)
	assert.GreaterOrEqual(t, res.RSS, qr.RSS-1e-15)
	assert.InDelta(t, qr.MaxResidual, res.MaxResidual, 1e-3)
}

func TestFit_NelderMeadBudgetExhausted(t *testing.T) {
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)

	nm := NelderMead{MaxIterations: 5, MaxEvaluations: 20, Tolerance: 1e-29, ConvergeIterations: 200}
	res, err := NewFitter(WithStrategy(nm), WithLogger(logger)).Fit(NaCl)

	var nonConv *NonConvergenceError
	require.ErrorAs(t, err, &nonConv)
	assert.Equal(t, "nelder-mead", nonConv.Strategy)
	assert.NotEmpty(t, nonConv.Status)
	assert.Contains(t, nonConv.Error(), "did not converge")

	// The best coefficients found so far are still reported.
	assert.False(t, res.Converged)
	assert.Equal(t, NaCl, res.Solute)
	require.Len(t, res.Coefficients, 5)
	assert.Positive(t, res.MaxResidual)
	assert.Contains(t, logs.String(), "search stopped before converging")
}

func TestFitTable_ExactlyDetermined(t *testing.T) {
	t.Run("ratio model", func(t *testing.T) {
		table, err := NewDataTable("three", 1, []Point{
			{X: []float64{0.1}, Density: 1.02},
			{X: []float64{0.5}, Density: 1.15},
			{X: []float64{1.0}, Density: 1.25},
		})
		require.NoError(t, err)

		res, err := NewFitter().FitTable(RatioModel(), table)
		require.NoError(t, err)
		assert.InDelta(t, 0, res.MaxResidual, 1e-12)
		assert.Equal(t, 0.0, res.ResidualVariance)
	})

	t.Run("temperature ratio model", func(t *testing.T) {
		table, err := NewDataTable("five", 2, []Point{
			{X: []float64{20, 0.1}, Density: 1.060},
			{X: []float64{25, 0.1}, Density: 1.058},
			{X: []float64{30, 0.1}, Density: 1.055},
			{X: []float64{20, 0.2}, Density: 1.120},
			{X: []float64{20, 0.3}, Density: 1.175},
		})
		require.NoError(t, err)

		for _, strategy := range []Strategy{QR{}, NormalEquations{}} {
			res, err := NewFitter(WithStrategy(strategy)).FitTable(TemperatureRatioModel(), table)
			require.NoError(t, err, strategy.Name())
			assert.InDelta(t, 0, res.MaxResidual, 1e-9, strategy.Name())
		}
	})
}

func TestFitTable_TooFewRows(t *testing.T) {
	table, err := NewDataTable("two", 1, []Point{
		{X: []float64{0.1}, Density: 1.02},
		{X: []float64{0.5}, Density: 1.15},
	})
	require.NoError(t, err)

	for _, strategy := range []Strategy{QR{}, NormalEquations{}, DefaultNelderMead()} {
		res, err := NewFitter(WithStrategy(strategy)).FitTable(RatioModel(), table)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr, strategy.Name())
		assert.Contains(t, cfgErr.Reason, "has 2 rows, model needs at least 3")
		assert.Empty(t, res.Coefficients)
	}
}

func TestFitTable_RankDeficient(t *testing.T) {
	// A single temperature cannot determine the t^2, t and constant terms.
	rows := make([]Point, 0, 6)
	for i, r := range []float64{0.05, 0.1, 0.15, 0.2, 0.25, 0.3} {
		rows = append(rows, Point{X: []float64{25, r}, Density: 1 + 0.6*r + 0.001*float64(i)})
	}
	table, err := NewDataTable("isothermal", 2, rows)
	require.NoError(t, err)

	_, err = NewFitter().FitTable(TemperatureRatioModel(), table)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "rank deficient")
}

func TestFitTable_ArityMismatch(t *testing.T) {
	table, err := Sucrose.Table()
	require.NoError(t, err)

	_, err = NewFitter().FitTable(TemperatureRatioModel(), table)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "has 1 variables, model has 2")
}

func TestFit_Concurrent(t *testing.T) {
	want := map[Solute]FitResult{}
	for _, s := range Solutes() {
		want[s] = fitOrFail(t, s)
	}

	fitter := NewFitter()
	var wg sync.WaitGroup
	results := make([]FitResult, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = fitter.Fit(Solutes()[i%2])
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want[res.Solute].Coefficients, res.Coefficients)
	}
}
