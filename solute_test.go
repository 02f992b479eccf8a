package density

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSolute(t *testing.T) {
	tests := []struct {
		in   string
		want Solute
	}{
		{"nacl", NaCl},
		{"NaCl", NaCl},
		{" sodium-chloride ", NaCl},
		{"sucrose", Sucrose},
		{"Sugar", Sucrose},
	}
	for _, tt := range tests {
		got, err := ParseSolute(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseSolute("glucose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown solute "glucose"`)
}

func TestSolute_JSON(t *testing.T) {
	data, err := json.Marshal(FitResult{Solute: NaCl, Coefficients: []float64{1}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"solute":"nacl"`)

	var res FitResult
	require.NoError(t, json.Unmarshal([]byte(`{"solute":"sucrose"}`), &res))
	assert.Equal(t, Sucrose, res.Solute)

	require.Error(t, json.Unmarshal([]byte(`{"solute":"water"}`), &res))

	// FitTable results carry no solute.
	data, err = json.Marshal(FitResult{Model: "quadratic-r"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"solute"`)
}

func TestSolute_MolarMass(t *testing.T) {
	assert.Equal(t, 58.443, NaCl.MolarMass())
	assert.Equal(t, 342.2965, Sucrose.MolarMass())
	assert.Equal(t, 0.0, Solute(0).MolarMass())
}

func TestErrors_Messages(t *testing.T) {
	cfg := &ConfigurationError{Model: "quadratic-r", Reason: "table is empty"}
	assert.Equal(t, "configuration error (quadratic-r): table is empty", cfg.Error())

	nc := &NonConvergenceError{Strategy: "nelder-mead", Status: "IterationLimit", Iterations: 5, Evaluations: 12}
	assert.Equal(t, "nelder-mead did not converge: IterationLimit after 5 iterations and 12 evaluations", nc.Error())

	q := &InvalidQueryError{Field: "mass_water", Value: -1, Reason: "must be positive"}
	assert.Equal(t, "invalid query: mass_water = -1: must be positive", q.Error())

	missing := &InvalidQueryError{Field: "temperature", Reason: "required", Missing: true}
	assert.Equal(t, "invalid query: temperature required", missing.Error())

	nan := &InvalidQueryError{Field: "temperature", Value: math.NaN(), Reason: "not finite"}
	assert.Equal(t, "invalid query: temperature = NaN: not finite", nan.Error())
}
