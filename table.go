package density

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DataTable is an immutable set of measurement rows for one solute. Rows are
// copied in and out so a table can be shared by concurrent fits.
type DataTable struct {
	name  string
	arity int
	rows  []Point
}

// NewDataTable validates rows and returns a table. Every row must have arity
// independent variables, finite values and a positive density, and no two
// rows may share the same independent variables.
func NewDataTable(name string, arity int, rows []Point) (*DataTable, error) {
	if arity < 1 {
		return nil, &ConfigurationError{Model: name, Reason: fmt.Sprintf("arity %d", arity)}
	}
	if len(rows) == 0 {
		return nil, &ConfigurationError{Model: name, Reason: "table is empty"}
	}

	seen := make(map[string]int, len(rows))
	copied := make([]Point, len(rows))
	for i, row := range rows {
		if len(row.X) != arity {
			return nil, &ConfigurationError{
				Model:  name,
				Reason: fmt.Sprintf("row %d has %d variables, want %d", i, len(row.X), arity),
			}
		}
		if !finite(row.Density) || !allFinite(row.X) {
			return nil, &ConfigurationError{Model: name, Reason: fmt.Sprintf("row %d is not finite", i)}
		}
		if row.Density <= 0 {
			return nil, &ConfigurationError{
				Model:  name,
				Reason: fmt.Sprintf("row %d has non-positive density %g", i, row.Density),
			}
		}
		key := tupleKey(row.X)
		if j, dup := seen[key]; dup {
			return nil, &ConfigurationError{
				Model:  name,
				Reason: fmt.Sprintf("rows %d and %d share variables (%s)", j, i, key),
			}
		}
		seen[key] = i
		copied[i] = Point{X: append([]float64(nil), row.X...), Density: row.Density}
	}

	return &DataTable{name: name, arity: arity, rows: copied}, nil
}

func (t *DataTable) Name() string { return t.name }

func (t *DataTable) Len() int { return len(t.rows) }

func (t *DataTable) Arity() int { return t.arity }

// Row returns a copy of row i.
func (t *DataTable) Row(i int) Point {
	r := t.rows[i]
	return Point{X: append([]float64(nil), r.X...), Density: r.Density}
}

// Rows returns a copy of all rows.
func (t *DataTable) Rows() []Point {
	out := make([]Point, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Ranges returns the [min, max] of each independent variable.
func (t *DataTable) Ranges() [][2]float64 {
	out := make([][2]float64, t.arity)
	for j := range out {
		out[j] = [2]float64{math.Inf(1), math.Inf(-1)}
	}
	for _, row := range t.rows {
		for j, v := range row.X {
			out[j][0] = math.Min(out[j][0], v)
			out[j][1] = math.Max(out[j][1], v)
		}
	}
	return out
}

// MassRatio converts a molality (mol/kg water) into the mass ratio
// (g solute)/(g water) for a solute of the given molar mass in g/mol.
func MassRatio(molality, molarMass float64) float64 {
	return molality * molarMass / 1000.0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if !finite(v) {
			return false
		}
	}
	return true
}

func tupleKey(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
