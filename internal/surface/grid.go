// Package surface evaluates the reading response over a square of
// (fiction, help) allocations and renders it for the terminal.
package surface

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/haskel/readalloc/internal/estimator"
)

const (
	TitleReading = "Expected reading time"
	TitleSharpe  = "Sharpe ratio of reading time"
)

// Grid is the response surface. Values[j][i] is the reading at
// (Fiction[i], Help[j]).
type Grid struct {
	Fiction []float64   `json:"fiction"`
	Help    []float64   `json:"help"`
	Values  [][]float64 `json:"values"`
	MaxTime float64     `json:"max_time"`
	Sharpe  bool        `json:"sharpe"`
}

// MaxAxisLen bounds the points on one side of the square.
const MaxAxisLen = 1 << 15

// AxisLen returns the number of points Axis produces for maxTime and step.
func AxisLen(maxTime, step float64) (int, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return 0, fmt.Errorf("step must be positive and finite, got %g", step)
	}
	if !(maxTime >= 0) || math.IsInf(maxTime, 0) {
		return 0, fmt.Errorf("max time must be non-negative and finite, got %g", maxTime)
	}

	n := math.Ceil((maxTime + step) / step)
	if !(n <= MaxAxisLen) {
		return 0, fmt.Errorf("axis of %g points exceeds %d", n, MaxAxisLen)
	}
	return int(n), nil
}

// Axis returns 0, step, 2*step, ... covering [0, maxTime]. The last value
// may exceed maxTime when step does not divide it.
func Axis(maxTime, step float64) ([]float64, error) {
	n, err := AxisLen(maxTime, step)
	if err != nil {
		return nil, err
	}

	axis := make([]float64, n)
	for i := range axis {
		axis[i] = float64(i) * step
	}
	return axis, nil
}

// Batch lays out every (fiction, help) pair of the square with fiction
// varying fastest.
func Batch(axis []float64) *mat.Dense {
	n := len(axis)
	if n == 0 {
		return &mat.Dense{}
	}
	batch := mat.NewDense(n*n, 2, nil)
	for j, h := range axis {
		for i, f := range axis {
			batch.Set(j*n+i, 0, f)
			batch.Set(j*n+i, 1, h)
		}
	}
	return batch
}

// Sweep evaluates the estimator over the square [0, maxTime]² sampled every
// step minutes. kind and unc are forwarded to the dispatcher unchanged.
func Sweep(maxTime, step float64, est estimator.Estimator, kind estimator.Kind, unc estimator.Uncertainty) (*Grid, error) {
	axis, err := Axis(maxTime, step)
	if err != nil {
		return nil, err
	}

	reading, err := estimator.Predict(Batch(axis), est, kind, unc, false)
	if err != nil {
		return nil, err
	}

	n := len(axis)
	flat := reading.Values()
	values := make([][]float64, n)
	for j := range values {
		values[j] = flat[j*n : (j+1)*n : (j+1)*n]
	}

	return &Grid{
		Fiction: axis,
		Help:    append([]float64(nil), axis...),
		Values:  values,
		MaxTime: maxTime,
		Sharpe:  unc != nil,
	}, nil
}

// OutOfBudget reports whether the cell at column i and row j spends more
// than the maximal time in total.
func (g *Grid) OutOfBudget(i, j int) bool {
	return g.Fiction[i]+g.Help[j] > g.MaxTime
}

// Title describes what the surface shows.
func (g *Grid) Title() string {
	if g.Sharpe {
		return TitleSharpe
	}
	return TitleReading
}

// Range returns the smallest and largest finite in-budget values. ok is
// false when there are none.
func (g *Grid) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for j, row := range g.Values {
		for i, v := range row {
			if g.OutOfBudget(i, j) || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			ok = true
		}
	}
	return lo, hi, ok
}

// Best returns the in-budget cell with the largest finite value.
func (g *Grid) Best() (fiction, help, value float64, ok bool) {
	value = math.Inf(-1)
	for j, row := range g.Values {
		for i, v := range row {
			if g.OutOfBudget(i, j) || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v > value {
				fiction, help, value, ok = g.Fiction[i], g.Help[j], v, true
			}
		}
	}
	return fiction, help, value, ok
}

// MarshalJSON encodes non-finite values as null.
func (g *Grid) MarshalJSON() ([]byte, error) {
	type alias Grid
	values := make([][]*float64, len(g.Values))
	for j, row := range g.Values {
		values[j] = make([]*float64, len(row))
		for i := range row {
			if v := row[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				values[j][i] = &v
			}
		}
	}
	return json.Marshal(struct {
		*alias
		Values [][]*float64 `json:"values"`
	}{alias: (*alias)(g), Values: values})
}

// UnmarshalJSON decodes null values as NaN.
func (g *Grid) UnmarshalJSON(data []byte) error {
	type alias Grid
	aux := struct {
		*alias
		Values [][]*float64 `json:"values"`
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.Values = make([][]float64, len(aux.Values))
	for j, row := range aux.Values {
		g.Values[j] = make([]float64, len(row))
		for i, v := range row {
			if v == nil {
				g.Values[j][i] = math.NaN()
			} else {
				g.Values[j][i] = *v
			}
		}
	}
	return nil
}
