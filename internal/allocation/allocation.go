// Package allocation turns a fiction proportion and a total free-time budget
// into allocation batches understood by the estimators.
package allocation

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Column order of an allocation batch. Fiction always comes first.
const (
	ColFiction = 0
	ColHelp    = 1
	Columns    = 2
)

// ErrEmptyProportion is returned when an optimizer hands over an empty container.
var ErrEmptyProportion = errors.New("empty proportion container")

// Allocate splits total between fiction and self-help.
// The result is a single row: [p*total, (1-p)*total].
// p is expected in [0, 1] but is not validated; values outside that range
// produce negative allocations.
func Allocate(p, total float64) *mat.Dense {
	return mat.NewDense(1, Columns, []float64{p * total, (1 - p) * total})
}

// AllocateVec is Allocate for optimizers that pass the proportion as a
// length-1 vector. Only the first element is used.
func AllocateVec(p []float64, total float64) (*mat.Dense, error) {
	if len(p) == 0 {
		return nil, ErrEmptyProportion
	}
	return Allocate(p[0], total), nil
}

// NewBatch builds an N x 2 batch from (fiction, help) pairs.
func NewBatch(rows [][2]float64) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, 0, len(rows)*Columns)
	for _, r := range rows {
		data = append(data, r[ColFiction], r[ColHelp])
	}
	return mat.NewDense(len(rows), Columns, data)
}

// Rows returns the number of allocation rows in a batch.
func Rows(batch mat.Matrix) int {
	if batch == nil {
		return 0
	}
	if d, ok := batch.(*mat.Dense); ok && d.IsEmpty() {
		return 0
	}
	r, _ := batch.Dims()
	return r
}

// Fiction returns the fiction allocation of row i.
func Fiction(batch mat.Matrix, i int) float64 {
	return batch.At(i, ColFiction)
}

// Help returns the self-help allocation of row i.
func Help(batch mat.Matrix, i int) float64 {
	return batch.At(i, ColHelp)
}
