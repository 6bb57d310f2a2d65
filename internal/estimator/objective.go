package estimator

import (
	"github.com/haskel/readalloc/internal/allocation"
)

// Objective returns the reading for spending proportion p of total on fiction.
// It is Allocate followed by Predict on the resulting single row, so the
// result is always a scalar.
func Objective(p, total float64, est Estimator, kind Kind, unc Uncertainty, negate bool) (float64, error) {
	reading, err := Predict(allocation.Allocate(p, total), est, kind, unc, negate)
	if err != nil {
		return 0, err
	}
	v, _ := reading.Scalar()
	return v, nil
}

// NewObjective binds everything but the proportion, producing the
// single-argument function handed to a bounded scalar minimizer.
func NewObjective(total float64, est Estimator, kind Kind, unc Uncertainty, negate bool) func(p float64) (float64, error) {
	return func(p float64) (float64, error) {
		return Objective(p, total, est, kind, unc, negate)
	}
}
