package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/haskel/readalloc/internal/allocation"
)

// Predict computes the estimated reading for every allocation row.
//
// kind must match the handle's own Kind. When unc is non-nil the raw reading
// is divided element-wise by the predicted standard deviation, giving a
// Sharpe-ratio-like score; a zero standard deviation follows IEEE-754
// division (±Inf or NaN) rather than failing. When negate is set the result
// is multiplied by -1 so that minimizers can maximize the reading.
//
// The batch shape is not validated here: a malformed batch fails inside the
// estimator and that error is returned unchanged.
func Predict(batch mat.Matrix, est Estimator, kind Kind, unc Uncertainty, negate bool) (Reading, error) {
	if !kind.IsValid() {
		return Reading{}, fmt.Errorf("%w: %q", ErrInvalidKind, string(kind))
	}
	if est == nil {
		return Reading{}, ErrNilEstimator
	}
	if est.Kind() != kind {
		return Reading{}, fmt.Errorf("%w: handle is %s, requested %s", ErrKindMismatch, est.Kind(), kind)
	}

	raw, err := est.PredictBatch(batch)
	if err != nil {
		return Reading{}, err
	}

	rows := allocation.Rows(batch)
	if len(raw) != rows {
		return Reading{}, fmt.Errorf("%s estimator returned %d values for %d rows: %w", kind, len(raw), rows, ErrLengthMismatch)
	}

	values := make([]float64, rows)
	copy(values, raw)

	if unc != nil {
		sd, err := unc.StdDev(batch)
		if err != nil {
			return Reading{}, fmt.Errorf("uncertainty: %w", err)
		}
		if len(sd) != rows {
			return Reading{}, fmt.Errorf("uncertainty returned %d values for %d rows: %w", len(sd), rows, ErrLengthMismatch)
		}
		for i := range values {
			values[i] /= sd[i]
		}
	}

	reading := NewReading(values)
	if negate {
		reading = reading.Negate()
	}
	return reading, nil
}
