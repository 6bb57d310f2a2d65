package optimize

import (
	"fmt"
	"math"
)

// DefaultTrackIterations is the number of iteration caps tried by TrackImprovement.
const DefaultTrackIterations = 30

// TrackImprovement reruns Minimize on [lo, hi] with iteration caps
// 0, 1, ..., maxIterations-1 and stops at the first run that converges.
// For every run that did not converge it records f at the returned point,
// and returns the absolute distance of each recorded value from the last
// one. A minimizer that converges immediately yields an empty slice.
func TrackImprovement(f Func, lo, hi float64, maxIterations int, xatol float64) ([]float64, error) {
	if maxIterations <= 0 {
		maxIterations = DefaultTrackIterations
	}

	values := make([]float64, 0, maxIterations)
	for iter := 0; iter < maxIterations; iter++ {
		res, err := Minimize(f, lo, hi, Options{MaxIter: MaxIter(iter), XAtol: xatol})
		if err != nil {
			return nil, fmt.Errorf("iteration cap %d: %w", iter, err)
		}
		if res.Success {
			break
		}

		y, err := f(res.X)
		if err != nil {
			return nil, fmt.Errorf("iteration cap %d: %w", iter, err)
		}
		values = append(values, y)
	}

	errs := make([]float64, len(values))
	if len(values) == 0 {
		return errs, nil
	}
	last := values[len(values)-1]
	for i, y := range values {
		errs[i] = math.Abs(y - last)
	}
	return errs, nil
}
