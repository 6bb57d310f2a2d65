package optimize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/haskel/readalloc/internal/estimator"
)

func quadratic(center float64) Func {
	return func(x float64) (float64, error) {
		return (x - center) * (x - center), nil
	}
}

func TestMinimize_InteriorMinimum(t *testing.T) {
	res, err := Minimize(quadratic(0.3), 0, 1, Options{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "Solution found.", res.Message)
	assert.InDelta(t, 0.3, res.X, 1e-4)
	assert.InDelta(t, 0, res.Fun, 1e-8)
	assert.Equal(t, res.NIter, res.NFev)
	assert.Less(t, res.NFev, DefaultMaxIter)
}

func TestMinimize_BoundaryMinimum(t *testing.T) {
	res, err := Minimize(func(x float64) (float64, error) { return x, nil }, 0, 1, Options{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Less(t, res.X, 1e-3)
}

func TestMinimize_LinearReadingObjective(t *testing.T) {
	// reading = 2*fiction + 3*help is maximized by spending everything on help.
	est := estimator.Generic{Model: estimator.RegressorFunc(func(b mat.Matrix) ([]float64, error) {
		r, _ := b.Dims()
		out := make([]float64, r)
		for i := 0; i < r; i++ {
			out[i] = 2*b.At(i, 0) + 3*b.At(i, 1)
		}
		return out, nil
	})}
	obj := estimator.NewObjective(100, est, estimator.KindGeneric, nil, true)

	res, err := Minimize(obj, 0, 1, Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Less(t, res.X, 1e-3)
	assert.InDelta(t, -300, res.Fun, 0.1)

	// Maximizing fiction instead flips the boundary.
	flipped := estimator.NewObjective(100, est, estimator.KindGeneric, nil, false)
	res, err = Minimize(flipped, 0, 1, Options{})
	require.NoError(t, err)
	assert.Greater(t, res.X, 1-1e-3)
}

func TestMinimize_MaxIter(t *testing.T) {
	res, err := Minimize(quadratic(0.3), 0, 1, Options{MaxIter: MaxIter(2)})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, StatusMaxIter, res.Status)
	assert.Equal(t, "Maximum number of function calls reached.", res.Message)
	assert.Equal(t, 2, res.NFev)

	res, err = Minimize(quadratic(0.3), 0, 1, Options{MaxIter: MaxIter(0)})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.NFev)
}

func TestMinimize_NaN(t *testing.T) {
	res, err := Minimize(func(float64) (float64, error) { return math.NaN(), nil }, 0, 1, Options{})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, StatusNaN, res.Status)
	assert.Equal(t, "NaN result encountered.", res.Message)
}

func TestMinimize_InvalidBounds(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
	}{
		{"inverted", 1, 0},
		{"infinite", 0, math.Inf(1)},
		{"nan", math.NaN(), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Minimize(quadratic(0), tt.lo, tt.hi, Options{})
			assert.ErrorIs(t, err, ErrInvalidBounds)
		})
	}
}

func TestMinimize_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Minimize(func(float64) (float64, error) { return 0, boom }, 0, 1, Options{})
	assert.ErrorIs(t, err, boom)
}

func TestTrackImprovement(t *testing.T) {
	errs, err := TrackImprovement(quadratic(0.3), 0, 1, 0, 0)
	require.NoError(t, err)

	require.NotEmpty(t, errs)
	assert.Less(t, len(errs), DefaultTrackIterations+1)
	assert.Equal(t, 0.0, errs[len(errs)-1])
	for _, e := range errs {
		assert.GreaterOrEqual(t, e, 0.0)
	}
	// Early caps stop far from the optimum.
	assert.Greater(t, errs[0], errs[len(errs)-1])
}

func TestTrackImprovement_CapsIterations(t *testing.T) {
	calls := 0
	f := func(x float64) (float64, error) {
		calls++
		return math.NaN(), nil
	}

	errs, err := TrackImprovement(f, 0, 1, 5, 0)
	require.NoError(t, err)
	assert.Len(t, errs, 5)
	assert.Greater(t, calls, 5)
}
