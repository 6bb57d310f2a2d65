package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/haskel/readalloc/internal/allocation"
)

// Uncertainty supplies a per-row standard deviation of the reading.
// When passed to Predict the raw reading is divided by it (Sharpe ratio).
type Uncertainty interface {
	StdDev(batch mat.Matrix) ([]float64, error)
}

// VariancePair sums the predicted variances of the fiction and help surrogates
// and takes the square root. The covariance between the two is ignored.
type VariancePair struct {
	Fiction VarianceModel
	Help    VarianceModel
}

// StdDev returns sqrt(var_fiction + var_help) per row.
func (v VariancePair) StdDev(batch mat.Matrix) ([]float64, error) {
	if v.Fiction == nil || v.Help == nil {
		return nil, fmt.Errorf("variance pair: %w", ErrNilEstimator)
	}

	fiction, err := v.Fiction.PredictVariances(batch)
	if err != nil {
		return nil, fmt.Errorf("fiction variance: %w", err)
	}
	help, err := v.Help.PredictVariances(batch)
	if err != nil {
		return nil, fmt.Errorf("help variance: %w", err)
	}
	if len(fiction) != len(help) {
		return nil, fmt.Errorf("fiction returned %d variances, help %d: %w", len(fiction), len(help), ErrLengthMismatch)
	}

	sd := make([]float64, len(fiction))
	for i := range fiction {
		sd[i] = math.Sqrt(fiction[i] + help[i])
	}
	return sd, nil
}

// VarianceOf turns a single variance model into an uncertainty by taking the
// square root of its prediction.
type VarianceOf struct {
	Model VarianceModel
}

// StdDev returns sqrt(var) per row.
func (v VarianceOf) StdDev(batch mat.Matrix) ([]float64, error) {
	if v.Model == nil {
		return nil, fmt.Errorf("variance: %w", ErrNilEstimator)
	}
	variances, err := v.Model.PredictVariances(batch)
	if err != nil {
		return nil, err
	}
	sd := make([]float64, len(variances))
	for i, s2 := range variances {
		sd[i] = math.Sqrt(s2)
	}
	return sd, nil
}

// Predicted uses a second regressor's batch prediction as the standard
// deviation.
type Predicted struct {
	Model Regressor
}

// StdDev returns the regressor's prediction for the batch.
func (p Predicted) StdDev(batch mat.Matrix) ([]float64, error) {
	if p.Model == nil {
		return nil, fmt.Errorf("uncertainty model: %w", ErrNilEstimator)
	}
	sd, err := p.Model.Predict(batch)
	if err != nil {
		return nil, fmt.Errorf("uncertainty model: %w", err)
	}
	return sd, nil
}

// IntervalFunc is a row-wise callable returning a container per allocation,
// typically an interval. Only its first element is used as the standard
// deviation. This is how generic estimators supply their uncertainty.
type IntervalFunc func(fiction, help float64) []float64

// StdDev applies f to every row and keeps the first element. A row for which
// f returns nothing yields NaN.
func (f IntervalFunc) StdDev(batch mat.Matrix) ([]float64, error) {
	n := allocation.Rows(batch)
	sd := make([]float64, n)
	for i := 0; i < n; i++ {
		v := f(allocation.Fiction(batch, i), allocation.Help(batch, i))
		if len(v) == 0 {
			sd[i] = math.NaN()
			continue
		}
		sd[i] = v[0]
	}
	return sd, nil
}

// SDFunc is a row-wise callable returning the standard deviation directly.
// Kriging-reading and any other non-generic estimators use this shape.
type SDFunc func(fiction, help float64) float64

// StdDev applies f to every row.
func (f SDFunc) StdDev(batch mat.Matrix) ([]float64, error) {
	n := allocation.Rows(batch)
	sd := make([]float64, n)
	for i := 0; i < n; i++ {
		sd[i] = f(allocation.Fiction(batch, i), allocation.Help(batch, i))
	}
	return sd, nil
}
