// Package estimator dispatches reading predictions across the supported
// estimator shapes and composes them into a proportion objective.
package estimator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidKind is returned for any kind outside the recognized set.
	ErrInvalidKind = errors.New("invalid estimator kind")
	// ErrKindMismatch is returned when a handle does not match the requested kind.
	ErrKindMismatch = errors.New("estimator kind mismatch")
	// ErrNilEstimator is returned when no estimator handle was supplied.
	ErrNilEstimator = errors.New("nil estimator")
	// ErrLengthMismatch is returned when a collaborator returns a number of
	// values different from the number of allocation rows.
	ErrLengthMismatch = errors.New("prediction length does not match batch rows")
)

// Regressor is a generic pre-fit model returning one prediction per row
// of an N x 2 allocation batch.
type Regressor interface {
	Predict(batch mat.Matrix) ([]float64, error)
}

// Surrogate is a Kriging-style model exposing a batch value prediction.
type Surrogate interface {
	PredictValues(batch mat.Matrix) ([]float64, error)
}

// VarianceModel is a Kriging-style model exposing a batch variance prediction.
type VarianceModel interface {
	PredictVariances(batch mat.Matrix) ([]float64, error)
}

// Estimator is the handle passed to the dispatcher.
type Estimator interface {
	// Kind reports which variant this handle is.
	Kind() Kind

	// PredictBatch returns the raw (not uncertainty-adjusted) reading per row.
	PredictBatch(batch mat.Matrix) ([]float64, error)
}

// Generic wraps a single regressor.
type Generic struct {
	Model Regressor
}

// Kind returns KindGeneric.
func (g Generic) Kind() Kind { return KindGeneric }

// PredictBatch delegates to the regressor.
func (g Generic) PredictBatch(batch mat.Matrix) ([]float64, error) {
	if g.Model == nil {
		return nil, fmt.Errorf("generic: %w", ErrNilEstimator)
	}
	return g.Model.Predict(batch)
}

// KrigingPair holds one surrogate per category. Their predictions are summed;
// the covariance between the two is ignored.
type KrigingPair struct {
	Fiction Surrogate
	Help    Surrogate
}

// Kind returns KindKrigingPair.
func (k KrigingPair) Kind() Kind { return KindKrigingPair }

// PredictBatch returns fiction + help element-wise.
func (k KrigingPair) PredictBatch(batch mat.Matrix) ([]float64, error) {
	if k.Fiction == nil || k.Help == nil {
		return nil, fmt.Errorf("kriging pair: %w", ErrNilEstimator)
	}

	fiction, err := k.Fiction.PredictValues(batch)
	if err != nil {
		return nil, fmt.Errorf("fiction model: %w", err)
	}
	help, err := k.Help.PredictValues(batch)
	if err != nil {
		return nil, fmt.Errorf("help model: %w", err)
	}
	if len(fiction) != len(help) {
		return nil, fmt.Errorf("fiction returned %d values, help %d: %w", len(fiction), len(help), ErrLengthMismatch)
	}

	out := make([]float64, len(fiction))
	for i := range fiction {
		out[i] = fiction[i] + help[i]
	}
	return out, nil
}

// KrigingReading wraps a surrogate trained on the combined reading.
type KrigingReading struct {
	Model Surrogate
}

// Kind returns KindKrigingReading.
func (k KrigingReading) Kind() Kind { return KindKrigingReading }

// PredictBatch delegates to the surrogate.
func (k KrigingReading) PredictBatch(batch mat.Matrix) ([]float64, error) {
	if k.Model == nil {
		return nil, fmt.Errorf("kriging reading: %w", ErrNilEstimator)
	}
	return k.Model.PredictValues(batch)
}

// RegressorFunc adapts a plain function to the Regressor interface.
type RegressorFunc func(batch mat.Matrix) ([]float64, error)

// Predict calls f.
func (f RegressorFunc) Predict(batch mat.Matrix) ([]float64, error) {
	return f(batch)
}

// SurrogateFunc adapts a plain function to the Surrogate interface.
type SurrogateFunc func(batch mat.Matrix) ([]float64, error)

// PredictValues calls f.
func (f SurrogateFunc) PredictValues(batch mat.Matrix) ([]float64, error) {
	return f(batch)
}

// VarianceFunc adapts a plain function to the VarianceModel interface.
type VarianceFunc func(batch mat.Matrix) ([]float64, error)

// PredictVariances calls f.
func (f VarianceFunc) PredictVariances(batch mat.Matrix) ([]float64, error) {
	return f(batch)
}
