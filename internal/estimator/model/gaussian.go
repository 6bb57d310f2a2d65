package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/haskel/readalloc/internal/synth"
)

// GaussianProcessModel exposes a synthetic process as a pre-fit model: its
// expected sum is the prediction and the variance of the sum is its variance.
type GaussianProcessModel struct {
	process *synth.GaussianProcess2D
}

// NewGaussianProcessModel wraps a process.
func NewGaussianProcessModel(process *synth.GaussianProcess2D) *GaussianProcessModel {
	return &GaussianProcessModel{process: process}
}

func newGaussianFromSpec(s Spec) (*GaussianProcessModel, error) {
	params := synth.DefaultSaturating()
	if s.Process != nil {
		params = *s.Process
	}
	process, err := params.Process()
	if err != nil {
		return nil, err
	}
	return NewGaussianProcessModel(process), nil
}

// Name returns the model name.
func (m *GaussianProcessModel) Name() string {
	return string(ModelTypeGaussianProcess)
}

// Process returns the underlying process.
func (m *GaussianProcessModel) Process() *synth.GaussianProcess2D {
	return m.process
}

// Predict returns the expected total reading per row.
func (m *GaussianProcessModel) Predict(batch mat.Matrix) ([]float64, error) {
	if _, err := checkBatch(batch); err != nil {
		return nil, err
	}
	return m.process.Predict(batch)
}

// PredictValues makes the process usable as a surrogate.
func (m *GaussianProcessModel) PredictValues(batch mat.Matrix) ([]float64, error) {
	return m.Predict(batch)
}

// PredictVariances returns the variance of the total reading per row.
func (m *GaussianProcessModel) PredictVariances(batch mat.Matrix) ([]float64, error) {
	n, err := checkBatch(batch)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sd := m.process.SumStdDev(batch.At(i, 0), batch.At(i, 1))
		out[i] = sd * sd
	}
	return out, nil
}
