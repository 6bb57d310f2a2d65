package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearModel predicts reading = intercept + a*fiction + b*help.
type LinearModel struct {
	intercept float64
	fiction   float64
	help      float64
}

// NewLinearModel creates a linear model from its coefficients.
func NewLinearModel(intercept, fiction, help float64) *LinearModel {
	return &LinearModel{
		intercept: intercept,
		fiction:   fiction,
		help:      help,
	}
}

func newLinearFromSpec(s Spec) (*LinearModel, error) {
	if len(s.Coefficients) != 2 {
		return nil, fmt.Errorf("linear model needs 2 coefficients, got %d", len(s.Coefficients))
	}
	return NewLinearModel(s.Intercept, s.Coefficients[0], s.Coefficients[1]), nil
}

// Name returns the model name.
func (m *LinearModel) Name() string {
	return string(ModelTypeLinear)
}

// Predict returns one prediction per batch row.
func (m *LinearModel) Predict(batch mat.Matrix) ([]float64, error) {
	n, err := checkBatch(batch)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = m.intercept + m.fiction*batch.At(i, 0) + m.help*batch.At(i, 1)
	}
	return out, nil
}

// PredictValues makes the linear model usable as a surrogate.
func (m *LinearModel) PredictValues(batch mat.Matrix) ([]float64, error) {
	return m.Predict(batch)
}
