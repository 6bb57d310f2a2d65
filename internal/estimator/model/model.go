// Package model holds the pre-fit estimators that can be described in an
// estimator definition file, and the factory that assembles them into
// dispatcher handles.
package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/haskel/readalloc/internal/synth"
)

var (
	// ErrUnknownModelType is returned by the factory for unrecognized model types.
	ErrUnknownModelType = errors.New("unknown model type")
	// ErrBatchShape is returned when a batch does not have two columns.
	ErrBatchShape = errors.New("allocation batch must have 2 columns")
)

// ModelType represents the type of pre-fit model.
type ModelType string

const (
	ModelTypeLinear          ModelType = "linear"
	ModelTypePolynomial      ModelType = "polynomial"
	ModelTypeKriging         ModelType = "kriging"
	ModelTypeGaussianProcess ModelType = "gaussian_process"
)

// IsValid checks if the model type is valid.
func (m ModelType) IsValid() bool {
	switch m {
	case ModelTypeLinear, ModelTypePolynomial, ModelTypeKriging, ModelTypeGaussianProcess:
		return true
	}
	return false
}

// String returns string representation.
func (m ModelType) String() string {
	return string(m)
}

// Spec describes one pre-fit model. Only the fields relevant to Type are read.
type Spec struct {
	Type ModelType `yaml:"type" json:"type"`

	// Linear: y = intercept + coefficients[0]*fiction + coefficients[1]*help
	// Polynomial: coefficients ordered by total degree, then by fiction power
	// descending: 1, f, h, f², fh, h², ...
	Intercept    float64   `yaml:"intercept,omitempty" json:"intercept,omitempty"`
	Coefficients []float64 `yaml:"coefficients,omitempty" json:"coefficients,omitempty"`
	Degree       int       `yaml:"degree,omitempty" json:"degree,omitempty"`

	// Kriging
	Theta  []float64   `yaml:"theta,omitempty" json:"theta,omitempty"`
	Nugget float64     `yaml:"nugget,omitempty" json:"nugget,omitempty"`
	Mean   *float64    `yaml:"mean,omitempty" json:"mean,omitempty"`
	Sigma2 *float64    `yaml:"sigma2,omitempty" json:"sigma2,omitempty"`
	Points [][]float64 `yaml:"points,omitempty" json:"points,omitempty"`
	Values []float64   `yaml:"values,omitempty" json:"values,omitempty"`

	// Gaussian process
	Process *synth.Saturating `yaml:"process,omitempty" json:"process,omitempty"`
}

func checkBatch(batch mat.Matrix) (int, error) {
	r, c := batch.Dims()
	if c != 2 {
		return 0, fmt.Errorf("%w, got %d", ErrBatchShape, c)
	}
	return r, nil
}
