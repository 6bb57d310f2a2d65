package model

import (
	"fmt"

	"github.com/haskel/readalloc/internal/estimator"
)

// Model is a pre-fit model usable both as a regressor and as a surrogate.
type Model interface {
	Name() string
	estimator.Regressor
	estimator.Surrogate
}

// Create builds the model described by spec.
func Create(spec Spec) (Model, error) {
	var (
		m   Model
		err error
	)
	switch spec.Type {
	case ModelTypeLinear:
		m, err = newLinearFromSpec(spec)

	case ModelTypePolynomial:
		m, err = NewPolynomialModel(spec.Degree, spec.Coefficients)

	case ModelTypeKriging:
		m, err = newKrigingFromSpec(spec)

	case ModelTypeGaussianProcess:
		m, err = newGaussianFromSpec(spec)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownModelType, spec.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", spec.Type, err)
	}
	return m, nil
}

// Build assembles the estimator handle and optional uncertainty handle
// described by def.
func Build(def *Definition) (estimator.Estimator, estimator.Uncertainty, error) {
	if err := def.Validate(); err != nil {
		return nil, nil, err
	}
	kind, err := estimator.ParseKind(def.Kind)
	if err != nil {
		return nil, nil, err
	}

	var (
		est        estimator.Estimator
		components []Model
	)
	switch kind {
	case estimator.KindGeneric:
		m, err := Create(*def.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("model: %w", err)
		}
		est = estimator.Generic{Model: m}
		components = []Model{m}

	case estimator.KindKrigingPair:
		f, err := Create(*def.Fiction)
		if err != nil {
			return nil, nil, fmt.Errorf("fiction: %w", err)
		}
		h, err := Create(*def.Help)
		if err != nil {
			return nil, nil, fmt.Errorf("help: %w", err)
		}
		est = estimator.KrigingPair{Fiction: f, Help: h}
		components = []Model{f, h}

	case estimator.KindKrigingReading:
		m, err := Create(*def.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("model: %w", err)
		}
		est = estimator.KrigingReading{Model: m}
		components = []Model{m}
	}

	unc, err := buildUncertainty(kind, def.Uncertainty, components)
	if err != nil {
		return nil, nil, fmt.Errorf("uncertainty: %w", err)
	}
	return est, unc, nil
}

func buildUncertainty(kind estimator.Kind, spec *UncertaintySpec, components []Model) (estimator.Uncertainty, error) {
	if spec == nil {
		return nil, nil
	}

	switch spec.Type {
	case "", UncertaintyNone:
		return nil, nil

	case UncertaintyConstant:
		return rowwise(kind, func(float64, float64) float64 { return spec.Value }), nil

	case UncertaintyModel:
		sdModel, err := Create(*spec.Model)
		if err != nil {
			return nil, err
		}
		return estimator.Predicted{Model: sdModel}, nil

	case UncertaintyVariance:
		variances := make([]estimator.VarianceModel, len(components))
		for i, c := range components {
			v, ok := c.(estimator.VarianceModel)
			if !ok {
				return nil, fmt.Errorf("%s model does not provide variances", c.Name())
			}
			variances[i] = v
		}

		switch kind {
		case estimator.KindKrigingPair:
			return estimator.VariancePair{Fiction: variances[0], Help: variances[1]}, nil
		case estimator.KindKrigingReading:
			return estimator.VarianceOf{Model: variances[0]}, nil
		default:
			if gp, ok := components[0].(*GaussianProcessModel); ok {
				return estimator.IntervalFunc(gp.Process().Spread), nil
			}
			return estimator.VarianceOf{Model: variances[0]}, nil
		}

	default:
		return nil, fmt.Errorf("unknown uncertainty type: %s", spec.Type)
	}
}

// rowwise adapts a per-row standard deviation to the callable shape each kind
// expects: generic estimators report an interval whose first element is the
// standard deviation, the others report it directly.
func rowwise(kind estimator.Kind, sd func(f, h float64) float64) estimator.Uncertainty {
	if kind == estimator.KindGeneric {
		return estimator.IntervalFunc(func(f, h float64) []float64 {
			return []float64{sd(f, h)}
		})
	}
	return estimator.SDFunc(sd)
}
