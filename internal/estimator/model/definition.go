package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haskel/readalloc/internal/estimator"
	"github.com/haskel/readalloc/internal/synth"
)

// UncertaintyType selects how the standard deviation of a reading is obtained.
type UncertaintyType string

const (
	UncertaintyNone     UncertaintyType = "none"
	UncertaintyVariance UncertaintyType = "variance"
	UncertaintyConstant UncertaintyType = "constant"
	UncertaintyModel    UncertaintyType = "model"
)

// IsValid checks if the uncertainty type is valid. The empty type means none.
func (u UncertaintyType) IsValid() bool {
	switch u {
	case "", UncertaintyNone, UncertaintyVariance, UncertaintyConstant, UncertaintyModel:
		return true
	}
	return false
}

// UncertaintySpec describes the optional uncertainty source.
type UncertaintySpec struct {
	Type  UncertaintyType `yaml:"type" json:"type"`
	Value float64         `yaml:"value,omitempty" json:"value,omitempty"`
	Model *Spec           `yaml:"model,omitempty" json:"model,omitempty"`
}

// Definition is the on-disk description of an estimator.
type Definition struct {
	Kind        string           `yaml:"kind" json:"kind"`
	Model       *Spec            `yaml:"model,omitempty" json:"model,omitempty"`
	Fiction     *Spec            `yaml:"fiction,omitempty" json:"fiction,omitempty"`
	Help        *Spec            `yaml:"help,omitempty" json:"help,omitempty"`
	Uncertainty *UncertaintySpec `yaml:"uncertainty,omitempty" json:"uncertainty,omitempty"`
}

// DefaultDefinition returns the built-in demo estimator: a generic estimator
// over the saturating Gaussian process, with its own spread as uncertainty.
func DefaultDefinition() *Definition {
	process := synth.DefaultSaturating()
	return &Definition{
		Kind: string(estimator.KindGeneric),
		Model: &Spec{
			Type:    ModelTypeGaussianProcess,
			Process: &process,
		},
		Uncertainty: &UncertaintySpec{Type: UncertaintyVariance},
	}
}

// ParseDefinition parses a YAML or JSON definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse estimator definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid estimator definition: %w", err)
	}
	return &def, nil
}

// LoadDefinition reads and parses a definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read estimator definition: %w", err)
	}
	return ParseDefinition(data)
}

// Marshal encodes the definition as YAML.
func (d *Definition) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Validate checks that the definition names a valid kind and carries the
// model specs that kind needs.
func (d *Definition) Validate() error {
	var errs []error

	kind, err := estimator.ParseKind(d.Kind)
	if err != nil {
		return err
	}

	switch kind {
	case estimator.KindGeneric, estimator.KindKrigingReading:
		if d.Model == nil {
			errs = append(errs, fmt.Errorf("%s estimator requires model", kind))
		} else if err := d.Model.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("model: %w", err))
		}
	case estimator.KindKrigingPair:
		if d.Fiction == nil || d.Help == nil {
			errs = append(errs, fmt.Errorf("%s estimator requires fiction and help", kind))
		}
		if d.Fiction != nil {
			if err := d.Fiction.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("fiction: %w", err))
			}
		}
		if d.Help != nil {
			if err := d.Help.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("help: %w", err))
			}
		}
	}

	if u := d.Uncertainty; u != nil {
		if !u.Type.IsValid() {
			errs = append(errs, fmt.Errorf("unknown uncertainty type: %s", u.Type))
		}
		switch u.Type {
		case UncertaintyConstant:
			if u.Value <= 0 {
				errs = append(errs, fmt.Errorf("constant uncertainty must be positive, got %g", u.Value))
			}
		case UncertaintyModel:
			if u.Model == nil {
				errs = append(errs, errors.New("model uncertainty requires model"))
			} else if err := u.Model.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("uncertainty model: %w", err))
			}
		}
	}

	return errors.Join(errs...)
}

// Validate checks that s names a known model type.
func (s *Spec) Validate() error {
	if !s.Type.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnknownModelType, s.Type)
	}
	return nil
}
