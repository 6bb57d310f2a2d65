package synth

import (
	"errors"
	"fmt"
	"math"
)

// Saturating parametrizes a process with diminishing returns: each category's
// expected reading approaches its amplitude as more free time is spent on it,
// and its variance grows linearly with the time spent.
//
//	mean_i = amplitude_i * (1 - exp(-x_i / scale_i))
//	var_i  = noise_i * x_i + floor
//	cov    = correlation * sqrt(var_1 * var_2)
type Saturating struct {
	FictionAmplitude float64 `yaml:"fiction_amplitude" json:"fiction_amplitude"`
	FictionScale     float64 `yaml:"fiction_scale" json:"fiction_scale"`
	HelpAmplitude    float64 `yaml:"help_amplitude" json:"help_amplitude"`
	HelpScale        float64 `yaml:"help_scale" json:"help_scale"`
	FictionNoise     float64 `yaml:"fiction_noise" json:"fiction_noise"`
	HelpNoise        float64 `yaml:"help_noise" json:"help_noise"`
	Correlation      float64 `yaml:"correlation" json:"correlation"`
	Floor            float64 `yaml:"floor,omitempty" json:"floor,omitempty"`
}

// DefaultSaturating returns the parameters used by the built-in demo estimator.
func DefaultSaturating() Saturating {
	return Saturating{
		FictionAmplitude: 90,
		FictionScale:     60,
		HelpAmplitude:    60,
		HelpScale:        25,
		FictionNoise:     4,
		HelpNoise:        1.5,
		Correlation:      -0.3,
		Floor:            1,
	}
}

// Validate checks parameter ranges.
func (s Saturating) Validate() error {
	var errs []error
	if s.FictionScale <= 0 {
		errs = append(errs, fmt.Errorf("fiction_scale must be positive, got %g", s.FictionScale))
	}
	if s.HelpScale <= 0 {
		errs = append(errs, fmt.Errorf("help_scale must be positive, got %g", s.HelpScale))
	}
	if s.FictionNoise < 0 || s.HelpNoise < 0 {
		errs = append(errs, fmt.Errorf("noise must be non-negative"))
	}
	if s.Correlation < -1 || s.Correlation > 1 {
		errs = append(errs, fmt.Errorf("correlation must be within [-1, 1], got %g", s.Correlation))
	}
	if s.Floor < 0 {
		errs = append(errs, fmt.Errorf("floor must be non-negative, got %g", s.Floor))
	}
	return errors.Join(errs...)
}

// Process builds the Gaussian process described by s.
func (s Saturating) Process() (*GaussianProcess2D, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	floor := s.Floor
	if floor == 0 {
		floor = 1e-6
	}

	mean := func(x1, x2 float64) [2]float64 {
		return [2]float64{
			s.FictionAmplitude * (1 - math.Exp(-x1/s.FictionScale)),
			s.HelpAmplitude * (1 - math.Exp(-x2/s.HelpScale)),
		}
	}
	cov := func(x1, x2 float64) [2][2]float64 {
		v1 := math.Max(s.FictionNoise*x1, 0) + floor
		v2 := math.Max(s.HelpNoise*x2, 0) + floor
		c := s.Correlation * math.Sqrt(v1*v2)
		return [2][2]float64{{v1, c}, {c, v2}}
	}
	return NewGaussianProcess2D(mean, cov), nil
}
