// Package synth provides a synthetic ground truth for the reading response:
// a bivariate Gaussian process over (fiction, help) allocations.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotPositiveDefinite is returned when a query's covariance cannot be factorized.
var ErrNotPositiveDefinite = errors.New("covariance is not positive definite")

// MeanFunc returns the expected (fiction, help) readings for an allocation.
type MeanFunc func(x1, x2 float64) [2]float64

// CovFunc returns the 2x2 covariance of the (fiction, help) readings.
type CovFunc func(x1, x2 float64) [2][2]float64

// GaussianProcess2D draws (fiction, help) readings for a given allocation.
type GaussianProcess2D struct {
	mean MeanFunc
	cov  CovFunc
}

// NewGaussianProcess2D creates a process from its mean and covariance functions.
func NewGaussianProcess2D(mean MeanFunc, cov CovFunc) *GaussianProcess2D {
	return &GaussianProcess2D{mean: mean, cov: cov}
}

// ParametrizeForQuery returns the mean vector and covariance matrix at (x1, x2).
func (g *GaussianProcess2D) ParametrizeForQuery(x1, x2 float64) ([2]float64, [2][2]float64) {
	return g.mean(x1, x2), g.cov(x1, x2)
}

// GenerateSample draws n (fiction, help) pairs at (x1, x2). The same seed
// always yields the same sample.
func (g *GaussianProcess2D) GenerateSample(x1, x2 float64, n int, seed uint64) ([]float64, []float64, error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("negative sample size %d", n)
	}

	mean, cov := g.ParametrizeForQuery(x1, x2)
	sigma := mat.NewSymDense(2, []float64{
		cov[0][0], cov[0][1],
		cov[0][1], cov[1][1],
	})

	var chol mat.Cholesky
	if ok := chol.Factorize(sigma); !ok {
		return nil, nil, fmt.Errorf("at (%g, %g): %w", x1, x2, ErrNotPositiveDefinite)
	}
	var l mat.TriDense
	chol.LTo(&l)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	y1 := make([]float64, n)
	y2 := make([]float64, n)
	for i := 0; i < n; i++ {
		z1, z2 := rng.NormFloat64(), rng.NormFloat64()
		y1[i] = mean[0] + l.At(0, 0)*z1
		y2[i] = mean[1] + l.At(1, 0)*z1 + l.At(1, 1)*z2
	}
	return y1, y2, nil
}

// ExpectedSum returns the expected total reading at (x1, x2).
func (g *GaussianProcess2D) ExpectedSum(x1, x2 float64) float64 {
	mean := g.mean(x1, x2)
	return mean[0] + mean[1]
}

// SumStdDev returns the standard deviation of the total reading, including
// the covariance term.
func (g *GaussianProcess2D) SumStdDev(x1, x2 float64) float64 {
	cov := g.cov(x1, x2)
	return math.Sqrt(cov[0][0] + cov[1][1] + 2*cov[0][1])
}

// SharpeRatio returns ExpectedSum / SumStdDev.
func (g *GaussianProcess2D) SharpeRatio(x1, x2 float64) float64 {
	return g.ExpectedSum(x1, x2) / g.SumStdDev(x1, x2)
}

// Spread returns [sd, variance] of the total reading. It has the shape of a
// generic estimator's row-wise uncertainty callable, whose first element is
// taken as the standard deviation.
func (g *GaussianProcess2D) Spread(x1, x2 float64) []float64 {
	sd := g.SumStdDev(x1, x2)
	return []float64{sd, sd * sd}
}

// Predict returns the expected total reading for every row of an N x 2 batch.
func (g *GaussianProcess2D) Predict(batch mat.Matrix) ([]float64, error) {
	r, c := batch.Dims()
	if c != 2 {
		return nil, fmt.Errorf("gaussian process expects 2 columns, got %d", c)
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = g.ExpectedSum(batch.At(i, 0), batch.At(i, 1))
	}
	return out, nil
}

// Summary describes a drawn sample.
type Summary struct {
	N           int     `json:"n"`
	MeanFiction float64 `json:"mean_fiction"`
	MeanHelp    float64 `json:"mean_help"`
	SDFiction   float64 `json:"sd_fiction"`
	SDHelp      float64 `json:"sd_help"`
	Correlation float64 `json:"correlation"`
	MeanTotal   float64 `json:"mean_total"`
	SDTotal     float64 `json:"sd_total"`
}

// Summarize computes sample moments of a (fiction, help) sample.
func Summarize(y1, y2 []float64) Summary {
	total := make([]float64, len(y1))
	for i := range y1 {
		total[i] = y1[i] + y2[i]
	}
	s := Summary{N: len(y1)}
	if len(y1) == 0 {
		return s
	}
	s.MeanFiction = stat.Mean(y1, nil)
	s.MeanHelp = stat.Mean(y2, nil)
	s.MeanTotal = stat.Mean(total, nil)
	if len(y1) > 1 {
		s.SDFiction = stat.StdDev(y1, nil)
		s.SDHelp = stat.StdDev(y2, nil)
		s.SDTotal = stat.StdDev(total, nil)
		s.Correlation = stat.Correlation(y1, y2, nil)
	}
	return s
}
