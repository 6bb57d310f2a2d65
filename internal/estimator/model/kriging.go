package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when the kriging correlation matrix cannot be factorized.
var ErrSingular = errors.New("correlation matrix is not positive definite")

const defaultNugget = 1e-10

// KrigingModel is an ordinary kriging surrogate with a Gaussian correlation
// kernel, conditioned on fixed points with fixed hyperparameters.
type KrigingModel struct {
	points [][2]float64
	theta  [2]float64
	mean   float64
	sigma2 float64

	chol  mat.Cholesky
	alpha *mat.VecDense
}

// KrigingParams are the inputs of NewKrigingModel. Mean and Sigma2 default
// to their generalized least squares estimates when nil.
type KrigingParams struct {
	Points [][2]float64
	Values []float64
	Theta  [2]float64
	Nugget float64
	Mean   *float64
	Sigma2 *float64
}

// NewKrigingModel conditions the model on params.Points and params.Values.
func NewKrigingModel(params KrigingParams) (*KrigingModel, error) {
	n := len(params.Points)
	if n == 0 {
		return nil, errors.New("kriging model needs at least one point")
	}
	if len(params.Values) != n {
		return nil, fmt.Errorf("kriging model has %d points but %d values", n, len(params.Values))
	}
	if params.Theta[0] < 0 || params.Theta[1] < 0 {
		return nil, fmt.Errorf("kriging theta must be non-negative, got %v", params.Theta)
	}
	nugget := params.Nugget
	if nugget == 0 {
		nugget = defaultNugget
	}

	m := &KrigingModel{
		points: make([][2]float64, n),
		theta:  params.Theta,
	}
	copy(m.points, params.Points)

	r := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.correlation(m.points[i], m.points[j])
			if i == j {
				v += nugget
			}
			r.SetSym(i, j, v)
		}
	}
	if ok := m.chol.Factorize(r); !ok {
		return nil, ErrSingular
	}

	y := mat.NewVecDense(n, append([]float64(nil), params.Values...))

	if params.Mean != nil {
		m.mean = *params.Mean
	} else {
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		one := mat.NewVecDense(n, ones)
		var rInvOne, rInvY mat.VecDense
		if err := m.solve(&rInvOne, one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		if err := m.solve(&rInvY, y); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		m.mean = mat.Dot(one, &rInvY) / mat.Dot(one, &rInvOne)
	}

	residual := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		residual.SetVec(i, y.AtVec(i)-m.mean)
	}
	m.alpha = mat.NewVecDense(n, nil)
	if err := m.solve(m.alpha, residual); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	if params.Sigma2 != nil {
		m.sigma2 = *params.Sigma2
	} else {
		m.sigma2 = mat.Dot(residual, m.alpha) / float64(n)
	}

	return m, nil
}

func newKrigingFromSpec(s Spec) (*KrigingModel, error) {
	if len(s.Theta) != 2 {
		return nil, fmt.Errorf("kriging model needs 2 theta values, got %d", len(s.Theta))
	}
	points := make([][2]float64, len(s.Points))
	for i, p := range s.Points {
		if len(p) != 2 {
			return nil, fmt.Errorf("kriging point %d has %d coordinates, expected 2", i, len(p))
		}
		points[i] = [2]float64{p[0], p[1]}
	}
	return NewKrigingModel(KrigingParams{
		Points: points,
		Values: s.Values,
		Theta:  [2]float64{s.Theta[0], s.Theta[1]},
		Nugget: s.Nugget,
		Mean:   s.Mean,
		Sigma2: s.Sigma2,
	})
}

// Name returns the model name.
func (m *KrigingModel) Name() string {
	return string(ModelTypeKriging)
}

// Mean returns the constant trend.
func (m *KrigingModel) Mean() float64 {
	return m.mean
}

// Sigma2 returns the process variance.
func (m *KrigingModel) Sigma2() float64 {
	return m.sigma2
}

// solve computes R⁻¹b. An ill-conditioned factor still yields a usable
// solution, so mat.Condition is not treated as a failure.
func (m *KrigingModel) solve(dst *mat.VecDense, b mat.Vector) error {
	err := m.chol.SolveVecTo(dst, b)
	var cond mat.Condition
	if errors.As(err, &cond) {
		return nil
	}
	return err
}

func (m *KrigingModel) correlation(a, b [2]float64) float64 {
	d0 := a[0] - b[0]
	d1 := a[1] - b[1]
	return math.Exp(-(m.theta[0]*d0*d0 + m.theta[1]*d1*d1))
}

func (m *KrigingModel) crossCorrelation(x [2]float64) *mat.VecDense {
	r := mat.NewVecDense(len(m.points), nil)
	for i, p := range m.points {
		r.SetVec(i, m.correlation(x, p))
	}
	return r
}

// PredictValues returns the kriging mean for every batch row.
func (m *KrigingModel) PredictValues(batch mat.Matrix) ([]float64, error) {
	n, err := checkBatch(batch)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		r := m.crossCorrelation([2]float64{batch.At(i, 0), batch.At(i, 1)})
		out[i] = m.mean + mat.Dot(r, m.alpha)
	}
	return out, nil
}

// Predict makes the kriging model usable as a generic regressor.
func (m *KrigingModel) Predict(batch mat.Matrix) ([]float64, error) {
	return m.PredictValues(batch)
}

// PredictVariances returns the kriging variance for every batch row.
func (m *KrigingModel) PredictVariances(batch mat.Matrix) ([]float64, error) {
	n, err := checkBatch(batch)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	var rInvR mat.VecDense
	for i := 0; i < n; i++ {
		r := m.crossCorrelation([2]float64{batch.At(i, 0), batch.At(i, 1)})
		if err := m.solve(&rInvR, r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		out[i] = math.Max(m.sigma2*(1-mat.Dot(r, &rInvR)), 0)
	}
	return out, nil
}
