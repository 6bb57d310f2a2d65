package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const maxPolynomialDegree = 5

// PolynomialModel evaluates a full bivariate polynomial in (fiction, help).
// Coefficients are ordered by total degree, then by fiction power descending:
//
//	c0 + c1*f + c2*h + c3*f² + c4*f*h + c5*h² + ...
type PolynomialModel struct {
	degree int
	coefs  []float64
}

// PolynomialTerms returns the number of coefficients of a degree-d polynomial.
func PolynomialTerms(degree int) int {
	return (degree + 1) * (degree + 2) / 2
}

// NewPolynomialModel creates a polynomial model.
func NewPolynomialModel(degree int, coefs []float64) (*PolynomialModel, error) {
	if degree < 1 || degree > maxPolynomialDegree {
		return nil, fmt.Errorf("polynomial degree must be between 1 and %d, got %d", maxPolynomialDegree, degree)
	}
	if want := PolynomialTerms(degree); len(coefs) != want {
		return nil, fmt.Errorf("degree %d polynomial needs %d coefficients, got %d", degree, want, len(coefs))
	}

	c := make([]float64, len(coefs))
	copy(c, coefs)
	return &PolynomialModel{degree: degree, coefs: c}, nil
}

// Name returns the model name.
func (m *PolynomialModel) Name() string {
	return string(ModelTypePolynomial)
}

// Degree returns the polynomial degree.
func (m *PolynomialModel) Degree() int {
	return m.degree
}

// Predict returns one prediction per batch row.
func (m *PolynomialModel) Predict(batch mat.Matrix) ([]float64, error) {
	n, err := checkBatch(batch)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = m.evaluate(batch.At(i, 0), batch.At(i, 1))
	}
	return out, nil
}

// PredictValues makes the polynomial usable as a surrogate.
func (m *PolynomialModel) PredictValues(batch mat.Matrix) ([]float64, error) {
	return m.Predict(batch)
}

// evaluate evaluates the polynomial at (f, h).
func (m *PolynomialModel) evaluate(f, h float64) float64 {
	fPows := powers(f, m.degree)
	hPows := powers(h, m.degree)

	result := 0.0
	k := 0
	for d := 0; d <= m.degree; d++ {
		for i := d; i >= 0; i-- {
			result += m.coefs[k] * fPows[i] * hPows[d-i]
			k++
		}
	}
	return result
}

// powers returns x^0 .. x^n.
func powers(x float64, n int) []float64 {
	p := make([]float64, n+1)
	p[0] = 1
	for i := 1; i <= n; i++ {
		p[i] = p[i-1] * x
	}
	return p
}
