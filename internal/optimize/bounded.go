// Package optimize implements bounded scalar minimization of the proportion
// objective and diagnostics of its convergence.
package optimize

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultMaxIter = 500
	DefaultXAtol   = 1e-5
)

// Status codes of a minimization.
const (
	StatusSuccess = 0
	StatusMaxIter = 1
	StatusNaN     = 2
)

var statusMessages = map[int]string{
	StatusSuccess: "Solution found.",
	StatusMaxIter: "Maximum number of function calls reached.",
	StatusNaN:     "NaN result encountered.",
}

var (
	// ErrInvalidBounds is returned for non-finite or inverted bounds.
	ErrInvalidBounds = errors.New("invalid bounds")
)

// Func is a scalar function that can fail.
type Func func(x float64) (float64, error)

// Options control the minimizer. A nil MaxIter uses DefaultMaxIter; zero is a
// valid cap that stops after the first step.
type Options struct {
	MaxIter *int
	XAtol   float64
}

// Result of a bounded minimization.
type Result struct {
	X       float64 `json:"x"`
	Fun     float64 `json:"fun"`
	Success bool    `json:"success"`
	Status  int     `json:"status"`
	Message string  `json:"message"`
	NIter   int     `json:"nit"`
	NFev    int     `json:"nfev"`
}

// MaxIter returns a pointer for Options.MaxIter.
func MaxIter(n int) *int {
	return &n
}

// Minimize finds a local minimum of f on [lo, hi] with Brent's method:
// golden-section search accelerated by parabolic interpolation. Each
// iteration evaluates f once and the iteration cap counts evaluations.
func Minimize(f Func, lo, hi float64, opts Options) (Result, error) {
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return Result{}, fmt.Errorf("%w: bounds must be finite, got [%g, %g]", ErrInvalidBounds, lo, hi)
	}
	if lo > hi {
		return Result{}, fmt.Errorf("%w: lower bound %g exceeds upper bound %g", ErrInvalidBounds, lo, hi)
	}

	maxfun := DefaultMaxIter
	if opts.MaxIter != nil {
		maxfun = *opts.MaxIter
	}
	xatol := opts.XAtol
	if xatol <= 0 {
		xatol = DefaultXAtol
	}

	sqrtEps := math.Sqrt(2.2e-16)
	goldenMean := 0.5 * (3.0 - math.Sqrt(5.0))

	a, b := lo, hi
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	rat, e := 0.0, 0.0
	x := xf

	fx, err := f(x)
	if err != nil {
		return Result{}, fmt.Errorf("evaluating at %g: %w", x, err)
	}
	num := 1
	fu := math.Inf(1)

	ffulc, fnfc := fx, fx
	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3.0
	tol2 := 2.0 * tol1

	status := StatusSuccess
	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		golden := true

		// Try a parabolic fit through the three best points.
		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2.0 * (q - r)
			if q > 0.0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x = xf + rat
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * sign(xm-xf)
				}
			} else {
				golden = true
			}
		}

		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x = xf + sign(rat)*math.Max(math.Abs(rat), tol1)
		fu, err = f(x)
		if err != nil {
			return Result{}, fmt.Errorf("evaluating at %g: %w", x, err)
		}
		num++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3.0
		tol2 = 2.0 * tol1

		if num >= maxfun {
			status = StatusMaxIter
			break
		}
	}

	if math.IsNaN(xf) || math.IsNaN(fx) || math.IsNaN(fu) {
		status = StatusNaN
	}

	return Result{
		X:       xf,
		Fun:     fx,
		Success: status == StatusSuccess,
		Status:  status,
		Message: statusMessages[status],
		NIter:   num,
		NFev:    num,
	}, nil
}

// sign returns -1 or 1; zero maps to 1.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
