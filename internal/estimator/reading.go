package estimator

import (
	"encoding/json"
	"math"
)

// Reading is the dispatcher output: one value per allocation row.
// A single-row reading collapses to a bare scalar.
type Reading struct {
	values []float64
}

// NewReading wraps values. The slice is owned by the Reading afterwards.
func NewReading(values []float64) Reading {
	return Reading{values: values}
}

// Len returns the number of rows.
func (r Reading) Len() int {
	return len(r.values)
}

// IsScalar reports whether the reading collapsed to a single value.
func (r Reading) IsScalar() bool {
	return len(r.values) == 1
}

// Scalar returns the value of a single-row reading.
func (r Reading) Scalar() (float64, bool) {
	if !r.IsScalar() {
		return math.NaN(), false
	}
	return r.values[0], true
}

// At returns the reading for row i.
func (r Reading) At(i int) float64 {
	return r.values[i]
}

// Values returns a copy of all row values.
func (r Reading) Values() []float64 {
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

// Negate returns -1 * r.
func (r Reading) Negate() Reading {
	out := make([]float64, len(r.values))
	for i, v := range r.values {
		out[i] = -v
	}
	return Reading{values: out}
}

// MarshalJSON encodes a scalar reading as a bare number and anything else as
// an array. Non-finite values are encoded as null since JSON has no Inf/NaN.
func (r Reading) MarshalJSON() ([]byte, error) {
	if r.IsScalar() {
		return json.Marshal(jsonFloat(r.values[0]))
	}
	out := make([]*float64, len(r.values))
	for i := range r.values {
		out[i] = jsonFloat(r.values[i])
	}
	return json.Marshal(out)
}

func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// UnmarshalJSON accepts a bare number or an array. A null becomes NaN.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var one *float64
	if err := json.Unmarshal(data, &one); err == nil {
		r.values = []float64{fromJSON(one)}
		return nil
	}
	var many []*float64
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	r.values = make([]float64, len(many))
	for i, v := range many {
		r.values[i] = fromJSON(v)
	}
	return nil
}

func fromJSON(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
