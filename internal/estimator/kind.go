package estimator

import (
	"fmt"
	"slices"
)

// Kind identifies which estimator interface a handle exposes.
type Kind string

const (
	// KindGeneric is a single regressor exposing a batch predict.
	KindGeneric Kind = "generic"
	// KindKrigingPair is two surrogates (fiction, help) whose outputs are summed.
	KindKrigingPair Kind = "kriging_pair"
	// KindKrigingReading is a single surrogate predicting the combined reading.
	KindKrigingReading Kind = "kriging_reading"
)

// Kinds lists every recognized kind.
var Kinds = []Kind{KindGeneric, KindKrigingPair, KindKrigingReading}

// IsValid checks if the kind is one of the recognized tags.
func (k Kind) IsValid() bool {
	return slices.Contains(Kinds, k)
}

// String returns string representation.
func (k Kind) String() string {
	return string(k)
}

// ParseKind converts a string into a Kind.
// Legacy names from the notebooks ("sklearn", "smt_kriging", "smt_kriging_reading")
// are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "sklearn":
		return KindGeneric, nil
	case "smt_kriging":
		return KindKrigingPair, nil
	case "smt_kriging_reading":
		return KindKrigingReading, nil
	}
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q, expected one of %v", ErrInvalidKind, s, Kinds)
	}
	return k, nil
}
