package lti

import "errors"

var (
	// ErrInvalidPlant is the umbrella error for plants that cannot be simulated.
	ErrInvalidPlant = errors.New("lti: invalid plant")

	// ErrImproperPlant indicates a numerator of higher order than the denominator.
	ErrImproperPlant = errors.New("lti: improper transfer function")

	// ErrZeroDenominator indicates an empty or all-zero denominator.
	ErrZeroDenominator = errors.New("lti: denominator is zero")

	// ErrNoStaticGain indicates a pole at the origin (integrating plant).
	ErrNoStaticGain = errors.New("lti: static gain undefined (pole at s=0)")

	ErrDimensionMismatch = errors.New("lti: time and input lengths differ")
	ErrNonMonotonicTime  = errors.New("lti: time samples must be strictly increasing")
	ErrInvalidStep       = errors.New("lti: step must be positive and finite")
)
