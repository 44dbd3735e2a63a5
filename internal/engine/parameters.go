package engine

import (
	"fmt"
	"math"
)

// NumParameters is the length of an FSRS-6 parameter vector.
const NumParameters = 21

// DefaultParameters are the FSRS v6 default parameter values
// from py-fsrs / fsrs4anki Wiki FSRS-6.
var DefaultParameters = [NumParameters]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w[0..3]  initial stability S₀(G)
	6.4133, 0.8334, 3.0194, 0.001, // w[4..7]  difficulty params
	1.8722, 0.1666, 0.796, 1.4835, // w[8..11] recall stability params
	0.0614, 0.2629, 1.6483, 0.6014, // w[12..15] forget stability params
	1.8729, 0.5425, 0.0912, 0.0658, // w[16..19] easy/short-term params
	0.1542, // w[20] decay exponent (v6 trainable)
}

// LowerBounds defines the minimum allowed value for each parameter.
var LowerBounds = [NumParameters]float64{
	0.001, 0.001, 0.001, 0.001,
	1.0, 0.001, 0.001, 0.001,
	0.0, 0.0, 0.001, 0.001,
	0.001, 0.001, 0.0, 0.0,
	1.0, 0.0, 0.0, 0.0,
	0.1,
}

// UpperBounds defines the maximum allowed value for each parameter.
var UpperBounds = [NumParameters]float64{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5, 5.0,
	0.25, 0.9, 4.0, 1.0,
	6.0, 2.0, 2.0, 0.8,
	0.8,
}

// fsrs5Decay is the fixed decay of FSRS-5 and earlier, used when
// migrating shorter parameter vectors.
const fsrs5Decay = 0.5

// ValidateParameters checks that all 21 parameters are finite and within
// [LowerBounds, UpperBounds].
func ValidateParameters(p [NumParameters]float64) error {
	for i := 0; i < NumParameters; i++ {
		if math.IsNaN(p[i]) || math.IsInf(p[i], 0) {
			return fmt.Errorf("%w: w[%d] is not finite", ErrInvalidParameters, i)
		}
		if p[i] < LowerBounds[i] || p[i] > UpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidParameters, i, p[i], LowerBounds[i], UpperBounds[i])
		}
	}
	return nil
}

// FillParameters expands a caller-supplied vector into the FSRS-6 layout.
//
// An empty vector selects DefaultParameters. 17 (FSRS-4.5) and 19 (FSRS-5)
// element vectors are migrated; 21 elements are taken as-is. Any other
// length, or a result that fails ValidateParameters, is an error. Values
// within rounding distance of a bound are moved onto it first.
func FillParameters(p []float64) ([NumParameters]float64, error) {
	var w [NumParameters]float64
	switch len(p) {
	case 0:
		return DefaultParameters, nil
	case 17:
		copy(w[:], p)
		w[4] = w[5]*2 + w[4]
		w[5] = math.Log(w[5]*3+1) / 3
		w[6] += 0.5
		w[20] = fsrs5Decay
	case 19:
		copy(w[:], p)
		w[20] = fsrs5Decay
	case NumParameters:
		copy(w[:], p)
	default:
		return w, fmt.Errorf("%w: got %d values, want 0, 17, 19 or %d",
			ErrInvalidParameters, len(p), NumParameters)
	}
	snapToBounds(&w)
	if err := ValidateParameters(w); err != nil {
		return [NumParameters]float64{}, err
	}
	return w, nil
}

// boundSlack is the relative distance within which a value is pulled onto
// a bound. Vectors that travelled through single precision land a few
// ulps outside the float64 bounds they were clamped to.
const boundSlack = 1e-6

func snapToBounds(w *[NumParameters]float64) {
	for i, v := range w {
		lo, hi := LowerBounds[i], UpperBounds[i]
		switch {
		case v < lo && lo-v <= boundSlack*math.Max(1, math.Abs(lo)):
			w[i] = lo
		case v > hi && v-hi <= boundSlack*math.Max(1, math.Abs(hi)):
			w[i] = hi
		}
	}
}
