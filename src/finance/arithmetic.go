// Package finance holds the pure calculation primitives behind the dashboard:
// arithmetic helpers, time-value-of-money formulas, amortization and IRR.
//
// Every function is deterministic and free of side effects. Bad numeric input
// (NaN, Inf) propagates instead of being validated; the few guarded cases
// return 0 or a sentinel error as documented on each function.
package finance

import (
	"errors"
	"math"
)

var (
	// ErrLengthMismatch is returned when parallel slices differ in length.
	ErrLengthMismatch = errors.New("values and weights must have the same length")
	// ErrIRRNoConvergence is returned when Newton-Raphson does not settle.
	ErrIRRNoConvergence = errors.New("IRR calculation failed to converge")
)

func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Average returns 0 for an empty slice.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// WeightedAverage returns 0 when the weights sum to zero.
func WeightedAverage(values, weights []float64) (float64, error) {
	if len(values) != len(weights) {
		return 0, ErrLengthMismatch
	}
	var weighted, totalWeight float64
	for i, v := range values {
		weighted += v * weights[i]
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return 0, nil
	}
	return weighted / totalWeight, nil
}

// PercentageChange returns the change from oldValue to newValue in percent.
// A zero oldValue yields 0.
func PercentageChange(oldValue, newValue float64) float64 {
	if oldValue == 0 {
		return 0
	}
	return (newValue - oldValue) / math.Abs(oldValue) * 100
}

// MovingAverage returns the mean of every full window, oldest first.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || window > len(values) {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-window+1)
	running := Sum(values[:window])
	out = append(out, running/float64(window))
	for i := window; i < len(values); i++ {
		running += values[i] - values[i-window]
		out = append(out, running/float64(window))
	}
	return out
}
