package finance

import "math"

type irrOptions struct {
	guess         float64
	tolerance     float64
	maxIterations int
}

// IRROption tunes the Newton-Raphson search in IRR.
type IRROption func(*irrOptions)

func WithGuess(guess float64) IRROption {
	return func(o *irrOptions) { o.guess = guess }
}

func WithTolerance(tolerance float64) IRROption {
	return func(o *irrOptions) { o.tolerance = tolerance }
}

func WithMaxIterations(n int) IRROption {
	return func(o *irrOptions) { o.maxIterations = n }
}

// NPV discounts cashflows[t] by (1+rate)^t, with t=0 undiscounted.
func NPV(rate float64, cashflows []float64) float64 {
	npv := 0.0
	for t, cf := range cashflows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

// IRR finds the rate at which NPV(rate) == 0 using Newton-Raphson.
// Defaults: guess 0.1, tolerance 1e-4, 1000 iterations.
func IRR(cashflows []float64, opts ...IRROption) (float64, error) {
	o := irrOptions{guess: 0.1, tolerance: 1e-4, maxIterations: 1000}
	for _, opt := range opts {
		opt(&o)
	}

	rate := o.guess
	for i := 0; i < o.maxIterations; i++ {
		npv, deriv := 0.0, 0.0
		for t, cf := range cashflows {
			tf := float64(t)
			npv += cf / math.Pow(1+rate, tf)
			deriv -= tf * cf / math.Pow(1+rate, tf+1)
		}
		if deriv == 0 || math.IsNaN(deriv) {
			return 0, ErrIRRNoConvergence
		}
		next := rate - npv/deriv
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, ErrIRRNoConvergence
		}
		if math.Abs(next-rate) < o.tolerance {
			return next, nil
		}
		rate = next
	}
	return 0, ErrIRRNoConvergence
}
