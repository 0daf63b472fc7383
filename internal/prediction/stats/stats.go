// Package stats holds the small numeric helpers shared by the prediction models.
package stats

import "math"

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PopulationStdDev returns the standard deviation of xs with an n denominator.
func PopulationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// LinearFit is an ordinary-least-squares line y = Intercept + Slope*x.
type LinearFit struct {
	Slope     float64
	Intercept float64
	// RSquared is 1 when ys has no variance.
	RSquared float64
	// MeanSquaredResidual is SSres / n.
	MeanSquaredResidual float64
}

// At evaluates the fitted line at x.
func (f LinearFit) At(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// ResidualStdDev is the root of the mean squared residual.
func (f LinearFit) ResidualStdDev() float64 {
	return math.Sqrt(f.MeanSquaredResidual)
}

// FitLine computes the least-squares line through (xs[i], ys[i]).
// The x values are centred before fitting so that calendar years do not lose precision.
// ok is false when fewer than two points are given or all xs are equal.
func FitLine(xs, ys []float64) (fit LinearFit, ok bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return LinearFit{}, false
	}

	mx, my := Mean(xs), Mean(ys)

	var sxx, sxy, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx < 1e-10 {
		return LinearFit{}, false
	}

	fit.Slope = sxy / sxx
	fit.Intercept = my - fit.Slope*mx

	var ssRes float64
	for i := range xs {
		r := ys[i] - (my + fit.Slope*(xs[i]-mx))
		ssRes += r * r
	}
	fit.MeanSquaredResidual = ssRes / float64(n)

	if syy == 0 {
		fit.RSquared = 1
	} else {
		fit.RSquared = Clamp(1-ssRes/syy, 0, 1)
	}
	return fit, true
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
