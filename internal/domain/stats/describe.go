// Package stats holds the numeric primitives shared by the analyzers:
// descriptive statistics, standardized moments, correlation, normality
// tests and the logistic function.
package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// Summary holds the descriptive statistics of a sample.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe computes the summary of xs using the population standard deviation.
func Describe(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, ErrTooFewSamples
	}
	data := mstats.Float64Data(xs)
	// Errors below only signal empty input, checked above.
	mean, _ := data.Mean()
	median, _ := data.Median()
	std, _ := data.StandardDeviationPopulation()
	lo, _ := data.Min()
	hi, _ := data.Max()
	return Summary{Count: len(xs), Mean: mean, Median: median, StdDev: std, Min: lo, Max: hi}, nil
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	m, err := mstats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

// StdDev returns the population standard deviation of xs, or 0 for an empty slice.
func StdDev(xs []float64) float64 {
	s, err := mstats.StandardDeviationPopulation(xs)
	if err != nil {
		return 0
	}
	return s
}

// ZScore standardizes x against mean and std. A zero std yields 0.
func ZScore(x, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (x - mean) / std
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// centralMoments returns the biased second, third and fourth central moments.
func centralMoments(xs []float64) (m2, m3, m4 float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0, 0
	}
	mean := Mean(xs)
	for _, x := range xs {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	return m2 / n, m3 / n, m4 / n
}

// Skewness returns the biased sample skewness g1 = m3 / m2^1.5.
// A sample without spread has skewness 0.
func Skewness(xs []float64) float64 {
	m2, m3, _ := centralMoments(xs)
	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}

// ExcessKurtosis returns the biased excess kurtosis g2 = m4 / m2^2 - 3.
// A sample without spread has excess kurtosis 0.
func ExcessKurtosis(xs []float64) float64 {
	m2, _, m4 := centralMoments(xs)
	if m2 == 0 {
		return 0
	}
	return m4/(m2*m2) - 3
}

// Variance returns the biased second central moment of xs.
func Variance(xs []float64) float64 {
	m2, _, _ := centralMoments(xs)
	return m2
}
