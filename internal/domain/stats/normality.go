package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

// Sample-size boundaries of the normality tests.
const (
	ShapiroMinSamples    = 3
	ShapiroMaxSamples    = 5000
	NormalTestMinSamples = 8
)

// NormalitySmallSampleMax is the largest cohort checked with Shapiro-Wilk;
// larger cohorts use the D'Agostino-Pearson omnibus test.
const NormalitySmallSampleMax = 50

// Normality runs the test appropriate for the sample size and returns its
// statistic and p-value.
func Normality(xs []float64) (statistic, pValue float64, err error) {
	if len(xs) <= NormalitySmallSampleMax {
		return ShapiroWilk(xs)
	}
	return NormalTest(xs)
}

// ShapiroWilk returns the W statistic and its p-value (Royston's AS R94).
func ShapiroWilk(xs []float64) (w, pValue float64, err error) {
	n := len(xs)
	if n < ShapiroMinSamples || n > ShapiroMaxSamples {
		return 0, 0, ErrTooFewSamples
	}
	x := append([]float64(nil), xs...)
	sort.Float64s(x)
	if x[n-1]-x[0] == 0 {
		return 0, 0, ErrZeroRange
	}

	a := shapiroCoefficients(n)
	mean := Mean(x)
	var num, ssq float64
	for i, ai := range a {
		num += ai * (x[n-1-i] - x[i])
	}
	for _, v := range x {
		ssq += (v - mean) * (v - mean)
	}
	w = math.Min(1, num*num/ssq)
	return w, shapiroPValue(w, n), nil
}

// shapiroCoefficients returns the positive half of the Shapiro-Wilk weights.
func shapiroCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	c1 := []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	c2 := []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}

	an := float64(n)
	m := make([]float64, half)
	var summ2 float64
	for i := range m {
		m[i] = mstats.NormPpf((float64(i+1)-0.375)/(an+0.25), 0, 1)
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)
	a1 := poly(c1, rsn) - m[0]/ssumm2

	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(c2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func shapiroPValue(w float64, n int) float64 {
	if n == 3 {
		const sixOverPi, piOverThree = 1.90985931710274, 1.04719755119660
		return Clamp(sixOverPi*(math.Asin(math.Sqrt(w))-piOverThree), 0, 1)
	}
	if w >= 1 {
		return 1
	}

	an := float64(n)
	y := math.Log(1 - w)
	var m, s float64
	if n <= 11 {
		gamma := poly([]float64{-2.273, 0.459}, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		m = poly([]float64{0.544, -0.39978, 0.025054, -6.714e-4}, an)
		s = math.Exp(poly([]float64{1.3822, -0.77857, 0.062767, -0.0020322}, an))
	} else {
		ln := math.Log(an)
		m = poly([]float64{-1.5861, -0.31082, -0.083751, 0.0038915}, ln)
		s = math.Exp(poly([]float64{-0.4803, -0.082676, 0.0030302}, ln))
	}
	return upperTail((y - m) / s)
}

// NormalTest returns the D'Agostino-Pearson K² statistic and its p-value.
func NormalTest(xs []float64) (k2, pValue float64, err error) {
	if len(xs) < NormalTestMinSamples {
		return 0, 0, ErrTooFewSamples
	}
	if Variance(xs) == 0 {
		return 0, 0, ErrZeroRange
	}
	zs := skewZ(xs)
	zk := kurtosisZ(xs)
	k2 = zs*zs + zk*zk
	// Chi-squared survival function with two degrees of freedom.
	return k2, math.Exp(-k2 / 2), nil
}

func skewZ(xs []float64) float64 {
	n := float64(len(xs))
	y := Skewness(xs) * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	return delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))
}

func kurtosisZ(xs []float64) float64 {
	n := float64(len(xs))
	b2 := ExcessKurtosis(xs) + 3
	expected := 3 * (n - 1) / (n + 1)
	varb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - expected) / math.Sqrt(varb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return 0
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}

// upperTail is the standard normal survival function.
func upperTail(z float64) float64 {
	return 0.5 * math.Erfc(z/math.Sqrt2)
}

// poly evaluates c[0] + c[1]x + c[2]x² + ... with Horner's rule.
func poly(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}
