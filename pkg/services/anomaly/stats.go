package anomaly

import "math"

// TailFunc returns the upper tail probability P(Z > z) of the standard normal
// distribution for z >= 0.
type TailFunc func(z float64) float64

// NormalTail evaluates the upper tail through the complementary error function.
func NormalTail(z float64) float64 {
	return 0.5 * math.Erfc(z/math.Sqrt2)
}

// Abramowitz & Stegun 26.2.17, absolute error below 7.5e-8.
const (
	asP  = 0.2316419
	asB1 = 0.319381530
	asB2 = -0.356563782
	asB3 = 1.781477937
	asB4 = -1.821255978
	asB5 = 1.330274429
)

// ApproxNormalTail is a rational polynomial approximation of NormalTail that
// needs nothing beyond exp.
func ApproxNormalTail(z float64) float64 {
	t := 1.0 / (1.0 + asP*z)
	poly := t * (asB1 + t*(asB2+t*(asB3+t*(asB4+t*asB5))))
	return poly * math.Exp(-0.5*z*z) / math.Sqrt(2*math.Pi)
}

// NormalCDF returns P(Z <= x) using the given tail function.
func NormalCDF(x float64, tail TailFunc) float64 {
	if tail == nil {
		tail = NormalTail
	}
	if x >= 0 {
		return 1 - tail(x)
	}
	return tail(-x)
}

// TwoProportionPValue runs a pooled two-proportion z-test and returns the
// two-sided p-value. Degenerate samples report 1.0.
func TwoProportionPValue(count1, nobs1, count2, nobs2 int64, tail TailFunc) float64 {
	if nobs1 == 0 || nobs2 == 0 {
		return 1.0
	}
	if tail == nil {
		tail = NormalTail
	}

	p1 := float64(count1) / float64(nobs1)
	p2 := float64(count2) / float64(nobs2)
	pooled := float64(count1+count2) / float64(nobs1+nobs2)
	if pooled == 0 || pooled == 1 {
		return 1.0
	}

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(nobs1) + 1/float64(nobs2)))
	if se == 0 {
		return 1.0
	}

	z := math.Abs((p1 - p2) / se)
	return clamp01(2 * tail(z))
}

// meanStd returns the mean and population standard deviation of values.
// Identical values report a standard deviation of exactly zero.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	equal := true
	for _, v := range values {
		sum += v
		if v != values[0] {
			equal = false
		}
	}
	if equal {
		return values[0], 0
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
