package insight

// Composite score weights. They sum to 1.
const (
	WeightImpact       = 0.30
	WeightMagnitude    = 0.30
	WeightSignificance = 0.15
	WeightSpecificity  = 0.25
)

// Score combines four normalized inputs in [0,1] into a composite score.
func Score(impact, magnitude, significance, specificity float64) float64 {
	return WeightImpact*impact +
		WeightMagnitude*magnitude +
		WeightSignificance*significance +
		WeightSpecificity*specificity
}

// Normalize min-max scales values to [0,1]. When every value is equal the
// result is all zeros.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		return out
	}

	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
