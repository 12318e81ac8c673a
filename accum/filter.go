package accum

// Filter applies the call-wide bias to raw scores.
//
// A hit is accepted only if raw - Bias is strictly positive. The zero value
// assumes the bias was already subtracted by the caller.
type Filter struct {
	Bias float32
}

// Apply returns the adjusted score and whether the hit is accepted.
// NaN scores are never accepted.
func (f Filter) Apply(raw float32) (float32, bool) {
	adjusted := raw - f.Bias
	if adjusted > 0 {
		return adjusted, true
	}
	return 0, false
}
