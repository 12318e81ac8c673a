package accum

import "math/bits"

// FracBits is the number of fractional bits in a Sum quantum.
const FracBits = 40

// MaxScore is the exclusive upper bound of a quantizable adjusted score.
const MaxScore = float32(1 << (64 - FracBits))

const quantumScale = 1 << FracBits

// Sum is an exact, order-independent accumulator of positive scores.
//
// Scores are quantized to multiples of 2^-40 and summed as 128-bit unsigned
// integers, which makes addition associative and commutative.
type Sum struct {
	hi, lo uint64
}

// Quantize converts a positive adjusted score into a Sum quantum, truncating
// toward zero. ok is false for scores >= MaxScore, infinities and NaN.
func Quantize(score float32) (q uint64, ok bool) {
	if !(score < MaxScore) {
		return 0, false
	}
	if score <= 0 {
		return 0, true
	}
	// Scaling by a power of two is exact in float64.
	return uint64(float64(score) * quantumScale), true
}

// SumOf returns the exact sum of the given scores.
func SumOf(scores ...float32) Sum {
	var s Sum
	for _, v := range scores {
		q, _ := Quantize(v)
		s.AddQuantum(q)
	}
	return s
}

// AddQuantum adds one quantized score.
func (s *Sum) AddQuantum(q uint64) {
	var carry uint64
	s.lo, carry = bits.Add64(s.lo, q, 0)
	s.hi += carry
}

// Add adds another Sum.
func (s *Sum) Add(o Sum) {
	var carry uint64
	s.lo, carry = bits.Add64(s.lo, o.lo, 0)
	s.hi, _ = bits.Add64(s.hi, o.hi, carry)
}

// Cmp compares two sums and returns -1, 0 or +1.
func (s Sum) Cmp(o Sum) int {
	switch {
	case s.hi < o.hi:
		return -1
	case s.hi > o.hi:
		return 1
	case s.lo < o.lo:
		return -1
	case s.lo > o.lo:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether nothing was added.
func (s Sum) IsZero() bool { return s.hi == 0 && s.lo == 0 }

// Float64 returns the sum as a float64. The conversion is deterministic.
func (s Sum) Float64() float64 {
	const hiScale = 1 << (64 - FracBits)
	return float64(s.hi)*hiScale + float64(s.lo)/quantumScale
}
