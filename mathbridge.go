package encodevorbis

import "math"

// MathBridge implements the math imports. Go's math package already follows
// IEEE-754: domain errors yield NaN and infinities propagate.
type MathBridge struct{}

// Log, Sin, Cos, Exp, Atan, Sqrt and Pow are the math package functions
// of the same name. Abs, Labs and Fabs all return math.Abs, since the
// guest passes every one of them an f64.
func (MathBridge) Log(x float64) float64  { return math.Log(x) }
func (MathBridge) Sin(x float64) float64  { return math.Sin(x) }
func (MathBridge) Cos(x float64) float64  { return math.Cos(x) }
func (MathBridge) Exp(x float64) float64  { return math.Exp(x) }
func (MathBridge) Atan(x float64) float64 { return math.Atan(x) }
func (MathBridge) Abs(x float64) float64  { return math.Abs(x) }
func (MathBridge) Labs(x float64) float64 { return math.Abs(x) }
func (MathBridge) Sqrt(x float64) float64 { return math.Sqrt(x) }
func (MathBridge) Fabs(x float64) float64 { return math.Abs(x) }

// Pow returns math.Pow(x, y).
func (MathBridge) Pow(x, y float64) float64 { return math.Pow(x, y) }

// Ldexp is the package-level Ldexp.
func (MathBridge) Ldexp(mantissa float64, exponent int32) float64 {
	return Ldexp(mantissa, exponent)
}

// ldexpMaxSteps bounds the number of scaling multiplications in Ldexp.
const ldexpMaxSteps = 3

// Ldexp returns mantissa * 2^exponent.
//
// The scale is applied in up to three factors so that exponents beyond the
// range of a single float64 power of two still give the correct product,
// e.g. Ldexp(math.SmallestNonzeroFloat64, 2000).
func Ldexp(mantissa float64, exponent int32) float64 {
	// A factor can be 0 or Inf on its own; keep 0*Inf from turning into NaN.
	if mantissa == 0 || math.IsInf(mantissa, 0) || math.IsNaN(mantissa) {
		return mantissa
	}

	e := int64(exponent)
	steps := int64(math.Ceil(math.Abs(float64(e)) / 1023))
	if steps > ldexpMaxSteps {
		steps = ldexpMaxSteps
	}

	result := mantissa
	for i := int64(0); i < steps; i++ {
		k := math.Floor(float64(e+i) / float64(steps))
		result *= math.Pow(2, k)
	}
	return result
}
