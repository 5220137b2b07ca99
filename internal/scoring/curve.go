package scoring

import (
	"math"

	"github.com/heatmap-service/internal/domain"
)

// Sensitivity clamp range. The clamp keeps the log base above 1 and the
// power exponent finite at the extremes.
const (
	MinSensitivity = 0.1
	MaxSensitivity = 10.0
)

// ClampSensitivity confines s to the permitted range.
func ClampSensitivity(s float64) float64 {
	if s < MinSensitivity {
		return MinSensitivity
	}
	if s > MaxSensitivity {
		return MaxSensitivity
	}
	return s
}

// ApplyCurve maps a distance ratio r ∈ [0,1] to a score ∈ [0,1]. All
// curves are monotone with fixed endpoints: C(0)=0, C(1)=1.
func ApplyCurve(curve domain.DistanceCurve, r, sensitivity float64) float64 {
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	s := ClampSensitivity(sensitivity)

	switch curve {
	case domain.CurveLog:
		b := 1 + (math.E-1)*s
		return math.Log(1+r*(b-1)) / math.Log(b)
	case domain.CurveExp:
		k := 3 * s
		// Rescaled so the endpoint lands exactly on 1.
		return (1 - math.Exp(-k*r)) / (1 - math.Exp(-k))
	case domain.CurvePower:
		n := 0.5 / s
		return math.Pow(r, n)
	default:
		return r
	}
}
