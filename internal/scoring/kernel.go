// Package scoring implements the per-point K computation: distance curves,
// the density bonus for clustered positive factors, and the weighted power
// mean with per-factor exponents.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/spatial"
)

const (
	// valueFloor avoids the 0^p singularity when p < 1. Load-bearing: do
	// not remove.
	valueFloor = 1e-10

	// Density bonus parameters.
	densityBonusMax    = 0.15
	densityExcessScale = 3.0
	densityRadiusShare = 0.5
)

// Kernel evaluates grid points against a fixed factor set. Indexes are
// immutable; a Kernel is safe for concurrent use.
type Kernel struct {
	factors []domain.Factor
	indexes map[string]*spatial.Index
	params  domain.ScoringParams
}

// NewKernel binds factors, per-factor spatial indexes, and params.
// Disabled and zero-weight factors are dropped up front so their presence
// cannot perturb the accumulation order.
func NewKernel(factors []domain.Factor, indexes map[string]*spatial.Index, params domain.ScoringParams) *Kernel {
	contributing := make([]domain.Factor, 0, len(factors))
	for _, f := range factors {
		if f.Contributing() {
			contributing = append(contributing, f)
		}
	}
	return &Kernel{
		factors: contributing,
		indexes: indexes,
		params:  params,
	}
}

// ValidateInputs rejects NaN-carrying factors or params before evaluation
// starts. The kernel itself never fails; feeding it NaN is a programming
// error caught here.
func ValidateInputs(factors []domain.Factor, params domain.ScoringParams) error {
	for _, f := range factors {
		if math.IsNaN(f.MaxDistance) || f.MaxDistance < 0 {
			return fmt.Errorf("factor %q: invalid maxDistance %v", f.ID, f.MaxDistance)
		}
		if f.Weight < -100 || f.Weight > 100 {
			return fmt.Errorf("factor %q: weight %d outside [-100, 100]", f.ID, f.Weight)
		}
	}
	if math.IsNaN(params.Sensitivity) || math.IsNaN(params.Lambda) {
		return fmt.Errorf("scoring params contain NaN")
	}
	return nil
}

// DensityBonus returns the subtractive cluster reward for a positive
// factor with count POIs inside the density search radius.
func DensityBonus(count int) float64 {
	if count <= 1 {
		return 0
	}
	n := float64(count-1) / densityExcessScale
	return densityBonusMax * (1 - 1/(n+1))
}

// factorValue computes the per-factor value in [0,1] plus the detail fields
// retained for breakdowns.
func (k *Kernel) factorValue(lat, lng float64, f domain.Factor) (value float64, detail domain.FactorScore) {
	detail = domain.FactorScore{
		FactorID:    f.ID,
		Weight:      f.Weight,
		MaxDistance: f.MaxDistance,
		IsNegative:  f.Weight < 0,
		Distance:    math.Inf(1),
	}

	idx := k.indexes[f.ID]
	if idx == nil || idx.Len() == 0 {
		detail.NoPOIs = true
		// Absence of an undesirable factor is good; absence of a desirable
		// one is bad.
		if f.Weight < 0 {
			return 0, detail
		}
		return 1, detail
	}

	d := idx.NearestDistance(lat, lng, f.MaxDistance)
	detail.Distance = d

	ratio := 1.0
	if !math.IsInf(d, 1) && f.MaxDistance > 0 {
		ratio = math.Min(d, f.MaxDistance) / f.MaxDistance
	}
	normalized := ApplyCurve(k.params.DistanceCurve, ratio, k.params.Sensitivity)

	if f.Weight < 0 {
		return 1 - normalized, detail
	}

	value = normalized
	count := idx.CountWithinRadius(lat, lng, densityRadiusShare*f.MaxDistance)
	detail.NearbyCount = count
	value -= DensityBonus(count)
	if value < 0 {
		value = 0
	}
	return value, detail
}

// EvaluatePoint returns the aggregate K at a point. K is the weighted power
// mean of per-factor values with per-factor exponent p = 1 + λ·(w/100)²,
// clamped to [0,1]. No contributing factors yields the neutral 0.5.
func (k *Kernel) EvaluatePoint(lat, lng float64) float64 {
	var powerSum, totalWeight, weightedExpSum float64

	for _, f := range k.factors {
		value, _ := k.factorValue(lat, lng, f)

		w := math.Abs(float64(f.Weight))
		p := 1 + k.params.Lambda*(w/100)*(w/100)
		v := math.Max(value, valueFloor)

		powerSum += w * math.Pow(v, p)
		totalWeight += w
		weightedExpSum += w * p
	}

	if totalWeight == 0 {
		return 0.5
	}

	meanExp := weightedExpSum / totalWeight
	kVal := math.Pow(powerSum/totalWeight, 1/meanExp)

	if kVal < 0 {
		return 0
	}
	if kVal > 1 {
		return 1
	}
	return kVal
}

// EvaluateBreakdown runs the same kernel but keeps per-factor detail,
// sorted by descending |contribution|.
func (k *Kernel) EvaluateBreakdown(lat, lng float64) domain.FactorBreakdown {
	var powerSum, totalWeight, weightedExpSum float64
	details := make([]domain.FactorScore, 0, len(k.factors))

	for _, f := range k.factors {
		value, detail := k.factorValue(lat, lng, f)

		w := math.Abs(float64(f.Weight))
		p := 1 + k.params.Lambda*(w/100)*(w/100)
		v := math.Max(value, valueFloor)
		contribution := w * math.Pow(v, p)

		detail.Score = value
		detail.Contribution = contribution
		detail.EffectiveExponent = p
		details = append(details, detail)

		powerSum += contribution
		totalWeight += w
		weightedExpSum += w * p
	}

	kVal := 0.5
	if totalWeight > 0 {
		meanExp := weightedExpSum / totalWeight
		kVal = math.Pow(powerSum/totalWeight, 1/meanExp)
		kVal = math.Max(0, math.Min(1, kVal))
	}

	sort.SliceStable(details, func(i, j int) bool {
		return math.Abs(details[i].Contribution) > math.Abs(details[j].Contribution)
	})

	return domain.FactorBreakdown{
		Point:   domain.LatLng{Lat: lat, Lng: lng},
		K:       kVal,
		Factors: details,
	}
}

// NormalizeValues linearly rescales values so min → 0 and max → 1, in
// place. A flat slice is left untouched.
func NormalizeValues(values []float64) {
	if len(values) == 0 {
		return
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV == minV {
		return
	}
	span := maxV - minV
	for i := range values {
		values[i] = (values[i] - minV) / span
	}
}
