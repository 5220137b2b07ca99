package scoring_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/pkg/geo"
	"github.com/heatmap-service/internal/scoring"
	"github.com/heatmap-service/internal/spatial"
)

const (
	testLat = 52.40
	testLng = 16.92
)

// lngAtMeters returns a longitude east of testLng by the given distance.
func lngAtMeters(meters float64) float64 {
	return testLng + meters/geo.MetersPerDegreeLng(testLat)
}

func linearParams() domain.ScoringParams {
	return domain.ScoringParams{
		DistanceCurve: domain.CurveLinear,
		Sensitivity:   1,
		Lambda:        0,
	}
}

func kernelWith(factors []domain.Factor, indexes map[string]*spatial.Index, params domain.ScoringParams) *scoring.Kernel {
	return scoring.NewKernel(factors, indexes, params)
}

func TestKernel_SingleFactorArithmetic(t *testing.T) {
	factors := []domain.Factor{
		{ID: "grocery", Weight: 100, MaxDistance: 500, Enabled: true},
	}
	indexes := map[string]*spatial.Index{
		"grocery": spatial.NewIndex([]domain.POI{
			{ID: 1, FactorID: "grocery", Lat: testLat, Lng: testLng},
		}),
	}
	k := kernelWith(factors, indexes, linearParams())

	// At the POI the distance is zero, so the location is as good as it gets.
	assert.InDelta(t, 0, k.EvaluatePoint(testLat, testLng), 1e-6)

	// 500 m away the factor saturates at its horizon.
	assert.InDelta(t, 1, k.EvaluatePoint(testLat, lngAtMeters(500)), 5e-3)
}

func TestKernel_NegativeFactorSignSymmetry(t *testing.T) {
	factors := []domain.Factor{
		{ID: "highways", Weight: -50, MaxDistance: 1000, Enabled: true},
	}
	indexes := map[string]*spatial.Index{
		"highways": spatial.NewIndex([]domain.POI{
			{ID: 1, FactorID: "highways", Lat: testLat, Lng: testLng},
		}),
	}
	k := kernelWith(factors, indexes, linearParams())

	// On top of the highway: worst possible.
	assert.InDelta(t, 1, k.EvaluatePoint(testLat, testLng), 1e-6)

	// A kilometer away the nuisance has fully decayed.
	assert.InDelta(t, 0, k.EvaluatePoint(testLat, lngAtMeters(1000)), 1e-2)
}

func TestKernel_DensityBonus(t *testing.T) {
	// Four POIs inside the 250 m density radius, nearest at 50 m.
	factors := []domain.Factor{
		{ID: "cafe", Weight: 100, MaxDistance: 500, Enabled: true},
	}
	indexes := map[string]*spatial.Index{
		"cafe": spatial.NewIndex([]domain.POI{
			{ID: 1, FactorID: "cafe", Lat: testLat, Lng: lngAtMeters(50)},
			{ID: 2, FactorID: "cafe", Lat: testLat, Lng: lngAtMeters(60)},
			{ID: 3, FactorID: "cafe", Lat: testLat, Lng: lngAtMeters(80)},
			{ID: 4, FactorID: "cafe", Lat: testLat, Lng: lngAtMeters(100)},
		}),
	}
	k := kernelWith(factors, indexes, linearParams())

	// raw = 50/500 = 0.1, bonus for 4 clustered POIs = 0.15*(1-1/2) = 0.075.
	assert.InDelta(t, 0.025, k.EvaluatePoint(testLat, testLng), 1e-3)
}

func TestDensityBonus_Table(t *testing.T) {
	assert.Equal(t, 0.0, scoring.DensityBonus(0))
	assert.Equal(t, 0.0, scoring.DensityBonus(1))
	assert.InDelta(t, 0.0375, scoring.DensityBonus(2), 1e-12)
	assert.InDelta(t, 0.06, scoring.DensityBonus(3), 1e-12)
	assert.InDelta(t, 0.075, scoring.DensityBonus(4), 1e-12)
	// Saturates below the maximum bonus.
	assert.Less(t, scoring.DensityBonus(1000), 0.15)
	assert.Greater(t, scoring.DensityBonus(1000), 0.14)
}

func TestKernel_PowerMeanWithLambda(t *testing.T) {
	// Factor A contributes value 0.1 at weight 100, factor B value 0.9 at
	// weight 10. With λ=1: p_A = 2, p_B = 1.01.
	factors := []domain.Factor{
		{ID: "a", Weight: 100, MaxDistance: 1000, Enabled: true},
		{ID: "b", Weight: 10, MaxDistance: 1000, Enabled: true},
	}
	indexes := map[string]*spatial.Index{
		"a": spatial.NewIndex([]domain.POI{
			{ID: 1, FactorID: "a", Lat: testLat, Lng: lngAtMeters(100)},
		}),
		"b": spatial.NewIndex([]domain.POI{
			{ID: 2, FactorID: "b", Lat: testLat, Lng: lngAtMeters(900)},
		}),
	}
	params := domain.ScoringParams{
		DistanceCurve: domain.CurveLinear,
		Sensitivity:   1,
		Lambda:        1,
	}
	k := kernelWith(factors, indexes, params)

	powerSum := 100*math.Pow(0.1, 2) + 10*math.Pow(0.9, 1.01)
	meanExp := (100*2 + 10*1.01) / 110
	expected := math.Pow(powerSum/110, 1/meanExp)

	assert.InDelta(t, expected, k.EvaluatePoint(testLat, testLng), 2e-3)
	// Sanity on the closed form itself.
	assert.InDelta(t, 0.285, expected, 1e-3)
}

func TestKernel_LambdaZeroIsArithmeticMean(t *testing.T) {
	factors := []domain.Factor{
		{ID: "a", Weight: 60, MaxDistance: 1000, Enabled: true},
		{ID: "b", Weight: 40, MaxDistance: 1000, Enabled: true},
	}
	indexes := map[string]*spatial.Index{
		"a": spatial.NewIndex([]domain.POI{
			{ID: 1, FactorID: "a", Lat: testLat, Lng: lngAtMeters(500)},
		}),
		"b": spatial.NewIndex([]domain.POI{
			{ID: 2, FactorID: "b", Lat: testLat, Lng: lngAtMeters(250)},
		}),
	}
	k := kernelWith(factors, indexes, linearParams())

	// (60*0.5 + 40*0.25) / 100 = 0.4
	assert.InDelta(t, 0.4, k.EvaluatePoint(testLat, testLng), 2e-3)
}

func TestKernel_NoContributingFactorsIsNeutral(t *testing.T) {
	t.Run("empty factor list", func(t *testing.T) {
		k := kernelWith(nil, nil, linearParams())
		assert.Equal(t, 0.5, k.EvaluatePoint(testLat, testLng))
	})

	t.Run("disabled and zero-weight factors", func(t *testing.T) {
		factors := []domain.Factor{
			{ID: "a", Weight: 100, MaxDistance: 500, Enabled: false},
			{ID: "b", Weight: 0, MaxDistance: 500, Enabled: true},
		}
		k := kernelWith(factors, nil, linearParams())
		assert.Equal(t, 0.5, k.EvaluatePoint(testLat, testLng))
	})
}

func TestKernel_MissingPOIsPolarity(t *testing.T) {
	factors := []domain.Factor{
		{ID: "park", Weight: 80, MaxDistance: 800, Enabled: true},
	}
	t.Run("positive factor with no POIs scores worst", func(t *testing.T) {
		k := kernelWith(factors, map[string]*spatial.Index{}, linearParams())
		assert.InDelta(t, 1, k.EvaluatePoint(testLat, testLng), 1e-9)
	})

	neg := []domain.Factor{
		{ID: "landfill", Weight: -80, MaxDistance: 800, Enabled: true},
	}
	t.Run("negative factor with no POIs scores best", func(t *testing.T) {
		k := kernelWith(neg, map[string]*spatial.Index{}, linearParams())
		assert.InDelta(t, 0, k.EvaluatePoint(testLat, testLng), 1e-9)
	})
}

func TestKernel_BeyondHorizonSaturates(t *testing.T) {
	factors := []domain.Factor{
		{ID: "grocery", Weight: 100, MaxDistance: 500, Enabled: true},
	}
	indexes := map[string]*spatial.Index{
		"grocery": spatial.NewIndex([]domain.POI{
			{ID: 1, FactorID: "grocery", Lat: testLat, Lng: lngAtMeters(5000)},
		}),
	}
	k := kernelWith(factors, indexes, linearParams())
	assert.InDelta(t, 1, k.EvaluatePoint(testLat, testLng), 1e-9)
}

func TestKernel_EvaluateBreakdown(t *testing.T) {
	factors := []domain.Factor{
		{ID: "grocery", Weight: 100, MaxDistance: 500, Enabled: true},
		{ID: "highways", Weight: -30, MaxDistance: 1000, Enabled: true},
		{ID: "disabled", Weight: 50, MaxDistance: 500, Enabled: false},
	}
	indexes := map[string]*spatial.Index{
		"grocery": spatial.NewIndex([]domain.POI{
			{ID: 1, FactorID: "grocery", Lat: testLat, Lng: lngAtMeters(100)},
		}),
		"highways": spatial.NewIndex([]domain.POI{
			{ID: 2, FactorID: "highways", Lat: testLat, Lng: lngAtMeters(400)},
		}),
	}
	k := kernelWith(factors, indexes, linearParams())

	bd := k.EvaluateBreakdown(testLat, testLng)

	require.Len(t, bd.Factors, 2, "disabled factor must not appear")
	assert.Equal(t, domain.LatLng{Lat: testLat, Lng: testLng}, bd.Point)
	assert.InDelta(t, k.EvaluatePoint(testLat, testLng), bd.K, 1e-12)

	// Sorted by descending |contribution|.
	assert.GreaterOrEqual(t,
		math.Abs(bd.Factors[0].Contribution),
		math.Abs(bd.Factors[1].Contribution))

	for _, f := range bd.Factors {
		if f.FactorID == "highways" {
			assert.True(t, f.IsNegative)
			assert.InDelta(t, 400, f.Distance, 5)
			// value = 1 - 400/1000
			assert.InDelta(t, 0.6, f.Score, 1e-2)
		}
		if f.FactorID == "grocery" {
			assert.False(t, f.IsNegative)
			assert.InDelta(t, 100, f.Distance, 2)
		}
	}
}

func TestNormalizeValues(t *testing.T) {
	t.Run("rescales to the unit interval", func(t *testing.T) {
		values := []float64{0.30, 0.35, 0.40, 0.45}
		scoring.NormalizeValues(values)
		assert.InDelta(t, 0, values[0], 1e-12)
		assert.InDelta(t, 0.333, values[1], 1e-3)
		assert.InDelta(t, 0.667, values[2], 1e-3)
		assert.InDelta(t, 1, values[3], 1e-12)
	})

	t.Run("flat slice untouched", func(t *testing.T) {
		values := []float64{0.4, 0.4, 0.4}
		scoring.NormalizeValues(values)
		assert.Equal(t, []float64{0.4, 0.4, 0.4}, values)
	})

	t.Run("empty slice", func(t *testing.T) {
		assert.NotPanics(t, func() { scoring.NormalizeValues(nil) })
	})
}

func TestValidateInputs(t *testing.T) {
	good := []domain.Factor{{ID: "a", Weight: 50, MaxDistance: 500, Enabled: true}}

	assert.NoError(t, scoring.ValidateInputs(good, linearParams()))

	bad := []domain.Factor{{ID: "a", Weight: 150, MaxDistance: 500, Enabled: true}}
	assert.Error(t, scoring.ValidateInputs(bad, linearParams()))

	nan := []domain.Factor{{ID: "a", Weight: 50, MaxDistance: math.NaN(), Enabled: true}}
	assert.Error(t, scoring.ValidateInputs(nan, linearParams()))

	p := linearParams()
	p.Sensitivity = math.NaN()
	assert.Error(t, scoring.ValidateInputs(good, p))
}
