package evaluator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/evaluator"
	"github.com/heatmap-service/internal/scoring"
	"github.com/heatmap-service/internal/spatial"
)

func testKernel() *scoring.Kernel {
	factors := []domain.Factor{
		{ID: "grocery", Weight: 100, MaxDistance: 800, Enabled: true},
		{ID: "highways", Weight: -40, MaxDistance: 1200, Enabled: true},
	}
	indexes := map[string]*spatial.Index{
		"grocery": spatial.NewIndex([]domain.POI{
			{ID: 1, FactorID: "grocery", Lat: 52.401, Lng: 16.921},
			{ID: 2, FactorID: "grocery", Lat: 52.405, Lng: 16.930},
		}),
		"highways": spatial.NewIndex([]domain.POI{
			{ID: 3, FactorID: "highways", Lat: 52.398, Lng: 16.915},
		}),
	}
	return scoring.NewKernel(factors, indexes, domain.ScoringParams{
		DistanceCurve: domain.CurveLinear,
		Sensitivity:   1,
	})
}

func makeGrid(n int) []evaluator.GridPoint {
	points := make([]evaluator.GridPoint, n)
	for i := range points {
		points[i] = evaluator.GridPoint{
			Lat: 52.39 + float64(i%200)*0.0001,
			Lng: 16.91 + float64(i/200)*0.0001,
		}
	}
	return points
}

func TestEvaluate_SmallGridSerial(t *testing.T) {
	e := evaluator.New(4, zap.NewNop())
	kernel := testKernel()
	points := makeGrid(100)

	values, err := e.Evaluate(context.Background(), kernel, points)
	require.NoError(t, err)
	require.Len(t, values, 100)

	for i, p := range points {
		assert.Equal(t, kernel.EvaluatePoint(p.Lat, p.Lng), values[i], "point %d", i)
	}
}

func TestEvaluate_LargeGridPreservesOrder(t *testing.T) {
	// Above the parallel threshold: multiple workers, same values in the
	// same positions as a direct serial pass.
	e := evaluator.New(8, zap.NewNop())
	kernel := testKernel()
	points := makeGrid(12_000)

	values, err := e.Evaluate(context.Background(), kernel, points)
	require.NoError(t, err)
	require.Len(t, values, 12_000)

	for _, i := range []int{0, 1, 2_999, 3_000, 5_999, 6_000, 11_999} {
		p := points[i]
		assert.Equal(t, kernel.EvaluatePoint(p.Lat, p.Lng), values[i], "point %d", i)
	}
}

func TestEvaluate_EmptyGrid(t *testing.T) {
	e := evaluator.New(4, zap.NewNop())
	values, err := e.Evaluate(context.Background(), testKernel(), nil)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestEvaluate_CancelledContext(t *testing.T) {
	e := evaluator.New(4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, testKernel(), makeGrid(12_000))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_CancelledContextSerial(t *testing.T) {
	e := evaluator.New(1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, testKernel(), makeGrid(500))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateBreakdowns(t *testing.T) {
	e := evaluator.New(4, zap.NewNop())
	kernel := testKernel()
	points := []evaluator.GridPoint{
		{Lat: 52.401, Lng: 16.921},
		{Lat: 52.399, Lng: 16.918},
	}

	breakdowns, err := e.EvaluateBreakdowns(context.Background(), kernel, points)
	require.NoError(t, err)
	require.Len(t, breakdowns, 2)

	for i, bd := range breakdowns {
		assert.Equal(t, points[i].Lat, bd.Point.Lat)
		assert.Equal(t, points[i].Lng, bd.Point.Lng)
		assert.Len(t, bd.Factors, 2)
		assert.InDelta(t, kernel.EvaluatePoint(points[i].Lat, points[i].Lng), bd.K, 1e-12)
	}
}
