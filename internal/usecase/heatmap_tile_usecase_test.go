package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/evaluator"
	pkgerrors "github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/geo"
	"github.com/heatmap-service/internal/repository/tilecache"
	"github.com/heatmap-service/internal/usecase"
)

var poznanTile = domain.Tile{Z: 13, X: 4480, Y: 2725}

// boundsFilteredPOIStore serves a fixed POI set restricted to the requested
// bounds, the way the real store does. Needed where the test depends on
// which POIs a given fetch envelope can see.
type boundsFilteredPOIStore struct {
	pois []domain.POI
}

func (s *boundsFilteredPOIStore) FetchPOIs(_ context.Context, _ []string, b domain.Bounds) ([]domain.POI, error) {
	var out []domain.POI
	for _, p := range s.pois {
		if p.Lat >= b.South && p.Lat <= b.North && p.Lng >= b.West && p.Lng <= b.East {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *boundsFilteredPOIStore) Health(context.Context) error { return nil }

func testFactors() []domain.Factor {
	return []domain.Factor{
		{ID: "grocery", Weight: 100, MaxDistance: 500, Enabled: true},
	}
}

func testParams() domain.ScoringParams {
	return domain.ScoringParams{
		DistanceCurve: domain.CurveLinear,
		Sensitivity:   1,
	}
}

func newTileUC(repo *MockPOIRepository, deadline time.Duration) *usecase.HeatmapTileUseCase {
	logger := zap.NewNop()
	cache := tilecache.New[*domain.TileResult]("heatmap", 64, time.Minute, nil, logger)
	eval := evaluator.New(4, logger)
	return usecase.NewHeatmapTileUseCase(repo, cache, eval, logger, 13, deadline)
}

func TestHeatmapTileUseCase_GetTile(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newTileUC(repo, time.Minute)

	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return([]domain.POI{{ID: 1, FactorID: "grocery", Lat: 52.4, Lng: 16.92}}, nil).Once()

	result, err := uc.GetTile(context.Background(), poznanTile, testFactors(), testParams(), 100)
	require.NoError(t, err)

	assert.Equal(t, poznanTile, result.Coords)
	assert.NotEmpty(t, result.Points)
	assert.Equal(t, map[string]int{"grocery": 100}, result.FactorWeights)
	assert.Len(t, result.SourceFingerprint, 16)
	for _, p := range result.Points {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.LessOrEqual(t, p.Value, 1.0)
	}

	// Identical request is served from cache without touching the store.
	again, err := uc.GetTile(context.Background(), poznanTile, testFactors(), testParams(), 100)
	require.NoError(t, err)
	assert.Equal(t, result, again)

	repo.AssertExpectations(t)
}

func TestHeatmapTileUseCase_GridIsRowMajorSouthToNorth(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newTileUC(repo, time.Minute)

	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return([]domain.POI{}, nil)

	result, err := uc.GetTile(context.Background(), poznanTile, testFactors(), testParams(), 300)
	require.NoError(t, err)
	require.Greater(t, len(result.Points), 1)

	first := result.Points[0]
	last := result.Points[len(result.Points)-1]
	assert.Less(t, first.Lat, last.Lat, "rows run south to north")
	// Within the first row longitude increases.
	assert.Less(t, first.Lng, result.Points[1].Lng)
}

func TestHeatmapTileUseCase_GetTile_Validation(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newTileUC(repo, time.Minute)

	t.Run("wrong zoom", func(t *testing.T) {
		_, err := uc.GetTile(context.Background(), domain.Tile{Z: 12, X: 100, Y: 100},
			testFactors(), testParams(), 100)
		var appErr *pkgerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, pkgerrors.CodeInvalidInput, appErr.Code)
	})

	t.Run("tile coordinates out of range", func(t *testing.T) {
		_, err := uc.GetTile(context.Background(), domain.Tile{Z: 13, X: 9000, Y: 100},
			testFactors(), testParams(), 100)
		var appErr *pkgerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, pkgerrors.CodeInvalidInput, appErr.Code)
	})

	t.Run("weight out of range", func(t *testing.T) {
		bad := []domain.Factor{{ID: "a", Weight: 150, MaxDistance: 500, Enabled: true}}
		_, err := uc.GetTile(context.Background(), poznanTile, bad, testParams(), 100)
		var appErr *pkgerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, pkgerrors.CodeInvalidInput, appErr.Code)
	})

	repo.AssertNotCalled(t, "FetchPOIs", mock.Anything, mock.Anything, mock.Anything)
}

func TestHeatmapTileUseCase_StoreFailureMapsToStoreUnavailable(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newTileUC(repo, time.Minute)

	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := uc.GetTile(context.Background(), poznanTile, testFactors(), testParams(), 100)
	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeStoreUnavailable, appErr.Code)
}

func TestHeatmapTileUseCase_DeadlineMapsToDeadlineError(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newTileUC(repo, time.Nanosecond)

	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return([]domain.POI{}, nil).Maybe()

	_, err := uc.GetTile(context.Background(), poznanTile, testFactors(), testParams(), 100)
	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeDeadline, appErr.Code)
}

func TestHeatmapTileUseCase_AdjacentTilesContinuousAcrossSharedEdge(t *testing.T) {
	logger := zap.NewNop()
	tileA := poznanTile
	tileB := domain.Tile{Z: 13, X: 4481, Y: 2725}
	edge := geo.TileToBounds(tileA) // edge.East is the shared boundary

	// A vertical line of POIs ~820 m west of the shared edge, extending
	// past the tile top and bottom so every edge row sees a uniform layout.
	// The line sits outside tileB's own bounds: only the fetch padding
	// makes it visible to tileB's west column.
	var pois []domain.POI
	lng := edge.East - 0.012
	for lat := edge.South - 0.04; lat <= edge.North+0.04; lat += 0.002 {
		pois = append(pois, domain.POI{
			ID: int64(len(pois) + 1), FactorID: "grocery", Lat: lat, Lng: lng,
		})
	}

	store := &boundsFilteredPOIStore{pois: pois}
	cache := tilecache.New[*domain.TileResult]("heatmap", 64, time.Minute, nil, logger)
	uc := usecase.NewHeatmapTileUseCase(store, cache, evaluator.New(4, logger), logger, 13, time.Minute)

	factors := []domain.Factor{{ID: "grocery", Weight: 100, MaxDistance: 4000, Enabled: true}}

	left, err := uc.GetTile(context.Background(), tileA, factors, testParams(), 0)
	require.NoError(t, err)
	right, err := uc.GetTile(context.Background(), tileB, factors, testParams(), 0)
	require.NoError(t, err)
	require.Equal(t, len(left.Points), len(right.Points))

	// Both tiles share lat span and grid step, so rows line up. The first
	// row is contiguous in the row-major layout.
	cols := 0
	for _, p := range left.Points {
		if p.Lat != left.Points[0].Lat {
			break
		}
		cols++
	}
	require.Greater(t, cols, 1)
	require.Zero(t, len(left.Points)%cols)
	rows := len(left.Points) / cols

	for r := 0; r < rows; r++ {
		a := left.Points[r*cols+cols-1] // east column of the west tile
		b := right.Points[r*cols]       // west column of the east tile
		assert.InDelta(t, a.Value, b.Value, 0.02,
			"row %d: K jumps across the shared edge (%g vs %g)", r, a.Value, b.Value)
	}
}

func TestHeatmapTileUseCase_FactorTagsReachTheStore(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newTileUC(repo, time.Minute)

	// A multi-tag factor queries the store with its tag set; a factor
	// without tags falls back to its own id.
	factors := []domain.Factor{
		{ID: "grocery", Weight: 100, MaxDistance: 500, Enabled: true,
			OSMTags: []string{"supermarket", "convenience"}},
		{ID: "park", Weight: 50, MaxDistance: 800, Enabled: true},
	}
	repo.On("FetchPOIs", mock.Anything, []string{"supermarket", "convenience"}, mock.Anything).
		Return([]domain.POI{}, nil).Once()
	repo.On("FetchPOIs", mock.Anything, []string{"park"}, mock.Anything).
		Return([]domain.POI{}, nil).Once()

	_, err := uc.GetTile(context.Background(), poznanTile, factors, testParams(), 100)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestHeatmapTileUseCase_DisabledFactorsNotFetched(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newTileUC(repo, time.Minute)

	factors := []domain.Factor{
		{ID: "grocery", Weight: 100, MaxDistance: 500, Enabled: true},
		{ID: "ignored", Weight: 50, MaxDistance: 500, Enabled: false},
	}
	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return([]domain.POI{}, nil).Once()

	_, err := uc.GetTile(context.Background(), poznanTile, factors, testParams(), 100)
	require.NoError(t, err)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "FetchPOIs", mock.Anything, []string{"ignored"}, mock.Anything)
}
