package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/config"
	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/evaluator"
	pkgerrors "github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/geo"
	"github.com/heatmap-service/internal/repository/tilecache"
	"github.com/heatmap-service/internal/usecase"
)

func heatmapTestConfig() config.HeatmapConfig {
	return config.HeatmapConfig{
		POITileZoom:      13,
		HeatmapTileZoom:  13,
		MaxViewportTiles: 36,
		MaxTotalTiles:    64,
		BatchSize:        5,
		BatchDelay:       time.Millisecond,
		TileDeadline:     time.Minute,
	}
}

func newViewportUC(repo *MockPOIRepository) *usecase.HeatmapViewportUseCase {
	logger := zap.NewNop()
	cache := tilecache.New[*domain.TileResult]("heatmap", 256, time.Minute, nil, logger)
	eval := evaluator.New(4, logger)
	cfg := heatmapTestConfig()
	tileUC := usecase.NewHeatmapTileUseCase(repo, cache, eval, logger, cfg.HeatmapTileZoom, cfg.TileDeadline)
	return usecase.NewHeatmapViewportUseCase(tileUC, cfg, logger)
}

// tileBlockBounds returns bounds covering exactly a cols x rows tile block
// starting at the given north-west tile.
func tileBlockBounds(nwX, nwY, cols, rows int) domain.Bounds {
	nw := geo.TileToBounds(domain.Tile{Z: 13, X: nwX, Y: nwY})
	se := geo.TileToBounds(domain.Tile{Z: 13, X: nwX + cols - 1, Y: nwY + rows - 1})
	return domain.Bounds{
		North: nw.North - 1e-9,
		South: se.South + 1e-9,
		West:  nw.West + 1e-9,
		East:  se.East - 1e-9,
	}
}

func TestHeatmapViewportUseCase_SingleTileViewport(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newViewportUC(repo)

	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return([]domain.POI{{ID: 1, FactorID: "grocery", Lat: 52.4, Lng: 16.92}}, nil)

	resp, err := uc.GetViewport(context.Background(), tileBlockBounds(4480, 2725, 1, 1),
		13, testFactors(), testParams(), 0)
	require.NoError(t, err)

	require.Len(t, resp.Tiles, 1)
	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, resp.Tiles[0], resp.Results[0].Coordinates)
	assert.NotEmpty(t, resp.Results[0].Points)
}

func TestHeatmapViewportUseCase_ContextTilesWarmButNotReturned(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newViewportUC(repo)

	var fetches atomic.Int32
	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return([]domain.POI{}, nil).
		Run(func(mock.Arguments) { fetches.Add(1) })

	resp, err := uc.GetViewport(context.Background(), tileBlockBounds(4480, 2725, 1, 1),
		13, testFactors(), testParams(), 1)
	require.NoError(t, err)

	// One viewport tile in the response; the 8 surrounding context tiles
	// were computed for the cache only.
	assert.Len(t, resp.Results, 1)
	assert.GreaterOrEqual(t, fetches.Load(), int32(9))
}

func TestHeatmapViewportUseCase_TooLargeViewport(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newViewportUC(repo)

	// 10x10 = 100 tiles, well past the 36-tile budget.
	bounds := tileBlockBounds(4480, 2720, 10, 10)

	_, err := uc.GetViewport(context.Background(), bounds, 13, testFactors(), testParams(), 0)

	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeTooLarge, appErr.Code)
	assert.Equal(t, 100, appErr.Details["observed"])
	assert.Equal(t, 36, appErr.Details["max"])

	// Rejected before any store or cache activity.
	repo.AssertNotCalled(t, "FetchPOIs", mock.Anything, mock.Anything, mock.Anything)
}

func TestHeatmapViewportUseCase_RadiusShrinksToFitBudget(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newViewportUC(repo)

	var fetches atomic.Int32
	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return([]domain.POI{}, nil).
		Run(func(mock.Arguments) { fetches.Add(1) })

	// 6x6 viewport = 36 tiles; radius 2 would expand to 100 tiles, over the
	// 64 budget, and must fall back until the cover fits.
	bounds := tileBlockBounds(4480, 2720, 6, 6)
	resp, err := uc.GetViewport(context.Background(), bounds, 13, testFactors(), testParams(), 2)
	require.NoError(t, err)

	assert.Len(t, resp.Results, 36)
	assert.LessOrEqual(t, fetches.Load(), int32(64))
}

func TestHeatmapViewportUseCase_InvalidBounds(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newViewportUC(repo)

	_, err := uc.GetViewport(context.Background(),
		domain.Bounds{North: 52.0, South: 53.0, East: 17.0, West: 16.0},
		13, testFactors(), testParams(), 0)

	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeInvalidInput, appErr.Code)
}

func TestHeatmapViewportUseCase_AllTilesFailedPropagatesError(t *testing.T) {
	repo := &MockPOIRepository{}
	uc := newViewportUC(repo)

	repo.On("FetchPOIs", mock.Anything, []string{"grocery"}, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := uc.GetViewport(context.Background(), tileBlockBounds(4480, 2725, 2, 2),
		13, testFactors(), testParams(), 0)

	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeStoreUnavailable, appErr.Code)
}
