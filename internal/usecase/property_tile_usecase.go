package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/heatmap-service/internal/config"
	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/domain/repository"
	pkgerrors "github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/geo"
	"github.com/heatmap-service/internal/repository/tilecache"
	"github.com/heatmap-service/internal/scoring"
	"github.com/heatmap-service/internal/spatial"
	"github.com/heatmap-service/internal/usecase/dto"
)

// verdictBand is how far price may drift from local quality before a
// listing stops being "fair". Percentile points.
const verdictBand = 0.15

// PropertyTileUseCase serves real-estate listings tiled the same way as
// heatmaps, optionally enriched with a price-vs-quality analysis against
// the scoring kernel. Raw listings are cached per tile; the analysis is
// request-scoped (its percentiles depend on the whole viewport) and is
// computed after the tiles come back.
type PropertyTileUseCase struct {
	listings repository.ListingsRepository
	poiStore repository.POIRepository
	cache    *tilecache.Cache[*domain.PropertyTileResult]
	cfg      config.PropertyConfig
	logger   *zap.Logger
	tileZoom int
}

func NewPropertyTileUseCase(
	listings repository.ListingsRepository,
	poiStore repository.POIRepository,
	cache *tilecache.Cache[*domain.PropertyTileResult],
	cfg config.PropertyConfig,
	logger *zap.Logger,
	tileZoom int,
) *PropertyTileUseCase {
	return &PropertyTileUseCase{
		listings: listings,
		poiStore: poiStore,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		tileZoom: tileZoom,
	}
}

// GetViewport returns the property tiles covering bounds.
func (uc *PropertyTileUseCase) GetViewport(
	ctx context.Context,
	bounds domain.Bounds,
	filters domain.PropertyFilters,
	sources []string,
	tileRadius int,
	factors []domain.Factor,
	params *domain.ScoringParams,
) (*dto.PropertyViewportResponse, error) {
	if !bounds.Valid() {
		return nil, pkgerrors.ErrInvalidBounds
	}
	if len(sources) == 0 {
		return nil, pkgerrors.ErrInvalidInput.WithField("sources", sources)
	}

	viewport := geo.BoundsToTiles(bounds, uc.tileZoom)
	if len(viewport) > uc.cfg.MaxViewportTiles {
		return nil, pkgerrors.ErrViewportTooLarge.WithDetails(map[string]interface{}{
			"observed": len(viewport),
			"max":      uc.cfg.MaxViewportTiles,
		})
	}

	all := viewport
	for r := tileRadius; r >= 0; r-- {
		expanded := geo.ExpandByRadius(viewport, r)
		if len(expanded) <= uc.cfg.MaxTotalTiles {
			all = expanded
			break
		}
	}

	fp := tilecache.PropertyFingerprint(filters, sources)

	outcomes := runBatches(ctx, all, uc.cfg.BatchSize, uc.cfg.BatchDelay,
		func(ctx context.Context, t domain.Tile) (*domain.PropertyTileResult, error) {
			return uc.getTile(ctx, t, fp, filters, sources)
		})

	resp := &dto.PropertyViewportResponse{
		Tiles:   make([]dto.TileRef, 0, len(viewport)),
		Results: make([]dto.PropertyTileResponse, 0, len(viewport)),
	}

	var succeeded []*domain.PropertyTileResult
	failed := 0
	for _, out := range outcomes[:len(viewport)] {
		if out.err != nil {
			failed++
			resp.Errors = append(resp.Errors, dto.TileError{
				Coords: dto.TileRefFromDomain(out.tile),
				Error:  out.err.Error(),
			})
			continue
		}
		succeeded = append(succeeded, out.value)
	}

	if failed == len(viewport) {
		uc.logger.Error("All property tiles failed",
			zap.Int("tiles", len(viewport)), zap.Error(outcomes[0].err))
		return nil, outcomes[0].err
	}

	if len(factors) > 0 && params != nil {
		// Cached tiles carry listings without analysis. Re-enrich copies so
		// a request with different factors never sees a stale verdict.
		succeeded = uc.enrich(ctx, succeeded, factors, *params)
	}

	for _, r := range succeeded {
		resp.Tiles = append(resp.Tiles, dto.TileRefFromDomain(r.Coords))
		resp.Results = append(resp.Results, dto.PropertyTileResponse{
			Coordinates: dto.TileRefFromDomain(r.Coords),
			Properties:  r.Properties,
			Clusters:    r.Clusters,
			TotalCount:  r.TotalCount,
			GeneratedAt: r.GeneratedAt,
		})
	}

	return resp, nil
}

// getTile returns one property tile, from cache or the listings source.
func (uc *PropertyTileUseCase) getTile(
	ctx context.Context,
	tile domain.Tile,
	fingerprint string,
	filters domain.PropertyFilters,
	sources []string,
) (*domain.PropertyTileResult, error) {
	result, err := uc.cache.GetOrBuild(ctx, tile, fingerprint, func(bctx context.Context) (*domain.PropertyTileResult, error) {
		page, err := uc.listings.FetchListings(bctx, geo.TileToBounds(tile), filters, sources)
		if err != nil {
			return nil, fmt.Errorf("fetch listings for %s: %w", tile.String(), err)
		}

		props := make([]domain.EnrichedListing, 0, len(page.Properties))
		for _, l := range page.Properties {
			props = append(props, domain.EnrichedListing{Listing: l})
		}
		return &domain.PropertyTileResult{
			Coords:      tile,
			Properties:  props,
			Clusters:    page.Clusters,
			TotalCount:  page.TotalCount,
			GeneratedAt: time.Now().UTC(),
		}, nil
	})
	if err != nil {
		var appErr *pkgerrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		uc.logger.Error("Property tile failed",
			zap.String("tile", tile.String()), zap.Error(err))
		return nil, pkgerrors.ErrStoreUnavailable.WithDetails(map[string]interface{}{
			"tile": tile.String(),
		})
	}
	return result, nil
}

// enrich attaches a price-vs-quality analysis to every listing. A listing
// is a bargain when its price percentile sits well below the percentile of
// its location quality, overpriced in the opposite case. Failure to score
// quality degrades to plain listings rather than failing the request.
func (uc *PropertyTileUseCase) enrich(
	ctx context.Context,
	tiles []*domain.PropertyTileResult,
	factors []domain.Factor,
	params domain.ScoringParams,
) []*domain.PropertyTileResult {
	if err := scoring.ValidateInputs(factors, params); err != nil {
		uc.logger.Warn("Skipping price analysis, invalid scoring inputs", zap.Error(err))
		return tiles
	}

	type ref struct {
		tile int
		prop int
	}
	var refs []ref
	var points []domain.LatLng
	for ti, t := range tiles {
		for pi, p := range t.Properties {
			refs = append(refs, ref{tile: ti, prop: pi})
			points = append(points, domain.LatLng{Lat: p.Lat, Lng: p.Lng})
		}
	}
	if len(points) == 0 {
		return tiles
	}

	kernel, err := uc.buildKernel(ctx, points, factors, params)
	if err != nil {
		uc.logger.Warn("Skipping price analysis, POI fetch failed", zap.Error(err))
		return tiles
	}

	// Copy before mutating: the slices inside tiles are shared with the
	// cache entries.
	out := make([]*domain.PropertyTileResult, len(tiles))
	for i, t := range tiles {
		clone := *t
		clone.Properties = make([]domain.EnrichedListing, len(t.Properties))
		copy(clone.Properties, t.Properties)
		out[i] = &clone
	}

	quality := make([]float64, len(points))
	pricePerM2 := make([]float64, len(points))
	for i, p := range points {
		quality[i] = kernel.EvaluatePoint(p.Lat, p.Lng)
		l := out[refs[i].tile].Properties[refs[i].prop].Listing
		if l.Area > 0 {
			pricePerM2[i] = l.Price / l.Area
		} else {
			pricePerM2[i] = l.Price
		}
	}

	// Quality goodness: K is 0-best, flip it so both percentile axes point
	// the same way.
	goodness := make([]float64, len(quality))
	for i, k := range quality {
		goodness[i] = 1 - k
	}

	pricePct := percentiles(pricePerM2)
	qualityPct := percentiles(goodness)

	for i, r := range refs {
		verdict := domain.VerdictFair
		switch diff := pricePct[i] - qualityPct[i]; {
		case diff < -verdictBand:
			verdict = domain.VerdictBargain
		case diff > verdictBand:
			verdict = domain.VerdictOverpriced
		}

		l := out[r.tile].Properties[r.prop].Listing
		analysis := &domain.PriceAnalysis{
			QualityK:        quality[i],
			PricePercentile: pricePct[i],
			Verdict:         verdict,
		}
		if l.Area > 0 {
			analysis.PricePerM2 = pricePerM2[i]
		}
		out[r.tile].Properties[r.prop].Analysis = analysis
	}

	return out
}

// buildKernel fetches POIs covering every listing location plus the factor
// horizons and assembles the scoring kernel.
func (uc *PropertyTileUseCase) buildKernel(
	ctx context.Context,
	points []domain.LatLng,
	factors []domain.Factor,
	params domain.ScoringParams,
) (*scoring.Kernel, error) {
	hull := domain.Bounds{North: -90, South: 90, East: -180, West: 180}
	for _, p := range points {
		if p.Lat > hull.North {
			hull.North = p.Lat
		}
		if p.Lat < hull.South {
			hull.South = p.Lat
		}
		if p.Lng > hull.East {
			hull.East = p.Lng
		}
		if p.Lng < hull.West {
			hull.West = p.Lng
		}
	}

	indexes := make(map[string]*spatial.Index)
	for _, f := range factors {
		if !f.Contributing() {
			continue
		}
		dLat := f.MaxDistance / geo.MetersPerDegreeLat
		dLng := dLat
		if m := geo.MetersPerDegreeLng(hull.Center().Lat); m > 0 {
			dLng = f.MaxDistance / m
		}
		pois, err := uc.poiStore.FetchPOIs(ctx, f.StoreTags(), hull.Pad(dLat, dLng))
		if err != nil {
			return nil, err
		}
		indexes[f.ID] = spatial.NewIndex(pois)
	}
	return scoring.NewKernel(factors, indexes, params), nil
}

// percentiles maps each value to its mid-rank percentile in [0,1]. Ties
// share a percentile so identical prices get identical verdict inputs.
func percentiles(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 1 {
		out[0] = 0.5
		return out
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	i := 0
	for i < n {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		pct := (float64(i) + float64(j)) / 2 / float64(n-1)
		for k := i; k <= j; k++ {
			out[idx[k]] = pct
		}
		i = j + 1
	}
	return out
}
