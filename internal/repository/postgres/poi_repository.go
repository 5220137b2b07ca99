package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/domain/repository"
)

// poiSelect queries osm_pois by factor_id and a geographic envelope. The
// envelope hits the GIST index on geom; lat/lng columns carry the decoded
// coordinates so no ST_X/ST_Y round-trip is needed at serving time. A
// factor maps to one or more factor_id values (its OSM tags), hence the
// ANY match.
const poiSelect = `
	SELECT
		id,
		factor_id,
		lat,
		lng,
		COALESCE(name, '') AS name
	FROM osm_pois
	WHERE factor_id = ANY($1)
	  AND ST_Intersects(
		geom,
		ST_MakeEnvelope($2, $3, $4, $5, 4326)::geography
	  )
`

type poiRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

type poiRow struct {
	ID       int64   `db:"id"`
	FactorID string  `db:"factor_id"`
	Lat      float64 `db:"lat"`
	Lng      float64 `db:"lng"`
	Name     string  `db:"name"`
}

// NewPOIRepository creates the osm_pois repository.
func NewPOIRepository(db *DB) repository.POIRepository {
	return &poiRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *poiRepository) FetchPOIs(ctx context.Context, factorTags []string, bounds domain.Bounds) ([]domain.POI, error) {
	rows, err := r.db.QueryxContext(ctx, poiSelect,
		pq.Array(factorTags), bounds.West, bounds.South, bounds.East, bounds.North)
	if err != nil {
		r.logger.Error("failed to query pois",
			zap.Strings("factor_tags", factorTags),
			zap.Error(err))
		return nil, fmt.Errorf("query pois for tags %v: %w", factorTags, err)
	}
	defer rows.Close()

	var result []domain.POI
	for rows.Next() {
		var row poiRow
		if err := rows.StructScan(&row); err != nil {
			r.logger.Error("failed to scan poi row", zap.Error(err))
			return nil, fmt.Errorf("scan poi row: %w", err)
		}
		result = append(result, domain.POI{
			ID:       row.ID,
			FactorID: row.FactorID,
			Lat:      row.Lat,
			Lng:      row.Lng,
			Name:     row.Name,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate poi rows: %w", err)
	}

	return result, nil
}

func (r *poiRepository) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
