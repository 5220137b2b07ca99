package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/config"
)

// DB wraps the POI store connection (osm_pois + poi_sync_metadata tables,
// populated out-of-band by the extraction pipeline).
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

// New connects to the POI store using DATABASE_URL.
func New(cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to poi store: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping poi store: %w", err)
	}

	logger.Info("POI store connected", zap.Int("max_conns", cfg.MaxConns))

	return &DB{DB: db, logger: logger}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.logger.Info("Closing POI store connection")
	return db.DB.Close()
}

// Health pings the store.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// NewDBForTest wraps an existing sqlx handle for tests.
func NewDBForTest(sqlxDB *sqlx.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{DB: sqlxDB, logger: logger}
}
