package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Heatmap   HeatmapConfig
	Property  PropertyConfig
	Evaluator EvaluatorConfig
	Listings  ListingsConfig
	Admin     AdminConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	// DSN - POI store connection string (DATABASE_URL).
	DSN             string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type CacheConfig struct {
	// URL - optional shared L2 backend (CACHE_URL). Empty disables L2.
	URL string

	HeatmapTTL         time.Duration
	PropertyTTL        time.Duration
	POITTL             time.Duration
	HeatmapMaxEntries  int
	PropertyMaxEntries int
}

type HeatmapConfig struct {
	POITileZoom      int
	HeatmapTileZoom  int
	MaxViewportTiles int
	MaxTotalTiles    int
	BatchSize        int
	BatchDelay       time.Duration
	TileDeadline     time.Duration
}

type PropertyConfig struct {
	MaxViewportTiles int
	MaxTotalTiles    int
	BatchSize        int
	BatchDelay       time.Duration
}

type EvaluatorConfig struct {
	// MaxWorkers - override for the parallel evaluator (MAX_WORKERS).
	// 0 means min(cpus, 8).
	MaxWorkers int
}

type ListingsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type AdminConfig struct {
	// Secret gates the tile-prewarm endpoint (ADMIN_SECRET).
	Secret string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// A missing .env is fine in container deployments; the environment
	// carries everything.
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			DSN:             viper.GetString("DATABASE_URL"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Cache: CacheConfig{
			URL:                viper.GetString("CACHE_URL"),
			HeatmapTTL:         time.Duration(viper.GetInt("HEATMAP_CACHE_TTL")) * time.Second,
			PropertyTTL:        time.Duration(viper.GetInt("PROPERTY_CACHE_TTL")) * time.Second,
			POITTL:             time.Duration(viper.GetInt("POI_CACHE_TTL")) * time.Second,
			HeatmapMaxEntries:  viper.GetInt("HEATMAP_CACHE_MAX_ENTRIES"),
			PropertyMaxEntries: viper.GetInt("PROPERTY_CACHE_MAX_ENTRIES"),
		},
		Heatmap: HeatmapConfig{
			POITileZoom:      viper.GetInt("POI_TILE_ZOOM"),
			HeatmapTileZoom:  viper.GetInt("HEATMAP_TILE_ZOOM"),
			MaxViewportTiles: viper.GetInt("HEATMAP_MAX_VIEWPORT_TILES"),
			MaxTotalTiles:    viper.GetInt("HEATMAP_MAX_TOTAL_TILES"),
			BatchSize:        viper.GetInt("HEATMAP_BATCH_SIZE"),
			BatchDelay:       time.Duration(viper.GetInt("HEATMAP_BATCH_DELAY_MS")) * time.Millisecond,
			TileDeadline:     time.Duration(viper.GetInt("TILE_DEADLINE_SEC")) * time.Second,
		},
		Property: PropertyConfig{
			MaxViewportTiles: viper.GetInt("PROPERTY_MAX_VIEWPORT_TILES"),
			MaxTotalTiles:    viper.GetInt("PROPERTY_MAX_TOTAL_TILES"),
			BatchSize:        viper.GetInt("PROPERTY_BATCH_SIZE"),
			BatchDelay:       time.Duration(viper.GetInt("PROPERTY_BATCH_DELAY_MS")) * time.Millisecond,
		},
		Evaluator: EvaluatorConfig{
			MaxWorkers: viper.GetInt("MAX_WORKERS"),
		},
		Listings: ListingsConfig{
			BaseURL: viper.GetString("LISTINGS_BASE_URL"),
			APIKey:  viper.GetString("LISTINGS_API_KEY"),
			Timeout: time.Duration(viper.GetInt("LISTINGS_TIMEOUT_SEC")) * time.Second,
		},
		Admin: AdminConfig{
			Secret: viper.GetString("ADMIN_SECRET"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	applyDefaults(cfg)

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10 * time.Minute
	}
	if cfg.Cache.HeatmapTTL == 0 {
		cfg.Cache.HeatmapTTL = 24 * time.Hour
	}
	if cfg.Cache.PropertyTTL == 0 {
		cfg.Cache.PropertyTTL = 12 * time.Hour
	}
	if cfg.Cache.POITTL == 0 {
		cfg.Cache.POITTL = 24 * time.Hour
	}
	if cfg.Cache.HeatmapMaxEntries == 0 {
		cfg.Cache.HeatmapMaxEntries = 10_000
	}
	if cfg.Cache.PropertyMaxEntries == 0 {
		cfg.Cache.PropertyMaxEntries = 1_000
	}
	if cfg.Heatmap.POITileZoom == 0 {
		cfg.Heatmap.POITileZoom = 13
	}
	if cfg.Heatmap.HeatmapTileZoom == 0 {
		cfg.Heatmap.HeatmapTileZoom = 13
	}
	if cfg.Heatmap.MaxViewportTiles == 0 {
		cfg.Heatmap.MaxViewportTiles = 36
	}
	if cfg.Heatmap.MaxTotalTiles == 0 {
		cfg.Heatmap.MaxTotalTiles = 64
	}
	if cfg.Heatmap.BatchSize == 0 {
		cfg.Heatmap.BatchSize = 5
	}
	if cfg.Heatmap.BatchDelay == 0 {
		cfg.Heatmap.BatchDelay = time.Millisecond
	}
	if cfg.Heatmap.TileDeadline == 0 {
		cfg.Heatmap.TileDeadline = 60 * time.Second
	}
	if cfg.Property.MaxViewportTiles == 0 {
		cfg.Property.MaxViewportTiles = 25
	}
	if cfg.Property.MaxTotalTiles == 0 {
		cfg.Property.MaxTotalTiles = 50
	}
	if cfg.Property.BatchSize == 0 {
		cfg.Property.BatchSize = 5
	}
	if cfg.Property.BatchDelay == 0 {
		// The property pipeline throttles out of courtesy to the external
		// listings source.
		cfg.Property.BatchDelay = 100 * time.Millisecond
	}
	if cfg.Listings.Timeout == 0 {
		cfg.Listings.Timeout = 15 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
