package main

// @title Heatmap Service API
// @version 1.0.0
// @description Location-quality heatmap tile service. Scores map locations against user-weighted proximity factors (transit, schools, parks, noise sources) backed by OpenStreetMap POIs, and serves tiled real-estate listings with price-vs-quality analysis.
// @description
// @description Main capabilities:
// @description - Heatmap tiles and viewport batches at a fixed server-side zoom
// @description - Per-factor score breakdowns for map popups
// @description - Tiled property listings from external sources
// @description - Admin tile prewarming and cache statistics

// @contact.name API Support
// @contact.email support@heatmap-service.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/heatmap-service/docs/swagger"
	"github.com/heatmap-service/internal/config"
	httpDelivery "github.com/heatmap-service/internal/delivery/http"
	"github.com/heatmap-service/internal/delivery/http/handler"
	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/domain/repository"
	"github.com/heatmap-service/internal/evaluator"
	"github.com/heatmap-service/internal/infrastructure/listings"
	"github.com/heatmap-service/internal/pkg/logger"
	"github.com/heatmap-service/internal/repository/cache"
	"github.com/heatmap-service/internal/repository/poicache"
	"github.com/heatmap-service/internal/repository/postgres"
	"github.com/heatmap-service/internal/repository/tilecache"
	"github.com/heatmap-service/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Heatmap Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

	// 3. Connect to the POI store
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to POI store", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close POI store connection", zap.Error(err))
		}
	}()

	// 4. Connect to the shared cache tier (optional)
	var l2 *cache.Redis
	if cfg.Cache.URL != "" {
		l2, err = cache.NewRedis(cfg.Cache.URL, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := l2.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
	} else {
		log.Info("CACHE_URL not set, running with in-process caches only")
	}

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("POI store health check failed", zap.Error(err))
	}
	if l2 != nil {
		if err := l2.Health(ctx); err != nil {
			log.Fatal("Redis health check failed", zap.Error(err))
		}
	}

	log.Info("All connections healthy")

	// 6. Initialize repositories and caches
	poiRepo := postgres.NewPOIRepository(db)
	poiStore := poicache.New(poiRepo, cfg.Heatmap.POITileZoom, cfg.Cache.POITTL, log)

	heatmapCache := tilecache.New[*domain.TileResult](
		"heatmap", cfg.Cache.HeatmapMaxEntries, cfg.Cache.HeatmapTTL, l2AsRepo(l2), log)
	propertyCache := tilecache.New[*domain.PropertyTileResult](
		"property", cfg.Cache.PropertyMaxEntries, cfg.Cache.PropertyTTL, l2AsRepo(l2), log)

	listingsClient := listings.NewClient(&cfg.Listings, log)

	log.Info("Repositories initialized")

	// 7. Initialize use cases
	eval := evaluator.New(cfg.Evaluator.MaxWorkers, log)

	tileUC := usecase.NewHeatmapTileUseCase(
		poiStore, heatmapCache, eval, log,
		cfg.Heatmap.HeatmapTileZoom, cfg.Heatmap.TileDeadline)
	viewportUC := usecase.NewHeatmapViewportUseCase(tileUC, cfg.Heatmap, log)
	breakdownUC := usecase.NewBreakdownUseCase(poiStore, log)
	propertyUC := usecase.NewPropertyTileUseCase(
		listingsClient, poiStore, propertyCache, cfg.Property, log,
		cfg.Heatmap.HeatmapTileZoom)
	prewarmUC := usecase.NewPrewarmUseCase(tileUC, cfg.Heatmap, log)
	statsUC := usecase.NewStatsUseCase(heatmapCache, propertyCache, poiStore)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP handlers
	heatmapHandler := handler.NewHeatmapHandler(tileUC, viewportUC, log)
	breakdownHandler := handler.NewBreakdownHandler(breakdownUC, log)
	propertyHandler := handler.NewPropertyHandler(propertyUC, log)
	adminHandler := handler.NewAdminHandler(prewarmUC, log)
	statsHandler := handler.NewStatsHandler(statsUC, log)

	log.Info("HTTP handlers initialized")

	// 9. Initialize HTTP server
	server := httpDelivery.NewServer(
		cfg,
		log,
		heatmapHandler,
		breakdownHandler,
		propertyHandler,
		adminHandler,
		statsHandler,
	)

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}

// l2AsRepo adapts the optional Redis connection to the cache contract. A
// nil connection yields a nil interface, which disables the L2 tier.
func l2AsRepo(r *cache.Redis) repository.CacheRepository {
	if r == nil {
		return nil
	}
	return cache.NewCacheRepository(r)
}
