package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nurpe/fleet-trips/internal/auth"
	"github.com/nurpe/fleet-trips/internal/cache"
	"github.com/nurpe/fleet-trips/internal/classifier"
	"github.com/nurpe/fleet-trips/internal/config"
	"github.com/nurpe/fleet-trips/internal/db"
	"github.com/nurpe/fleet-trips/internal/excel"
	httphandler "github.com/nurpe/fleet-trips/internal/http"
	"github.com/nurpe/fleet-trips/internal/http/middleware"
	"github.com/nurpe/fleet-trips/internal/logger"
	"github.com/nurpe/fleet-trips/internal/pdf"
	"github.com/nurpe/fleet-trips/internal/repository"
	"github.com/nurpe/fleet-trips/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})

	var (
		tripStore service.TripStore
		cityStore service.CityStore
	)
	switch cfg.DB.Driver {
	case config.DBDriverMemory:
		memory := repository.NewMemory()
		tripStore, cityStore = memory, memory
		log.Warn().Msg("using in-memory store, data is lost on restart")
	default:
		database, err := db.New(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		tripStore = repository.NewTripRepository(database)
		cityStore = repository.NewCityRepository(database)
	}

	var routeCache service.RouteCache
	if cfg.Cache.RedisURL != "" {
		redisRoutes, err := cache.NewRedisRoutes(cfg.Cache.RedisURL, cfg.Cache.RoutesTTL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		defer redisRoutes.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisRoutes.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, routes are served uncached until it recovers")
		}
		cancel()
		routeCache = redisRoutes
	}

	conductClassifier := classifier.New(cfg.Classifier, log)
	tripService := service.NewTripService(
		tripStore,
		cityStore,
		conductClassifier,
		routeCache,
		excel.NewGenerator(),
		pdf.NewGenerator(),
		cfg,
		log,
	)
	cityService := service.NewCityService(cityStore, routeCache)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(tripService, cityService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().
		Str("addr", addr).
		Str("db_driver", cfg.DB.Driver).
		Str("classifier", cfg.Classifier.BaseURL).
		Msg("starting trips service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
