package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/fleet-trips/internal/config"
	"github.com/nurpe/fleet-trips/internal/metrics"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.RegisterDefault()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginlogger.SetLogger(
		ginlogger.WithLogger(func(_ *gin.Context, _ zerolog.Logger) zerolog.Logger {
			return log.With().Str("component", "http").Logger()
		}),
		ginlogger.WithSkipPath([]string{"/healthz", "/metrics"}),
	))
	router.Use(cors.New(corsConfig(cfg.HTTP.AllowedOrigins)))
	router.Use(metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	handler.Register(router, authMiddleware)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
