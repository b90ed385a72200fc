package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fleet-trips/internal/http/middleware"
	"github.com/nurpe/fleet-trips/internal/model"
	"github.com/nurpe/fleet-trips/internal/service"
)

const dateLayout = "2006-01-02"

type Handler struct {
	trips  *service.TripService
	cities *service.CityService
	log    zerolog.Logger
}

func NewHandler(trips *service.TripService, cities *service.CityService, log zerolog.Logger) *Handler {
	return &Handler{trips: trips, cities: cities, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	trips := protected.Group("/trips")
	trips.POST("", h.createTrip)
	trips.GET("", h.listTrips)
	trips.GET("/search", h.searchTrips)
	trips.GET("/export", h.exportTrips)
	trips.GET("/count/current-week", h.countCurrentWeek)
	trips.GET("/count/last-week", h.countLastWeek)
	trips.GET("/count/by-user", h.countByUser)
	trips.GET("/routes", h.uniqueRoutes)
	trips.GET("/:id", h.getTrip)
	trips.PATCH("/:id", h.updateTrip)
	trips.DELETE("/:id", h.deleteTrip)

	cities := protected.Group("/cities")
	cities.POST("", h.createCity)
	cities.GET("", h.listCities)
	cities.GET("/count", h.countCities)
	cities.GET("/:id", h.getCity)
	cities.PATCH("/:id", h.updateCity)
	cities.DELETE("/:id", h.deleteCity)
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, false
	}
	return principal, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// parseDate accepts RFC 3339 timestamps and zone-less values. Zone-less
// values are read in loc. dateOnly reports whether raw carried no time of day.
func parseDate(raw string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, fmt.Errorf("%w: empty date", service.ErrInvalidInput)
	}
	if loc == nil {
		loc = time.UTC
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		dateLayout,
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed, layout == dateLayout, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: invalid date %q", service.ErrInvalidInput, raw)
}

// rawPayload treats an absent or explicit null JSON value as no payload.
func rawPayload(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}
