package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/fleet-trips/internal/model"
	"github.com/nurpe/fleet-trips/internal/service"
)

type createTripRequest struct {
	UserID        string          `json:"user_id"`
	OriginID      string          `json:"origin_id" binding:"required"`
	DestinationID string          `json:"destination_id" binding:"required"`
	StartDate     string          `json:"start_date" binding:"required"`
	InputConduct  json.RawMessage `json:"input_conduct"`
}

type alertDetailRequest struct {
	OccurredAt string `json:"occurred_at"`
	Type       string `json:"type"`
	Responded  bool   `json:"responded"`
}

type updateTripRequest struct {
	Status        *string              `json:"status"`
	StartDate     *string              `json:"start_date"`
	EndDate       *string              `json:"end_date"`
	OriginID      *string              `json:"origin_id"`
	DestinationID *string              `json:"destination_id"`
	InputConduct  json.RawMessage      `json:"input_conduct"`
	Details       []alertDetailRequest `json:"details"`
}

func (h *Handler) createTrip(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req createTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID uuid.UUID
	if strings.TrimSpace(req.UserID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(req.UserID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		userID = parsed
	}
	originID, err := uuid.Parse(strings.TrimSpace(req.OriginID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid origin_id"})
		return
	}
	destinationID, err := uuid.Parse(strings.TrimSpace(req.DestinationID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid destination_id"})
		return
	}
	start, _, err := parseDate(req.StartDate, h.trips.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}

	trip, err := h.trips.Create(c.Request.Context(), service.CreateTripInput{
		Principal:         principal,
		UserID:            userID,
		OriginCityID:      originID,
		DestinationCityID: destinationID,
		StartDate:         start,
		ConductInput:      rawPayload(req.InputConduct),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *Handler) updateTrip(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch, err := req.toPatch(h.trips.Location())
	if err != nil {
		h.handleError(c, err)
		return
	}

	trip, err := h.trips.Update(c.Request.Context(), principal, id, patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (req updateTripRequest) toPatch(loc *time.Location) (service.TripPatch, error) {
	patch := service.TripPatch{ConductInput: rawPayload(req.InputConduct)}

	if req.Status != nil {
		status := model.TripStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		patch.Status = &status
	}
	if req.StartDate != nil {
		start, _, err := parseDate(*req.StartDate, loc)
		if err != nil {
			return patch, fmt.Errorf("%w: invalid start_date", service.ErrInvalidInput)
		}
		patch.StartDate = &start
	}
	if req.EndDate != nil {
		end, _, err := parseDate(*req.EndDate, loc)
		if err != nil {
			return patch, fmt.Errorf("%w: invalid end_date", service.ErrInvalidInput)
		}
		patch.EndDate = &end
	}
	if req.OriginID != nil {
		originID, err := uuid.Parse(strings.TrimSpace(*req.OriginID))
		if err != nil {
			return patch, fmt.Errorf("%w: invalid origin_id", service.ErrInvalidInput)
		}
		patch.OriginCityID = &originID
	}
	if req.DestinationID != nil {
		destinationID, err := uuid.Parse(strings.TrimSpace(*req.DestinationID))
		if err != nil {
			return patch, fmt.Errorf("%w: invalid destination_id", service.ErrInvalidInput)
		}
		patch.DestinationCityID = &destinationID
	}
	for _, detail := range req.Details {
		input := service.AlertDetailInput{Type: strings.TrimSpace(detail.Type), Responded: detail.Responded}
		if strings.TrimSpace(detail.OccurredAt) != "" {
			occurred, _, err := parseDate(detail.OccurredAt, loc)
			if err != nil {
				return patch, fmt.Errorf("%w: invalid details.occurred_at", service.ErrInvalidInput)
			}
			input.OccurredAt = occurred
		}
		patch.Details = append(patch.Details, input)
	}
	return patch, nil
}

func (h *Handler) getTrip(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	trip, err := h.trips.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *Handler) deleteTrip(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.trips.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listTrips(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	trips, err := h.trips.List(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (h *Handler) searchTrips(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	filters, ok := parseFilters(c, h.trips.Location())
	if !ok {
		return
	}

	trips, err := h.trips.Search(c.Request.Context(), principal, filters)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (h *Handler) exportTrips(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	filters, ok := parseFilters(c, h.trips.Location())
	if !ok {
		return
	}

	format := model.ExportFormat(strings.ToUpper(strings.TrimSpace(c.DefaultQuery("format", "xlsx"))))
	result, err := h.trips.Export(c.Request.Context(), principal, filters, format)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) countCurrentWeek(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	count, err := h.trips.CountCurrentWeek(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

func (h *Handler) countLastWeek(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	count, err := h.trips.CountPreviousWeek(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

func (h *Handler) countByUser(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var driverID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("driver")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid driver"})
			return
		}
		driverID = &parsed
	}

	count, err := h.trips.CountByDriver(c.Request.Context(), principal, driverID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handler) uniqueRoutes(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	routes, err := h.trips.UniqueRoutes(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

// parseFilters reads the search query. A date-only dateTo covers the whole
// day in loc.
func parseFilters(c *gin.Context, loc *time.Location) (model.TripFilters, bool) {
	var filters model.TripFilters

	if raw := c.Query("dateFrom"); raw != "" {
		from, _, err := parseDate(raw, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateFrom"})
			return filters, false
		}
		filters.DateFrom = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, dateOnly, err := parseDate(raw, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateTo"})
			return filters, false
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
		filters.DateTo = &to
	}
	if raw := strings.TrimSpace(c.Query("driver")); raw != "" {
		driverID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid driver"})
			return filters, false
		}
		filters.DriverID = &driverID
	}
	filters.Destination = strings.TrimSpace(c.Query("destination"))
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.TripStatus(strings.ToUpper(raw))
		filters.Status = &status
	}
	return filters, true
}
