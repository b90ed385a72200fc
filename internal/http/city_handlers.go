package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cityRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createCity(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	city, err := h.cities.Create(c.Request.Context(), principal, req.Name)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

func (h *Handler) listCities(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	cities, err := h.cities.List(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}

func (h *Handler) countCities(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	count, err := h.cities.Count(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handler) getCity(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	city, err := h.cities.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *Handler) updateCity(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	city, err := h.cities.Rename(c.Request.Context(), principal, id, req.Name)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *Handler) deleteCity(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.cities.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
