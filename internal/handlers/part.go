package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/services"
)

type PartHandler struct {
	partService services.PartService
}

func NewPartHandler(partService services.PartService) *PartHandler {
	return &PartHandler{partService: partService}
}

func (ph *PartHandler) List(c *gin.Context) {
	bikeID, ok := parseID(c, "bikeID")
	if !ok {
		return
	}
	parts, err := ph.partService.ListParts(c.Request.Context(), bikeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parts": parts})
}

// Install handles all three slot mutations; the body's mode field picks
// between create, replace, and edit.
func (ph *PartHandler) Install(c *gin.Context) {
	bikeID, ok := parseID(c, "bikeID")
	if !ok {
		return
	}
	category, ok := catalog.Parse(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown part category", "code": "validation"})
		return
	}
	var body struct {
		Mode string `json:"mode"`
		services.InstallSpec
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	part, err := ph.partService.InstallComponent(c.Request.Context(), bikeID, category, services.InstallMode(body.Mode), body.InstallSpec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"part": part})
}

func (ph *PartHandler) RecordDistance(c *gin.Context) {
	bikeID, ok := parseID(c, "bikeID")
	if !ok {
		return
	}
	var body struct {
		Delta float64 `json:"delta"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	bike, err := ph.partService.RecordDistanceDelta(c.Request.Context(), bikeID, body.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bike": bike})
}
