package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/services"
)

type GarageHandler struct {
	garageService services.GarageService
}

func NewGarageHandler(garageService services.GarageService) *GarageHandler {
	return &GarageHandler{garageService: garageService}
}

func (gh *GarageHandler) Detach(c *gin.Context) {
	bikeID, ok := parseID(c, "bikeID")
	if !ok {
		return
	}
	category, ok := catalog.Parse(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown part category", "code": "validation"})
		return
	}
	stored, err := gh.garageService.Detach(c.Request.Context(), bikeID, category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored_part": stored})
}

func (gh *GarageHandler) Install(c *gin.Context) {
	storedPartID, ok := parseID(c, "storedPartID")
	if !ok {
		return
	}
	var body struct {
		BikeID uuid.UUID `json:"bike_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	part, err := gh.garageService.InstallFromGarage(c.Request.Context(), storedPartID, body.BikeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"part": part})
}

func (gh *GarageHandler) List(c *gin.Context) {
	stored, err := gh.garageService.ListGarage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored_parts": stored})
}

func (gh *GarageHandler) Discard(c *gin.Context) {
	storedPartID, ok := parseID(c, "storedPartID")
	if !ok {
		return
	}
	if err := gh.garageService.Discard(c.Request.Context(), storedPartID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
