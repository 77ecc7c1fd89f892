package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velotrace/velotrace-backend/internal/services"
)

type BikeHandler struct {
	bikeService services.BikeService
}

func NewBikeHandler(bikeService services.BikeService) *BikeHandler {
	return &BikeHandler{bikeService: bikeService}
}

func (bh *BikeHandler) Create(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	bike, err := bh.bikeService.CreateBike(c.Request.Context(), body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bike": bike})
}

func (bh *BikeHandler) Get(c *gin.Context) {
	bikeID, ok := parseID(c, "bikeID")
	if !ok {
		return
	}
	bike, err := bh.bikeService.GetBike(c.Request.Context(), bikeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bike": bike})
}

func (bh *BikeHandler) List(c *gin.Context) {
	bikes, err := bh.bikeService.ListBikes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bikes": bikes})
}
