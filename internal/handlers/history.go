package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velotrace/velotrace-backend/internal/services"
)

type HistoryHandler struct {
	historyService services.HistoryService
}

func NewHistoryHandler(historyService services.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

func (hh *HistoryHandler) ListForBike(c *gin.Context) {
	bikeID, ok := parseID(c, "bikeID")
	if !ok {
		return
	}
	entries, err := hh.historyService.ListBikeHistory(c.Request.Context(), bikeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (hh *HistoryHandler) ListForPart(c *gin.Context) {
	partID, ok := parseID(c, "partID")
	if !ok {
		return
	}
	entries, err := hh.historyService.ListPartHistory(c.Request.Context(), partID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (hh *HistoryHandler) Undo(c *gin.Context) {
	historyID, ok := parseID(c, "historyID")
	if !ok {
		return
	}
	part, err := hh.historyService.UndoReplacement(c.Request.Context(), historyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"part": part})
}
