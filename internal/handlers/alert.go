package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velotrace/velotrace-backend/internal/services"
)

type AlertHandler struct {
	alertService services.AlertService
}

func NewAlertHandler(alertService services.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

func (ah *AlertHandler) List(c *gin.Context) {
	alerts, err := ah.alertService.ListAlerts(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (ah *AlertHandler) Acknowledge(c *gin.Context) {
	alertID, ok := parseID(c, "alertID")
	if !ok {
		return
	}
	alert, err := ah.alertService.Acknowledge(c.Request.Context(), alertID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": alert})
}

func (ah *AlertHandler) Dismiss(c *gin.Context) {
	alertID, ok := parseID(c, "alertID")
	if !ok {
		return
	}
	alert, err := ah.alertService.Dismiss(c.Request.Context(), alertID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": alert})
}
