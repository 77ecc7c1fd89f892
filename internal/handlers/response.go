package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/velotrace/velotrace-backend/internal/apierr"
)

// respondError maps service errors onto HTTP codes. Anything that is not an
// apierr is an internal error and its detail stays out of the response.
func respondError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		c.JSON(ae.Status, gin.H{"error": ae.Error(), "code": ae.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": "validation"})
		return uuid.Nil, false
	}
	return id, true
}
