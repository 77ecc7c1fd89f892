package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velotrace/velotrace-backend/internal/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (rh *ReviewHandler) Upsert(c *gin.Context) {
	var body services.ReviewInput
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	review, err := rh.reviewService.UpsertReview(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

func (rh *ReviewHandler) Delete(c *gin.Context) {
	reviewID, ok := parseID(c, "reviewID")
	if !ok {
		return
	}
	if err := rh.reviewService.DeleteReview(c.Request.Context(), reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (rh *ReviewHandler) ListForProduct(c *gin.Context) {
	productID, ok := parseID(c, "productID")
	if !ok {
		return
	}
	reviews, err := rh.reviewService.ListProductReviews(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
