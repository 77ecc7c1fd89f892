package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/services"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (ph *ProductHandler) Get(c *gin.Context) {
	productID, ok := parseID(c, "productID")
	if !ok {
		return
	}
	product, err := ph.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (ph *ProductHandler) ListByCategory(c *gin.Context) {
	category, ok := catalog.Parse(c.Query("category"))
	if !ok {
		// Catalog categories include the canonical pooled names that are not
		// installable slots, so fall back to the raw value for those.
		category = catalog.Category(c.Query("category"))
		if category == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category is required", "code": "validation"})
			return
		}
	}
	products, err := ph.productService.ListByCategory(c.Request.Context(), category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
