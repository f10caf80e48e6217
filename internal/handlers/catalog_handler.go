package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/services"
)

// CatalogHandler serves read-only catalog lookups for entry forms.
type CatalogHandler struct {
	catalogService services.CatalogServicer
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService services.CatalogServicer) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories returns every known category.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListVendors returns every known vendor.
func (h *CatalogHandler) ListVendors(c *gin.Context) {
	vendors, err := h.catalogService.ListVendors()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

// ListBrands returns every distinct non-empty brand.
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	brands, err := h.catalogService.ListBrands()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// SearchProducts matches products by name substring for autocomplete. An
// empty query returns an empty list rather than an error.
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	query := c.Query("q")

	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 50 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be between 1 and 50"))
			return
		}
		limit = parsed
	}

	products, err := h.catalogService.SearchProducts(query, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
