package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/services"
)

// PriceHandler serves the pincode-scoped price comparison report.
type PriceHandler struct {
	priceService services.PriceServicer
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(priceService services.PriceServicer) *PriceHandler {
	return &PriceHandler{priceService: priceService}
}

// GetPriceComparison analyzes the requester's recent purchases against
// prices paid by users in the same pincode. The days query parameter sets
// the trailing window, defaulting to 30.
func (h *PriceHandler) GetPriceComparison(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	days := 30
	if daysStr := c.Query("days"); daysStr != "" {
		days, err = strconv.Atoi(daysStr)
		if err != nil || days < 1 || days > 365 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must be between 1 and 365"))
			return
		}
	}

	report, err := h.priceService.ComparePrices(userID, days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
