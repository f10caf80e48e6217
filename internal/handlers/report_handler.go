package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/services"
)

// ReportHandler serves the period aggregation reports.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetMonthlySummary returns the per-category breakdown of one month.
// Year and month default to the current calendar month.
func (h *ReportHandler) GetMonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.MonthlySummary(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetCalendarRollup returns per-day spending totals for one month, keyed
// by day of month. Days without spending are absent.
func (h *ReportHandler) GetCalendarRollup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	daily, err := h.reportService.CalendarRollup(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period": services.Period{Year: year, Month: month},
		"daily":  daily,
	})
}

// GetCategoryDetails returns the raw expenses of one category for a month.
func (h *ReportHandler) GetCategoryDetails(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID := c.Query("category_id")
	if categoryID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id is required"))
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.reportService.CategoryDetails(userID, categoryID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":   services.Period{Year: year, Month: month},
		"expenses": rows,
	})
}

// GetCategoryComparison compares each category's current-month spending
// against its trailing twelve-month average.
func (h *ReportHandler) GetCategoryComparison(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.reportService.CategoryComparison(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":     services.Period{Year: year, Month: month},
		"categories": rows,
	})
}
