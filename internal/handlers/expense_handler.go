package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/pagination"
	"kharcha/internal/services"
)

// ExpenseHandler handles expense ingestion and the recent-expenses feed.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		auditService:   auditService,
	}
}

// ExpenseItemRequest is one line item of an ingestion request. Numeric
// bounds are enforced by the ingestion engine, which also recomputes the
// advisory total.
type ExpenseItemRequest struct {
	ProductName  string          `json:"product_name" binding:"required,max=200"`
	Brand        string          `json:"brand" binding:"max=200"`
	CategoryName string          `json:"category_name" binding:"required,max=100"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Total        decimal.Decimal `json:"total"`
}

// BatchExpenseRequest is an atomic multi-item purchase, typically one
// receipt. Date defaults to the ingestion time when absent.
type BatchExpenseRequest struct {
	Vendor string               `json:"vendor" binding:"required,max=200"`
	Date   string               `json:"date"`
	Items  []ExpenseItemRequest `json:"items" binding:"required,min=1,dive"`
}

// SingleExpenseRequest is the one-item convenience form.
type SingleExpenseRequest struct {
	Vendor string             `json:"vendor" binding:"required,max=200"`
	Date   string             `json:"date"`
	Item   ExpenseItemRequest `json:"item" binding:"required"`
}

func toItemInput(item ExpenseItemRequest) services.ExpenseItemInput {
	return services.ExpenseItemInput{
		ProductName:  item.ProductName,
		Brand:        item.Brand,
		CategoryName: item.CategoryName,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		Total:        item.Total,
	}
}

// IngestBatch records all items of a purchase atomically. Either every
// item lands or none do.
func (h *ExpenseHandler) IngestBatch(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BatchExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = parseDate(req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	items := make([]services.ExpenseItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, toItemInput(item))
	}

	expenses, err := h.expenseService.IngestBatch(userID, req.Vendor, date, items)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ingest_batch", "expense", "", c.ClientIP(), map[string]interface{}{
		"vendor":     req.Vendor,
		"item_count": len(expenses),
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Expenses recorded successfully",
		"count":    len(expenses),
		"expenses": expenses,
	})
}

// IngestSingle records a one-item purchase.
func (h *ExpenseHandler) IngestSingle(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SingleExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = parseDate(req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	expense, err := h.expenseService.IngestSingle(userID, req.Vendor, date, toItemInput(req.Item))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ingest_single", "expense", expense.ID, c.ClientIP(), map[string]interface{}{
		"vendor": req.Vendor,
	})

	c.JSON(http.StatusCreated, expense)
}

// GetRecentExpenses returns the authenticated user's expenses newest
// first, paginated.
func (h *ExpenseHandler) GetRecentExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	result, err := h.expenseService.GetRecentExpenses(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
