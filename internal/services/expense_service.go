package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/models"
	"kharcha/internal/pagination"
)

// expenseService handles expense ingestion and reads.
type expenseService struct {
	db      *gorm.DB
	catalog CatalogServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, catalog CatalogServicer) ExpenseServicer {
	return &expenseService{db: db, catalog: catalog}
}

// IngestBatch atomically creates one expense row per item for a single
// vendor and date. All validation happens before the transaction opens;
// inside it the vendor is resolved once and each item resolves category
// then product, so ingestion may create new catalog rows as a side effect.
// Any failure rolls the whole batch back: N rows or zero, never a partial
// count. Stored totals are always Quantity × UnitPrice regardless of what
// the caller supplied.
func (s *expenseService) IngestBatch(userID, vendorName string, date time.Time, items []ExpenseItemInput) ([]models.Expense, error) {
	if userID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user ID is required")
	}
	vendorName = strings.TrimSpace(vendorName)
	if vendorName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "vendor name is required")
	}
	if len(items) == 0 {
		return nil, apperrors.ErrEmptyBatch
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductName) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("item %d: product name is required", i+1))
		}
		if strings.TrimSpace(item.CategoryName) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("item %d: category name is required", i+1))
		}
		if !item.Quantity.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("item %d: quantity must be greater than zero", i+1))
		}
		if item.UnitPrice.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("item %d: unit price cannot be negative", i+1))
		}
	}
	if date.IsZero() {
		date = time.Now()
	}

	var created []models.Expense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		vendor, err := s.catalog.ResolveVendor(tx, vendorName)
		if err != nil {
			return err
		}

		for _, item := range items {
			category, err := s.catalog.ResolveCategory(tx, item.CategoryName)
			if err != nil {
				return err
			}
			product, err := s.catalog.ResolveProduct(tx, item.ProductName, item.Brand, category.ID)
			if err != nil {
				return err
			}

			expense := models.Expense{
				UserID:    userID,
				ProductID: product.ID,
				// Copy of the product's category at write time; an existing
				// product keeps the category it was first created under.
				CategoryID: product.CategoryID,
				VendorID:   vendor.ID,
				Date:       date,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				Total:      item.Quantity.Mul(item.UnitPrice).Round(2),
			}
			if err := tx.Create(&expense).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created = append(created, expense)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created, nil
}

// IngestSingle is the degenerate one-item batch.
func (s *expenseService) IngestSingle(userID, vendorName string, date time.Time, item ExpenseItemInput) (*models.Expense, error) {
	created, err := s.IngestBatch(userID, vendorName, date, []ExpenseItemInput{item})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// GetRecentExpenses returns the user's expenses newest-first, joined with
// product, vendor, and category names.
func (s *expenseService) GetRecentExpenses(userID string, page pagination.PageRequest) (*pagination.PageResponse[ExpenseView], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("expenses.user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var views []ExpenseView
	if err := base.
		Select("expenses.id, products.name AS product_name, products.brand, vendors.name AS vendor, categories.name AS category_name, expenses.date, expenses.quantity, expenses.unit_price, expenses.total").
		Joins("JOIN products ON products.id = expenses.product_id").
		Joins("JOIN vendors ON vendors.id = expenses.vendor_id").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Order("expenses.date DESC, expenses.id DESC").
		Scopes(pagination.Paginate(page)).
		Scan(&views).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(views, page.Page, page.PageSize, totalItems)
	return &result, nil
}
