package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/models"
)

// resolveAttempts bounds the resolve-or-create retry loop. Losing the
// insert race more than twice for the same key means something is wrong
// enough to surface to the caller.
const resolveAttempts = 3

// catalogService normalizes free-text category/product/vendor references.
type catalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogServicer.
func NewCatalogService(db *gorm.DB) CatalogServicer {
	return &catalogService{db: db}
}

// ResolveCategory returns the category with the given name, creating it on
// first reference. Matching is case-insensitive; the returned identifier is
// stable across callers and letter casings.
func (s *catalogService) ResolveCategory(tx *gorm.DB, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		var category models.Category
		err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&category).Error
		if err == nil {
			return &category, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		category = models.Category{Name: name}
		if createErr := createInSavepoint(tx, &category); createErr == nil {
			return &category, nil
		} else if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, createErr)
		}
		// A concurrent caller won the insert race; loop and re-read.
	}
	return nil, apperrors.ErrResolveConflict
}

// ResolveVendor returns the vendor with the given name, creating it on
// first reference. Same matching and retry rules as ResolveCategory.
func (s *catalogService) ResolveVendor(tx *gorm.DB, name string) (*models.Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "vendor name is required")
	}

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		var vendor models.Vendor
		err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&vendor).Error
		if err == nil {
			return &vendor, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		vendor = models.Vendor{Name: name}
		if createErr := createInSavepoint(tx, &vendor); createErr == nil {
			return &vendor, nil
		} else if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, createErr)
		}
	}
	return nil, apperrors.ErrResolveConflict
}

// ResolveProduct returns the product with the given (name, brand) identity
// key, creating it under categoryID on first reference. Matching is
// case-insensitive on both name and brand, with an absent brand equal only
// to an absent brand. An existing product keeps its original category.
func (s *catalogService) ResolveProduct(tx *gorm.DB, name, brand, categoryID string) (*models.Product, error) {
	name = strings.TrimSpace(name)
	brand = strings.TrimSpace(brand)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "product name is required")
	}
	if categoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category ID is required")
	}

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		var product models.Product
		err := tx.Where("LOWER(name) = ? AND LOWER(brand) = ?",
			strings.ToLower(name), strings.ToLower(brand)).First(&product).Error
		if err == nil {
			return &product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		product = models.Product{
			Base:       models.Base{ID: newProductID(name)},
			Name:       name,
			Brand:      brand,
			CategoryID: categoryID,
		}
		if createErr := createInSavepoint(tx, &product); createErr == nil {
			return &product, nil
		} else if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, createErr)
		}
	}
	return nil, apperrors.ErrResolveConflict
}

// createInSavepoint runs the insert in a nested transaction so a lost
// uniqueness race rolls back to a savepoint instead of poisoning the
// caller's enclosing Postgres transaction.
func createInSavepoint(tx *gorm.DB, value interface{}) error {
	return tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(value).Error
	})
}

// newProductID builds the product surrogate key: an uppercase name prefix,
// the creation time in unix millis, and a random suffix. It is an opaque
// identifier only and never participates in product matching.
func newProductID(name string) string {
	var prefix []rune
	for _, r := range strings.ToUpper(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			prefix = append(prefix, r)
			if len(prefix) == 3 {
				break
			}
		}
	}
	if len(prefix) == 0 {
		prefix = []rune("PRD")
	}
	return fmt.Sprintf("%s-%d-%04d", string(prefix), time.Now().UnixMilli(), rand.IntN(10000))
}

// ListCategories returns all categories ordered by name.
func (s *catalogService) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// ListVendors returns all vendors ordered by name.
func (s *catalogService) ListVendors() ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := s.db.Order("name ASC").Find(&vendors).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return vendors, nil
}

// ListBrands returns the distinct non-empty brands across all products.
func (s *catalogService) ListBrands() ([]string, error) {
	var brands []string
	if err := s.db.Model(&models.Product{}).
		Distinct("brand").
		Where("brand <> ''").
		Order("brand ASC").
		Pluck("brand", &brands).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return brands, nil
}

// SearchProducts finds products whose name contains the query,
// case-insensitively, joined with their category.
func (s *catalogService) SearchProducts(query string, limit int) ([]ProductSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ProductSearchResult{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var results []ProductSearchResult
	if err := s.db.Model(&models.Product{}).
		Select("products.id AS product_id, products.name AS product_name, products.brand, products.category_id, categories.name AS category_name").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("LOWER(products.name) LIKE ?", "%"+strings.ToLower(query)+"%").
		Order("products.name ASC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if results == nil {
		results = []ProductSearchResult{}
	}
	return results, nil
}
