package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"kharcha/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a customer with a hashed password, a unique
// contact, and no pincode.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithPincode(t, db, "")
}

// CreateTestUserWithPincode creates a customer located at the given pincode.
func CreateTestUserWithPincode(t *testing.T, db *gorm.DB, pincode string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:     fmt.Sprintf("Test User %d", nextID()),
		Contact:  fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		Role:     models.UserRoleCustomer,
		Pincode:  pincode,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	return CreateTestCategoryWithName(t, db, fmt.Sprintf("Test Category %d", nextID()))
}

// CreateTestCategoryWithName creates a category with the given name.
func CreateTestCategoryWithName(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestVendor creates a vendor with the given name.
func CreateTestVendor(t *testing.T, db *gorm.DB, name string) *models.Vendor {
	t.Helper()

	vendor := &models.Vendor{Name: name}
	if err := db.Create(vendor).Error; err != nil {
		t.Fatalf("failed to create test vendor: %v", err)
	}
	return vendor
}

// CreateTestProduct creates a product with the given name and brand in the
// given category.
func CreateTestProduct(t *testing.T, db *gorm.DB, name, brand, categoryID string) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:       name,
		Brand:      brand,
		CategoryID: categoryID,
	}
	product.ID = fmt.Sprintf("TST-%d", nextID())
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed to create test product: %v", err)
	}
	return product
}

// CreateTestExpense creates an expense row with quantity 1 and the given
// unit price on the given date.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, product *models.Product, vendorID string, date time.Time, unitPrice string) *models.Expense {
	t.Helper()

	price, err := decimal.NewFromString(unitPrice)
	if err != nil {
		t.Fatalf("invalid unit price %q: %v", unitPrice, err)
	}

	expense := &models.Expense{
		UserID:     userID,
		ProductID:  product.ID,
		CategoryID: product.CategoryID,
		VendorID:   vendorID,
		Date:       date,
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  price,
		Total:      price,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}
