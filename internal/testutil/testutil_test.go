package testutil_test

import (
	"testing"
	"time"

	"kharcha/internal/errors"
	"kharcha/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "categories", "vendors", "products", "expenses", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUserWithPincode(t, db, "560001")
	if user.ID == "" {
		t.Fatal("user should have a non-empty ID")
	}
	if user.Pincode != "560001" {
		t.Errorf("expected pincode 560001, got %s", user.Pincode)
	}

	category := testutil.CreateTestCategoryWithName(t, db, "Groceries")
	if category.Name != "Groceries" {
		t.Errorf("expected category name Groceries, got %s", category.Name)
	}

	vendor := testutil.CreateTestVendor(t, db, "Big Bazaar")
	product := testutil.CreateTestProduct(t, db, "Milk", "Amul", category.ID)
	if product.CategoryID != category.ID {
		t.Errorf("expected product category %s, got %s", category.ID, product.CategoryID)
	}

	expense := testutil.CreateTestExpense(t, db, user.ID, product, vendor.ID, time.Now(), "55.50")
	testutil.AssertDecimalEqual(t, "55.50", expense.Total)
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrResolveConflict, "custom message")
	testutil.AssertAppError(t, err, "RESOLVE_CONFLICT")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
