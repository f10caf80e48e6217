package services_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/models"
	"kharcha/internal/pagination"
	"kharcha/internal/services"
	"kharcha/internal/testutil"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

func TestExpenseService_IngestBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	catalog := services.NewCatalogService(db)
	svc := services.NewExpenseService(db, catalog)
	user := testutil.CreateTestUser(t, db)

	t.Run("records every item against one vendor", func(t *testing.T) {
		date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
		items := []services.ExpenseItemInput{
			{ProductName: "Milk", Brand: "Amul", CategoryName: "Dairy", Quantity: dec(t, "2"), UnitPrice: dec(t, "55.50")},
			{ProductName: "Bread", CategoryName: "Bakery", Quantity: dec(t, "1"), UnitPrice: dec(t, "40")},
			{ProductName: "Butter", Brand: "Amul", CategoryName: "Dairy", Quantity: dec(t, "0.5"), UnitPrice: dec(t, "120")},
		}

		created, err := svc.IngestBatch(user.ID, "Corner Store", date, items)
		testutil.AssertNoError(t, err)
		if len(created) != 3 {
			t.Fatalf("expected 3 expenses, got %d", len(created))
		}

		// All rows share the one resolved vendor.
		vendorID := created[0].VendorID
		for _, e := range created {
			if e.VendorID != vendorID {
				t.Errorf("expected one vendor for the batch, got %s and %s", vendorID, e.VendorID)
			}
		}

		var vendorCount int64
		db.Model(&models.Vendor{}).Count(&vendorCount)
		if vendorCount != 1 {
			t.Errorf("expected 1 vendor row, got %d", vendorCount)
		}

		testutil.AssertDecimalEqual(t, "111.00", created[0].Total)
		testutil.AssertDecimalEqual(t, "40", created[1].Total)
		testutil.AssertDecimalEqual(t, "60", created[2].Total)
	})

	t.Run("recomputes a mismatching caller total", func(t *testing.T) {
		items := []services.ExpenseItemInput{
			{ProductName: "Eggs", CategoryName: "Dairy", Quantity: dec(t, "12"), UnitPrice: dec(t, "6.50"), Total: dec(t, "999")},
		}
		created, err := svc.IngestBatch(user.ID, "Corner Store", time.Time{}, items)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "78.00", created[0].Total)
	})

	t.Run("reuses catalog rows across batches", func(t *testing.T) {
		var before int64
		db.Model(&models.Product{}).Count(&before)

		items := []services.ExpenseItemInput{
			{ProductName: "milk", Brand: "AMUL", CategoryName: "dairy", Quantity: dec(t, "1"), UnitPrice: dec(t, "55.50")},
		}
		_, err := svc.IngestBatch(user.ID, "corner store", time.Time{}, items)
		testutil.AssertNoError(t, err)

		var after int64
		db.Model(&models.Product{}).Count(&after)
		if after != before {
			t.Errorf("expected no new product rows, got %d -> %d", before, after)
		}
	})

	t.Run("invalid item leaves no rows behind", func(t *testing.T) {
		var before int64
		db.Model(&models.Expense{}).Count(&before)

		items := []services.ExpenseItemInput{
			{ProductName: "Rice", CategoryName: "Staples", Quantity: dec(t, "1"), UnitPrice: dec(t, "80")},
			{ProductName: "Dal", CategoryName: "Staples", Quantity: dec(t, "0"), UnitPrice: dec(t, "120")},
		}
		_, err := svc.IngestBatch(user.ID, "Corner Store", time.Time{}, items)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		var after int64
		db.Model(&models.Expense{}).Count(&after)
		if after != before {
			t.Errorf("expected no partial writes, expenses went %d -> %d", before, after)
		}
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		_, err := svc.IngestBatch(user.ID, "Corner Store", time.Time{}, nil)
		testutil.AssertAppError(t, err, "EMPTY_BATCH")
	})

	t.Run("missing vendor is rejected", func(t *testing.T) {
		items := []services.ExpenseItemInput{
			{ProductName: "Rice", CategoryName: "Staples", Quantity: dec(t, "1"), UnitPrice: dec(t, "80")},
		}
		_, err := svc.IngestBatch(user.ID, "   ", time.Time{}, items)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("zero unit price is allowed", func(t *testing.T) {
		items := []services.ExpenseItemInput{
			{ProductName: "Free Sample", CategoryName: "Promotions", Quantity: dec(t, "1"), UnitPrice: dec(t, "0")},
		}
		created, err := svc.IngestBatch(user.ID, "Corner Store", time.Time{}, items)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "0", created[0].Total)
	})
}

func TestExpenseService_IngestSingle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := services.NewExpenseService(db, services.NewCatalogService(db))
	user := testutil.CreateTestUser(t, db)

	expense, err := svc.IngestSingle(user.ID, "Corner Store", time.Time{}, services.ExpenseItemInput{
		ProductName:  "Milk",
		Brand:        "Amul",
		CategoryName: "Dairy",
		Quantity:     dec(t, "1"),
		UnitPrice:    dec(t, "55.50"),
	})
	testutil.AssertNoError(t, err)
	if expense.ID == "" {
		t.Fatal("expected a persisted expense")
	}
	testutil.AssertDecimalEqual(t, "55.50", expense.Total)
}

func TestExpenseService_GetRecentExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := services.NewExpenseService(db, services.NewCatalogService(db))
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	for day := 1; day <= 15; day++ {
		date := time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC)
		_, err := svc.IngestSingle(user.ID, "Corner Store", date, services.ExpenseItemInput{
			ProductName:  "Milk",
			Brand:        "Amul",
			CategoryName: "Dairy",
			Quantity:     dec(t, "1"),
			UnitPrice:    dec(t, "55.50"),
		})
		testutil.AssertNoError(t, err)
	}
	_, err := svc.IngestSingle(other.ID, "Corner Store", time.Now(), services.ExpenseItemInput{
		ProductName:  "Bread",
		CategoryName: "Bakery",
		Quantity:     dec(t, "1"),
		UnitPrice:    dec(t, "40"),
	})
	testutil.AssertNoError(t, err)

	page, err := svc.GetRecentExpenses(user.ID, pagination.PageRequest{Page: 1, PageSize: 10})
	testutil.AssertNoError(t, err)

	if page.TotalItems != 15 {
		t.Errorf("expected 15 total items, got %d", page.TotalItems)
	}
	if page.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", page.TotalPages)
	}
	if len(page.Data) != 10 {
		t.Fatalf("expected 10 items on page 1, got %d", len(page.Data))
	}

	// Newest first, joined with readable names.
	first := page.Data[0]
	if first.Date.Day() != 15 {
		t.Errorf("expected newest expense first, got day %d", first.Date.Day())
	}
	if first.ProductName != "Milk" || first.Vendor != "Corner Store" || first.CategoryName != "Dairy" {
		t.Errorf("unexpected joined names: %+v", first)
	}
}
