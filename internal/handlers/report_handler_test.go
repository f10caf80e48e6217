package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kharcha/internal/services"
)

// --- mock report service ---

type mockReportService struct {
	monthlySummaryFn     func(userID string, year, month int) (*services.MonthlySummaryReport, error)
	calendarRollupFn     func(userID string, year, month int) (map[int]decimal.Decimal, error)
	categoryDetailsFn    func(userID, categoryID string, year, month int) ([]services.CategoryDetailRow, error)
	categoryComparisonFn func(userID string, year, month int) ([]services.CategoryComparisonRow, error)
}

func (m *mockReportService) MonthlySummary(userID string, year, month int) (*services.MonthlySummaryReport, error) {
	if m.monthlySummaryFn != nil {
		return m.monthlySummaryFn(userID, year, month)
	}
	return &services.MonthlySummaryReport{SpendingByCategory: []services.CategorySpending{}}, nil
}

func (m *mockReportService) CalendarRollup(userID string, year, month int) (map[int]decimal.Decimal, error) {
	if m.calendarRollupFn != nil {
		return m.calendarRollupFn(userID, year, month)
	}
	return map[int]decimal.Decimal{}, nil
}

func (m *mockReportService) CategoryDetails(userID, categoryID string, year, month int) ([]services.CategoryDetailRow, error) {
	if m.categoryDetailsFn != nil {
		return m.categoryDetailsFn(userID, categoryID, year, month)
	}
	return []services.CategoryDetailRow{}, nil
}

func (m *mockReportService) CategoryComparison(userID string, year, month int) ([]services.CategoryComparisonRow, error) {
	if m.categoryComparisonFn != nil {
		return m.categoryComparisonFn(userID, year, month)
	}
	return []services.CategoryComparisonRow{}, nil
}

// verify interface compliance
var _ services.ReportServicer = (*mockReportService)(nil)

func setupReportRouter(handler *ReportHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID("user-1"))
	auth.GET("/reports/summary", handler.GetMonthlySummary)
	auth.GET("/reports/calendar", handler.GetCalendarRollup)
	auth.GET("/reports/category-details", handler.GetCategoryDetails)
	auth.GET("/reports/monthly-category-comparison", handler.GetCategoryComparison)
	return r
}

// --- tests ---

func TestReportHandler_GetMonthlySummary(t *testing.T) {
	t.Run("passes explicit year and month", func(t *testing.T) {
		var gotYear, gotMonth int
		svc := &mockReportService{
			monthlySummaryFn: func(_ string, year, month int) (*services.MonthlySummaryReport, error) {
				gotYear, gotMonth = year, month
				return &services.MonthlySummaryReport{
					Period:             services.Period{Year: year, Month: month},
					OverallTotal:       decimal.NewFromInt(185),
					SpendingByCategory: []services.CategorySpending{},
				}, nil
			},
		}
		handler := NewReportHandler(svc)
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/reports/summary?year=2026&month=7", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotYear != 2026 || gotMonth != 7 {
			t.Errorf("expected 2026-07, got %d-%d", gotYear, gotMonth)
		}
		result := parseJSON(t, rec)
		if result["overallTotal"] != float64(185) {
			t.Errorf("expected overallTotal 185, got %v", result["overallTotal"])
		}
	})

	t.Run("defaults to the current month", func(t *testing.T) {
		var gotYear, gotMonth int
		svc := &mockReportService{
			monthlySummaryFn: func(_ string, year, month int) (*services.MonthlySummaryReport, error) {
				gotYear, gotMonth = year, month
				return &services.MonthlySummaryReport{SpendingByCategory: []services.CategorySpending{}}, nil
			},
		}
		handler := NewReportHandler(svc)
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/reports/summary", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		now := time.Now()
		if gotYear != now.Year() || gotMonth != int(now.Month()) {
			t.Errorf("expected current month %d-%d, got %d-%d", now.Year(), now.Month(), gotYear, gotMonth)
		}
	})

	t.Run("rejects an invalid month", func(t *testing.T) {
		handler := NewReportHandler(&mockReportService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/reports/summary?year=2026&month=13", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReportHandler_GetCalendarRollup(t *testing.T) {
	svc := &mockReportService{
		calendarRollupFn: func(_ string, _, _ int) (map[int]decimal.Decimal, error) {
			return map[int]decimal.Decimal{
				3:  decimal.NewFromInt(150),
				20: decimal.RequireFromString("75.25"),
			}, nil
		},
	}
	handler := NewReportHandler(svc)
	r := setupReportRouter(handler)

	rec := doRequest(r, "GET", "/reports/calendar?year=2026&month=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	daily := result["daily"].(map[string]interface{})
	if daily["3"] != float64(150) {
		t.Errorf("expected day 3 total 150, got %v", daily["3"])
	}
	if daily["20"] != 75.25 {
		t.Errorf("expected day 20 total 75.25, got %v", daily["20"])
	}
}

func TestReportHandler_GetCategoryDetails(t *testing.T) {
	t.Run("requires a category ID", func(t *testing.T) {
		handler := NewReportHandler(&mockReportService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/reports/category-details?year=2026&month=7", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns the category's expenses", func(t *testing.T) {
		var gotCategoryID string
		svc := &mockReportService{
			categoryDetailsFn: func(_, categoryID string, _, _ int) ([]services.CategoryDetailRow, error) {
				gotCategoryID = categoryID
				return []services.CategoryDetailRow{
					{ExpenseID: "exp-1", ProductName: "Milk", Total: decimal.NewFromInt(110)},
				}, nil
			},
		}
		handler := NewReportHandler(svc)
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/reports/category-details?category_id=cat-1&year=2026&month=7", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotCategoryID != "cat-1" {
			t.Errorf("expected category cat-1, got %q", gotCategoryID)
		}
	})
}

func TestReportHandler_GetCategoryComparison(t *testing.T) {
	svc := &mockReportService{
		categoryComparisonFn: func(_ string, _, _ int) ([]services.CategoryComparisonRow, error) {
			return []services.CategoryComparisonRow{
				{
					Category:         "Groceries",
					CurrentMonth:     decimal.NewFromInt(180),
					Average:          decimal.NewFromInt(100),
					TransactionCount: 2,
					Difference:       decimal.NewFromInt(80),
					PercentageChange: decimal.NewFromInt(80),
				},
			}, nil
		},
	}
	handler := NewReportHandler(svc)
	r := setupReportRouter(handler)

	rec := doRequest(r, "GET", "/reports/monthly-category-comparison?year=2026&month=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	categories := result["categories"].([]interface{})
	if len(categories) != 1 {
		t.Fatalf("expected 1 category row, got %d", len(categories))
	}
	row := categories[0].(map[string]interface{})
	if row["category"] != "Groceries" {
		t.Errorf("expected category Groceries, got %v", row["category"])
	}
	if row["currentMonth"] != float64(180) {
		t.Errorf("expected currentMonth 180, got %v", row["currentMonth"])
	}
	if row["percentageChange"] != float64(80) {
		t.Errorf("expected percentageChange 80, got %v", row["percentageChange"])
	}
}
