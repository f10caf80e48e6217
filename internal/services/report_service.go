package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/models"
)

// baselineMonths is the trailing window for the category comparison. The
// window covers full calendar months and never includes the month being
// compared, so a partially accumulated month cannot bias its own baseline.
const baselineMonths = 12

// reportService produces the read-only period aggregation reports.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// monthInterval returns the half-open interval [first instant of the
// month, first instant of the next month).
func monthInterval(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

type summaryRow struct {
	ExpenseID    string
	Date         time.Time
	Total        decimal.Decimal
	ProductName  string
	CategoryID   string
	CategoryName string
}

// fetchPeriodRows loads one user's expenses in [start, end) joined with
// product and category names, newest first.
func (s *reportService) fetchPeriodRows(userID string, start, end time.Time) ([]summaryRow, error) {
	var rows []summaryRow
	if err := s.db.Model(&models.Expense{}).
		Select("expenses.id AS expense_id, expenses.date, expenses.total, products.name AS product_name, categories.id AS category_id, categories.name AS category_name").
		Joins("JOIN products ON products.id = expenses.product_id").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ? AND expenses.date >= ? AND expenses.date < ?", userID, start, end).
		Order("expenses.date DESC, expenses.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// MonthlySummary groups one month's expenses by category, with the
// contributing expenses date-descending inside each group and the groups
// ordered by total spent. A month with no expenses yields a zero total and
// an empty category list, not an error.
func (s *reportService) MonthlySummary(userID string, year, month int) (*MonthlySummaryReport, error) {
	start, end := monthInterval(year, month)
	rows, err := s.fetchPeriodRows(userID, start, end)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]*CategorySpending)
	var order []string
	overall := decimal.Zero

	for _, row := range rows {
		group, ok := byCategory[row.CategoryID]
		if !ok {
			group = &CategorySpending{
				CategoryID:   row.CategoryID,
				CategoryName: row.CategoryName,
				TotalSpent:   decimal.Zero,
			}
			byCategory[row.CategoryID] = group
			order = append(order, row.CategoryID)
		}
		group.TotalSpent = group.TotalSpent.Add(row.Total)
		group.TransactionCount++
		group.Expenses = append(group.Expenses, ExpenseSummaryEntry{
			ExpenseID:   row.ExpenseID,
			Date:        row.Date,
			ProductName: row.ProductName,
			Total:       row.Total,
		})
		overall = overall.Add(row.Total)
	}

	spending := make([]CategorySpending, 0, len(order))
	for _, id := range order {
		spending = append(spending, *byCategory[id])
	}
	sort.SliceStable(spending, func(i, j int) bool {
		if !spending[i].TotalSpent.Equal(spending[j].TotalSpent) {
			return spending[i].TotalSpent.GreaterThan(spending[j].TotalSpent)
		}
		return spending[i].CategoryName < spending[j].CategoryName
	})

	return &MonthlySummaryReport{
		Period:             Period{Year: year, Month: month},
		OverallTotal:       overall,
		SpendingByCategory: spending,
	}, nil
}

// CalendarRollup sums one month's totals per calendar day. Days with no
// expenses are absent from the map.
func (s *reportService) CalendarRollup(userID string, year, month int) (map[int]decimal.Decimal, error) {
	start, end := monthInterval(year, month)

	var rows []struct {
		Date  time.Time
		Total decimal.Decimal
	}
	if err := s.db.Model(&models.Expense{}).
		Select("date, total").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	daily := make(map[int]decimal.Decimal)
	for _, row := range rows {
		day := row.Date.UTC().Day()
		daily[day] = daily[day].Add(row.Total)
	}
	return daily, nil
}

// CategoryDetails returns the raw expenses of one category for a month,
// newest first.
func (s *reportService) CategoryDetails(userID, categoryID string, year, month int) ([]CategoryDetailRow, error) {
	if categoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category ID is required")
	}
	start, end := monthInterval(year, month)

	var rows []CategoryDetailRow
	if err := s.db.Model(&models.Expense{}).
		Select("expenses.id AS expense_id, expenses.date, products.name AS product_name, products.brand, expenses.quantity, expenses.unit_price, expenses.total").
		Joins("JOIN products ON products.id = expenses.product_id").
		Where("expenses.user_id = ? AND expenses.category_id = ? AND expenses.date >= ? AND expenses.date < ?", userID, categoryID, start, end).
		Order("expenses.date DESC, expenses.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if rows == nil {
		rows = []CategoryDetailRow{}
	}
	return rows, nil
}

// CategoryComparison pairs the month's per-category totals with the mean
// of per-calendar-month totals over the trailing baselineMonths full
// months ([month start − 12 months, month start)). Months without
// spending in a category count as zero, so the average is the window total
// divided by the window length. Categories present in either side appear
// in the result.
func (s *reportService) CategoryComparison(userID string, year, month int) ([]CategoryComparisonRow, error) {
	start, end := monthInterval(year, month)
	baselineStart := start.AddDate(0, -baselineMonths, 0)

	current, err := s.fetchPeriodRows(userID, start, end)
	if err != nil {
		return nil, err
	}
	baseline, err := s.fetchPeriodRows(userID, baselineStart, start)
	if err != nil {
		return nil, err
	}

	type currentAgg struct {
		total decimal.Decimal
		count int64
	}
	currentByName := make(map[string]*currentAgg)
	baselineByName := make(map[string]decimal.Decimal)

	for _, row := range current {
		agg, ok := currentByName[row.CategoryName]
		if !ok {
			agg = &currentAgg{total: decimal.Zero}
			currentByName[row.CategoryName] = agg
		}
		agg.total = agg.total.Add(row.Total)
		agg.count++
	}
	for _, row := range baseline {
		baselineByName[row.CategoryName] = baselineByName[row.CategoryName].Add(row.Total)
	}

	names := make(map[string]struct{})
	for name := range currentByName {
		names[name] = struct{}{}
	}
	for name := range baselineByName {
		names[name] = struct{}{}
	}

	months := decimal.NewFromInt(baselineMonths)
	hundred := decimal.NewFromInt(100)
	rows := make([]CategoryComparisonRow, 0, len(names))
	for name := range names {
		currentTotal := decimal.Zero
		var count int64
		if agg, ok := currentByName[name]; ok {
			currentTotal = agg.total
			count = agg.count
		}
		average := baselineByName[name].Div(months).Round(2)
		difference := currentTotal.Sub(average)

		var percentage decimal.Decimal
		switch {
		case average.IsPositive():
			percentage = difference.Div(average).Mul(hundred).Round(2)
		case currentTotal.IsPositive():
			// No baseline at all; everything spent this month is new.
			percentage = hundred
		default:
			percentage = decimal.Zero
		}

		rows = append(rows, CategoryComparisonRow{
			Category:         name,
			CurrentMonth:     currentTotal,
			Average:          average,
			TransactionCount: count,
			Difference:       difference,
			PercentageChange: percentage,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CurrentMonth.Equal(rows[j].CurrentMonth) {
			return rows[i].CurrentMonth.GreaterThan(rows[j].CurrentMonth)
		}
		return rows[i].Category < rows[j].Category
	})
	return rows, nil
}
