package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kharcha/internal/models"
	"kharcha/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(name, contact, password string, role models.UserRole, pincode string, latitude, longitude *float64) (*models.User, error)
	GetUserByContact(contact string, role models.UserRole) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	RefreshLocation(userID, pincode string, latitude, longitude *float64) error
}

// ProductSearchResult is a product row joined with its category, as served
// to the entry-form autocomplete.
type ProductSearchResult struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	Brand        string `json:"brand,omitempty"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
}

// CatalogServicer normalizes free-text catalog references into stable
// entities. The Resolve* methods run inside the caller's transaction and
// follow the resolve-or-create-with-bounded-retry protocol: concurrent
// first-time references to the same semantic key converge on one row.
type CatalogServicer interface {
	ResolveCategory(tx *gorm.DB, name string) (*models.Category, error)
	ResolveVendor(tx *gorm.DB, name string) (*models.Vendor, error)
	ResolveProduct(tx *gorm.DB, name, brand, categoryID string) (*models.Product, error)
	ListCategories() ([]models.Category, error)
	ListVendors() ([]models.Vendor, error)
	ListBrands() ([]string, error)
	SearchProducts(query string, limit int) ([]ProductSearchResult, error)
}

// ExpenseItemInput is one line item of an ingestion batch. Total is
// advisory: the engine recomputes Quantity × UnitPrice and ignores a
// mismatching value.
type ExpenseItemInput struct {
	ProductName  string
	Brand        string
	CategoryName string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Total        decimal.Decimal
}

// ExpenseView is an expense row joined with human-readable catalog names
// for the recent-expenses feed.
type ExpenseView struct {
	ID           string          `json:"id"`
	ProductName  string          `json:"product_name"`
	Brand        string          `json:"brand,omitempty"`
	Vendor       string          `json:"vendor"`
	CategoryName string          `json:"category_name"`
	Date         time.Time       `json:"date"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Total        decimal.Decimal `json:"total"`
}

// ExpenseServicer defines the contract for expense ingestion and reads.
type ExpenseServicer interface {
	IngestBatch(userID, vendorName string, date time.Time, items []ExpenseItemInput) ([]models.Expense, error)
	IngestSingle(userID, vendorName string, date time.Time, item ExpenseItemInput) (*models.Expense, error)
	GetRecentExpenses(userID string, page pagination.PageRequest) (*pagination.PageResponse[ExpenseView], error)
}

// Period identifies a calendar month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// ExpenseSummaryEntry is one contributing expense inside a category group.
type ExpenseSummaryEntry struct {
	ExpenseID   string          `json:"expense_id"`
	Date        time.Time       `json:"expense_date"`
	ProductName string          `json:"product_name"`
	Total       decimal.Decimal `json:"total"`
}

// CategorySpending aggregates one category's expenses for a month.
type CategorySpending struct {
	CategoryID       string                `json:"category_id"`
	CategoryName     string                `json:"category_name"`
	TotalSpent       decimal.Decimal       `json:"total_spent"`
	TransactionCount int64                 `json:"transaction_count"`
	Expenses         []ExpenseSummaryEntry `json:"expenses"`
}

// MonthlySummaryReport is the per-category breakdown of one month.
type MonthlySummaryReport struct {
	Period             Period             `json:"period"`
	OverallTotal       decimal.Decimal    `json:"overallTotal"`
	SpendingByCategory []CategorySpending `json:"spendingByCategory"`
}

// CategoryDetailRow is one raw expense inside a category for a month.
type CategoryDetailRow struct {
	ExpenseID   string          `json:"expense_id"`
	Date        time.Time       `json:"expense_date"`
	ProductName string          `json:"product_name"`
	Brand       string          `json:"brand,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// CategoryComparisonRow pairs a category's current-month spending with its
// trailing-window monthly average. Field names follow the analytics client.
type CategoryComparisonRow struct {
	Category         string          `json:"category"`
	CurrentMonth     decimal.Decimal `json:"currentMonth"`
	Average          decimal.Decimal `json:"average"`
	TransactionCount int64           `json:"transactionCount"`
	Difference       decimal.Decimal `json:"difference"`
	PercentageChange decimal.Decimal `json:"percentageChange"`
}

// ReportServicer defines the read-only period aggregation reports.
// Year/month default to the current calendar month at the handler layer;
// all reports return well-formed empty results for months with no data.
type ReportServicer interface {
	MonthlySummary(userID string, year, month int) (*MonthlySummaryReport, error)
	CalendarRollup(userID string, year, month int) (map[int]decimal.Decimal, error)
	CategoryDetails(userID, categoryID string, year, month int) ([]CategoryDetailRow, error)
	CategoryComparison(userID string, year, month int) ([]CategoryComparisonRow, error)
}

// MyPurchase is the requester's own most recent purchase of a product.
type MyPurchase struct {
	Vendor       string          `json:"vendor"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	PurchaseDate time.Time       `json:"purchase_date"`
}

// VendorQuote is a per-vendor price aggregate built from every purchase of
// a product in the requester's postal area. Only vendor identity and
// numeric aggregates ever leave the engine.
type VendorQuote struct {
	Vendor        string          `json:"vendor"`
	MinUnitPrice  decimal.Decimal `json:"min_unit_price"`
	AvgUnitPrice  decimal.Decimal `json:"avg_unit_price"`
	PurchaseCount int             `json:"purchase_count"`
	LastSeen      time.Time       `json:"last_seen"`
}

// Savings quantifies what the requester would save at the cheapest vendor.
type Savings struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
	IsBestDeal bool            `json:"is_best_deal"`
}

// ProductComparison is the full analysis for one product the requester
// bought within the window.
type ProductComparison struct {
	ProductName        string        `json:"product_name"`
	Brand              string        `json:"brand"`
	MyPurchase         MyPurchase    `json:"my_purchase"`
	CheapestOption     VendorQuote   `json:"cheapest_option"`
	Savings            Savings       `json:"savings"`
	AlternativeVendors []VendorQuote `json:"alternative_vendors"`
}

// PriceComparisonSummary rolls the per-product analyses up.
type PriceComparisonSummary struct {
	ItemsAtBestPrice        int             `json:"items_at_best_price"`
	ItemsWithCheaperOptions int             `json:"items_with_cheaper_options"`
	TotalPotentialSavings   decimal.Decimal `json:"total_potential_savings"`
}

// PriceComparisonReport is the pincode-scoped cross-user price analysis.
type PriceComparisonReport struct {
	Pincode               string                 `json:"pincode"`
	AnalysisPeriodDays    int                    `json:"analysis_period_days"`
	TotalProductsAnalyzed int                    `json:"total_products_analyzed"`
	Summary               PriceComparisonSummary `json:"summary"`
	Comparisons           []ProductComparison    `json:"comparisons"`
}

// PriceServicer defines the cross-user price intelligence engine.
type PriceServicer interface {
	ComparePrices(userID string, windowDays int) (*PriceComparisonReport, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
