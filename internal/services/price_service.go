package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/models"
)

// priceService is the cross-user, pincode-scoped price intelligence engine.
// It depends on the catalog normalizer having produced one product row per
// (name, brand) key: matching here is by semantic key, never by surrogate
// identifier, so consistent normalization is what makes purchases from
// different users and vendors comparable at all.
type priceService struct {
	db    *gorm.DB
	users UserServicer
}

// NewPriceService creates a new PriceServicer.
func NewPriceService(db *gorm.DB, users UserServicer) PriceServicer {
	return &priceService{db: db, users: users}
}

// priceRow is one purchase with only the fields the engine may see:
// product key, vendor name, price, and date. No user identity is selected.
type priceRow struct {
	ProductName string
	Brand       string
	VendorName  string
	UnitPrice   decimal.Decimal
	Date        time.Time
}

// productKey is the case-insensitive (name, brand) identity used to match
// purchases of the same product across users and vendors.
func productKey(name, brand string) string {
	return strings.ToLower(name) + "\x00" + strings.ToLower(brand)
}

type vendorAgg struct {
	min      decimal.Decimal
	sum      decimal.Decimal
	count    int
	lastSeen time.Time
}

// ComparePrices analyzes the requester's purchases within the trailing
// window against every purchase of the same products by users sharing the
// requester's pincode. The requester's own purchases contribute to the
// vendor aggregates like anyone else's.
func (s *priceService) ComparePrices(userID string, windowDays int) (*PriceComparisonReport, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Pincode == "" {
		return nil, apperrors.ErrPincodeNotSet
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	// The requester's own purchases, newest first; the first row per
	// product key is their most recent purchase of that product.
	var mine []priceRow
	if err := s.purchaseQuery(since).
		Where("expenses.user_id = ?", userID).
		Scan(&mine).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	myLatest := make(map[string]priceRow)
	var keyOrder []string
	for _, row := range mine {
		key := productKey(row.ProductName, row.Brand)
		if _, seen := myLatest[key]; !seen {
			myLatest[key] = row
			keyOrder = append(keyOrder, key)
		}
	}

	report := &PriceComparisonReport{
		Pincode:            user.Pincode,
		AnalysisPeriodDays: windowDays,
		Comparisons:        []ProductComparison{},
	}
	if len(myLatest) == 0 {
		return report, nil
	}

	// Every purchase in the postal area within the window, the requester's
	// included. Grouped per product key and vendor below.
	var area []priceRow
	if err := s.purchaseQuery(since).
		Joins("JOIN users ON users.id = expenses.user_id").
		Where("users.pincode = ?", user.Pincode).
		Scan(&area).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	groups := make(map[string]map[string]*vendorAgg)
	for _, row := range area {
		key := productKey(row.ProductName, row.Brand)
		if _, wanted := myLatest[key]; !wanted {
			continue
		}
		vendors, ok := groups[key]
		if !ok {
			vendors = make(map[string]*vendorAgg)
			groups[key] = vendors
		}
		agg, ok := vendors[row.VendorName]
		if !ok {
			agg = &vendorAgg{min: row.UnitPrice, sum: decimal.Zero}
			vendors[row.VendorName] = agg
		}
		if row.UnitPrice.LessThan(agg.min) {
			agg.min = row.UnitPrice
		}
		agg.sum = agg.sum.Add(row.UnitPrice)
		agg.count++
		if row.Date.After(agg.lastSeen) {
			agg.lastSeen = row.Date
		}
	}

	// Products in alphabetical order for a stable report.
	sort.Slice(keyOrder, func(i, j int) bool { return keyOrder[i] < keyOrder[j] })

	for _, key := range keyOrder {
		my := myLatest[key]
		quotes := sortedQuotes(groups[key])
		if len(quotes) == 0 {
			continue
		}

		cheapest := quotes[0]
		savings := my.UnitPrice.Sub(cheapest.MinUnitPrice)
		if savings.IsNegative() {
			savings = decimal.Zero
		}
		var percentage decimal.Decimal
		if savings.IsPositive() && my.UnitPrice.IsPositive() {
			percentage = savings.Div(my.UnitPrice).Mul(decimal.NewFromInt(100)).Round(2)
		}

		comparison := ProductComparison{
			ProductName: my.ProductName,
			Brand:       my.Brand,
			MyPurchase: MyPurchase{
				Vendor:       my.VendorName,
				UnitPrice:    my.UnitPrice,
				PurchaseDate: my.Date,
			},
			CheapestOption: cheapest,
			Savings: Savings{
				Amount:     savings,
				Percentage: percentage,
				IsBestDeal: savings.IsZero(),
			},
			AlternativeVendors: quotes[1:],
		}

		if comparison.Savings.IsBestDeal {
			report.Summary.ItemsAtBestPrice++
		} else {
			report.Summary.ItemsWithCheaperOptions++
			report.Summary.TotalPotentialSavings = report.Summary.TotalPotentialSavings.Add(savings)
		}
		report.Comparisons = append(report.Comparisons, comparison)
	}

	report.TotalProductsAnalyzed = len(report.Comparisons)
	return report, nil
}

// purchaseQuery is the shared join selecting purchases within the window
// with product key, vendor, price, and date only.
func (s *priceService) purchaseQuery(since time.Time) *gorm.DB {
	return s.db.Model(&models.Expense{}).
		Select("products.name AS product_name, products.brand, vendors.name AS vendor_name, expenses.unit_price, expenses.date").
		Joins("JOIN products ON products.id = expenses.product_id").
		Joins("JOIN vendors ON vendors.id = expenses.vendor_id").
		Where("expenses.date >= ?", since).
		Order("expenses.date DESC, expenses.id DESC")
}

// sortedQuotes flattens vendor aggregates into quotes ordered by minimum
// unit price, then average, then vendor name, so the cheapest option and
// the alternatives list are deterministic under price ties.
func sortedQuotes(vendors map[string]*vendorAgg) []VendorQuote {
	quotes := make([]VendorQuote, 0, len(vendors))
	for name, agg := range vendors {
		quotes = append(quotes, VendorQuote{
			Vendor:        name,
			MinUnitPrice:  agg.min,
			AvgUnitPrice:  agg.sum.Div(decimal.NewFromInt(int64(agg.count))).Round(2),
			PurchaseCount: agg.count,
			LastSeen:      agg.lastSeen,
		})
	}
	sort.Slice(quotes, func(i, j int) bool {
		if !quotes[i].MinUnitPrice.Equal(quotes[j].MinUnitPrice) {
			return quotes[i].MinUnitPrice.LessThan(quotes[j].MinUnitPrice)
		}
		if !quotes[i].AvgUnitPrice.Equal(quotes[j].AvgUnitPrice) {
			return quotes[i].AvgUnitPrice.LessThan(quotes[j].AvgUnitPrice)
		}
		return quotes[i].Vendor < quotes[j].Vendor
	})
	return quotes
}
