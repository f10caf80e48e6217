package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single purchased line item. Rows are immutable and
// append-only; there is no update or delete operation in this core.
//
// CategoryID is a copy of the product's category at write time,
// denormalized so report queries avoid the extra join. Total is always
// recomputed by the engine as Quantity × UnitPrice; a caller-supplied
// total is advisory only.
type Expense struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID  string          `gorm:"not null;index" json:"product_id"`
	CategoryID string          `gorm:"type:uuid;not null;index" json:"category_id"`
	VendorID   string          `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Date       time.Time       `gorm:"not null;index" json:"date"`
	Quantity   decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Total      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`

	Product  Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Vendor   Vendor   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}
