package models

// Catalog entities are normalized, deduplicated reference rows created
// lazily by the resolver on first reference and never updated or deleted
// here. Category and Vendor names are unique under case-insensitive
// comparison; the SQL migrations add lower(name) unique indexes on top of
// the plain unique columns GORM generates for test databases.

// Category groups products and expenses for reporting.
type Category struct {
	Base
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// Vendor is a shop or seller expenses are recorded against.
type Vendor struct {
	Base
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// Product is identified semantically by (name, brand) compared
// case-insensitively; an absent brand is stored as the empty string so the
// composite unique index also dedupes brandless products. The ID is a
// generated surrogate (name prefix + timestamp + random suffix) and must
// never be used as a matching key.
type Product struct {
	Base
	Name       string `gorm:"not null;uniqueIndex:idx_products_name_brand" json:"name"`
	Brand      string `gorm:"uniqueIndex:idx_products_name_brand" json:"brand,omitempty"`
	CategoryID string `gorm:"type:uuid;not null;index" json:"category_id"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
