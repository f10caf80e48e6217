package models

// UserRole represents the role a user signed up with.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleVendor   UserRole = "vendor"
)

// User represents an account in the ledger. The pincode and geolocation
// snapshot are supplied by the client at signup and may be refreshed on
// later logins; the reverse-geocoding that produces the pincode happens
// outside this service.
type User struct {
	Base
	Name      string   `gorm:"not null" json:"name"`
	Contact   string   `gorm:"uniqueIndex;not null" json:"contact"`
	Password  string   `gorm:"not null" json:"-"`
	Role      UserRole `gorm:"not null;default:customer" json:"role"`
	Pincode   string   `gorm:"size:10;index" json:"pincode,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Expenses []Expense `gorm:"foreignKey:UserID" json:"expenses,omitempty"`
}
