// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Indian postal codes: six digits, first digit non-zero.
var pincodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("pincode", validatePincode)
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "customer", "vendor":
		return true
	}
	return false
}

func validatePincode(fl validator.FieldLevel) bool {
	return pincodeRegex.MatchString(fl.Field().String())
}
