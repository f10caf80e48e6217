package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user. The pincode and geolocation snapshot
// are whatever the signup client derived; this core only stores them.
func (s *userService) CreateUser(name, contact, password string, role models.UserRole, pincode string, latitude, longitude *float64) (*models.User, error) {
	name = strings.TrimSpace(name)
	contact = strings.TrimSpace(contact)
	if name == "" || contact == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name, contact, and password are required")
	}
	if role != models.UserRoleCustomer && role != models.UserRoleVendor {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "role must be customer or vendor")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("contact = ?", contact).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateContact
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Name:      name,
		Contact:   contact,
		Password:  string(hashedPassword),
		Role:      role,
		Pincode:   strings.TrimSpace(pincode),
		Latitude:  latitude,
		Longitude: longitude,
	}

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateContact
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByContact retrieves a user by contact handle and role.
func (s *userService) GetUserByContact(contact string, role models.UserRole) (*models.User, error) {
	var user models.User
	if err := s.db.Where("contact = ? AND role = ?", strings.TrimSpace(contact), role).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash.
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// RefreshLocation updates the user's pincode and geolocation snapshot,
// typically on login when the client re-derived them from GPS.
func (s *userService) RefreshLocation(userID, pincode string, latitude, longitude *float64) error {
	pincode = strings.TrimSpace(pincode)
	updates := make(map[string]interface{})
	if pincode != "" {
		updates["pincode"] = pincode
	}
	if latitude != nil {
		updates["latitude"] = *latitude
	}
	if longitude != nil {
		updates["longitude"] = *longitude
	}
	if len(updates) == 0 {
		return nil
	}

	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
