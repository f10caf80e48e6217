package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kharcha/internal/errors"
	"kharcha/internal/middleware"
	"kharcha/internal/models"
	"kharcha/internal/services"
)

// AuthHandler handles signup, login, and profile endpoints.
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		auditService: auditService,
	}
}

// SignupRequest is the payload for registering a new account. The pincode
// and coordinates are the client's geolocation snapshot at signup time.
type SignupRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=100"`
	Contact   string   `json:"contact" binding:"required,min=3,max=100"`
	Password  string   `json:"password" binding:"required,min=8,max=72"`
	Role      string   `json:"role" binding:"required,user_role"`
	Pincode   string   `json:"pincode" binding:"omitempty,pincode"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// LoginRequest is the payload for authenticating. Location fields, when
// present, refresh the stored snapshot before the token is issued.
type LoginRequest struct {
	Contact   string   `json:"contact" binding:"required"`
	Password  string   `json:"password" binding:"required"`
	Role      string   `json:"role" binding:"required,user_role"`
	Pincode   string   `json:"pincode" binding:"omitempty,pincode"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// userResponse strips the password hash from user payloads.
func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":      user.ID,
		"name":    user.Name,
		"contact": user.Contact,
		"role":    user.Role,
		"pincode": user.Pincode,
	}
}

// Signup registers a new user and returns a token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(req.Name, req.Contact, req.Password, models.UserRole(req.Role), req.Pincode, req.Latitude, req.Longitude)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(user.ID, "signup", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// Login authenticates a user, refreshes their location snapshot when the
// client supplied one, and returns a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.GetUserByContact(req.Contact, models.UserRole(req.Role))
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	if !h.userService.VerifyPassword(user, req.Password) {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	if err := h.userService.RefreshLocation(user.ID, req.Pincode, req.Latitude, req.Longitude); err != nil {
		respondWithError(c, err)
		return
	}
	if req.Pincode != "" {
		user.Pincode = req.Pincode
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(user.ID, "login", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}
