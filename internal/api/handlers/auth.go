package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dnoice/roachtrack/internal/api/middleware"
	"github.com/dnoice/roachtrack/internal/auth"
	"github.com/dnoice/roachtrack/pkg/clientip"
)

// AuthHandler handles registration, login, logout, and password change
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// RegisterRequest represents a self-registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// Register creates a new resident account
// POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	id, err := h.svc.Register(req.Username, req.Email, req.Password, req.FullName, clientip.FromRequest(c.Request))
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": id})
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// Login authenticates a user and issues a session token
// POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	session, err := h.svc.Authenticate(req.Username, req.Password, req.TOTPCode, clientip.FromRequest(c.Request))
	if err != nil {
		var le *auth.LockoutError
		switch {
		case errors.As(err, &le):
			RespondError(c, http.StatusTooManyRequests, "locked_out", le.Error())
		case errors.Is(err, auth.ErrTOTPRequired):
			RespondError(c, http.StatusUnauthorized, "totp_required", "Verification code required")
		case errors.Is(err, auth.ErrTOTPInvalid),
			errors.Is(err, auth.ErrInvalidCredentials),
			errors.Is(err, auth.ErrAccountDisabled):
			// One generic message; no hints about which part failed.
			RespondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		default:
			RespondStoreError(c, err)
		}
		return
	}

	RespondSuccess(c, session)
}

// Logout invalidates the current session
// POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session != nil {
		h.svc.Logout(session.Token, clientip.FromRequest(c.Request))
	}
	RespondSuccess(c, gin.H{"status": "ok"})
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword updates the caller's password
// POST /v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	session := middleware.CurrentSession(c)
	err := h.svc.ChangePassword(session.UserID, req.CurrentPassword, req.NewPassword, clientip.FromRequest(c.Request))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondError(c, http.StatusUnauthorized, "invalid_credentials", "Current password is incorrect")
			return
		}
		RespondStoreError(c, err)
		return
	}

	RespondSuccess(c, gin.H{"status": "ok"})
}

// EnrollTOTP enables two-factor authentication for the caller
// POST /v1/auth/totp/enroll
func (h *AuthHandler) EnrollTOTP(c *gin.Context) {
	session := middleware.CurrentSession(c)
	secret, provisioningURL, err := h.svc.EnrollTOTP(session.UserID)
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	RespondSuccess(c, gin.H{
		"secret":           secret,
		"provisioning_url": provisioningURL,
	})
}
