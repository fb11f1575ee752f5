package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dnoice/roachtrack/internal/api/middleware"
	"github.com/dnoice/roachtrack/internal/auth"
	"github.com/dnoice/roachtrack/internal/db/repository"
	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/policy"
	"github.com/dnoice/roachtrack/internal/security"
	"github.com/dnoice/roachtrack/pkg/clientip"
)

// AdminHandler handles administrative user operations
type AdminHandler struct {
	users    *repository.UserRepository
	audits   *repository.AuditRepository
	auditor  *security.Auditor
	sessions *auth.SessionStore
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users *repository.UserRepository, audits *repository.AuditRepository, auditor *security.Auditor, sessions *auth.SessionStore) *AdminHandler {
	return &AdminHandler{users: users, audits: audits, auditor: auditor, sessions: sessions}
}

// CreateUserRequest represents an admin user creation request
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	FullName string `json:"full_name"`
}

// CreateUser creates a user with an admin-chosen role
// POST /v1/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := policy.ValidateUsername(req.Username); err != nil {
		RespondStoreError(c, err)
		return
	}
	if err := policy.ValidateEmail(req.Email); err != nil {
		RespondStoreError(c, err)
		return
	}
	if err := policy.ValidatePasswordStrength(req.Password); err != nil {
		RespondStoreError(c, err)
		return
	}

	id, err := h.users.Create(repository.CreateUserParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		FullName: policy.SanitizeText(req.FullName, 100),
	})
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	actor := middleware.CurrentSession(c)
	h.auditor.LogEvent(security.Event{
		Type:      models.EventUserCreated,
		Username:  actor.Username,
		UserID:    &actor.UserID,
		Details:   "created user " + req.Username + " with role " + req.Role,
		IPAddress: clientip.FromRequest(c.Request),
		Success:   true,
	})

	c.JSON(http.StatusCreated, gin.H{"user_id": id})
}

// ListUsers lists users, optionally filtered by role
// GET /v1/admin/users?role=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Query("role"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"users": users})
}

// ToggleActive flips a user's active flag
// PUT /v1/admin/users/:id/toggle-active
func (h *AdminHandler) ToggleActive(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid user id")
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	active := !user.IsActive
	if err := h.users.Update(id, repository.UserUpdate{IsActive: &active}); err != nil {
		RespondStoreError(c, err)
		return
	}

	// Deactivation kills the user's live sessions.
	eventType := models.EventUserActivated
	if !active {
		eventType = models.EventUserDeactivated
		h.sessions.DeleteForUser(id)
	}

	actor := middleware.CurrentSession(c)
	h.auditor.LogEvent(security.Event{
		Type:      eventType,
		Username:  actor.Username,
		UserID:    &actor.UserID,
		Details:   "target user " + user.Username,
		IPAddress: clientip.FromRequest(c.Request),
		Success:   true,
	})

	RespondSuccess(c, gin.H{"is_active": active})
}

// UpdateRoleRequest represents a role change request
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateRole changes a user's role
// PUT /v1/admin/users/:id/role
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid user id")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	if err := h.users.Update(id, repository.UserUpdate{Role: &req.Role}); err != nil {
		RespondStoreError(c, err)
		return
	}

	actor := middleware.CurrentSession(c)
	h.auditor.LogEvent(security.Event{
		Type:      models.EventRoleChanged,
		Username:  actor.Username,
		UserID:    &actor.UserID,
		Details:   "user " + user.Username + ": " + user.Role + " -> " + req.Role,
		IPAddress: clientip.FromRequest(c.Request),
		Success:   true,
	})

	RespondSuccess(c, gin.H{"status": "ok"})
}

// DeleteUser hard-deletes a user and its property associations
// DELETE /v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid user id")
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	if err := h.users.Delete(id); err != nil {
		RespondStoreError(c, err)
		return
	}
	h.sessions.DeleteForUser(id)

	actor := middleware.CurrentSession(c)
	h.auditor.LogEvent(security.Event{
		Type:      models.EventUserDeleted,
		Username:  actor.Username,
		UserID:    &actor.UserID,
		Details:   "deleted user " + user.Username,
		IPAddress: clientip.FromRequest(c.Request),
		Success:   true,
	})

	RespondSuccess(c, gin.H{"status": "ok"})
}

// ListAuditLog returns recent audit entries
// GET /v1/admin/audit?username=&event_type=&limit=
func (h *AdminHandler) ListAuditLog(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			RespondError(c, http.StatusBadRequest, "validation_error", "Invalid limit")
			return
		}
		limit = v
	}

	entries, err := h.audits.List(c.Query("username"), c.Query("event_type"), limit)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"entries": entries})
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
