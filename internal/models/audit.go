package models

import "time"

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        int64     `json:"id"`
	EventType string    `json:"event_type"`
	Username  string    `json:"username,omitempty"`
	UserID    *int64    `json:"user_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	IPAddress string    `json:"ip_address"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// Security event types
const (
	EventLoginSuccess       = "login_success"
	EventLoginFailure       = "login_failed"
	EventLogout             = "logout"
	EventRegistration       = "registration"
	EventPasswordChange     = "password_change"
	EventUserCreated        = "user_created"
	EventUserDeleted        = "user_deleted"
	EventUserActivated      = "user_activated"
	EventUserDeactivated    = "user_deactivated"
	EventRoleChanged        = "role_changed"
	EventUnauthorizedAccess = "unauthorized_access"
	EventAccountLocked      = "account_locked"
)
