package models

import "time"

// User roles
const (
	RoleAdmin           = "admin"
	RoleResident        = "resident"
	RolePropertyManager = "property_manager"
)

// ValidRole reports whether role is one of the three allowed values.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleResident, RolePropertyManager:
		return true
	}
	return false
}

// User represents a user account
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose password hash in JSON
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	FullName     string     `json:"full_name,omitempty"`
	TOTPSecret   string     `json:"-"` // Never expose TOTP secret in JSON
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsPropertyManager reports whether the user has the property manager role.
func (u *User) IsPropertyManager() bool {
	return u.Role == RolePropertyManager
}
