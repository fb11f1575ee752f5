// Package auth implements the authentication entry points consumed by
// the web layer: registration, login with rate limiting and optional
// TOTP, logout, and password changes.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnoice/roachtrack/internal/db/repository"
	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/policy"
	"github.com/dnoice/roachtrack/internal/security"
)

// Authentication failures. All of them map to a generic message for end
// users; the distinction exists for handlers and the audit trail.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrTOTPRequired       = errors.New("verification code required")
	ErrTOTPInvalid        = errors.New("invalid verification code")
)

// LockoutError reports an active lockout and how long it lasts.
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	secs := int(e.Remaining.Seconds())
	if mins := secs / 60; mins > 0 {
		return fmt.Sprintf("account temporarily locked, try again in %d minute(s) and %d second(s)", mins, secs%60)
	}
	return fmt.Sprintf("account temporarily locked, try again in %d second(s)", secs)
}

// Service wires the credential store, password policy, rate limiter,
// auditor, and session store into the login flow. All dependencies are
// injected by the composition root.
type Service struct {
	users    *repository.UserRepository
	limiter  *security.RateLimiter
	auditor  *security.Auditor
	sessions *SessionStore
}

// NewService creates the authentication service.
func NewService(users *repository.UserRepository, limiter *security.RateLimiter, auditor *security.Auditor, sessions *SessionStore) *Service {
	return &Service{
		users:    users,
		limiter:  limiter,
		auditor:  auditor,
		sessions: sessions,
	}
}

// Register self-registers a new resident account after full policy
// validation. The role is always resident; admins create other roles
// through the administrative path.
func (s *Service) Register(username, email, password, fullName, ip string) (int64, error) {
	if err := policy.ValidateUsername(username); err != nil {
		return 0, err
	}
	if err := policy.ValidateEmail(email); err != nil {
		return 0, err
	}
	if err := policy.ValidatePasswordStrength(password); err != nil {
		return 0, err
	}
	if err := policy.ValidateFullName(fullName); err != nil {
		return 0, err
	}

	id, err := s.users.Create(repository.CreateUserParams{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleResident,
		FullName: policy.SanitizeText(fullName, 100),
	})
	if err != nil {
		return 0, err
	}

	s.auditor.LogEvent(security.Event{
		Type:      models.EventRegistration,
		Username:  strings.ToLower(strings.TrimSpace(username)),
		UserID:    &id,
		IPAddress: ip,
		Success:   true,
	})

	return id, nil
}

// Authenticate runs the full login flow: lockout gate on both the
// username and IP identifiers, credential verification, active check,
// optional TOTP, attempt recording, audit, and session issue. totpCode
// is ignored for users not enrolled in TOTP.
func (s *Service) Authenticate(username, password, totpCode, ip string) (*Session, error) {
	normalized := strings.ToLower(strings.TrimSpace(username))

	// Either identifier being locked blocks the attempt before the
	// credential store is consulted.
	for _, identifier := range []string{normalized, ip} {
		if s.limiter.IsLockedOut(identifier) {
			return nil, &LockoutError{Remaining: s.limiter.TimeRemaining(identifier)}
		}
	}

	user, err := s.users.VerifyPassword(normalized, password)
	if err != nil {
		return nil, err
	}

	if user == nil {
		s.recordAttempt(normalized, ip, false)
		s.auditor.LogEvent(security.Event{
			Type:      models.EventLoginFailure,
			Username:  normalized,
			Details:   "invalid credentials",
			IPAddress: ip,
			Success:   false,
		})
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.recordAttempt(normalized, ip, false)
		s.auditor.LogEvent(security.Event{
			Type:      models.EventLoginFailure,
			Username:  normalized,
			UserID:    &user.ID,
			Details:   "account disabled",
			IPAddress: ip,
			Success:   false,
		})
		return nil, ErrAccountDisabled
	}

	if user.TOTPSecret != "" {
		if totpCode == "" {
			return nil, ErrTOTPRequired
		}
		if !security.ValidateTOTP(user.TOTPSecret, totpCode) {
			s.recordAttempt(normalized, ip, false)
			s.auditor.LogEvent(security.Event{
				Type:      models.EventLoginFailure,
				Username:  normalized,
				UserID:    &user.ID,
				Details:   "invalid TOTP code",
				IPAddress: ip,
				Success:   false,
			})
			return nil, ErrTOTPInvalid
		}
	}

	s.recordAttempt(normalized, ip, true)
	s.auditor.LogEvent(security.Event{
		Type:      models.EventLoginSuccess,
		Username:  normalized,
		UserID:    &user.ID,
		IPAddress: ip,
		Success:   true,
	})

	return s.sessions.Create(user)
}

// recordAttempt feeds the result back into the limiter for both
// identifiers. Each is tracked separately; clearing one does not clear
// the other.
func (s *Service) recordAttempt(username, ip string, success bool) {
	s.limiter.RecordAttempt(username, success)
	if ip != "" {
		s.limiter.RecordAttempt(ip, success)
	}
}

// Logout invalidates the session token.
func (s *Service) Logout(token, ip string) {
	if session, ok := s.sessions.Get(token); ok {
		s.auditor.LogEvent(security.Event{
			Type:      models.EventLogout,
			Username:  session.Username,
			UserID:    &session.UserID,
			IPAddress: ip,
			Success:   true,
		})
	}
	s.sessions.Delete(token)
}

// ValidateSession resolves a session token.
func (s *Service) ValidateSession(token string) (*Session, bool) {
	return s.sessions.Get(token)
}

// ChangePassword verifies the current password, validates the new one
// against the full policy, and stores the new hash.
func (s *Service) ChangePassword(userID int64, current, newPassword, ip string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	if !security.VerifyPassword(user.PasswordHash, current) {
		s.auditor.LogEvent(security.Event{
			Type:      models.EventPasswordChange,
			Username:  user.Username,
			UserID:    &user.ID,
			Details:   "current password mismatch",
			IPAddress: ip,
			Success:   false,
		})
		return ErrInvalidCredentials
	}

	if err := policy.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	if err := s.users.UpdatePassword(userID, newPassword); err != nil {
		return err
	}

	s.auditor.LogEvent(security.Event{
		Type:      models.EventPasswordChange,
		Username:  user.Username,
		UserID:    &user.ID,
		IPAddress: ip,
		Success:   true,
	})

	return nil
}

// EnrollTOTP generates and stores a TOTP secret for a user, returning
// the secret and its provisioning URL.
func (s *Service) EnrollTOTP(userID int64) (secret, provisioningURL string, err error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", "", err
	}

	secret, err = security.GenerateTOTPSecret(user.Username)
	if err != nil {
		return "", "", err
	}

	if err := s.users.Update(userID, repository.UserUpdate{TOTPSecret: &secret}); err != nil {
		return "", "", err
	}

	return secret, security.TOTPProvisioningURL(secret, user.Username), nil
}
