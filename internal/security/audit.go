package security

import (
	"log"
	"strconv"
	"strings"

	"github.com/dnoice/roachtrack/internal/models"
)

// AuditStore persists audit entries. Satisfied by
// repository.AuditRepository.
type AuditStore interface {
	Create(entry *models.AuditLog) error
}

// Event is one security-relevant action to record.
type Event struct {
	Type      string
	Username  string
	UserID    *int64
	Details   string
	IPAddress string
	Success   bool
}

// Auditor writes security events to the process log and, best-effort,
// to durable storage. A storage failure never propagates to the caller:
// the audit trail must not affect the outcome of the operation that
// triggered it.
type Auditor struct {
	store AuditStore
}

// NewAuditor creates an auditor backed by the given store. A nil store
// disables persistence; events still reach the process log.
func NewAuditor(store AuditStore) *Auditor {
	return &Auditor{store: store}
}

// LogEvent records a security event. The process log line is always
// written; persistence failures are logged locally and swallowed.
func (a *Auditor) LogEvent(e Event) {
	if e.IPAddress == "" {
		e.IPAddress = "unknown"
	}

	parts := []string{
		"[" + strings.ToUpper(e.Type) + "]",
		"IP: " + e.IPAddress,
	}
	if e.Username != "" {
		parts = append(parts, "User: "+e.Username)
	}
	if e.UserID != nil {
		parts = append(parts, "UserID: "+strconv.FormatInt(*e.UserID, 10))
	}
	if e.Details != "" {
		parts = append(parts, "Details: "+e.Details)
	}
	if !e.Success {
		parts = append(parts, "STATUS: FAILED")
	}
	log.Printf("security: %s", strings.Join(parts, " | "))

	if a.store == nil {
		return
	}
	err := a.store.Create(&models.AuditLog{
		EventType: e.Type,
		Username:  e.Username,
		UserID:    e.UserID,
		Details:   e.Details,
		IPAddress: e.IPAddress,
		Success:   e.Success,
	})
	if err != nil {
		log.Printf("security: failed to store audit log: %v", err)
	}
}
