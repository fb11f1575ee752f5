package repository

import (
	"database/sql"
	"fmt"

	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/policy"
)

// AuditRepository handles audit log data access. Rows are append-only;
// nothing here updates or deletes them.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends a new audit log entry
func (r *AuditRepository) Create(entry *models.AuditLog) error {
	success := 0
	if entry.Success {
		success = 1
	}

	result, err := r.db.Exec(`
		INSERT INTO audit_log (event_type, username, user_id, details, ip_address, success)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		entry.EventType,
		nullString(entry.Username),
		entry.UserID,
		nullString(entry.Details),
		entry.IPAddress,
		success,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id

	return nil
}

// List returns audit entries newest-first with optional filters.
func (r *AuditRepository) List(username, eventType string, limit int) ([]*models.AuditLog, error) {
	if limit < 1 {
		return nil, policy.NewValidationError("limit", "limit must be a positive integer")
	}

	query := `
		SELECT id, event_type, username, user_id, details, ip_address, success, timestamp
		FROM audit_log
		WHERE 1=1
	`
	args := []interface{}{}

	if username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}
	if eventType != "" {
		query += " AND event_type = ?"
		args = append(args, eventType)
	}

	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var success int
		var username, details sql.NullString
		var userID sql.NullInt64

		err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&username,
			&userID,
			&details,
			&entry.IPAddress,
			&success,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		entry.Success = success == 1
		entry.Username = username.String
		entry.Details = details.String
		if userID.Valid {
			v := userID.Int64
			entry.UserID = &v
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// CountByEventType counts audit entries of one event type.
func (r *AuditRepository) CountByEventType(eventType string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM audit_log WHERE event_type = ?
	`, eventType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return count, nil
}
