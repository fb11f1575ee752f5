package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/policy"
)

// PropertyRepository handles property and user-property association
// data access.
type PropertyRepository struct {
	db *sql.DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create inserts a new property. createdBy is the authenticated actor
// and is immutable after creation.
func (r *PropertyRepository) Create(name, address string, createdBy int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, policy.NewValidationError("name", "property name is required")
	}
	if createdBy < 1 {
		return 0, policy.NewValidationError("created_by", "creator id must be a positive integer")
	}

	result, err := r.db.Exec(`
		INSERT INTO properties (name, address, created_by)
		VALUES (?, ?, ?)
	`, name, nullString(strings.TrimSpace(address)), createdBy)
	if err != nil {
		return 0, fmt.Errorf("failed to create property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// GetByID retrieves a property by id.
func (r *PropertyRepository) GetByID(id int64) (*models.Property, error) {
	if id < 1 {
		return nil, policy.NewValidationError("id", "property id must be a positive integer")
	}

	prop := &models.Property{}
	var address sql.NullString

	err := r.db.QueryRow(`
		SELECT id, name, address, created_by, created_at, updated_at
		FROM properties
		WHERE id = ?
	`, id).Scan(&prop.ID, &prop.Name, &address, &prop.CreatedBy, &prop.CreatedAt, &prop.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	if address.Valid {
		prop.Address = address.String
	}

	return prop, nil
}

// List returns all properties, newest first.
func (r *PropertyRepository) List() ([]*models.Property, error) {
	rows, err := r.db.Query(`
		SELECT id, name, address, created_by, created_at, updated_at
		FROM properties
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var props []*models.Property
	for rows.Next() {
		prop := &models.Property{}
		var address sql.NullString
		if err := rows.Scan(&prop.ID, &prop.Name, &address, &prop.CreatedBy, &prop.CreatedAt, &prop.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		if address.Valid {
			prop.Address = address.String
		}
		props = append(props, prop)
	}

	return props, rows.Err()
}

// Delete removes a property and its association rows in one transaction.
func (r *PropertyRepository) Delete(id int64) error {
	if id < 1 {
		return policy.NewValidationError("id", "property id must be a positive integer")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_properties WHERE property_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete property associations: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// AssignUser links a user to a property with a typed relationship.
// Upsert semantics: assigning an already-linked pair updates the
// relationship type instead of erroring, so at most one row ever exists
// per (user, property).
func (r *PropertyRepository) AssignUser(userID, propertyID int64, relationship string) error {
	if userID < 1 {
		return policy.NewValidationError("user_id", "user id must be a positive integer")
	}
	if propertyID < 1 {
		return policy.NewValidationError("property_id", "property id must be a positive integer")
	}
	if !models.ValidRelationship(relationship) {
		return policy.NewValidationError("relationship_type", "relationship must be owner, manager, or resident")
	}

	_, err := r.db.Exec(`
		INSERT INTO user_properties (user_id, property_id, relationship_type)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, property_id)
		DO UPDATE SET relationship_type = excluded.relationship_type
	`, userID, propertyID, relationship)
	if err != nil {
		if te := translateConstraint(err); te != nil {
			return te
		}
		return fmt.Errorf("failed to assign user to property: %w", err)
	}

	return nil
}

// RemoveUser deletes the association between a user and a property.
func (r *PropertyRepository) RemoveUser(userID, propertyID int64) error {
	result, err := r.db.Exec(`
		DELETE FROM user_properties WHERE user_id = ? AND property_id = ?
	`, userID, propertyID)
	if err != nil {
		return fmt.Errorf("failed to remove user from property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListUserProperties returns the properties a user is associated with.
func (r *PropertyRepository) ListUserProperties(userID int64) ([]*models.Property, error) {
	if userID < 1 {
		return nil, policy.NewValidationError("user_id", "user id must be a positive integer")
	}

	rows, err := r.db.Query(`
		SELECT p.id, p.name, p.address, p.created_by, p.created_at, p.updated_at
		FROM properties p
		JOIN user_properties up ON up.property_id = p.id
		WHERE up.user_id = ?
		ORDER BY p.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user properties: %w", err)
	}
	defer rows.Close()

	var props []*models.Property
	for rows.Next() {
		prop := &models.Property{}
		var address sql.NullString
		if err := rows.Scan(&prop.ID, &prop.Name, &address, &prop.CreatedBy, &prop.CreatedAt, &prop.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		if address.Valid {
			prop.Address = address.String
		}
		props = append(props, prop)
	}

	return props, rows.Err()
}

// ListPropertyUsers returns the association rows for a property.
func (r *PropertyRepository) ListPropertyUsers(propertyID int64) ([]*models.UserProperty, error) {
	if propertyID < 1 {
		return nil, policy.NewValidationError("property_id", "property id must be a positive integer")
	}

	rows, err := r.db.Query(`
		SELECT user_id, property_id, relationship_type, created_at
		FROM user_properties
		WHERE property_id = ?
		ORDER BY created_at
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list property users: %w", err)
	}
	defer rows.Close()

	var links []*models.UserProperty
	for rows.Next() {
		link := &models.UserProperty{}
		if err := rows.Scan(&link.UserID, &link.PropertyID, &link.RelationshipType, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}
