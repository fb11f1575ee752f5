package models

import "time"

// Relationship types for user-property associations
const (
	RelationshipOwner    = "owner"
	RelationshipManager  = "manager"
	RelationshipResident = "resident"
)

// ValidRelationship reports whether rel is an allowed relationship type.
func ValidRelationship(rel string) bool {
	switch rel {
	case RelationshipOwner, RelationshipManager, RelationshipResident:
		return true
	}
	return false
}

// Property represents a managed property
type Property struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProperty links a user to a property with a typed relationship.
// At most one row exists per (user, property) pair.
type UserProperty struct {
	UserID           int64     `json:"user_id"`
	PropertyID       int64     `json:"property_id"`
	RelationshipType string    `json:"relationship_type"`
	CreatedAt        time.Time `json:"created_at"`
}
