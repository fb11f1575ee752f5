package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeOfDay(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2025, 6, 1, hour, 30, 0, 0, time.UTC)
	}

	tests := []struct {
		hour int
		want string
	}{
		{4, "Night"},
		{5, "Morning"},
		{11, "Morning"},
		{12, "Afternoon"},
		{16, "Afternoon"},
		{17, "Evening"},
		{20, "Evening"},
		{21, "Night"},
		{23, "Night"},
		{0, "Night"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeOfDay(at(tt.hour)), "hour %d", tt.hour)
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleResident))
	assert.True(t, ValidRole(RolePropertyManager))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("superuser"))
	assert.False(t, ValidRole("Admin"))
}

func TestValidRelationship(t *testing.T) {
	assert.True(t, ValidRelationship(RelationshipOwner))
	assert.True(t, ValidRelationship(RelationshipManager))
	assert.True(t, ValidRelationship(RelationshipResident))
	assert.False(t, ValidRelationship("tenant"))
	assert.False(t, ValidRelationship(""))
}
