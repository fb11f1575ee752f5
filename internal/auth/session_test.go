package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnoice/roachtrack/internal/models"
)

func testUser(id int64, username string) *models.User {
	return &models.User{ID: id, Username: username, Role: models.RoleResident, IsActive: true}
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := NewSessionStore(time.Hour)

	session, err := store.Create(testUser(1, "alice"))
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, int64(1), session.UserID)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, models.RoleResident, session.Role)

	got, ok := store.Get(session.Token)
	require.True(t, ok)
	assert.Equal(t, session, got)

	_, ok = store.Get("no-such-token")
	assert.False(t, ok)
	_, ok = store.Get("")
	assert.False(t, ok)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(time.Hour)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	session, err := store.Create(testUser(1, "alice"))
	require.NoError(t, err)

	current = current.Add(59 * time.Minute)
	_, ok := store.Get(session.Token)
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok = store.Get(session.Token)
	assert.False(t, ok)

	// Expired sessions are removed, not resurrected
	current = current.Add(-10 * time.Minute)
	_, ok = store.Get(session.Token)
	assert.False(t, ok)
}

func TestSessionStoreDeleteForUser(t *testing.T) {
	store := NewSessionStore(time.Hour)

	s1, err := store.Create(testUser(1, "alice"))
	require.NoError(t, err)
	s2, err := store.Create(testUser(1, "alice"))
	require.NoError(t, err)
	s3, err := store.Create(testUser(2, "bob"))
	require.NoError(t, err)

	store.DeleteForUser(1)

	_, ok := store.Get(s1.Token)
	assert.False(t, ok)
	_, ok = store.Get(s2.Token)
	assert.False(t, ok)
	_, ok = store.Get(s3.Token)
	assert.True(t, ok)
}

func TestSessionTokensAreUnique(t *testing.T) {
	store := NewSessionStore(time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		session, err := store.Create(testUser(1, "alice"))
		require.NoError(t, err)
		assert.False(t, seen[session.Token])
		seen[session.Token] = true
	}
}
