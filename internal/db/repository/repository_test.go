package repository_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dnoice/roachtrack/internal/db"
	"github.com/dnoice/roachtrack/internal/db/repository"
	"github.com/dnoice/roachtrack/internal/models"
)

// newTestDB opens a throwaway SQLite database with the full schema.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))

	return database
}

func newUserRepo(t *testing.T, database *db.DB) *repository.UserRepository {
	t.Helper()
	return repository.NewUserRepository(database.DB, bcrypt.MinCost)
}

// mustCreateUser inserts a user and returns its id.
func mustCreateUser(t *testing.T, users *repository.UserRepository, username string) int64 {
	t.Helper()
	id, err := users.Create(repository.CreateUserParams{
		Username: username,
		Email:    username + "@example.com",
		Password: "Tr0ub4dor&3",
		Role:     models.RoleResident,
	})
	require.NoError(t, err)
	return id
}
