package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/policy"
	"github.com/dnoice/roachtrack/internal/security"
)

// UserRepository handles user data access
type UserRepository struct {
	db   *sql.DB
	cost int
}

// NewUserRepository creates a new user repository. cost is the bcrypt
// work factor used when hashing passwords.
func NewUserRepository(db *sql.DB, cost int) *UserRepository {
	return &UserRepository{db: db, cost: cost}
}

// CreateUserParams holds the inputs for Create. Password is the
// plaintext; it is hashed before anything touches the database.
type CreateUserParams struct {
	Username string
	Email    string
	Password string
	Role     string
	FullName string
}

// Create validates, hashes the password, and inserts a new user.
// Username and email are normalized to lowercase. Returns the new
// user's id, a ValidationError on a rule violation, or a field-specific
// ConflictError when username or email already exists.
func (r *UserRepository) Create(p CreateUserParams) (int64, error) {
	username := strings.ToLower(strings.TrimSpace(p.Username))
	email := strings.ToLower(strings.TrimSpace(p.Email))

	if len(username) < 3 {
		return 0, policy.NewValidationError("username", "username must be at least 3 characters")
	}
	if !strings.Contains(email, "@") {
		return 0, policy.NewValidationError("email", "invalid email address")
	}
	if len(p.Password) < 8 {
		return 0, policy.NewValidationError("password", "password must be at least 8 characters")
	}
	if !models.ValidRole(p.Role) {
		return 0, policy.NewValidationError("role", "role must be admin, resident, or property_manager")
	}

	hash, err := security.HashPassword(p.Password, r.cost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	var fullName sql.NullString
	if name := strings.TrimSpace(p.FullName); name != "" {
		fullName = sql.NullString{String: name, Valid: true}
	}

	result, err := r.db.Exec(`
		INSERT INTO users (username, email, password_hash, role, full_name)
		VALUES (?, ?, ?, ?, ?)
	`, username, email, hash, p.Role, fullName)
	if err != nil {
		if ce := translateConstraint(err); ce != nil {
			return 0, ce
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// VerifyPassword looks up a user by normalized username and checks the
// plaintext against the stored bcrypt hash. Returns (nil, nil) when the
// user does not exist or the password does not match; a wrong password
// is not an error. On success last_login is updated within the same
// call, but only for active accounts: a disabled account never counts
// as logged in, even with the right password.
func (r *UserRepository) VerifyPassword(username, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, policy.NewValidationError("username", "username is required")
	}
	if password == "" {
		return nil, policy.NewValidationError("password", "password is required")
	}

	user, err := r.GetByUsername(username)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !security.VerifyPassword(user.PasswordHash, password) {
		return nil, nil
	}

	if user.IsActive {
		now := time.Now()
		if _, err := r.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, now, user.ID); err != nil {
			return nil, fmt.Errorf("failed to update last login: %w", err)
		}
		user.LastLogin = &now
	}

	return user, nil
}

const userColumns = `id, username, email, password_hash, role, is_active, full_name, totp_secret, last_login, created_at, updated_at`

// GetByID retrieves a user by id. The id must be positive.
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	if id < 1 {
		return nil, policy.NewValidationError("id", "user id must be a positive integer")
	}
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by normalized username.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getOne(query string, arg interface{}) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UserUpdate is a typed partial update. Only non-nil fields are written;
// anything not listed here is immutable through this path.
type UserUpdate struct {
	Email        *string
	FullName     *string
	Role         *string
	IsActive     *bool
	PasswordHash *string
	TOTPSecret   *string
}

// Update applies a partial update to a user. Fails with a
// ValidationError when no fields are set or a value is out of policy,
// and with a ConflictError when the new email collides.
func (r *UserRepository) Update(id int64, u UserUpdate) error {
	if id < 1 {
		return policy.NewValidationError("id", "user id must be a positive integer")
	}

	var sets []string
	var args []interface{}

	if u.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*u.Email))
		if !strings.Contains(email, "@") {
			return policy.NewValidationError("email", "invalid email address")
		}
		sets = append(sets, "email = ?")
		args = append(args, email)
	}
	if u.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, nullString(strings.TrimSpace(*u.FullName)))
	}
	if u.Role != nil {
		if !models.ValidRole(*u.Role) {
			return policy.NewValidationError("role", "role must be admin, resident, or property_manager")
		}
		sets = append(sets, "role = ?")
		args = append(args, *u.Role)
	}
	if u.IsActive != nil {
		active := 0
		if *u.IsActive {
			active = 1
		}
		sets = append(sets, "is_active = ?")
		args = append(args, active)
	}
	if u.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *u.PasswordHash)
	}
	if u.TOTPSecret != nil {
		sets = append(sets, "totp_secret = ?")
		args = append(args, nullString(*u.TOTPSecret))
	}

	if len(sets) == 0 {
		return policy.NewValidationError("", "no updatable fields provided")
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		if ce := translateConstraint(err); ce != nil {
			return ce
		}
		return fmt.Errorf("failed to update user: %w", err)
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

// UpdatePassword re-validates length, re-hashes, and stores the new
// password for a user.
func (r *UserRepository) UpdatePassword(id int64, password string) error {
	if len(password) < 8 {
		return policy.NewValidationError("password", "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(password, r.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return r.Update(id, UserUpdate{PasswordHash: &hash})
}

// Delete hard-deletes a user and its property associations in a single
// transaction. A crash mid-delete leaves both tables untouched.
func (r *UserRepository) Delete(id int64) error {
	if id < 1 {
		return policy.NewValidationError("id", "user id must be a positive integer")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_properties WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user associations: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

// List returns users newest-first, optionally filtered by role.
func (r *UserRepository) List(role string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []interface{}

	if role != "" {
		if !models.ValidRole(role) {
			return nil, policy.NewValidationError("role", "role must be admin, resident, or property_manager")
		}
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var isActive int
	var fullName, totpSecret sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&isActive,
		&fullName,
		&totpSecret,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.IsActive = isActive == 1
	if fullName.Valid {
		user.FullName = fullName.String
	}
	if totpSecret.Valid {
		user.TOTPSecret = totpSecret.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}

	return user, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
