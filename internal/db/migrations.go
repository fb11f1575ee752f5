package db

import (
	"database/sql"
	"fmt"
)

// migration is a single schema change. Statements must be safe to run
// exactly once; RunMigrations records each applied version so a step is
// never executed twice.
type migration struct {
	version    int
	statements []string
}

// migrations is the ordered list of schema changes. Append only; never
// modify an entry that has shipped.
var migrations = []migration{
	{
		version: 1,
		statements: []string{
			usersTable,
			usersIndexes,
			propertiesTable,
			userPropertiesTable,
			userPropertiesIndexes,
			sightingsTable,
			sightingsIndexes,
			auditLogTable,
			auditLogIndexes,
		},
	},
	{
		// Older deployments created sightings without identity references.
		// Additive only: existing rows keep NULL.
		version: 2,
		statements: []string{
			`ALTER TABLE sightings ADD COLUMN user_id INTEGER REFERENCES users(id)`,
			`ALTER TABLE sightings ADD COLUMN property_id INTEGER REFERENCES properties(id)`,
			`CREATE INDEX idx_sightings_user_id ON sightings(user_id)`,
			`CREATE INDEX idx_sightings_property_id ON sightings(property_id)`,
		},
	},
}

// RunMigrations applies all pending migrations in order, each inside its
// own transaction together with the schema_version bookkeeping row.
func RunMigrations(db *DB) error {
	if err := ensureVersionTable(db); err != nil {
		return err
	}

	current, err := currentVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
	}

	return nil
}

func ensureVersionTable(db *DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

func currentVersion(db *DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func applyMigration(db *DB, m migration) error {
	tx, err := db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return err
	}

	return tx.Commit()
}

// Schema definitions
const (
	usersTable = `
CREATE TABLE users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL CHECK (role IN ('admin', 'resident', 'property_manager')),
    is_active     INTEGER NOT NULL DEFAULT 1,
    full_name     TEXT,
    totp_secret   TEXT,
    last_login    DATETIME,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	usersIndexes = `
CREATE INDEX idx_users_username ON users(username);
CREATE INDEX idx_users_email ON users(email);
CREATE INDEX idx_users_role ON users(role)`

	propertiesTable = `
CREATE TABLE properties (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL,
    address    TEXT,
    created_by INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

    FOREIGN KEY (created_by) REFERENCES users(id)
)`

	userPropertiesTable = `
CREATE TABLE user_properties (
    user_id           INTEGER NOT NULL,
    property_id       INTEGER NOT NULL,
    relationship_type TEXT NOT NULL CHECK (relationship_type IN ('owner', 'manager', 'resident')),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

    PRIMARY KEY (user_id, property_id),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
)`

	userPropertiesIndexes = `
CREATE INDEX idx_user_properties_property ON user_properties(property_id)`

	sightingsTable = `
CREATE TABLE sightings (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp   DATETIME NOT NULL,
    location    TEXT NOT NULL,
    room_type   TEXT,
    roach_count INTEGER NOT NULL DEFAULT 1,
    roach_size  TEXT,
    roach_type  TEXT,
    photo_path  TEXT,
    notes       TEXT,
    weather     TEXT,
    temperature REAL,
    time_of_day TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	sightingsIndexes = `
CREATE INDEX idx_sightings_timestamp ON sightings(timestamp);
CREATE INDEX idx_sightings_location ON sightings(location)`

	auditLogTable = `
CREATE TABLE audit_log (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    event_type TEXT NOT NULL,
    username   TEXT,
    user_id    INTEGER,
    details    TEXT,
    ip_address TEXT NOT NULL,
    success    INTEGER NOT NULL DEFAULT 1,
    timestamp  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	auditLogIndexes = `
CREATE INDEX idx_audit_timestamp ON audit_log(timestamp);
CREATE INDEX idx_audit_event_type ON audit_log(event_type);
CREATE INDEX idx_audit_username ON audit_log(username)`
)
