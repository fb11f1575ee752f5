package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/policy"
)

// SightingRepository handles sighting data access
type SightingRepository struct {
	db *sql.DB
}

// NewSightingRepository creates a new sighting repository
func NewSightingRepository(db *sql.DB) *SightingRepository {
	return &SightingRepository{db: db}
}

// SightingInput holds the mutable fields for create and update. A nil
// RoachCount means the count was not supplied and defaults to one roach;
// an explicit count below one is rejected.
type SightingInput struct {
	Timestamp   time.Time
	Location    string
	RoomType    string
	RoachCount  *int
	RoachSize   string
	RoachType   string
	PhotoPath   string
	Notes       string
	Weather     string
	Temperature *float64
	UserID      *int64
	PropertyID  *int64
}

func (in *SightingInput) validate() error {
	if strings.TrimSpace(in.Location) == "" {
		return policy.NewValidationError("location", "location is required")
	}
	if in.RoachCount != nil && *in.RoachCount < 1 {
		return policy.NewValidationError("roach_count", "roach count must be a positive integer")
	}
	return nil
}

func (in *SightingInput) roachCount() int {
	if in.RoachCount == nil {
		return 1
	}
	return *in.RoachCount
}

// Create validates and inserts a new sighting. A zero timestamp is
// replaced with the current time; time_of_day is derived from the
// timestamp hour.
func (r *SightingRepository) Create(in SightingInput) (int64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	result, err := r.db.Exec(`
		INSERT INTO sightings (
			timestamp, location, room_type, roach_count,
			roach_size, roach_type, photo_path, notes,
			weather, temperature, time_of_day, user_id, property_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ts,
		strings.TrimSpace(in.Location),
		nullString(in.RoomType),
		in.roachCount(),
		nullString(in.RoachSize),
		nullString(in.RoachType),
		nullString(in.PhotoPath),
		nullString(in.Notes),
		nullString(in.Weather),
		in.Temperature,
		models.TimeOfDay(ts),
		in.UserID,
		in.PropertyID,
	)
	if err != nil {
		if te := translateConstraint(err); te != nil {
			return 0, te
		}
		return 0, fmt.Errorf("failed to create sighting: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

const sightingColumns = `id, timestamp, location, room_type, roach_count, roach_size, roach_type,
	photo_path, notes, weather, temperature, time_of_day, user_id, property_id, created_at, updated_at`

// GetByID retrieves a single sighting. Returns ErrNotFound when no row
// matches; an id below 1 is a ValidationError instead.
func (r *SightingRepository) GetByID(id int64) (*models.Sighting, error) {
	if id < 1 {
		return nil, policy.NewValidationError("id", "sighting id must be a positive integer")
	}

	s, err := scanSighting(r.db.QueryRow(`SELECT `+sightingColumns+` FROM sightings WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sighting: %w", err)
	}

	return s, nil
}

// List returns sightings newest-first with optional pagination. A limit
// of 0 returns everything.
func (r *SightingRepository) List(limit, offset int) ([]*models.Sighting, error) {
	if limit < 0 {
		return nil, policy.NewValidationError("limit", "limit must be a positive integer")
	}
	if offset < 0 {
		return nil, policy.NewValidationError("offset", "offset must be a non-negative integer")
	}

	query := `SELECT ` + sightingColumns + ` FROM sightings ORDER BY timestamp DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sightings: %w", err)
	}
	defer rows.Close()

	return collectSightings(rows)
}

// Update validates and overwrites a sighting's fields.
func (r *SightingRepository) Update(id int64, in SightingInput) error {
	if id < 1 {
		return policy.NewValidationError("id", "sighting id must be a positive integer")
	}
	if err := in.validate(); err != nil {
		return err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	result, err := r.db.Exec(`
		UPDATE sightings SET
			timestamp = ?,
			location = ?,
			room_type = ?,
			roach_count = ?,
			roach_size = ?,
			roach_type = ?,
			photo_path = ?,
			notes = ?,
			weather = ?,
			temperature = ?,
			time_of_day = ?,
			user_id = ?,
			property_id = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		ts,
		strings.TrimSpace(in.Location),
		nullString(in.RoomType),
		in.roachCount(),
		nullString(in.RoachSize),
		nullString(in.RoachType),
		nullString(in.PhotoPath),
		nullString(in.Notes),
		nullString(in.Weather),
		in.Temperature,
		models.TimeOfDay(ts),
		in.UserID,
		in.PropertyID,
		id,
	)
	if err != nil {
		if te := translateConstraint(err); te != nil {
			return te
		}
		return fmt.Errorf("failed to update sighting: %w", err)
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

// Delete removes a sighting record.
func (r *SightingRepository) Delete(id int64) error {
	if id < 1 {
		return policy.NewValidationError("id", "sighting id must be a positive integer")
	}

	result, err := r.db.Exec(`DELETE FROM sightings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sighting: %w", err)
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

// Search matches the query as a literal substring of location or notes.
// LIKE metacharacters in the query are escaped so users cannot inject
// wildcard patterns.
func (r *SightingRepository) Search(query string) ([]*models.Sighting, error) {
	if strings.TrimSpace(query) == "" {
		return nil, policy.NewValidationError("query", "search query is required")
	}

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	pattern := "%" + escaped + "%"

	rows, err := r.db.Query(`
		SELECT `+sightingColumns+`
		FROM sightings
		WHERE location LIKE ? ESCAPE '\'
		   OR notes LIKE ? ESCAPE '\'
		ORDER BY timestamp DESC
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search sightings: %w", err)
	}
	defer rows.Close()

	return collectSightings(rows)
}

// Statistics computes totals, grouped distributions (descending by
// count), and the trailing 7-day trend. An empty store yields zero
// totals and empty slices, never an error.
func (r *SightingRepository) Statistics() (*models.Statistics, error) {
	stats := &models.Statistics{
		Locations:   []models.CountBucket{},
		Sizes:       []models.CountBucket{},
		TimesOfDay:  []models.CountBucket{},
		RecentTrend: []models.TrendPoint{},
	}

	err := r.db.QueryRow(`SELECT COUNT(*), IFNULL(SUM(roach_count), 0) FROM sightings`).
		Scan(&stats.TotalSightings, &stats.TotalRoaches)
	if err != nil {
		return nil, fmt.Errorf("failed to count sightings: %w", err)
	}

	stats.Locations, err = r.distribution(`
		SELECT location, COUNT(*) AS count
		FROM sightings
		GROUP BY location
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, err
	}

	stats.Sizes, err = r.distribution(`
		SELECT roach_size, COUNT(*) AS count
		FROM sightings
		WHERE roach_size IS NOT NULL
		GROUP BY roach_size
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, err
	}

	stats.TimesOfDay, err = r.distribution(`
		SELECT time_of_day, COUNT(*) AS count
		FROM sightings
		WHERE time_of_day IS NOT NULL
		GROUP BY time_of_day
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT DATE(timestamp) AS date, COUNT(*) AS count
		FROM sightings
		WHERE timestamp >= date('now', '-7 days')
		GROUP BY DATE(timestamp)
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent trend: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		stats.RecentTrend = append(stats.RecentTrend, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *SightingRepository) distribution(query string) ([]models.CountBucket, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distribution: %w", err)
	}
	defer rows.Close()

	buckets := []models.CountBucket{}
	for rows.Next() {
		var b models.CountBucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution: %w", err)
		}
		buckets = append(buckets, b)
	}

	return buckets, rows.Err()
}

func scanSighting(row rowScanner) (*models.Sighting, error) {
	s := &models.Sighting{}
	var roomType, roachSize, roachType, photoPath, notes, weather, timeOfDay sql.NullString
	var temperature sql.NullFloat64
	var userID, propertyID sql.NullInt64

	err := row.Scan(
		&s.ID,
		&s.Timestamp,
		&s.Location,
		&roomType,
		&s.RoachCount,
		&roachSize,
		&roachType,
		&photoPath,
		&notes,
		&weather,
		&temperature,
		&timeOfDay,
		&userID,
		&propertyID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.RoomType = roomType.String
	s.RoachSize = roachSize.String
	s.RoachType = roachType.String
	s.PhotoPath = photoPath.String
	s.Notes = notes.String
	s.Weather = weather.String
	s.TimeOfDay = timeOfDay.String
	if temperature.Valid {
		t := temperature.Float64
		s.Temperature = &t
	}
	if userID.Valid {
		v := userID.Int64
		s.UserID = &v
	}
	if propertyID.Valid {
		v := propertyID.Int64
		s.PropertyID = &v
	}

	return s, nil
}

func collectSightings(rows *sql.Rows) ([]*models.Sighting, error) {
	var sightings []*models.Sighting
	for rows.Next() {
		s, err := scanSighting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}
		sightings = append(sightings, s)
	}
	return sightings, rows.Err()
}
