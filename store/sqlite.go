package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements ReportStore and CorroborationCache using SQLite.
// It uses the pure Go modernc.org/sqlite driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite report store.
// The database file is created if it doesn't exist.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	// seq preserves insertion order, which the clustering pass relies on
	// for tie-breaking.
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		seq                INTEGER PRIMARY KEY AUTOINCREMENT,
		id                 TEXT NOT NULL UNIQUE,
		timestamp          INTEGER NOT NULL,
		type               TEXT NOT NULL,
		has_location       INTEGER NOT NULL DEFAULT 0,
		lat                REAL,
		lng                REAL,
		details            TEXT,
		severity           TEXT,
		verification_count INTEGER NOT NULL DEFAULT 0,
		verified           INTEGER NOT NULL DEFAULT 0,
		submitter_ip       TEXT,
		submitter_ua       TEXT,
		submitter_browser  TEXT,
		submitter_os       TEXT,
		submitter_device   TEXT,
		submitter_city     TEXT,
		submitter_country  TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_type_time
		ON reports (type, timestamp);

	CREATE TABLE IF NOT EXISTS corroborations (
		report_id   TEXT NOT NULL,
		verifier_id TEXT NOT NULL,
		expires_at  INTEGER NOT NULL,
		PRIMARY KEY (report_id, verifier_id)
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: failed to create schema: %w", err)
	}
	return nil
}

// Add appends a report. Existing IDs are left untouched.
func (s *SQLiteStore) Add(report *Report) (bool, error) {
	query := `INSERT OR IGNORE INTO reports (` + reportInsertColumns + `) VALUES (` + reportInsertPlaceholders + `)`

	res, err := s.db.Exec(query, reportArgs(report)...)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to add report: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to add report: %w", err)
	}
	return n > 0, nil
}

// Get returns a report by ID.
func (s *SQLiteStore) Get(id string) (*Report, error) {
	row := s.db.QueryRow("SELECT "+reportSelectColumns+" FROM reports WHERE id = ?", id)

	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get report: %w", err)
	}
	return report, nil
}

// Verify increments the verification count of a report.
func (s *SQLiteStore) Verify(id string, threshold int) (*Report, error) {
	// SQLite evaluates every SET expression against the pre-update row.
	res, err := s.db.Exec(`
	UPDATE reports SET
		verification_count = verification_count + 1,
		verified = CASE WHEN verified = 1 OR verification_count + 1 >= ? THEN 1 ELSE 0 END
	WHERE id = ?`,
		threshold, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to verify report: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to verify report: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.Get(id)
}

// List returns matching reports in insertion order.
func (s *SQLiteStore) List(filter Filter) ([]*Report, error) {
	where, args := filterClause(filter)
	query := "SELECT " + reportSelectColumns + " FROM reports" + where + " ORDER BY seq ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating reports: %w", err)
	}

	return reports, nil
}

// Set records a corroboration. The TTL is stored as an absolute expiry.
func (s *SQLiteStore) Set(reportID, verifierID string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UnixMilli()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO corroborations (report_id, verifier_id, expires_at) VALUES (?, ?, ?)",
		reportID, verifierID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to set corroboration: %w", err)
	}
	return nil
}

// Exists returns true if an unexpired corroboration is recorded.
func (s *SQLiteStore) Exists(reportID, verifierID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM corroborations WHERE report_id = ? AND verifier_id = ? AND expires_at > ?",
		reportID, verifierID, time.Now().UnixMilli(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to check corroboration: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const (
	reportInsertColumns = `id, timestamp, type, has_location, lat, lng, details, severity,
		verification_count, verified, submitter_ip, submitter_ua, submitter_browser,
		submitter_os, submitter_device, submitter_city, submitter_country`

	reportInsertPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

	reportSelectColumns = reportInsertColumns
)

func reportArgs(r *Report) []any {
	return []any{
		r.ID,
		r.Timestamp,
		r.Type,
		r.HasLocation,
		r.Lat,
		r.Lng,
		r.Details,
		r.Severity,
		r.VerificationCount,
		r.Verified,
		r.SubmitterIP,
		r.SubmitterUA,
		r.SubmitterBrowser,
		r.SubmitterOS,
		r.SubmitterDevice,
		r.SubmitterCity,
		r.SubmitterCountry,
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanReport scans a report in reportSelectColumns order.
func scanReport(row rowScanner) (*Report, error) {
	var r Report
	var details, severity, ip, ua, browser, os, device, city, country sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&r.ID,
		&r.Timestamp,
		&r.Type,
		&r.HasLocation,
		&lat,
		&lng,
		&details,
		&severity,
		&r.VerificationCount,
		&r.Verified,
		&ip,
		&ua,
		&browser,
		&os,
		&device,
		&city,
		&country,
	)
	if err != nil {
		return nil, err
	}

	r.Lat = lat.Float64
	r.Lng = lng.Float64
	r.Details = details.String
	r.Severity = severity.String
	r.SubmitterIP = ip.String
	r.SubmitterUA = ua.String
	r.SubmitterBrowser = browser.String
	r.SubmitterOS = os.String
	r.SubmitterDevice = device.String
	r.SubmitterCity = city.String
	r.SubmitterCountry = country.String

	return &r, nil
}

// filterClause builds a WHERE clause for filter using ? placeholders.
func filterClause(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if f.Since != 0 {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Since)
	}
	if f.LocatedOnly {
		conds = append(conds, "has_location = 1")
	}
	if f.VerifiedOnly {
		conds = append(conds, "verified = 1")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
