package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements ReportStore using MySQL.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQL creates a new MySQL report store from an open connection.
func NewMySQL(db *sql.DB) (*MySQLStore, error) {
	if err := createMySQLSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &MySQLStore{db: db}, nil
}

// NewMySQLFromDSN creates a new MySQL report store from a DSN.
// The DSN format is: user:password@tcp(host:port)/database
func NewMySQLFromDSN(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: failed to connect: %w", err)
	}

	return NewMySQL(db)
}

func createMySQLSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		seq                BIGINT AUTO_INCREMENT PRIMARY KEY,
		id                 VARCHAR(64) NOT NULL,
		timestamp          BIGINT NOT NULL,
		type               VARCHAR(32) NOT NULL,
		has_location       BOOLEAN NOT NULL DEFAULT FALSE,
		lat                DOUBLE,
		lng                DOUBLE,
		details            TEXT,
		severity           VARCHAR(16),
		verification_count INT NOT NULL DEFAULT 0,
		verified           BOOLEAN NOT NULL DEFAULT FALSE,
		submitter_ip       VARCHAR(45),
		submitter_ua       TEXT,
		submitter_browser  VARCHAR(100),
		submitter_os       VARCHAR(100),
		submitter_device   VARCHAR(20),
		submitter_city     VARCHAR(100),
		submitter_country  VARCHAR(100),

		UNIQUE KEY uq_reports_id (id),
		INDEX idx_reports_type_time (type, timestamp)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("mysql: failed to create schema: %w", err)
	}
	return nil
}

// Add appends a report. Existing IDs are left untouched.
func (s *MySQLStore) Add(report *Report) (bool, error) {
	query := `INSERT IGNORE INTO reports (` + reportInsertColumns + `) VALUES (` + reportInsertPlaceholders + `)`

	res, err := s.db.Exec(query, reportArgs(report)...)
	if err != nil {
		return false, fmt.Errorf("mysql: failed to add report: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mysql: failed to add report: %w", err)
	}
	return n > 0, nil
}

// Get returns a report by ID.
func (s *MySQLStore) Get(id string) (*Report, error) {
	row := s.db.QueryRow("SELECT "+reportSelectColumns+" FROM reports WHERE id = ?", id)

	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to get report: %w", err)
	}
	return report, nil
}

// Verify increments the verification count of a report.
func (s *MySQLStore) Verify(id string, threshold int) (*Report, error) {
	// MySQL applies SET assignments left to right, so verified sees the
	// incremented count.
	res, err := s.db.Exec(`
	UPDATE reports SET
		verification_count = verification_count + 1,
		verified = (verified OR verification_count >= ?)
	WHERE id = ?`,
		threshold, id,
	)
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to verify report: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to verify report: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.Get(id)
}

// List returns matching reports in insertion order.
func (s *MySQLStore) List(filter Filter) ([]*Report, error) {
	where, args := filterClause(filter)
	query := "SELECT " + reportSelectColumns + " FROM reports" + where + " ORDER BY seq ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("mysql: failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: error iterating reports: %w", err)
	}

	return reports, nil
}

// Close closes the database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
