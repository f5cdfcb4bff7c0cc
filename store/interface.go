package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a report ID does not exist in the store.
var ErrNotFound = errors.New("store: report not found")

// Report represents an incident report for storage.
// This is a flat copy of the main Report type to avoid circular imports.
type Report struct {
	ID                string
	Timestamp         int64 // epoch milliseconds
	Type              string
	HasLocation       bool
	Lat               float64
	Lng               float64
	Details           string
	Severity          string
	VerificationCount int
	Verified          bool

	SubmitterIP      string
	SubmitterUA      string
	SubmitterBrowser string
	SubmitterOS      string
	SubmitterDevice  string
	SubmitterCity    string
	SubmitterCountry string
}

// Filter narrows List results. The zero value matches every report.
type Filter struct {
	// Type matches reports of exactly this type when non-empty.
	Type string

	// Since matches reports with Timestamp >= Since when non-zero.
	Since int64

	// LocatedOnly excludes reports without a location.
	LocatedOnly bool

	// VerifiedOnly excludes unverified reports.
	VerifiedOnly bool
}

// Match reports whether r satisfies the filter.
func (f Filter) Match(r *Report) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Since != 0 && r.Timestamp < f.Since {
		return false
	}
	if f.LocatedOnly && !r.HasLocation {
		return false
	}
	if f.VerifiedOnly && !r.Verified {
		return false
	}
	return true
}

// ReportStore defines the interface for report storage backends.
// Reports are append-only: they are added once and afterwards only their
// verification state changes.
// Implementations must be safe for concurrent use, but callers are
// expected to serialize read-modify-write sequences.
type ReportStore interface {
	// Add appends a report. If a report with the same ID already exists the
	// store is left unchanged and Add returns false.
	Add(report *Report) (bool, error)

	// Get returns the report with the given ID, or ErrNotFound.
	Get(id string) (*Report, error)

	// Verify increments the report's verification count and marks it
	// verified once the count reaches threshold. A verified report stays
	// verified. Returns the updated report, or ErrNotFound.
	Verify(id string, threshold int) (*Report, error)

	// List returns reports matching filter in insertion order.
	List(filter Filter) ([]*Report, error)

	// Close releases any resources held by the store.
	Close() error
}

// CorroborationCache remembers which verifier already corroborated which
// report, so one person cannot push a report over the threshold alone.
// Implementations must be safe for concurrent use.
type CorroborationCache interface {
	// Set records that verifierID corroborated reportID. After ttl the
	// entry is forgotten.
	Set(reportID, verifierID string, ttl time.Duration) error

	// Exists returns true if verifierID corroborated reportID and the TTL
	// has not expired.
	Exists(reportID, verifierID string) (bool, error)

	// Close releases any resources held by the cache.
	Close() error
}
