package huginn

import (
	"fmt"
	"math"
	"strings"
)

// IncidentType is the category tag of a report. Reports are only ever
// clustered together when their types match exactly.
type IncidentType string

const (
	TypeFlood      IncidentType = "flood"
	TypeFire       IncidentType = "fire"
	TypeMedical    IncidentType = "medical"
	TypeEarthquake IncidentType = "earthquake"
	TypeOther      IncidentType = "other"
)

// ParseIncidentType normalizes a category tag. Unknown tags map to TypeOther.
func ParseIncidentType(s string) IncidentType {
	switch t := IncidentType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeFlood, TypeFire, TypeMedical, TypeEarthquake, TypeOther:
		return t
	default:
		return TypeOther
	}
}

// Severity is the ordinal severity of a report or cluster.
// The zero value means the reporter gave no severity.
type Severity int

const (
	SeverityUnspecified Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// Rank returns the severity used for ordering. An unspecified severity
// ranks as SeverityLow.
func (s Severity) Rank() Severity {
	if s < SeverityLow || s > SeverityCritical {
		return SeverityLow
	}
	return s
}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return ""
	}
}

// ParseSeverity parses LOW, MEDIUM, HIGH or CRITICAL (case-insensitive).
// Anything else is SeverityUnspecified.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow
	case "MEDIUM":
		return SeverityMedium
	case "HIGH":
		return SeverityHigh
	case "CRITICAL":
		return SeverityCritical
	default:
		return SeverityUnspecified
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	*s = ParseSeverity(string(text))
	return nil
}

// Location is a WGS84 coordinate in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is finite and within range.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		math.IsInf(l.Latitude, 0) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// Report is a single user-submitted observation of an incident.
type Report struct {
	ID        string       `json:"id"`
	Timestamp int64        `json:"timestamp"` // epoch milliseconds
	Type      IncidentType `json:"type"`

	// Location is nil when the reporter had no position fix. Such reports
	// never join a cluster and are not counted in heatmaps.
	Location *Location `json:"location,omitempty"`

	Details  string   `json:"details"`
	Severity Severity `json:"severity,omitempty"`

	VerificationCount int  `json:"verification_count"`
	Verified          bool `json:"verified"`

	// Submitter is provenance only and never used algorithmically.
	Submitter *SubmitterInfo `json:"submitter,omitempty"`
}

// SubmitterInfo describes the device a report was submitted from.
type SubmitterInfo struct {
	IP         string `json:"ip"`
	UserAgent  string `json:"user_agent"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	DeviceType string `json:"device_type"` // mobile, desktop, tablet, bot
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
}

// ReportCluster is a group of same-type reports believed to describe one
// physical incident. Clusters are recomputed on every pass and have no
// identity beyond it.
type ReportCluster struct {
	ID         string       `json:"id"`
	Center     Location     `json:"center"`
	Reports    []Report     `json:"reports"`
	Type       IncidentType `json:"type"`
	Severity   Severity     `json:"severity"`
	Confidence float64      `json:"confidence"`
	Timestamp  int64        `json:"timestamp"`
	Radius     float64      `json:"radius"` // meters
}

// Contains reports whether the point lies within the cluster's radius.
func (c *ReportCluster) Contains(lat, lon float64) bool {
	return DistanceMeters(lat, lon, c.Center.Latitude, c.Center.Longitude) <= c.Radius
}

// IsHighConfidence reports whether the cluster meets the given threshold.
func (c *ReportCluster) IsHighConfidence(threshold float64) bool {
	return c.Confidence >= threshold
}

// HeatmapPoint is one non-empty sample of the density grid.
type HeatmapPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Intensity float64 `json:"intensity"` // (0, 1]
}

// Bounds is a geographic bounding box.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Valid reports whether both corners are valid coordinates and the box is
// not inverted. Boxes crossing the antimeridian are not supported.
func (b Bounds) Valid() bool {
	ne := Location{Latitude: b.North, Longitude: b.East}
	sw := Location{Latitude: b.South, Longitude: b.West}
	return ne.Valid() && sw.Valid() && b.North >= b.South && b.East >= b.West
}
