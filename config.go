package huginn

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aadithya-v/huginn/store"
)

// Config contains configuration options for Huginn.
type Config struct {
	// ClusterRadiusMeters is the seed-to-member radius for clustering.
	// Default: 500 m.
	ClusterRadiusMeters float64

	// MinReportsForCluster is the smallest group that forms a cluster.
	// Default: 3.
	MinReportsForCluster int

	// HighConfidenceThreshold is the confidence at which a cluster counts as
	// a high-confidence zone.
	// Default: 0.7.
	HighConfidenceThreshold float64

	// VerificationThreshold is the corroboration count at which a report
	// becomes verified.
	// Default: 3.
	VerificationThreshold int

	// HeatmapGridSize is the number of heatmap rows and columns.
	// Default: 50.
	HeatmapGridSize int

	// HeatmapRadiusMeters is the counting radius around each grid corner.
	// Default: 200 m.
	HeatmapRadiusMeters float64

	// HeatmapSaturation is the report count at which intensity reaches 1.
	// Default: 10.
	HeatmapSaturation int

	// CorroborationTTL is how long a verifier is remembered per report.
	// The same verifier cannot corroborate a report twice within it.
	// Default: 72 hours.
	CorroborationTTL time.Duration

	// GeoIPDatabasePath is the path to MaxMind GeoLite2-City.mmdb file.
	// Optional. When set, submitter city and country are recorded.
	GeoIPDatabasePath string

	// ReportStore is the storage backend for reports.
	// Default: SQLite store (creates huginn.db in current directory).
	ReportStore store.ReportStore

	// CorroborationCache remembers who corroborated which report.
	// Default: the default SQLite store, or an in-memory cache when a
	// custom ReportStore is supplied.
	CorroborationCache store.CorroborationCache

	// DatabasePath is the path for the default SQLite database.
	// Only used if ReportStore is nil.
	// Default: "huginn.db".
	DatabasePath string

	// Logger receives structured events. Default: discard.
	Logger *log.Logger

	// MetricsRegisterer registers Huginn's Prometheus collectors.
	// Default: a private registry.
	MetricsRegisterer prometheus.Registerer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ClusterRadiusMeters:     ClusterRadiusMeters,
		MinReportsForCluster:    MinReportsForCluster,
		HighConfidenceThreshold: HighConfidenceThreshold,
		VerificationThreshold:   3,
		HeatmapGridSize:         HeatmapGridSize,
		HeatmapRadiusMeters:     HeatmapRadiusMeters,
		HeatmapSaturation:       HeatmapSaturation,
		CorroborationTTL:        72 * time.Hour,
		DatabasePath:            "huginn.db",
	}
}

// applyDefaults fills in default values for zero-value fields.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.ClusterRadiusMeters <= 0 {
		c.ClusterRadiusMeters = defaults.ClusterRadiusMeters
	}
	if c.MinReportsForCluster <= 0 {
		c.MinReportsForCluster = defaults.MinReportsForCluster
	}
	if c.HighConfidenceThreshold <= 0 {
		c.HighConfidenceThreshold = defaults.HighConfidenceThreshold
	}
	if c.VerificationThreshold <= 0 {
		c.VerificationThreshold = defaults.VerificationThreshold
	}
	if c.HeatmapGridSize <= 0 {
		c.HeatmapGridSize = defaults.HeatmapGridSize
	}
	if c.HeatmapRadiusMeters <= 0 {
		c.HeatmapRadiusMeters = defaults.HeatmapRadiusMeters
	}
	if c.HeatmapSaturation <= 0 {
		c.HeatmapSaturation = defaults.HeatmapSaturation
	}
	if c.CorroborationTTL <= 0 {
		c.CorroborationTTL = defaults.CorroborationTTL
	}
	if c.DatabasePath == "" {
		c.DatabasePath = defaults.DatabasePath
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
}

func (c *Config) clusterOptions() ClusterOptions {
	return ClusterOptions{
		RadiusMeters: c.ClusterRadiusMeters,
		MinReports:   c.MinReportsForCluster,
	}
}

func (c *Config) heatmapOptions() HeatmapOptions {
	return HeatmapOptions{
		GridSize:     c.HeatmapGridSize,
		RadiusMeters: c.HeatmapRadiusMeters,
		Saturation:   c.HeatmapSaturation,
	}
}
