package huginn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML layout of the tunable settings.
type fileConfig struct {
	Clustering struct {
		RadiusMeters float64 `yaml:"radius_meters"`
		MinReports   int     `yaml:"min_reports"`
	} `yaml:"clustering"`

	Zones struct {
		HighConfidenceThreshold float64 `yaml:"high_confidence_threshold"`
	} `yaml:"zones"`

	Verification struct {
		Threshold        int    `yaml:"threshold"`
		CorroborationTTL string `yaml:"corroboration_ttl"`
	} `yaml:"verification"`

	Heatmap struct {
		GridSize     int     `yaml:"grid_size"`
		RadiusMeters float64 `yaml:"radius_meters"`
		Saturation   int     `yaml:"saturation"`
	} `yaml:"heatmap"`

	Storage struct {
		DatabasePath string `yaml:"database_path"`
	} `yaml:"storage"`

	GeoIPDatabasePath string `yaml:"geoip_database_path"`
}

// LoadConfigFile reads tuning settings from a YAML file. Settings missing
// from the file keep their defaults. Stores, logger and metrics registerer
// are left for the caller to set.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("huginn: failed to open config file: %w", err)
	}
	defer f.Close()

	return ParseConfig(f)
}

// ParseConfig reads tuning settings in the LoadConfigFile format.
func ParseConfig(r io.Reader) (Config, error) {
	var fc fileConfig

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := fc.validate(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ClusterRadiusMeters:     fc.Clustering.RadiusMeters,
		MinReportsForCluster:    fc.Clustering.MinReports,
		HighConfidenceThreshold: fc.Zones.HighConfidenceThreshold,
		VerificationThreshold:   fc.Verification.Threshold,
		HeatmapGridSize:         fc.Heatmap.GridSize,
		HeatmapRadiusMeters:     fc.Heatmap.RadiusMeters,
		HeatmapSaturation:       fc.Heatmap.Saturation,
		DatabasePath:            fc.Storage.DatabasePath,
		GeoIPDatabasePath:       fc.GeoIPDatabasePath,
	}

	if fc.Verification.CorroborationTTL != "" {
		ttl, err := time.ParseDuration(fc.Verification.CorroborationTTL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: corroboration_ttl: %v", ErrInvalidConfig, err)
		}
		cfg.CorroborationTTL = ttl
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (fc *fileConfig) validate() error {
	switch {
	case fc.Clustering.RadiusMeters < 0:
		return fmt.Errorf("%w: clustering.radius_meters must not be negative", ErrInvalidConfig)
	case fc.Clustering.MinReports < 0:
		return fmt.Errorf("%w: clustering.min_reports must not be negative", ErrInvalidConfig)
	case fc.Zones.HighConfidenceThreshold < 0 || fc.Zones.HighConfidenceThreshold > 1:
		return fmt.Errorf("%w: zones.high_confidence_threshold must be within [0, 1]", ErrInvalidConfig)
	case fc.Verification.Threshold < 0:
		return fmt.Errorf("%w: verification.threshold must not be negative", ErrInvalidConfig)
	case fc.Heatmap.GridSize < 0 || fc.Heatmap.RadiusMeters < 0 || fc.Heatmap.Saturation < 0:
		return fmt.Errorf("%w: heatmap settings must not be negative", ErrInvalidConfig)
	}
	return nil
}
