package huginn

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/aadithya-v/huginn/store"
)

// Huginn ties a report store to the clustering, zone and heatmap engine.
//
// The engine functions (ClusterReports, IsInHighConfidenceZone,
// GenerateHeatmapData) are pure; Huginn supplies them with a snapshot of the
// store on every call. Store mutations are expected to be serialized by the
// caller.
type Huginn struct {
	config         Config
	reports        store.ReportStore
	corroborations store.CorroborationCache
	geoip          *GeoIPReader
	logger         *log.Logger
	metrics        *Metrics
}

// New creates a new Huginn instance with the given configuration.
// If ReportStore or CorroborationCache are not provided, defaults are used:
// - ReportStore: SQLite (creates huginn.db)
// - CorroborationCache: the same SQLite database, or in-memory when a
// custom ReportStore is given
func New(cfg Config) (*Huginn, error) {
	cfg.applyDefaults()

	h := &Huginn{
		config:  cfg,
		logger:  cfg.Logger,
		metrics: newMetrics(cfg.MetricsRegisterer),
	}

	if cfg.ReportStore != nil {
		h.reports = cfg.ReportStore
	} else {
		sqliteStore, err := store.NewSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("huginn: failed to initialize SQLite store: %w", err)
		}
		h.reports = sqliteStore
		h.corroborations = sqliteStore
	}

	if cfg.CorroborationCache != nil {
		h.corroborations = cfg.CorroborationCache
	} else if h.corroborations == nil {
		h.corroborations = store.NewMemoryCache()
	}

	if cfg.GeoIPDatabasePath != "" {
		geoip, err := NewGeoIPReader(cfg.GeoIPDatabasePath)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("huginn: failed to initialize GeoIP: %w", err)
		}
		h.geoip = geoip
	}

	return h, nil
}

// Close releases all resources held by Huginn.
// Should be called when the application shuts down.
func (h *Huginn) Close() error {
	var errs []error

	if h.reports != nil {
		if err := h.reports.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	// The default cache shares the report store's database.
	if h.corroborations != nil && any(h.corroborations) != any(h.reports) {
		if err := h.corroborations.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if h.geoip != nil {
		if err := h.geoip.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("huginn: errors during close: %w", errors.Join(errs...))
	}
	return nil
}

// Metrics returns the instance's Prometheus collectors.
func (h *Huginn) Metrics() *Metrics {
	return h.metrics
}

// SubmitReport stores a new report.
//
// An empty ID is replaced by a random UUID and a zero Timestamp by the
// current time. The type is normalized with ParseIncidentType and the
// verification state is reset, since new reports start uncorroborated.
// Submitting an ID that already exists is a no-op that returns the stored
// report.
func (h *Huginn) SubmitReport(report Report) (*Report, error) {
	if report.Location != nil && !report.Location.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLocation, report.Location)
	}

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Timestamp == 0 {
		report.Timestamp = time.Now().UnixMilli()
	}
	report.Type = ParseIncidentType(string(report.Type))
	report.VerificationCount = 0
	report.Verified = false

	added, err := h.reports.Add(toStoreReport(report))
	if err != nil {
		return nil, fmt.Errorf("huginn: failed to add report: %w", err)
	}

	if !added {
		h.logger.Debug("duplicate report ignored", "id", report.ID)
		return h.Report(report.ID)
	}

	h.metrics.RecordSubmission(report.Type)
	h.logger.Info("report accepted",
		"id", report.ID,
		"type", report.Type,
		"located", report.Location != nil,
	)

	return &report, nil
}

// SubmitReportFromRequest records the submitting device from r (and its city
// and country when GeoIP is configured) on the report, then submits it.
func (h *Huginn) SubmitReportFromRequest(r *http.Request, report Report) (*Report, error) {
	info := ExtractSubmitterInfo(r)
	h.geoip.annotate(&info)
	report.Submitter = &info

	return h.SubmitReport(report)
}

// VerifyReport records one corroboration of a report.
//
// Verifying an unknown report is a no-op and returns nil, nil. When
// verifierID is non-empty, a verifier who already corroborated the report
// within CorroborationTTL is ignored and the current report is returned.
func (h *Huginn) VerifyReport(reportID, verifierID string) (*Report, error) {
	if verifierID != "" {
		seen, err := h.corroborations.Exists(reportID, verifierID)
		if err != nil {
			return nil, fmt.Errorf("huginn: failed to check corroboration: %w", err)
		}
		if seen {
			h.metrics.RecordVerification(verifyDuplicate)
			h.logger.Debug("repeat corroboration ignored", "id", reportID, "verifier", verifierID)
			current, err := h.Report(reportID)
			if errors.Is(err, ErrReportNotFound) {
				return nil, nil
			}
			return current, err
		}
	}

	updated, err := h.reports.Verify(reportID, h.config.VerificationThreshold)
	if errors.Is(err, store.ErrNotFound) {
		h.metrics.RecordVerification(verifyUnknown)
		h.logger.Debug("verification of unknown report ignored", "id", reportID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("huginn: failed to verify report: %w", err)
	}

	if verifierID != "" {
		if err := h.corroborations.Set(reportID, verifierID, h.config.CorroborationTTL); err != nil {
			return nil, fmt.Errorf("huginn: failed to record corroboration: %w", err)
		}
	}

	h.metrics.RecordVerification(verifyCounted)
	if updated.Verified && updated.VerificationCount == h.config.VerificationThreshold {
		h.logger.Info("report verified", "id", reportID, "count", updated.VerificationCount)
	}

	report := fromStoreReport(updated)
	return &report, nil
}

// Report returns a single report by ID.
func (h *Huginn) Report(id string) (*Report, error) {
	stored, err := h.reports.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("huginn: failed to get report: %w", err)
	}

	report := fromStoreReport(stored)
	return &report, nil
}

// ReportFilter narrows Reports results. The zero value matches everything.
type ReportFilter struct {
	Type         IncidentType
	Since        int64 // epoch milliseconds, inclusive
	LocatedOnly  bool
	VerifiedOnly bool
}

// Reports returns the matching reports in submission order.
func (h *Huginn) Reports(filter ReportFilter) ([]Report, error) {
	stored, err := h.reports.List(store.Filter{
		Type:         string(filter.Type),
		Since:        filter.Since,
		LocatedOnly:  filter.LocatedOnly,
		VerifiedOnly: filter.VerifiedOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("huginn: failed to list reports: %w", err)
	}

	reports := make([]Report, len(stored))
	for i, s := range stored {
		reports[i] = fromStoreReport(s)
	}
	return reports, nil
}

// Snapshot returns every report ordered by Timestamp ascending, ties kept in
// submission order. This is the order the clustering pass consumes.
func (h *Huginn) Snapshot() ([]Report, error) {
	reports, err := h.Reports(ReportFilter{})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Timestamp < reports[j].Timestamp
	})
	return reports, nil
}

// Clusters runs a clustering pass over a fresh snapshot.
func (h *Huginn) Clusters() ([]ReportCluster, error) {
	reports, err := h.Snapshot()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	clusters := ClusterReportsWithOptions(reports, h.config.clusterOptions())
	elapsed := time.Since(start)

	h.metrics.RecordClusterPass(clusters, h.config.HighConfidenceThreshold, elapsed)
	h.logger.Debug("cluster pass complete",
		"reports", len(reports),
		"clusters", len(clusters),
		"high_confidence", len(HighConfidenceClusters(clusters, h.config.HighConfidenceThreshold)),
		"elapsed", elapsed,
	)

	return clusters, nil
}

// CheckZone clusters the current reports and returns the high-confidence
// cluster containing the point, or nil.
func (h *Huginn) CheckZone(lat, lon float64) (*ReportCluster, error) {
	if !(Location{Latitude: lat, Longitude: lon}).Valid() {
		return nil, fmt.Errorf("%w: %.6f,%.6f", ErrInvalidLocation, lat, lon)
	}

	clusters, err := h.Clusters()
	if err != nil {
		return nil, err
	}

	return h.CheckZoneIn(lat, lon, clusters)
}

// CheckZoneIn is CheckZone against an already computed cluster set, for
// pollers that refresh clusters on their own schedule.
func (h *Huginn) CheckZoneIn(lat, lon float64, clusters []ReportCluster) (*ReportCluster, error) {
	if !(Location{Latitude: lat, Longitude: lon}).Valid() {
		return nil, fmt.Errorf("%w: %.6f,%.6f", ErrInvalidLocation, lat, lon)
	}

	zone := FindZone(lat, lon, clusters, h.config.HighConfidenceThreshold)
	h.metrics.RecordZoneCheck(zone != nil)
	if zone != nil {
		h.logger.Info("point inside high-confidence zone",
			"cluster", zone.ID,
			"type", zone.Type,
			"confidence", zone.Confidence,
		)
	}

	return zone, nil
}

// Heatmap rasterizes the current reports over bounds.
func (h *Huginn) Heatmap(bounds Bounds) ([]HeatmapPoint, error) {
	if !bounds.Valid() {
		return nil, fmt.Errorf("%w: bounds %+v", ErrInvalidLocation, bounds)
	}

	reports, err := h.Snapshot()
	if err != nil {
		return nil, err
	}

	return GenerateHeatmapDataWithOptions(reports, bounds, h.config.heatmapOptions()), nil
}

// toStoreReport converts a Report to its storage form.
func toStoreReport(r Report) *store.Report {
	s := &store.Report{
		ID:                r.ID,
		Timestamp:         r.Timestamp,
		Type:              string(r.Type),
		Details:           r.Details,
		Severity:          r.Severity.String(),
		VerificationCount: r.VerificationCount,
		Verified:          r.Verified,
	}

	if r.Location != nil {
		s.HasLocation = true
		s.Lat = r.Location.Latitude
		s.Lng = r.Location.Longitude
	}

	if r.Submitter != nil {
		s.SubmitterIP = r.Submitter.IP
		s.SubmitterUA = r.Submitter.UserAgent
		s.SubmitterBrowser = r.Submitter.Browser
		s.SubmitterOS = r.Submitter.OS
		s.SubmitterDevice = r.Submitter.DeviceType
		s.SubmitterCity = r.Submitter.City
		s.SubmitterCountry = r.Submitter.Country
	}

	return s
}

// fromStoreReport converts a stored report to the public Report type.
func fromStoreReport(s *store.Report) Report {
	r := Report{
		ID:                s.ID,
		Timestamp:         s.Timestamp,
		Type:              IncidentType(s.Type),
		Details:           s.Details,
		Severity:          ParseSeverity(s.Severity),
		VerificationCount: s.VerificationCount,
		Verified:          s.Verified,
	}

	if s.HasLocation {
		r.Location = &Location{Latitude: s.Lat, Longitude: s.Lng}
	}

	if s.SubmitterIP != "" || s.SubmitterUA != "" {
		r.Submitter = &SubmitterInfo{
			IP:         s.SubmitterIP,
			UserAgent:  s.SubmitterUA,
			Browser:    s.SubmitterBrowser,
			OS:         s.SubmitterOS,
			DeviceType: s.SubmitterDevice,
			City:       s.SubmitterCity,
			Country:    s.SubmitterCountry,
		}
	}

	return r
}
