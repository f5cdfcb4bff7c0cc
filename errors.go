package huginn

import "errors"

var (
	// ErrReportNotFound is returned when a report does not exist.
	ErrReportNotFound = errors.New("huginn: report not found")

	// ErrInvalidLocation is returned when a coordinate is NaN, infinite or
	// out of range. Such input never reaches the clustering core.
	ErrInvalidLocation = errors.New("huginn: invalid location")

	// ErrInvalidConfig is returned when a configuration file cannot be used.
	ErrInvalidConfig = errors.New("huginn: invalid configuration")

	// ErrGeoIPDatabaseNotConfigured is returned when GeoIP lookup is attempted
	// without configuring the GeoIP database path.
	ErrGeoIPDatabaseNotConfigured = errors.New("huginn: GeoIP database path not configured")

	// ErrGeoIPLookupFailed is returned when IP geolocation lookup fails.
	ErrGeoIPLookupFailed = errors.New("huginn: GeoIP lookup failed")

	// ErrInvalidIP is returned when an invalid IP address is provided.
	ErrInvalidIP = errors.New("huginn: invalid IP address")
)
