package huginn

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoIPReader provides IP geolocation using MaxMind GeoLite2 database.
type GeoIPReader struct {
	db   *geoip2.Reader
	path string
}

// IPLocation is the coarse, city-level position of an IP address.
// It is far too imprecise for clustering and is only kept as provenance.
type IPLocation struct {
	IP      string
	City    string
	Country string
	Approx  Location
}

// NewGeoIPReader opens a MaxMind GeoLite2-City database.
func NewGeoIPReader(dbPath string) (*GeoIPReader, error) {
	if dbPath == "" {
		return nil, ErrGeoIPDatabaseNotConfigured
	}

	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("geoip: failed to open database: %w", err)
	}

	return &GeoIPReader{
		db:   db,
		path: dbPath,
	}, nil
}

// Lookup returns location information for an IP address.
func (r *GeoIPReader) Lookup(ip string) (*IPLocation, error) {
	if r == nil || r.db == nil {
		return nil, ErrGeoIPDatabaseNotConfigured
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIP, ip)
	}

	record, err := r.db.City(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeoIPLookupFailed, err)
	}

	return &IPLocation{
		IP:      ip,
		City:    englishName(record.City.Names),
		Country: englishName(record.Country.Names),
		Approx: Location{
			Latitude:  record.Location.Latitude,
			Longitude: record.Location.Longitude,
		},
	}, nil
}

// englishName prefers the English name, falling back to any available one.
func englishName(names map[string]string) string {
	if name, ok := names["en"]; ok {
		return name
	}
	for _, name := range names {
		return name
	}
	return ""
}

// Close closes the GeoIP database.
func (r *GeoIPReader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// annotate fills in the submitter's city and country when the IP is public
// and resolvable. Lookup failures leave info unchanged.
func (r *GeoIPReader) annotate(info *SubmitterInfo) {
	if r == nil || info.IP == "" || IsPrivateIP(info.IP) {
		return
	}
	loc, err := r.Lookup(info.IP)
	if err != nil {
		return
	}
	info.City = loc.City
	info.Country = loc.Country
}
