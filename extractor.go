package huginn

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"
)

// clientIPHeaders are consulted in order before falling back to RemoteAddr.
// X-Forwarded-For may hold a chain; its first entry is the client.
var clientIPHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
}

var tabletMarkers = []string{"ipad", "tablet", "playbook", "silk", "kindle"}

// ExtractSubmitterInfo describes the device that sent r. The result is
// stored with the report for moderation and is never used for clustering.
func ExtractSubmitterInfo(r *http.Request) SubmitterInfo {
	ua := r.UserAgent()
	parsed := useragent.New(ua)

	browser, version := parsed.Browser()
	if version != "" {
		browser += " " + version
	}

	osInfo := parsed.OSInfo()
	os := osInfo.Name
	if osInfo.Version != "" {
		os += " " + osInfo.Version
	}

	return SubmitterInfo{
		IP:         clientIP(r),
		UserAgent:  ua,
		Browser:    browser,
		OS:         os,
		DeviceType: deviceType(parsed, ua),
	}
}

// deviceType classifies a user agent as mobile, bot, tablet or desktop.
func deviceType(parsed *useragent.UserAgent, ua string) string {
	switch {
	case parsed.Mobile():
		return "mobile"
	case parsed.Bot():
		return "bot"
	case isTablet(ua):
		return "tablet"
	default:
		return "desktop"
	}
}

func isTablet(ua string) bool {
	ua = strings.ToLower(ua)
	for _, marker := range tabletMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// clientIP returns the submitting client's address, preferring proxy headers.
func clientIP(r *http.Request) string {
	for _, header := range clientIPHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		if ip := strings.TrimSpace(first); isValidIP(ip) {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// no port
		return r.RemoteAddr
	}
	return host
}

func isValidIP(ip string) bool {
	_, err := netip.ParseAddr(ip)
	return err == nil
}

// IsPrivateIP reports whether ip is loopback, link-local or in a private
// range (RFC 1918, RFC 4193). Such addresses have no GeoIP record.
func IsPrivateIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}
