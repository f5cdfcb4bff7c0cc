package store

import (
	"sync"
	"time"
)

// MemoryCache implements CorroborationCache using an in-memory map.
// Expired entries are cleaned up periodically.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time // reportID|verifierID -> expiresAt

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// NewMemoryCache creates a new in-memory corroboration cache.
// It starts a background goroutine that periodically cleans up expired entries.
func NewMemoryCache() *MemoryCache {
	return newMemoryCache(time.Hour)
}

func newMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]time.Time),
		stopCleanup: make(chan struct{}),
	}

	go cache.cleanupLoop(cleanupInterval)

	return cache
}

func corroborationKey(reportID, verifierID string) string {
	return reportID + "|" + verifierID
}

// Set records a corroboration with the given TTL.
func (c *MemoryCache) Set(reportID, verifierID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[corroborationKey(reportID, verifierID)] = time.Now().Add(ttl)
	return nil
}

// Exists returns true if the corroboration is recorded and not expired.
func (c *MemoryCache) Exists(reportID, verifierID string) (bool, error) {
	c.mu.RLock()
	expiresAt, exists := c.entries[corroborationKey(reportID, verifierID)]
	c.mu.RUnlock()

	if !exists {
		return false, nil
	}

	return time.Now().Before(expiresAt), nil
}

// Close stops the background cleanup goroutine.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
	return nil
}

// cleanupLoop periodically removes expired entries.
func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired entries.
func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, expiresAt := range c.entries {
		if now.After(expiresAt) {
			delete(c.entries, key)
		}
	}
}

// MemoryReportStore implements ReportStore using an in-memory slice.
// This is useful for testing and for hosts that keep reports elsewhere.
type MemoryReportStore struct {
	mu      sync.RWMutex
	reports []*Report      // insertion order
	byID    map[string]int // reportID -> index into reports
}

// NewMemoryReportStore creates a new in-memory report store.
func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{
		byID: make(map[string]int),
	}
}

// Add appends a report unless its ID is already present.
func (s *MemoryReportStore) Add(report *Report) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[report.ID]; exists {
		return false, nil
	}

	stored := *report
	s.byID[report.ID] = len(s.reports)
	s.reports = append(s.reports, &stored)
	return true, nil
}

// Get returns a copy of the report with the given ID.
func (s *MemoryReportStore) Get(id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.byID[id]
	if !exists {
		return nil, ErrNotFound
	}

	r := *s.reports[idx]
	return &r, nil
}

// Verify increments the verification count of a report.
func (s *MemoryReportStore) Verify(id string, threshold int) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[id]
	if !exists {
		return nil, ErrNotFound
	}

	stored := s.reports[idx]
	stored.VerificationCount++
	if stored.VerificationCount >= threshold {
		stored.Verified = true
	}

	r := *stored
	return &r, nil
}

// List returns copies of matching reports in insertion order.
func (s *MemoryReportStore) List(filter Filter) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Report
	for _, stored := range s.reports {
		if !filter.Match(stored) {
			continue
		}
		r := *stored
		out = append(out, &r)
	}

	return out, nil
}

// Close is a no-op for the memory store.
func (s *MemoryReportStore) Close() error {
	return nil
}
