package store

import (
	"testing"
	"time"
)

func TestMemoryReportStore(t *testing.T) {
	s := NewMemoryReportStore()
	defer s.Close()

	testReportStore(t, s)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	testCorroborationCache(t, c)
}

func TestMemoryCacheCleanup(t *testing.T) {
	c := newMemoryCache(10 * time.Millisecond)
	defer c.Close()

	if err := c.Set("r1", "alice", time.Millisecond); err != nil {
		t.Fatalf("Failed to set corroboration: %v", err)
	}
	if err := c.Set("r1", "bob", time.Hour); err != nil {
		t.Fatalf("Failed to set corroboration: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	c.mu.RLock()
	_, aliceKept := c.entries[corroborationKey("r1", "alice")]
	_, bobKept := c.entries[corroborationKey("r1", "bob")]
	c.mu.RUnlock()

	if aliceKept {
		t.Error("Expired entry should have been cleaned up")
	}
	if !bobKept {
		t.Error("Live entry should be kept")
	}
}

func TestMemoryCacheCloseTwice(t *testing.T) {
	c := NewMemoryCache()
	if err := c.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}
