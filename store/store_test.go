package store

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// testReportStore runs the behaviour every ReportStore must share.
func testReportStore(t *testing.T, s ReportStore) {
	t.Helper()

	reports := []*Report{
		{ID: "r1", Timestamp: 300, Type: "flood", HasLocation: true, Lat: 40.7128, Lng: -74.0060, Severity: "HIGH", SubmitterIP: "203.0.113.5", SubmitterDevice: "mobile"},
		{ID: "r2", Timestamp: 100, Type: "fire", HasLocation: true, Lat: 51.5074, Lng: -0.1278},
		{ID: "r3", Timestamp: 200, Type: "flood", Details: "no fix"},
	}

	t.Run("add", func(t *testing.T) {
		for _, r := range reports {
			added, err := s.Add(r)
			if err != nil {
				t.Fatalf("Failed to add report %s: %v", r.ID, err)
			}
			if !added {
				t.Errorf("Expected report %s to be added", r.ID)
			}
		}

		added, err := s.Add(&Report{ID: "r1", Timestamp: 999, Type: "fire"})
		if err != nil {
			t.Fatalf("Failed to add duplicate: %v", err)
		}
		if added {
			t.Error("Duplicate ID should not be added")
		}
	})

	t.Run("get", func(t *testing.T) {
		got, err := s.Get("r1")
		if err != nil {
			t.Fatalf("Failed to get report: %v", err)
		}
		if *got != *reports[0] {
			t.Errorf("Expected %+v, got %+v", *reports[0], *got)
		}

		got, err = s.Get("r3")
		if err != nil {
			t.Fatalf("Failed to get report: %v", err)
		}
		if got.HasLocation || got.Details != "no fix" {
			t.Errorf("Unexpected report: %+v", *got)
		}

		if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		got, err := s.List(Filter{})
		if err != nil {
			t.Fatalf("Failed to list reports: %v", err)
		}
		want := []string{"r1", "r2", "r3"}
		if len(got) != len(want) {
			t.Fatalf("Expected %d reports, got %d", len(want), len(got))
		}
		for i, id := range want {
			if got[i].ID != id {
				t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
			}
		}
	})

	t.Run("verify", func(t *testing.T) {
		for i := 1; i <= 4; i++ {
			got, err := s.Verify("r2", 3)
			if err != nil {
				t.Fatalf("Failed to verify report: %v", err)
			}
			if got.VerificationCount != i {
				t.Errorf("Expected count %d, got %d", i, got.VerificationCount)
			}
			if got.Verified != (i >= 3) {
				t.Errorf("After %d verifications: verified=%v", i, got.Verified)
			}
		}

		// Verified is sticky even if the threshold is raised later.
		got, err := s.Verify("r2", 10)
		if err != nil {
			t.Fatalf("Failed to verify report: %v", err)
		}
		if !got.Verified {
			t.Error("Verified report should stay verified")
		}

		if _, err := s.Verify("missing", 3); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("filter", func(t *testing.T) {
		tests := []struct {
			name   string
			filter Filter
			want   []string
		}{
			{"type", Filter{Type: "flood"}, []string{"r1", "r3"}},
			{"since", Filter{Since: 200}, []string{"r1", "r3"}},
			{"located", Filter{LocatedOnly: true}, []string{"r1", "r2"}},
			{"verified", Filter{VerifiedOnly: true}, []string{"r2"}},
			{"type and located", Filter{Type: "flood", LocatedOnly: true}, []string{"r1"}},
			{"no match", Filter{Type: "earthquake"}, nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.List(tt.filter)
				if err != nil {
					t.Fatalf("Failed to list reports: %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("Expected %d reports, got %d", len(tt.want), len(got))
				}
				for i, id := range tt.want {
					if got[i].ID != id {
						t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
					}
				}
			})
		}
	})

	t.Run("returned reports are copies", func(t *testing.T) {
		got, err := s.Get("r1")
		if err != nil {
			t.Fatalf("Failed to get report: %v", err)
		}
		got.Details = "changed"

		again, err := s.Get("r1")
		if err != nil {
			t.Fatalf("Failed to get report: %v", err)
		}
		if again.Details == "changed" {
			t.Error("Mutating a returned report changed the store")
		}
	})
}

// testCorroborationCache runs the behaviour every CorroborationCache must share.
func testCorroborationCache(t *testing.T, c CorroborationCache) {
	t.Helper()

	exists, err := c.Exists("r1", "alice")
	if err != nil {
		t.Fatalf("Failed to check corroboration: %v", err)
	}
	if exists {
		t.Error("Corroboration should not exist yet")
	}

	if err := c.Set("r1", "alice", time.Hour); err != nil {
		t.Fatalf("Failed to set corroboration: %v", err)
	}

	tests := []struct {
		reportID, verifierID string
		want                 bool
	}{
		{"r1", "alice", true},
		{"r1", "bob", false},
		{"r2", "alice", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.reportID, tt.verifierID), func(t *testing.T) {
			got, err := c.Exists(tt.reportID, tt.verifierID)
			if err != nil {
				t.Fatalf("Failed to check corroboration: %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists() = %v, want %v", got, tt.want)
			}
		})
	}

	// An already expired entry is never reported.
	if err := c.Set("r3", "carol", -time.Second); err != nil {
		t.Fatalf("Failed to set corroboration: %v", err)
	}
	exists, err = c.Exists("r3", "carol")
	if err != nil {
		t.Fatalf("Failed to check corroboration: %v", err)
	}
	if exists {
		t.Error("Expired corroboration should not exist")
	}
}
