package huginn

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name           string
		lat1, lon1     float64
		lat2, lon2     float64
		expectedM      float64
		toleranceM     float64 // absolute tolerance
		toleranceRatio float64 // relative tolerance
	}{
		{
			name:       "same point returns zero",
			lat1:       40.7128,
			lon1:       -74.0060,
			lat2:       40.7128,
			lon2:       -74.0060,
			expectedM:  0,
			toleranceM: 0.001,
		},
		{
			name:       "one degree of latitude",
			lat1:       0,
			lon1:       0,
			lat2:       1,
			lon2:       0,
			expectedM:  111194.93,
			toleranceM: 1,
		},
		{
			name:       "one degree of longitude on the equator",
			lat1:       0,
			lon1:       0,
			lat2:       0,
			lon2:       1,
			expectedM:  111194.93,
			toleranceM: 1,
		},
		{
			name:       "0.0003 degrees of latitude is about 33 m",
			lat1:       40.7128,
			lon1:       -74.0060,
			lat2:       40.7131,
			lon2:       -74.0060,
			expectedM:  33.36,
			toleranceM: 0.1,
		},
		{
			name:           "NYC to London",
			lat1:           40.7128,
			lon1:           -74.0060,
			lat2:           51.5074,
			lon2:           -0.1278,
			expectedM:      5570000,
			toleranceRatio: 0.01,
		},
		{
			name:           "Sydney to Tokyo",
			lat1:           -33.8688,
			lon1:           151.2093,
			lat2:           35.6762,
			lon2:           139.6503,
			expectedM:      7823000,
			toleranceRatio: 0.01,
		},
		{
			name:           "North Pole to South Pole (antipodal)",
			lat1:           90,
			lon1:           0,
			lat2:           -90,
			lon2:           0,
			expectedM:      math.Pi * 6371000,
			toleranceRatio: 0.0001,
		},
		{
			name:       "across the date line",
			lat1:       0,
			lon1:       179.9995,
			lat2:       0,
			lon2:       -179.9995,
			expectedM:  111.19,
			toleranceM: 0.5,
		},
		{
			name:           "crossing prime meridian - London to Paris",
			lat1:           51.5074,
			lon1:           -0.1278,
			lat2:           48.8566,
			lon2:           2.3522,
			expectedM:      344000,
			toleranceRatio: 0.02,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)

			tolerance := tt.toleranceM
			if tt.toleranceRatio > 0 && tt.expectedM > 0 {
				tolerance = tt.expectedM * tt.toleranceRatio
			}

			if math.Abs(got-tt.expectedM) > tolerance {
				t.Errorf("DistanceMeters(%v, %v, %v, %v) = %v m, want ~%v m (tolerance: %v m)",
					tt.lat1, tt.lon1, tt.lat2, tt.lon2, got, tt.expectedM, tolerance)
			}
		})
	}
}

func TestDistanceMetersSymmetry(t *testing.T) {
	testCases := []struct {
		lat1, lon1, lat2, lon2 float64
	}{
		{40.7128, -74.0060, 51.5074, -0.1278},   // NYC to London
		{-33.8688, 151.2093, 35.6762, 139.6503}, // Sydney to Tokyo
		{0, 0, 45, 45},
		{90, 0, -90, 0},
		{40.7128, -74.0060, 40.7131, -74.0057},
	}

	for _, tc := range testCases {
		d1 := DistanceMeters(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
		d2 := DistanceMeters(tc.lat2, tc.lon2, tc.lat1, tc.lon1)

		if math.Abs(d1-d2) > 1e-6 {
			t.Errorf("Distance not symmetric: (%v,%v)->(%v,%v)=%v but reverse=%v",
				tc.lat1, tc.lon1, tc.lat2, tc.lon2, d1, d2)
		}
	}
}

func TestDistanceMetersNonNegative(t *testing.T) {
	testCases := []struct {
		lat1, lon1, lat2, lon2 float64
	}{
		{0, 0, 0, 0},
		{-90, -180, 90, 180},
		{45, -90, -45, 90},
		{0, 180, 0, -180}, // same point across the date line
	}

	for _, tc := range testCases {
		d := DistanceMeters(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
		if d < 0 || math.IsNaN(d) {
			t.Errorf("DistanceMeters(%v, %v, %v, %v) = %v, want non-negative",
				tc.lat1, tc.lon1, tc.lat2, tc.lon2, d)
		}
	}
}

func TestDistanceMetersMonotonic(t *testing.T) {
	// Moving further north along a meridian never gets closer.
	prev := 0.0
	for step := 1; step <= 100; step++ {
		d := DistanceMeters(10, 20, 10+float64(step)*0.001, 20)
		if d <= prev {
			t.Fatalf("step %d: distance %v did not grow past %v", step, d, prev)
		}
		prev = d
	}
}

func TestDistanceMetersTriangleInequality(t *testing.T) {
	pointA := Location{Latitude: 40.7128, Longitude: -74.0060} // NYC
	pointB := Location{Latitude: 51.5074, Longitude: -0.1278}  // London
	pointC := Location{Latitude: 48.8566, Longitude: 2.3522}   // Paris

	dAB := distanceBetween(pointA, pointB)
	dBC := distanceBetween(pointB, pointC)
	dAC := distanceBetween(pointA, pointC)

	if dAC > dAB+dBC+0.001 {
		t.Errorf("Triangle inequality violated: d(A,C)=%v > d(A,B)+d(B,C)=%v",
			dAC, dAB+dBC)
	}
}

func BenchmarkDistanceMeters(b *testing.B) {
	for i := 0; i < b.N; i++ {
		DistanceMeters(40.7128, -74.0060, 51.5074, -0.1278)
	}
}
