package huginn

import (
	"fmt"
	"testing"
)

var testBounds = Bounds{
	North: 40.75,
	South: 40.70,
	East:  -74.00,
	West:  -74.05,
}

func reportsAt(n int, lat, lon float64) []Report {
	reports := make([]Report, n)
	for i := range reports {
		reports[i] = Report{
			ID:       fmt.Sprintf("r%d", i),
			Type:     TypeFire,
			Location: &Location{Latitude: lat, Longitude: lon},
		}
	}
	return reports
}

func TestGenerateHeatmapData(t *testing.T) {
	// (40.71, -74.04) is grid corner i=10, j=10 of testBounds.
	const lat, lon = 40.71, -74.04

	tests := []struct {
		name          string
		reports       []Report
		wantIntensity float64
	}{
		{"single report", reportsAt(1, lat, lon), 0.1},
		{"five reports", reportsAt(5, lat, lon), 0.5},
		{"saturates at ten", reportsAt(10, lat, lon), 1.0},
		{"caps above ten", reportsAt(25, lat, lon), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := GenerateHeatmapData(tt.reports, testBounds)

			if len(points) == 0 {
				t.Fatal("Expected heatmap points, got none")
			}
			if len(points) >= HeatmapGridSize*HeatmapGridSize {
				t.Errorf("Expected a sparse heatmap, got %d points", len(points))
			}

			foundCorner := false
			for _, p := range points {
				if !approxEqual(p.Intensity, tt.wantIntensity, 1e-9) {
					t.Errorf("Point %v,%v: expected intensity %v, got %v",
						p.Latitude, p.Longitude, tt.wantIntensity, p.Intensity)
				}
				if d := DistanceMeters(p.Latitude, p.Longitude, lat, lon); d > HeatmapRadiusMeters {
					t.Errorf("Point %v,%v is %v m from every report", p.Latitude, p.Longitude, d)
				}
				if approxEqual(p.Latitude, lat, 1e-9) && approxEqual(p.Longitude, lon, 1e-9) {
					foundCorner = true
				}
			}
			if !foundCorner {
				t.Error("Expected a point at the grid corner holding the reports")
			}
		})
	}
}

func TestGenerateHeatmapDataEmpty(t *testing.T) {
	tests := []struct {
		name    string
		reports []Report
	}{
		{"no reports", nil},
		{"only reports without location", []Report{{ID: "a", Type: TypeFlood}, {ID: "b", Type: TypeFire}}},
		{"reports far outside the bounds", reportsAt(3, 10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if points := GenerateHeatmapData(tt.reports, testBounds); len(points) != 0 {
				t.Errorf("Expected no points, got %d", len(points))
			}
		})
	}
}

func TestGenerateHeatmapDataIgnoresUnlocated(t *testing.T) {
	reports := reportsAt(2, 40.71, -74.04)
	reports = append(reports, Report{ID: "nowhere", Type: TypeFire})

	for _, p := range GenerateHeatmapData(reports, testBounds) {
		if !approxEqual(p.Intensity, 0.2, 1e-9) {
			t.Errorf("Expected intensity 0.2, got %v", p.Intensity)
		}
	}
}

func TestGenerateHeatmapDataCornersExcludeNorthEastEdge(t *testing.T) {
	bounds := Bounds{North: 1, South: 0, East: 1, West: 0}
	opts := HeatmapOptions{GridSize: 2, RadiusMeters: 1000, Saturation: 1}

	// The north-east corner is not a grid sample.
	if points := GenerateHeatmapDataWithOptions(reportsAt(1, 1, 1), bounds, opts); len(points) != 0 {
		t.Errorf("Expected no points for a report at the north-east corner, got %d", len(points))
	}

	points := GenerateHeatmapDataWithOptions(reportsAt(1, 0.5, 0.5), bounds, opts)
	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
	if points[0].Latitude != 0.5 || points[0].Longitude != 0.5 || points[0].Intensity != 1 {
		t.Errorf("Expected {0.5 0.5 1}, got %+v", points[0])
	}
}

func TestGenerateHeatmapDataRowMajor(t *testing.T) {
	bounds := Bounds{North: 1, South: 0, East: 1, West: 0}
	opts := HeatmapOptions{GridSize: 2, RadiusMeters: 1000, Saturation: 5}

	reports := append(reportsAt(1, 0, 0.5), reportsAt(1, 0.5, 0)...)
	points := GenerateHeatmapDataWithOptions(reports, bounds, opts)
	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	if points[0].Latitude != 0 || points[0].Longitude != 0.5 {
		t.Errorf("Expected southern row first, got %+v", points[0])
	}
	if points[1].Latitude != 0.5 || points[1].Longitude != 0 {
		t.Errorf("Expected northern row second, got %+v", points[1])
	}
}

func BenchmarkGenerateHeatmapData(b *testing.B) {
	var reports []Report
	for i := 0; i < 100; i++ {
		reports = append(reports, Report{
			ID:       fmt.Sprintf("r%d", i),
			Type:     TypeFlood,
			Location: &Location{Latitude: 40.70 + float64(i%10)*0.005, Longitude: -74.05 + float64(i/10)*0.005},
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateHeatmapData(reports, testBounds)
	}
}
