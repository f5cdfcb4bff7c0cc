package huginn

import "math"

const (
	// HeatmapGridSize is the number of rows and columns in the density grid.
	HeatmapGridSize = 50

	// HeatmapRadiusMeters is how close a report must be to a grid corner to
	// count towards it.
	HeatmapRadiusMeters = 200.0

	// HeatmapSaturation is the report count at which intensity reaches 1.
	HeatmapSaturation = 10
)

// HeatmapOptions tunes the heatmap generator.
type HeatmapOptions struct {
	GridSize     int
	RadiusMeters float64
	Saturation   int
}

// DefaultHeatmapOptions returns the standard 50x50 / 200 m / 10 settings.
func DefaultHeatmapOptions() HeatmapOptions {
	return HeatmapOptions{
		GridSize:     HeatmapGridSize,
		RadiusMeters: HeatmapRadiusMeters,
		Saturation:   HeatmapSaturation,
	}
}

// GenerateHeatmapData rasterizes report density over bounds using the
// default options. See GenerateHeatmapDataWithOptions.
func GenerateHeatmapData(reports []Report, bounds Bounds) []HeatmapPoint {
	return GenerateHeatmapDataWithOptions(reports, bounds, DefaultHeatmapOptions())
}

// GenerateHeatmapDataWithOptions lays a GridSize x GridSize grid over bounds
// and, for the south-west corner of every cell, counts located reports within
// RadiusMeters. Intensity is min(1, count/Saturation). Cells with no nearby
// reports are omitted.
//
// Cost is O(cells x reports). It is meant for periodic map refreshes over
// tens to hundreds of reports, not per-frame rendering.
func GenerateHeatmapDataWithOptions(reports []Report, bounds Bounds, opts HeatmapOptions) []HeatmapPoint {
	if opts.GridSize <= 0 {
		opts.GridSize = HeatmapGridSize
	}
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = HeatmapRadiusMeters
	}
	if opts.Saturation <= 0 {
		opts.Saturation = HeatmapSaturation
	}

	located := make([]Location, 0, len(reports))
	for _, r := range reports {
		if r.Location != nil {
			located = append(located, *r.Location)
		}
	}
	if len(located) == 0 {
		return nil
	}

	latStep := (bounds.North - bounds.South) / float64(opts.GridSize)
	lonStep := (bounds.East - bounds.West) / float64(opts.GridSize)

	var points []HeatmapPoint
	for i := 0; i < opts.GridSize; i++ {
		for j := 0; j < opts.GridSize; j++ {
			corner := Location{
				Latitude:  bounds.South + float64(i)*latStep,
				Longitude: bounds.West + float64(j)*lonStep,
			}

			count := 0
			for _, loc := range located {
				if distanceBetween(corner, loc) <= opts.RadiusMeters {
					count++
				}
			}

			intensity := math.Min(1, float64(count)/float64(opts.Saturation))
			if intensity > 0 {
				points = append(points, HeatmapPoint{
					Latitude:  corner.Latitude,
					Longitude: corner.Longitude,
					Intensity: intensity,
				})
			}
		}
	}

	return points
}
