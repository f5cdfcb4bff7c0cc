package huginn

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Point returns the location as an orb point (longitude first).
func (l Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// Bound returns the bounding box as an orb.Bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// ClustersGeoJSON renders clusters as point features at their centers for
// map overlays. Renderers draw the zone disc from the radius_m property.
func ClustersGeoJSON(clusters []ReportCluster, threshold float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i := range clusters {
		c := &clusters[i]

		f := geojson.NewFeature(c.Center.Point())
		f.ID = c.ID
		f.Properties["type"] = string(c.Type)
		f.Properties["severity"] = c.Severity.String()
		f.Properties["confidence"] = c.Confidence
		f.Properties["radius_m"] = c.Radius
		f.Properties["report_count"] = len(c.Reports)
		f.Properties["verified_count"] = VerifiedCount(c.Reports)
		f.Properties["timestamp"] = c.Timestamp
		f.Properties["high_confidence"] = c.IsHighConfidence(threshold)

		fc.Append(f)
	}

	return fc
}

// HeatmapGeoJSON renders heatmap samples as weighted point features.
func HeatmapGeoJSON(points []HeatmapPoint, bounds Bounds) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.BBox = geojson.NewBBox(bounds.Bound())

	for _, p := range points {
		f := geojson.NewFeature(orb.Point{p.Longitude, p.Latitude})
		f.Properties["intensity"] = p.Intensity
		fc.Append(f)
	}

	return fc
}
