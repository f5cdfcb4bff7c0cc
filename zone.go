package huginn

// HighConfidenceThreshold is the confidence at which a cluster can escalate
// a user's safety mode.
const HighConfidenceThreshold = 0.7

// IsInHighConfidenceZone returns the first cluster, in input order, whose
// confidence is at least HighConfidenceThreshold and whose disc contains the
// point. It returns nil when no such cluster exists.
//
// Overlapping zones are not ranked: treat a non-nil result as "inside some
// high-confidence zone", not as the best match.
func IsInHighConfidenceZone(lat, lon float64, clusters []ReportCluster) *ReportCluster {
	return FindZone(lat, lon, clusters, HighConfidenceThreshold)
}

// FindZone is IsInHighConfidenceZone with an explicit threshold.
func FindZone(lat, lon float64, clusters []ReportCluster, threshold float64) *ReportCluster {
	for i := range clusters {
		c := &clusters[i]
		if !c.IsHighConfidence(threshold) {
			continue
		}
		if c.Contains(lat, lon) {
			return c
		}
	}
	return nil
}

// HighConfidenceClusters returns the clusters meeting threshold, preserving
// input order.
func HighConfidenceClusters(clusters []ReportCluster, threshold float64) []ReportCluster {
	var out []ReportCluster
	for _, c := range clusters {
		if c.IsHighConfidence(threshold) {
			out = append(out, c)
		}
	}
	return out
}
