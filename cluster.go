package huginn

import "math"

const (
	// ClusterRadiusMeters is the maximum seed-to-member distance.
	ClusterRadiusMeters = 500.0

	// MinReportsForCluster is the smallest group that becomes a cluster.
	MinReportsForCluster = 3

	clusterIDPrefix = "cluster-"
)

// ClusterOptions tunes the cluster builder.
type ClusterOptions struct {
	// RadiusMeters is the membership radius around a seed report.
	RadiusMeters float64

	// MinReports is the minimum group size to materialize a cluster.
	MinReports int
}

// DefaultClusterOptions returns the standard 500 m / 3 report rule.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		RadiusMeters: ClusterRadiusMeters,
		MinReports:   MinReportsForCluster,
	}
}

// ClusterReports groups reports into clusters using the default options.
// See ClusterReportsWithOptions.
func ClusterReports(reports []Report) []ReportCluster {
	return ClusterReportsWithOptions(reports, DefaultClusterOptions())
}

// ClusterReportsWithOptions partitions reports into same-type spatial
// clusters in a single greedy pass over the input order.
//
// Each located, unprocessed report is taken as a seed. Every other located,
// unprocessed report of the same type within opts.RadiusMeters of the seed
// joins its group. Membership is tested against the seed only, so the result
// is not a transitive closure. A group of at least opts.MinReports becomes a
// cluster and its members are marked processed. Smaller groups are dropped
// without marking anything, so those reports may still join a later seed.
//
// The output depends on input order. Callers wanting reproducible clusters
// should pass reports sorted by Timestamp ascending.
func ClusterReportsWithOptions(reports []Report, opts ClusterOptions) []ReportCluster {
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = ClusterRadiusMeters
	}
	if opts.MinReports <= 0 {
		opts.MinReports = MinReportsForCluster
	}

	var clusters []ReportCluster
	processed := make(map[string]bool)

	for _, seed := range reports {
		if seed.Location == nil || processed[seed.ID] {
			continue
		}

		group := []Report{seed}
		for _, candidate := range reports {
			if candidate.ID == seed.ID || candidate.Location == nil || processed[candidate.ID] {
				continue
			}
			if candidate.Type != seed.Type {
				continue
			}
			if distanceBetween(*seed.Location, *candidate.Location) <= opts.RadiusMeters {
				group = append(group, candidate)
			}
		}

		if len(group) < opts.MinReports {
			continue
		}

		clusters = append(clusters, buildCluster(seed.ID, group, opts.RadiusMeters))
		for _, member := range group {
			processed[member.ID] = true
		}
	}

	return clusters
}

// buildCluster aggregates a qualifying group. All members have a location.
func buildCluster(seedID string, members []Report, radius float64) ReportCluster {
	var sumLat, sumLon float64
	var latest int64 = math.MinInt64
	for _, r := range members {
		sumLat += r.Location.Latitude
		sumLon += r.Location.Longitude
		if r.Timestamp > latest {
			latest = r.Timestamp
		}
	}

	count := float64(len(members))
	center := Location{
		Latitude:  sumLat / count,
		Longitude: sumLon / count,
	}

	extent := radius / 2
	for _, r := range members {
		if d := distanceBetween(center, *r.Location); d > extent {
			extent = d
		}
	}

	return ReportCluster{
		ID:         clusterIDPrefix + seedID,
		Center:     center,
		Reports:    cloneReports(members),
		Type:       members[0].Type,
		Severity:   AggregateSeverity(members),
		Confidence: ScoreConfidence(members),
		Timestamp:  latest,
		Radius:     extent,
	}
}

// cloneReports copies members so a cluster never aliases caller data.
func cloneReports(members []Report) []Report {
	out := make([]Report, len(members))
	for i, r := range members {
		if r.Location != nil {
			loc := *r.Location
			r.Location = &loc
		}
		out[i] = r
	}
	return out
}
