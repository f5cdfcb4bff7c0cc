package huginn

import "math"

const (
	// confidenceSaturation is the member count at which volume alone
	// yields full confidence.
	confidenceSaturation = 10

	// verificationWeight scales the mean corroboration count per member.
	verificationWeight = 0.3
)

// ScoreConfidence returns a value in [0, 1] combining the number of member
// reports with how often each has been corroborated:
//
//	base  = min(1, n/10)
//	bonus = (sum of VerificationCount / n) * 0.3
//	score = min(1, base + bonus)
//
// Negative verification counts are treated as zero. An empty group scores 0.
func ScoreConfidence(members []Report) float64 {
	n := len(members)
	if n == 0 {
		return 0
	}

	base := math.Min(1, float64(n)/confidenceSaturation)

	total := 0
	for _, r := range members {
		if r.VerificationCount > 0 {
			total += r.VerificationCount
		}
	}
	bonus := float64(total) / float64(n) * verificationWeight

	return math.Min(1, base+bonus)
}

// AggregateSeverity returns the highest severity rank among members.
// Members without a severity count as SeverityLow.
func AggregateSeverity(members []Report) Severity {
	highest := SeverityLow
	for _, r := range members {
		if rank := r.Severity.Rank(); rank > highest {
			highest = rank
		}
	}
	return highest
}

// VerifiedCount returns how many members are verified.
func VerifiedCount(members []Report) int {
	count := 0
	for _, r := range members {
		if r.Verified {
			count++
		}
	}
	return count
}
