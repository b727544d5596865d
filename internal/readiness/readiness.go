// Package readiness scores how prepared a user is for their target role.
package readiness

const (
	pointsPerSkill = 10
	maxScore       = 100
)

// Score returns len(skills)*10 clamped to 100.
func Score(skills []string) int {
	score := len(skills) * pointsPerSkill
	if score > maxScore {
		return maxScore
	}
	return score
}

// Resilience maps a readiness score onto the label shown on the dashboard.
func Resilience(score int) string {
	switch {
	case score >= 75:
		return "highly resilient"
	case score >= 50:
		return "moderately resilient"
	default:
		return "at risk"
	}
}
