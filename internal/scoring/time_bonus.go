package scoring

import "math"

// timeBonusCutoff is the fraction of the time limit after which no bonus is earned.
const timeBonusCutoff = 0.75

// CalculateTimeBonus rewards finishing within the first three quarters of the
// time limit: round((0.75 - spent/limit) * 10). Zero values mean "absent".
func CalculateTimeBonus(timeSpent, timeLimit int) float64 {
	if timeSpent <= 0 || timeLimit <= 0 || timeSpent >= timeLimit {
		return 0
	}
	ratio := float64(timeSpent) / float64(timeLimit)
	if ratio >= timeBonusCutoff {
		return 0
	}
	return math.Round((timeBonusCutoff - ratio) * 10)
}

// GradeLetter maps a percentage onto the A-F scale.
func GradeLetter(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}
