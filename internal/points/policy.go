// Package points maps issue difficulty and priority onto the reward for resolving it.
package points

const defaultBase = 100

var basePoints = map[string]int{
	"easy":   100,
	"medium": 200,
	"hard":   300,
}

var priorityFactor = map[string]float64{
	"low":    1.0,
	"medium": 1.5,
	"high":   2.0,
}

// For returns the points awarded for resolving an issue. Unknown difficulties
// fall back to 100 and unknown priorities to a factor of 1.
func For(difficulty, priority string) int {
	base, ok := basePoints[difficulty]
	if !ok {
		base = defaultBase
	}
	factor, ok := priorityFactor[priority]
	if !ok {
		factor = 1.0
	}
	return int(float64(base) * factor)
}
