package patterns

// Scaling holds the empirical constants that turn pattern counts into
// confidences. Each pass computes min(cap, count × factor).
type Scaling struct {
	// TopDays is how many of the most-missed weekdays are considered.
	TopDays int
	// DayShareMin is the share of all absences a weekday must exceed.
	DayShareMin float64
	DayFactor   float64
	DayCap      float64

	// ConsecutiveMin is the number of one-day gaps needed for a match.
	ConsecutiveMin    int
	ConsecutiveFactor float64
	ConsecutiveCap    float64

	// BoundaryMin is the number of Monday or Friday absences needed.
	BoundaryMin  int
	MondayFactor float64
	MondayCap    float64
	FridayFactor float64
	FridayCap    float64
}

// DefaultScaling returns the constants the miner ships with.
func DefaultScaling() Scaling {
	return Scaling{
		TopDays:           3,
		DayShareMin:       0.25,
		DayFactor:         1.5,
		DayCap:            0.95,
		ConsecutiveMin:    3,
		ConsecutiveFactor: 0.15,
		ConsecutiveCap:    0.9,
		BoundaryMin:       3,
		MondayFactor:      0.2,
		MondayCap:         0.95,
		FridayFactor:      0.18,
		FridayCap:         0.90,
	}
}

func scaled(count int, factor, limit float64) float64 {
	return min(limit, float64(count)*factor)
}
