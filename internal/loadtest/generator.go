package loadtest

import (
	"math/rand/v2"

	"github.com/optischolar/signals/internal/domain/model"
)

// Student profiles the generator draws from, weighted towards the middle.
const (
	profileSteady = iota
	profileSlipping
	profileDisengaged
	profileMixed
	profileCount
)

// Generator produces plausible feature vectors from a seeded source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Features returns n feature vectors.
func (g *Generator) Features(n int) []model.FeatureVector {
	out := make([]model.FeatureVector, n)
	for i := range out {
		out[i] = g.next()
	}
	return out
}

func (g *Generator) next() model.FeatureVector {
	switch g.rng.IntN(profileCount) {
	case profileSteady:
		return model.FeatureVector{
			AttendanceRate:   g.between(90, 100),
			GradeAverage:     g.between(7, 10),
			AttendanceTrend:  g.between(-0.02, 0.05),
			DaysSinceAbsence: float64(g.rng.IntN(60) + 10),
			PatternFlags:     float64(g.rng.IntN(2)),
		}
	case profileSlipping:
		return model.FeatureVector{
			AttendanceRate:   g.between(70, 88),
			GradeAverage:     g.between(5, 7.5),
			AttendanceTrend:  g.between(-0.2, 0),
			DaysSinceAbsence: float64(g.rng.IntN(10)),
			PatternFlags:     float64(g.rng.IntN(4)),
		}
	case profileDisengaged:
		return model.FeatureVector{
			AttendanceRate:   g.between(40, 70),
			GradeAverage:     g.between(2, 5.5),
			AttendanceTrend:  g.between(-0.5, -0.1),
			DaysSinceAbsence: float64(g.rng.IntN(3)),
			PatternFlags:     float64(g.rng.IntN(4) + 2),
		}
	default:
		return model.FeatureVector{
			AttendanceRate:   g.between(0, 100),
			GradeAverage:     g.between(0, 10),
			AttendanceTrend:  g.between(-1, 1),
			DaysSinceAbsence: float64(g.rng.IntN(90)),
			PatternFlags:     float64(g.rng.IntN(6)),
		}
	}
}

func (g *Generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}
