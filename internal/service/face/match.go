package face

import (
	"math"

	"attendance/internal/model"
)

// Match is the closest roster entry for a probe vector.
type Match struct {
	Face     model.KnownFace
	Distance float64
}

// Distance returns the Euclidean distance between two encodings.
// Mismatched or empty vectors are incomparable and map to +Inf.
func Distance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Confidence maps a match distance to [0, 1]; 1 means identical.
func Confidence(distance float64) float64 {
	if math.IsInf(distance, 1) {
		return 0
	}
	c := 1 - distance
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// BestMatch finds the roster entry closest to vec. The second return is true
// only when that entry is within tolerance; the closest entry is returned
// either way so callers can report sub-threshold confidence.
func BestMatch(vec []float32, roster []model.KnownFace, tolerance float64) (Match, bool) {
	best := Match{Distance: math.Inf(1)}
	for _, known := range roster {
		if d := Distance(vec, known.Encoding); d < best.Distance {
			best = Match{Face: known, Distance: d}
		}
	}

	if best.Distance > tolerance {
		return best, false
	}
	return best, true
}
