package knowledge

import "math"

// Confidence scores a match in [0, 1] from its edit distance relative to the normalized
// input length. Exact and substring matches score 1.
func Confidence(m Match) float64 {
	return ConfidenceFor(m.EditDistance, len([]rune(m.NormalizedInput)))
}

// ConfidenceFor returns max(0, 1 - distance/max(length, 1)).
func ConfidenceFor(distance, length int) float64 {
	conf := 1.0 - float64(distance)/float64(max(length, 1))

	// Clamp to [0, 1]
	return math.Max(0.0, math.Min(1.0, conf))
}
