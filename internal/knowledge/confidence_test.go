package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		name     string
		distance int
		length   int
		expected float64
	}{
		{"exact", 0, 8, 1.0},
		{"one transposition", 2, 8, 0.75},
		{"half wrong", 5, 10, 0.5},
		{"distance equals length", 4, 4, 0.0},
		{"distance beyond length clamps", 20, 4, 0.0},
		{"zero length treated as one", 0, 0, 1.0},
		{"zero length with distance", 1, 0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ConfidenceFor(tt.distance, tt.length), 1e-9)
		})
	}
}

func TestConfidence_FromMatch(t *testing.T) {
	m := Match{Key: "headache", EditDistance: 2, NormalizedInput: "haedache"}
	assert.InDelta(t, 0.75, Confidence(m), 1e-9)

	m = Match{Key: "stomach ache", EditDistance: 20, NormalizedInput: "my stomach hurts and i vomited"}
	assert.InDelta(t, 1.0/3.0, Confidence(m), 1e-9)
}

func TestConfidence_MonotoneInDistance(t *testing.T) {
	for length := 1; length <= 30; length++ {
		prev := ConfidenceFor(0, length)
		assert.Equal(t, 1.0, prev)
		for d := 1; d <= length+5; d++ {
			c := ConfidenceFor(d, length)
			assert.LessOrEqual(t, c, prev, "length=%d distance=%d", length, d)
			assert.GreaterOrEqual(t, c, 0.0)
			prev = c
		}
	}
}
