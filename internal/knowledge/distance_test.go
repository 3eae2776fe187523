package knowledge

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"", "fever", 5},
		{"fever", "", 5},
		{"headache", "headache", 0},
		{"haedache", "headache", 2},
		{"fevr", "fever", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"chest pian", "chest pain", 2},
		{"abc", "xyz", 3},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, EditDistance(tt.a, tt.b))
		})
	}
}

func TestEditDistance_Properties(t *testing.T) {
	faker := gofakeit.New(42)

	word := func() string {
		return Canonicalize(faker.Word() + " " + faker.LetterN(uint(faker.IntRange(0, 6))))
	}

	for i := 0; i < 300; i++ {
		a, b, c := word(), word(), word()

		assert.Equal(t, 0, EditDistance(a, a))
		assert.Equal(t, EditDistance(a, b), EditDistance(b, a), "symmetry %q %q", a, b)
		assert.LessOrEqual(t, EditDistance(a, c), EditDistance(a, b)+EditDistance(b, c),
			"triangle inequality %q %q %q", a, b, c)
		assert.LessOrEqual(t, EditDistance(a, b), max(len(a), len(b)))
		assert.GreaterOrEqual(t, EditDistance(a, b), abs(len(a)-len(b)))
	}
}

func TestEditDistance_LongInput(t *testing.T) {
	long := make([]byte, 20000)
	for i := range long {
		long[i] = 'a'
	}

	assert.Equal(t, 20000-5, EditDistance(string(long), "aaaaa"))
	assert.Equal(t, 20000, EditDistance("", string(long)))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
