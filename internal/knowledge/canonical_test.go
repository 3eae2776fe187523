package knowledge

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"already canonical", "headache", "headache"},
		{"upper case", "HEADACHE", "headache"},
		{"punctuation stripped", "Headache!!!", "headache"},
		{"surrounding spaces trimmed", "   sore throat  ", "sore throat"},
		{"inner spaces kept", "sore  throat", "sore  throat"},
		{"digits kept", "Open 24/7", "open 247"},
		{"tabs and newlines dropped", "\tfever\n", "fever"},
		{"accented letters dropped", "café fever", "caf fever"},
		{"only symbols", "?!*&", ""},
		{"whitespace only", "    ", ""},
		{"apostrophe", "I've got a cough", "ive got a cough"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Canonicalize(tt.input))
		})
	}
}

func TestCanonicalizePtr(t *testing.T) {
	assert.Equal(t, "", CanonicalizePtr(nil))

	s := " Fever? "
	assert.Equal(t, "fever", CanonicalizePtr(&s))
}

func TestCanonicalize_Idempotent(t *testing.T) {
	faker := gofakeit.New(7)

	for i := 0; i < 200; i++ {
		raw := faker.Sentence(faker.IntRange(1, 12)) + faker.Emoji() + "  " + faker.Phrase()
		once := Canonicalize(raw)
		assert.Equal(t, once, Canonicalize(once), "input %q", raw)
	}
}

func TestCanonicalize_OutputAlphabet(t *testing.T) {
	faker := gofakeit.New(11)

	for i := 0; i < 200; i++ {
		out := Canonicalize(faker.HackerPhrase() + faker.Emoji())
		for _, r := range out {
			ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' '
			assert.True(t, ok, "unexpected rune %q in %q", r, out)
		}
		if out != "" {
			assert.NotEqual(t, ' ', rune(out[0]))
			assert.NotEqual(t, ' ', rune(out[len(out)-1]))
		}
	}
}
