package knowledge

import "strings"

// Match is the outcome of a knowledge base search for one query.
type Match struct {
	Key             string
	EditDistance    int
	NormalizedInput string
}

// Matcher finds the best knowledge base entry for free text.
type Matcher struct {
	base *Base
}

// NewMatcher creates a matcher over base.
func NewMatcher(base *Base) *Matcher {
	return &Matcher{base: base}
}

// Base returns the knowledge base the matcher searches.
func (m *Matcher) Base() *Base {
	return m.base
}

// FindBestMatch canonicalizes raw and searches the base for it.
//
// An exact key returns immediately with distance 0. Otherwise every key is scored by edit
// distance and the earliest key with the lowest score is kept. A final pass then picks the
// first key, in base order, that contains or is contained in the input; that key replaces
// the distance winner and its distance becomes 0, even when a longer key scored better.
//
// The second result is false only for empty input or an empty base.
func (m *Matcher) FindBestMatch(raw string) (Match, bool) {
	normalized := Canonicalize(raw)
	if normalized == "" || m.base == nil || m.base.Len() == 0 {
		return Match{}, false
	}

	if _, ok := m.base.Lookup(normalized); ok {
		return Match{Key: normalized, EditDistance: 0, NormalizedInput: normalized}, true
	}

	best := Match{NormalizedInput: normalized, EditDistance: -1}
	for _, e := range m.base.entries {
		d := EditDistance(normalized, e.Key)
		if best.EditDistance < 0 || d < best.EditDistance {
			best.Key = e.Key
			best.EditDistance = d
		}
	}

	// Substring hits win over the distance result, including a closer one.
	for _, e := range m.base.entries {
		if strings.Contains(normalized, e.Key) || strings.Contains(e.Key, normalized) {
			best.Key = e.Key
			best.EditDistance = 0
			break
		}
	}

	return best, true
}
