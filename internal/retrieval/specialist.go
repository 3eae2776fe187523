package retrieval

import "strings"

// Suggestion is a specialist recommendation produced by keyword lookup.
type Suggestion struct {
	Specialty string `json:"specialty"`
	Page      string `json:"page"`
	Keyword   string `json:"keyword"`
}

type specialistRule struct {
	keywords  []string
	specialty string
}

// SpecialistHeuristic maps symptom keywords to a medical specialty.
type SpecialistHeuristic struct {
	rules []specialistRule
}

// NewSpecialistHeuristic creates a heuristic with the built-in rule table.
func NewSpecialistHeuristic() *SpecialistHeuristic {
	return &SpecialistHeuristic{
		rules: []specialistRule{
			{
				keywords:  []string{"chest", "heart", "palpitation"},
				specialty: "Cardiologist",
			},
			{
				keywords:  []string{"migraine", "dizz", "numb", "seizure", "faint"},
				specialty: "Neurologist",
			},
			{
				keywords:  []string{"vomit", "nausea", "diarrhea", "stomach", "abdominal", "constipation", "bloating"},
				specialty: "Gastroenterologist",
			},
			{
				keywords:  []string{"rash", "skin", "itch", "acne", "eczema", "mole"},
				specialty: "Dermatologist",
			},
			{
				keywords:  []string{"breath", "wheez", "asthma", "lung"},
				specialty: "Pulmonologist",
			},
			{
				keywords:  []string{"earache", "ear pain", "hearing", "throat", "sinus", "nose", "tonsil"},
				specialty: "ENT Specialist",
			},
			{
				keywords:  []string{"back pain", "backache", "back hurts", "lower back", "joint", "knee", "bone", "fracture", "sprain", "shoulder"},
				specialty: "Orthopedist",
			},
			{
				keywords:  []string{"eye", "vision", "blurry"},
				specialty: "Ophthalmologist",
			},
			{
				keywords:  []string{"urin", "bladder", "kidney"},
				specialty: "Urologist",
			},
			{
				keywords:  []string{"anxiety", "anxious", "depress", "panic"},
				specialty: "Psychiatrist",
			},
		},
	}
}

// Suggest returns the specialty of the first rule whose keywords hit the lower-cased query.
// Rules are tried in order and keywords within a rule in listed order; the first hit wins.
func (h *SpecialistHeuristic) Suggest(raw string) (Suggestion, bool) {
	q := strings.ToLower(raw)
	if strings.TrimSpace(q) == "" {
		return Suggestion{}, false
	}

	for _, rule := range h.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return Suggestion{Specialty: rule.specialty, Page: PageSpecialists, Keyword: kw}, true
			}
		}
	}

	return Suggestion{}, false
}

// Specialties lists the specialties in rule order.
func (h *SpecialistHeuristic) Specialties() []string {
	out := make([]string, len(h.rules))
	for i, r := range h.rules {
		out[i] = r.specialty
	}
	return out
}
