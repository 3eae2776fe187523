package chat

import (
	"github.com/google/uuid"
	"github.com/healthdesk/assistant/internal/retrieval"
)

// View is the flat form of a Reply shared by every outer surface. Transports convert it
// to their own tagged struct.
type View struct {
	Text       string
	Anchors    []string
	Confidence *float64
	Stage      string
	MatchedKey string
	Specialty  string
	Hedged     bool
	SessionID  string
}

// View flattens the reply. Anchors is never nil, MatchedKey is only set for knowledge
// answers and SessionID is empty when history is off.
func (r Reply) View() View {
	v := View{
		Text:       r.Response.Text,
		Anchors:    r.Response.Anchors,
		Confidence: r.Response.Confidence,
		Stage:      string(r.Stage),
		Hedged:     r.Hedged,
	}
	if v.Anchors == nil {
		v.Anchors = []string{}
	}
	if r.Match != nil && r.Stage == retrieval.StageKnowledge {
		v.MatchedKey = r.Match.Key
	}
	if r.Suggestion != nil {
		v.Specialty = r.Suggestion.Specialty
	}
	if r.SessionID != uuid.Nil {
		v.SessionID = r.SessionID.String()
	}
	return v
}
