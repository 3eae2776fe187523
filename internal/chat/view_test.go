package chat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/healthdesk/assistant/internal/knowledge"
	"github.com/healthdesk/assistant/internal/retrieval"
	"github.com/stretchr/testify/assert"
)

func TestReply_View(t *testing.T) {
	conf := 0.8
	session := uuid.New()
	match := &knowledge.Match{Key: "headache", EditDistance: 1}

	tests := []struct {
		name  string
		reply Reply
		want  View
	}{
		{
			name: "knowledge answer",
			reply: Reply{
				Resolution: retrieval.Resolution{
					Response: retrieval.Response{Text: "rest", Anchors: []string{"/pharmacies"}, Confidence: &conf},
					Stage:    retrieval.StageKnowledge,
					Match:    match,
					Hedged:   true,
				},
				SessionID: session,
			},
			want: View{
				Text:       "rest",
				Anchors:    []string{"/pharmacies"},
				Confidence: &conf,
				Stage:      "knowledge",
				MatchedKey: "headache",
				Hedged:     true,
				SessionID:  session.String(),
			},
		},
		{
			name: "specialist keeps specialty but not match",
			reply: Reply{Resolution: retrieval.Resolution{
				Response:   retrieval.Response{Text: "see an orthopedist"},
				Stage:      retrieval.StageSpecialist,
				Match:      match,
				Suggestion: &retrieval.Suggestion{Specialty: "Orthopedist"},
			}},
			want: View{Text: "see an orthopedist", Anchors: []string{}, Stage: "specialist", Specialty: "Orthopedist"},
		},
		{
			name:  "fallback without session",
			reply: Reply{Resolution: retrieval.Resolution{Response: retrieval.Response{Text: retrieval.FallbackText}, Stage: retrieval.StageFallback}},
			want:  View{Text: retrieval.FallbackText, Anchors: []string{}, Stage: "fallback"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reply.View())
		})
	}
}
