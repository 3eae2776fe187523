package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigationClassifier_Detect(t *testing.T) {
	c := NewNavigationClassifier()

	tests := []struct {
		name   string
		input  string
		intent Intent
		found  bool
	}{
		{"empty", "", "", false},
		{"whitespace", "   ", "", false},
		{"nearest pharmacy", "nearest pharmacy", IntentPharmacy, true},
		{"nearest plus pharm token", "Where is the nearest pharm?", IntentPharmacy, true},
		{"drugstore", "Is there a DRUGSTORE nearby", IntentPharmacy, true},
		{"pharmacy beats emergency", "emergency pharmacy", IntentPharmacy, true},
		{"pharmacy beats delivery", "pharmacy delivery", IntentPharmacy, true},
		{"ambulance", "call an ambulance", IntentHotline, true},
		{"emergency", "Emergency!", IntentHotline, true},
		{"emergency beats specialist", "emergency specialist", IntentHotline, true},
		{"body map", "show me the body map", IntentBodySection, true},
		{"anatomy", "anatomy chart", IntentBodySection, true},
		{"department", "which department treats skin", IntentSpecialist, true},
		{"specialty", "what specialty treats acne", IntentSpecialist, true},
		{"doctor question is not navigation", "when should I see a doctor about my fever", "", false},
		{"find a doctor is not navigation", "help me find a doctor", "", false},
		{"delivery", "medicine delivery", IntentDelivery, true},
		{"open 24", "anything open 24 hours?", Intent24Hours, true},
		{"24/7", "24/7 clinic", Intent24Hours, true},
		{"247", "clinic 247", Intent24Hours, true},
		{"symptom is not navigation", "headache", "", false},
		{"stomach sentence", "my stomach hurts and I vomited", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, ok := c.Detect(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.intent, intent)
		})
	}
}

func TestNavigationResponse(t *testing.T) {
	pages := map[Intent]string{
		IntentPharmacy:    PagePharmacies,
		IntentHotline:     PageHotlines,
		IntentBodySection: PageBody,
		IntentSpecialist:  PageSpecialists,
		IntentDelivery:    PageDelivery,
		Intent24Hours:     Page24Hours,
	}

	for intent, page := range pages {
		t.Run(string(intent), func(t *testing.T) {
			resp, ok := NavigationResponse(intent)
			require.True(t, ok)
			assert.NotEmpty(t, resp.Text)
			assert.Equal(t, []string{page}, resp.Anchors)
			assert.Nil(t, resp.Confidence)
		})
	}

	_, ok := NavigationResponse("unknown")
	assert.False(t, ok)
}
