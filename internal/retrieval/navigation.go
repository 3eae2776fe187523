// Package retrieval resolves free-text health questions into a response payload by running
// them through navigation intent detection, the symptom knowledge base and the specialist
// heuristic, in that order.
package retrieval

import "strings"

// Intent is a navigation intent that maps straight to a site section.
type Intent string

const (
	IntentPharmacy    Intent = "pharmacy"
	IntentHotline     Intent = "hotline"
	IntentBodySection Intent = "body_section"
	IntentSpecialist  Intent = "specialist"
	IntentDelivery    Intent = "delivery"
	Intent24Hours     Intent = "24h"
)

// navigationRule matches when any of anyOf is a substring of the query, or when every
// element of allOf is.
type navigationRule struct {
	intent Intent
	anyOf  []string
	allOf  []string
}

func (r navigationRule) matches(q string) bool {
	for _, p := range r.anyOf {
		if strings.Contains(q, p) {
			return true
		}
	}
	if len(r.allOf) == 0 {
		return false
	}
	for _, p := range r.allOf {
		if !strings.Contains(q, p) {
			return false
		}
	}
	return true
}

// NavigationClassifier detects navigation intents using ordered substring rules.
type NavigationClassifier struct {
	rules []navigationRule
}

// NewNavigationClassifier creates a classifier with the built-in rule table.
func NewNavigationClassifier() *NavigationClassifier {
	return &NavigationClassifier{
		rules: []navigationRule{
			{
				intent: IntentPharmacy,
				anyOf: []string{
					"pharmacy",
					"pharmacies",
					"drugstore",
					"drug store",
					"chemist",
				},
				allOf: []string{"nearest", "pharm"},
			},
			{
				intent: IntentHotline,
				anyOf: []string{
					"hotline",
					"emergency",
					"ambulance",
					"helpline",
				},
			},
			{
				intent: IntentBodySection,
				anyOf: []string{
					"body part",
					"body area",
					"body map",
					"body section",
					"body region",
					"anatomy",
					"anatomical",
				},
			},
			{
				intent: IntentSpecialist,
				anyOf: []string{
					"specialist",
					"specialty",
					"speciality",
					"department",
				},
			},
			{
				intent: IntentDelivery,
				anyOf:  []string{"delivery"},
			},
			{
				intent: Intent24Hours,
				anyOf: []string{
					"24/7",
					"247",
					"open 24",
				},
			},
		},
	}
}

// Detect returns the intent of the first rule that matches the lower-cased query.
// Later rules are not evaluated once one matches.
func (c *NavigationClassifier) Detect(raw string) (Intent, bool) {
	q := strings.ToLower(raw)
	if strings.TrimSpace(q) == "" {
		return "", false
	}

	for _, rule := range c.rules {
		if rule.matches(q) {
			return rule.intent, true
		}
	}

	return "", false
}

var navigationResponses = map[Intent]struct {
	text string
	page string
}{
	IntentPharmacy: {
		text: "You can find nearby pharmacies, their opening hours and directions in the pharmacy locator.",
		page: PagePharmacies,
	},
	IntentHotline: {
		text: "If this is an emergency, call your local emergency number right away. The hotline directory lists ambulance, poison control and crisis lines.",
		page: PageHotlines,
	},
	IntentBodySection: {
		text: "Select the part of the body that is bothering you to see related symptoms and advice.",
		page: PageBody,
	},
	IntentSpecialist: {
		text: "Browse the specialist directory by department to find the right doctor for you.",
		page: PageSpecialists,
	},
	IntentDelivery: {
		text: "Many pharmacies deliver medicines to your door. See the delivery page for options and how to order.",
		page: PageDelivery,
	},
	Intent24Hours: {
		text: "These pharmacies and clinics are open 24 hours a day, 7 days a week.",
		page: Page24Hours,
	},
}

// NavigationResponse returns the canned payload for an intent.
func NavigationResponse(intent Intent) (Response, bool) {
	nav, ok := navigationResponses[intent]
	if !ok {
		return Response{}, false
	}
	return Response{Text: nav.text, Anchors: []string{nav.page}}, true
}
