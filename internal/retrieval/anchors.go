package retrieval

import "github.com/healthdesk/assistant/internal/knowledge"

type anchorRule struct {
	category knowledge.Category
	page     string
}

// categoryAnchors is evaluated top to bottom; every matching rule contributes its page, in
// this order, ahead of the default anchors.
var categoryAnchors = []anchorRule{
	{category: knowledge.CategoryEmergency, page: PageHotlines},
	{category: knowledge.CategoryPharmacy, page: PagePharmacies},
}

// AnchorsFor builds the anchor list for a knowledge base entry:
// [hotlines?, pharmacies?, symptoms, health-tips].
func AnchorsFor(entry knowledge.Entry) []string {
	anchors := make([]string, 0, len(categoryAnchors)+2)
	for _, rule := range categoryAnchors {
		if entry.HasCategory(rule.category) {
			anchors = append(anchors, rule.page)
		}
	}
	return append(anchors, DefaultAnchors()...)
}
