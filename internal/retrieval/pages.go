package retrieval

// Page identifiers used as response anchors.
const (
	PagePharmacies  = "pharmacies.html"
	PageHotlines    = "hotlines.html"
	PageBody        = "body.html"
	PageSpecialists = "specialists.html"
	PageDelivery    = "delivery.html"
	Page24Hours     = "24hours.html"
	PageSymptoms    = "symptoms.html"
	PageHealthTips  = "health-tips.html"
)

// Pages returns every known page identifier.
func Pages() []string {
	return []string{
		PagePharmacies,
		PageHotlines,
		PageBody,
		PageSpecialists,
		PageDelivery,
		Page24Hours,
		PageSymptoms,
		PageHealthTips,
	}
}

// DefaultAnchors returns a fresh copy of the general health pages attached to every
// knowledge base answer.
func DefaultAnchors() []string {
	return []string{PageSymptoms, PageHealthTips}
}
