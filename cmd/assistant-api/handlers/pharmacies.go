package handlers

import (
	"net/http"
	"strconv"

	"github.com/healthdesk/assistant/internal/locator"
	"github.com/healthdesk/assistant/internal/observability"
)

// PharmacyHandler serves nearby-pharmacy lookups.
type PharmacyHandler struct {
	logger  *observability.Logger
	locator *locator.Locator
}

// NewPharmacyHandler creates a new pharmacy handler.
func NewPharmacyHandler(logger *observability.Logger, loc *locator.Locator) *PharmacyHandler {
	return &PharmacyHandler{logger: logger, locator: loc}
}

// Nearby handles GET /pharmacies/nearby?lat=&lng=&limit=. Without lat and lng the demo
// list is returned.
func (h *PharmacyHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var coords *locator.Coordinates
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr != "" || lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			writeError(w, http.StatusBadRequest, "lat and lng must both be decimal degrees", "")
			return
		}
		coords = &locator.Coordinates{Lat: lat, Lng: lng}
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", "")
			return
		}
		limit = n
	}

	result := h.locator.Nearby(r.Context(), coords, limit)
	if err := writeJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
