package locator

import "math"

const earthRadiusKm = 6371.0

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the position is on the globe.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) &&
		c.Lat >= -90 && c.Lat <= 90 &&
		c.Lng >= -180 && c.Lng <= 180
}

// DistanceKm returns the great-circle distance between two positions (haversine).
func DistanceKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
