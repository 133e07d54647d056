package entities

// Location represents a geographic coordinate pair (latitude/longitude).
// It is a small immutable value type — returned and passed by value.
type Location struct {
	Latitude  float64 `json:"lat" firestore:"lat"`
	Longitude float64 `json:"lng" firestore:"lng"`
}

// NewLocation creates a Location value from latitude and longitude.
func NewLocation(lat, lng float64) Location {
	return Location{
		Latitude:  lat,
		Longitude: lng,
	}
}
