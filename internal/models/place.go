package models

// UnknownPlaceID is used when a provider place URL carries no usable id.
const UnknownPlaceID = "unknown"

// Place is a venue returned by the external place-search provider. It is kept
// distinct from Restaurant: its id is a provider string and its distance is
// provider-computed.
type Place struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Distance      int     `json:"distance"` // meters, as reported by the provider
	Address       string  `json:"address"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	URL           string  `json:"url"`
	Phone         string  `json:"phone,omitempty"`
	CategoryGroup string  `json:"category_group,omitempty"`
	RoadAddress   string  `json:"road_address,omitempty"`
}

// Coordinate returns the place location.
func (p Place) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Lat, Longitude: p.Lng}
}
