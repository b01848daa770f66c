package models

// Recommendation is one shortlisted restaurant with the reason it was picked.
type Recommendation struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// RecommendationResponse is returned by the recommendation endpoint.
type RecommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalCount      int              `json:"total_count"`
	UserLocation    string           `json:"user_location"`
}
