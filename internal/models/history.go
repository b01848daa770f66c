package models

import "time"

// HistoryEntry records a restaurant the user selected. Entries are append-only.
type HistoryEntry struct {
	ID                 int       `bson:"id" json:"id"`
	RestaurantID       int       `bson:"restaurant_id" json:"restaurantId"`
	RestaurantName     string    `bson:"restaurant_name" json:"restaurantName"`
	RestaurantCategory string    `bson:"restaurant_category" json:"restaurantCategory"`
	SelectedAt         time.Time `bson:"selected_at" json:"selectedAt"`
}

// HistoryRequest is the body of a selection request.
type HistoryRequest struct {
	RestaurantID int `json:"restaurantId" validate:"required,gt=0"`
}

// HistoryResponse acknowledges a recorded selection.
type HistoryResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// CategoryStat summarizes how often a category was selected.
type CategoryStat struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}
