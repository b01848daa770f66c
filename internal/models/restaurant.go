package models

import "errors"

// ErrNotFound is returned when a restaurant id does not exist in the catalog.
var ErrNotFound = errors.New("restaurant not found")

// Detail defaults applied when a catalog record carries no value.
const (
	DefaultPhone        = "02-1234-5678"
	DefaultOpeningHours = "11:00 - 22:00"
)

// Restaurant represents a catalog restaurant. Distance is a request-scoped
// annotation in meters and is never persisted.
type Restaurant struct {
	ID          int     `bson:"id" json:"id" db:"id"`
	Name        string  `bson:"name" json:"name" db:"name"`
	Category    string  `bson:"category" json:"category" db:"category"`
	Address     string  `bson:"address" json:"address" db:"address"`
	Coordinate  `bson:",inline"`
	Rating      float64  `bson:"rating" json:"rating" db:"rating"`
	PriceRange  string   `bson:"price_range" json:"priceRange" db:"price_range"`
	Image       string   `bson:"image" json:"image" db:"image"`
	Description string   `bson:"description" json:"description" db:"description"`
	Distance    *float64 `bson:"-" json:"distance,omitempty" db:"-"`
}

// WithDistance returns a copy of the restaurant annotated with the given distance.
func (r Restaurant) WithDistance(meters float64) Restaurant {
	r.Distance = &meters
	return r
}

// MenuItem is a single dish on a restaurant menu.
type MenuItem struct {
	ID          int    `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Price       int    `bson:"price" json:"price"` // in KRW
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Image       string `bson:"image,omitempty" json:"image,omitempty"`
}

// Review is a user review shown on the detail page.
type Review struct {
	ID       int     `bson:"id" json:"id"`
	UserName string  `bson:"user_name" json:"userName"`
	Rating   float64 `bson:"rating" json:"rating"`
	Comment  string  `bson:"comment" json:"comment"`
	Date     string  `bson:"date" json:"date"`
}

// RestaurantDetail is the full catalog record including the optional detail fields.
type RestaurantDetail struct {
	Restaurant   `bson:",inline"`
	Phone        string     `bson:"phone,omitempty" json:"phone"`
	OpeningHours string     `bson:"opening_hours,omitempty" json:"openingHours"`
	Menu         []MenuItem `bson:"menu,omitempty" json:"menu"`
	Reviews      []Review   `bson:"reviews,omitempty" json:"reviews"`
}

// WithDefaults fills absent detail fields.
func (d RestaurantDetail) WithDefaults() RestaurantDetail {
	if d.Phone == "" {
		d.Phone = DefaultPhone
	}
	if d.OpeningHours == "" {
		d.OpeningHours = DefaultOpeningHours
	}
	if d.Menu == nil {
		d.Menu = []MenuItem{}
	}
	if d.Reviews == nil {
		d.Reviews = []Review{}
	}
	return d
}
