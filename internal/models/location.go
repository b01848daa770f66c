package models

import "fmt"

// Coordinate represents a geographical point with latitude and longitude in degrees.
type Coordinate struct {
	Latitude  float64 `bson:"latitude" json:"latitude" db:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude" db:"longitude"`
}

// Valid reports whether the coordinate lies within [-90,90] x [-180,180].
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Label returns the human-readable location label used in recommendation responses.
func (c Coordinate) Label() string {
	return fmt.Sprintf("latitude %.4f, longitude %.4f", c.Latitude, c.Longitude)
}
