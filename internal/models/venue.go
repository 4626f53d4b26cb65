package models

import "time"

// Venue is a community-visible location (club, bar, event space).
type Venue struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Address   string    `json:"address" yaml:"address"`
	City      string    `json:"city" yaml:"city"`
	Latitude  float64   `json:"latitude" yaml:"latitude"`
	Longitude float64   `json:"longitude" yaml:"longitude"`
	Category  string    `json:"category" yaml:"category"`
	IsActive  bool      `json:"is_active" yaml:"is_active"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// VenueDistance pairs a venue with its distance from a search point.
type VenueDistance struct {
	Venue      Venue   `json:"venue"`
	DistanceKM float64 `json:"distance_km"`
}
