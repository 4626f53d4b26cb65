package models

import "time"

// Stream is a live streaming session run by a performer.
type Stream struct {
	ID          int64      `json:"id"`
	PerformerID int64      `json:"performer_id"`
	Title       string     `json:"title"`
	RoomName    string     `json:"room_name"`
	RoomURL     string     `json:"room_url"`
	Status      string     `json:"status"` // live, ended
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	PrimeOnly   bool       `json:"prime_only"`
}
