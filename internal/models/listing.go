package models

import "time"

// Listing is a business listing submitted by a user and reviewed by an
// admin before it becomes publicly visible.
type Listing struct {
	ID             int64      `json:"id"`
	SubmitterID    int64      `json:"submitter_id"`
	BusinessName   string     `json:"business_name"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	ContactPhone   string     `json:"contact_phone"`
	Website        string     `json:"website"`
	City           string     `json:"city"`
	QualityScore   int        `json:"quality_score"`
	Status         string     `json:"status"` // submitted, approved, rejected
	RejectReason   string     `json:"reject_reason,omitempty"`
	ReviewedBy     int64      `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
