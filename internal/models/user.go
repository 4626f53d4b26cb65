package models

import "time"

type User struct {
	ID            int64     `json:"id"`
	TelegramID    int64     `json:"telegram_id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Tier          string    `json:"tier"` // free, prime
	AgeConfirmed  bool      `json:"age_confirmed"`
	IsAdmin       bool      `json:"is_admin"`
	IsBlacklisted bool      `json:"is_blacklisted"`
	LanguageCode  string    `json:"language_code"`
	LastActivity  time.Time `json:"last_activity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsPrime reports whether the user has an active prime subscription.
func (u *User) IsPrime() bool {
	return u.Tier == TierPrime
}
