package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Performer is a model offering private calls and live streams.
// Rates are per call duration; Workdays are time.Weekday values during
// which availability slots are generated inside [HourFrom, HourTo).
type Performer struct {
	ID          int64           `json:"id" yaml:"id"`
	UserID      int64           `json:"user_id" yaml:"user_id"`
	StageName   string          `json:"stage_name" yaml:"stage_name"`
	Bio         string          `json:"bio" yaml:"bio"`
	Rate30      decimal.Decimal `json:"rate_30" yaml:"rate_30"`
	Rate60      decimal.Decimal `json:"rate_60" yaml:"rate_60"`
	Rate90      decimal.Decimal `json:"rate_90" yaml:"rate_90"`
	Workdays    []int           `json:"workdays" yaml:"workdays"`
	HourFrom    int             `json:"hour_from" yaml:"hour_from"`
	HourTo      int             `json:"hour_to" yaml:"hour_to"`
	IsActive    bool            `json:"is_active" yaml:"is_active"`
	DisplayImg  string          `json:"display_img,omitempty" yaml:"display_img"`
	CreatedAt   time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"-"`
}

// RateFor returns the call price for a duration, zero if unsupported.
func (p *Performer) RateFor(durationMinutes int) decimal.Decimal {
	switch durationMinutes {
	case 30:
		return p.Rate30
	case 60:
		return p.Rate60
	case 90:
		return p.Rate90
	default:
		return decimal.Zero
	}
}

// WorksOn reports whether slots are generated for the weekday.
func (p *Performer) WorksOn(day time.Weekday) bool {
	for _, d := range p.Workdays {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}
