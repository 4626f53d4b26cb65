package models

import "time"

// UserState is the explicit multi-step dialog state for one user, keyed by
// Telegram user id and stored with a TTL. Data survives JSON round-trips
// through Redis, hence the type-tolerant getters.
type UserState struct {
	UserID      int64                  `json:"user_id"`
	CurrentStep string                 `json:"current_step"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

func (s *UserState) GetInt64(key string) int64 {
	if s.Data == nil {
		return 0
	}
	val, ok := s.Data[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *UserState) GetInt(key string) int {
	return int(s.GetInt64(key))
}

func (s *UserState) GetString(key string) string {
	if s.Data == nil {
		return ""
	}
	if str, ok := s.Data[key].(string); ok {
		return str
	}
	return ""
}

func (s *UserState) GetFloat64(key string) float64 {
	if s.Data == nil {
		return 0
	}
	switch v := s.Data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (s *UserState) GetTime(key string) time.Time {
	if s.Data == nil {
		return time.Time{}
	}
	switch v := s.Data[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}

// Set stores a value, allocating the map on first use.
func (s *UserState) Set(key string, value interface{}) {
	if s.Data == nil {
		s.Data = make(map[string]interface{})
	}
	s.Data[key] = value
}
