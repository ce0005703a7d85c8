package database

import (
	"encoding/json"
	"time"
)

type Event struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Profile   string          `json:"profile"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emitted_at"`
}

type EventStats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}
