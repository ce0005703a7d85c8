package database

import (
	"fmt"
	"time"
)

var _ EventRepository = (*EventRepo)(nil)

// EventRepo stores emitted harvest events
type EventRepo struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) InsertEvent(evt Event) error {
	payload := evt.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	_, err := r.db.Exec(`
		INSERT INTO events (session_id, profile, type, payload, emitted_at)
		VALUES (?, ?, ?, ?, ?)
	`, evt.SessionID, evt.Profile, evt.Type, string(payload), evt.EmittedAt.UnixMilli())

	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// GetEvents returns a session's events in emission order
func (r *EventRepo) GetEvents(sessionID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`
		SELECT id, session_id, profile, type, payload, emitted_at
		FROM events
		WHERE session_id = ?
		ORDER BY id ASC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var evt Event
		var payload string
		var emittedAt int64
		err := rows.Scan(&evt.ID, &evt.SessionID, &evt.Profile, &evt.Type, &payload, &emittedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		evt.Payload = []byte(payload)
		evt.EmittedAt = time.UnixMilli(emittedAt)
		events = append(events, evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

func (r *EventRepo) GetEventCount(sessionID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM events WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	return count, nil
}

// GetEventStats counts a session's events per type
func (r *EventRepo) GetEventStats(sessionID string) (EventStats, error) {
	stats := EventStats{ByType: make(map[string]int)}

	rows, err := r.db.Query(`
		SELECT type, COUNT(*)
		FROM events
		WHERE session_id = ?
		GROUP BY type
	`, sessionID)
	if err != nil {
		return stats, fmt.Errorf("failed to get event stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return stats, fmt.Errorf("failed to scan event stats row: %w", err)
		}
		stats.ByType[eventType] = count
		stats.Total += count
	}

	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("error iterating event stats rows: %w", err)
	}

	return stats, nil
}

// GetSessionCount returns the number of distinct sessions with stored events
func (r *EventRepo) GetSessionCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(DISTINCT session_id) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get session count: %w", err)
	}
	return count, nil
}
