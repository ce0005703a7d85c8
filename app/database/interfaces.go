package database

type EventRepository interface {
	InsertEvent(evt Event) error

	GetEvents(sessionID string, limit int) ([]Event, error)
	GetEventCount(sessionID string) (int, error)
	GetEventStats(sessionID string) (EventStats, error)
	GetSessionCount() (int, error)
}
