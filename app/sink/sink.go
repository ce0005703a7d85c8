package sink

import (
	"encoding/json"
	"log/slog"

	"github.com/lysyi3m/timing-comb/app/database"
	"github.com/lysyi3m/timing-comb/app/metrics"
	"github.com/lysyi3m/timing-comb/app/timing"
)

var (
	_ timing.Sink = (*Log)(nil)
	_ timing.Sink = (*Store)(nil)
	_ timing.Sink = (*Metrics)(nil)
	_ timing.Sink = Fanout(nil)
)

// Log writes every event to the structured logger.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Emit(evt timing.Event) {
	l.logger.Info("Event emitted",
		"type", string(evt.Type),
		"session", evt.SessionID,
		"profile", evt.Profile,
		"payload", evt.Payload)
}

// Store persists events to the event repository. Failures are logged and
// counted, never returned to the poller.
type Store struct {
	repo database.EventRepository
	obs  metrics.Observability
}

func NewStore(repo database.EventRepository, obs metrics.Observability) *Store {
	if obs == nil {
		obs = metrics.Nop{}
	}
	return &Store{repo: repo, obs: obs}
}

func (s *Store) Emit(evt timing.Event) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		s.fail(evt, "failed to encode payload", err)
		return
	}

	err = s.repo.InsertEvent(database.Event{
		SessionID: evt.SessionID,
		Profile:   evt.Profile,
		Type:      string(evt.Type),
		Payload:   payload,
		EmittedAt: evt.At,
	})
	if err != nil {
		s.fail(evt, "failed to store event", err)
	}
}

func (s *Store) fail(evt timing.Event, msg string, err error) {
	s.obs.IncCounter(metrics.SinkFailuresTotal, 1)
	slog.Error("Sink failure", "sink", "store", "type", string(evt.Type), "session", evt.SessionID, "message", msg, "error", err)
}

// Metrics counts events by type.
type Metrics struct {
	obs metrics.Observability
}

func NewMetrics(obs metrics.Observability) *Metrics {
	return &Metrics{obs: obs}
}

func (m *Metrics) Emit(evt timing.Event) {
	switch evt.Type {
	case timing.EventResourceTiming:
		m.obs.IncCounter(metrics.ResourceRecordsTotal, 1)
	case timing.EventNavigationTiming:
		m.obs.IncCounter(metrics.NavigationRecordsTotal, 1)
	case timing.EventPerformanceStateError:
		m.obs.IncCounter(metrics.StateErrorsTotal, 1)
	}
}

// Fanout emits to each sink in order.
type Fanout []timing.Sink

func (f Fanout) Emit(evt timing.Event) {
	for _, s := range f {
		s.Emit(evt)
	}
}
