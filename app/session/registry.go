package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/timing-comb/app/harvest"
	"github.com/lysyi3m/timing-comb/app/metrics"
	"github.com/lysyi3m/timing-comb/app/profile"
	"github.com/lysyi3m/timing-comb/app/tasks"
	"github.com/lysyi3m/timing-comb/app/timing"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("too many sessions")
	ErrInvalidPageURL   = errors.New("invalid page url")
	ErrRegistryShutdown = errors.New("registry is shut down")
)

// ProfileProvider resolves enabled harvest profiles by name.
type ProfileProvider interface {
	GetEnabledConfig(name string) (*profile.Config, error)
}

type Capabilities struct {
	ResourceTiming   bool `json:"resource_timing"`
	NavigationTiming bool `json:"navigation_timing"`
}

type CreateOptions struct {
	Profile      string
	PageURL      string
	Capabilities Capabilities
}

// Session is one browser page being harvested.
type Session struct {
	ID           string
	Profile      string
	PageURL      string
	Capabilities Capabilities
	CreatedAt    time.Time
	Source       *SnapshotSource
	Harvester    *Harvester
}

type Registry struct {
	profiles    ProfileProvider
	sink        timing.Sink
	clock       tasks.Clock
	obs         metrics.Observability
	maxSessions int

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

func NewRegistry(profiles ProfileProvider, sink timing.Sink, clock tasks.Clock, obs metrics.Observability, maxSessions int) *Registry {
	if clock == nil {
		clock = tasks.RealClock()
	}
	if obs == nil {
		obs = metrics.Nop{}
	}
	return &Registry{
		profiles:    profiles,
		sink:        sink,
		clock:       clock,
		obs:         obs,
		maxSessions: maxSessions,
		sessions:    make(map[string]*Session),
	}
}

// Create registers a session and activates its harvester.
func (r *Registry) Create(opts CreateOptions) (*Session, error) {
	cfg, err := r.profiles.GetEnabledConfig(opts.Profile)
	if err != nil {
		return nil, err
	}

	blacklist, err := harvest.NewBlacklist(opts.PageURL, cfg.Endpoint, cfg.URLBlacklist)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPageURL, err)
	}

	id := uuid.NewString()
	source := NewSnapshotSource()

	hc := HarvesterConfig{
		SessionID:    id,
		Profile:      cfg.Name,
		PollInterval: cfg.PollInterval(),
		Blacklist:    blacklist,
		Sink:         r.sink,
		Clock:        r.clock,
		Obs:          r.obs,
	}
	if opts.Capabilities.ResourceTiming {
		hc.Resources = source
	}
	if opts.Capabilities.NavigationTiming {
		hc.Navigation = source
	}

	s := &Session{
		ID:           id,
		Profile:      cfg.Name,
		PageURL:      opts.PageURL,
		Capabilities: opts.Capabilities,
		CreatedAt:    r.clock.Now(),
		Source:       source,
		Harvester:    NewHarvester(hc),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryShutdown
	}
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManySessions, r.maxSessions)
	}
	r.sessions[id] = s
	count := len(r.sessions)
	r.mu.Unlock()

	if err := s.Harvester.Activate(); err != nil {
		r.remove(id)
		return nil, fmt.Errorf("failed to activate harvester: %w", err)
	}

	r.obs.SetGauge(metrics.ActiveSessions, float64(count))
	slog.Info("Session created", "session", id, "profile", cfg.Name, "page_url", opts.PageURL, "blacklist", blacklist.Len())

	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns sessions ordered by creation time.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Delete tears the session's harvester down and forgets the session.
func (r *Registry) Delete(id string) error {
	s := r.remove(id)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.Harvester.Teardown()
	slog.Info("Session deleted", "session", id)
	return nil
}

// Close tears down every session. Create fails afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Harvester.Teardown()
	}
	r.obs.SetGauge(metrics.ActiveSessions, 0)
	slog.Info("Sessions closed", "count", len(sessions))
}

func (r *Registry) remove(id string) *Session {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	count := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.obs.SetGauge(metrics.ActiveSessions, float64(count))
	return s
}
