package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/timing-comb/app/harvest"
	"github.com/lysyi3m/timing-comb/app/metrics"
	"github.com/lysyi3m/timing-comb/app/tasks"
	"github.com/lysyi3m/timing-comb/app/timing"
)

const DefaultPollInterval = time.Second

type HarvesterConfig struct {
	SessionID    string
	Profile      string
	PollInterval time.Duration
	Blacklist    *harvest.Blacklist

	// A nil source means the page lacks that capability and its poller is
	// never started.
	Resources  timing.ResourceSource
	Navigation timing.NavigationSource

	Sink  timing.Sink
	Clock tasks.Clock
	Obs   metrics.Observability
}

type HarvesterStats struct {
	Active           bool                    `json:"active"`
	ResourceTiming   bool                    `json:"resource_timing"`
	NavigationTiming bool                    `json:"navigation_timing"`
	Activations      int                     `json:"activations"`
	Reconciler       harvest.ReconcilerStats `json:"reconciler"`
	Navigation       string                  `json:"navigation"`
	NavigationTicks  int64                   `json:"navigation_ticks"`
	PendingTimers    int                     `json:"pending_timers"`
}

// Harvester owns the pollers of one page session. Both pollers share a
// scheduler, so reconciliation and navigation reporting never interleave.
type Harvester struct {
	cfg HarvesterConfig

	mu          sync.Mutex
	scheduler   *tasks.Scheduler
	reconciler  *harvest.Reconciler
	reporter    *harvest.NavigationReporter
	active      bool
	activations int
}

func NewHarvester(cfg HarvesterConfig) *Harvester {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = tasks.RealClock()
	}
	if cfg.Obs == nil {
		cfg.Obs = metrics.Nop{}
	}

	h := &Harvester{cfg: cfg}
	h.reconciler = harvest.NewReconciler(harvest.NewNormalizer(cfg.Blacklist), h.emit)
	h.reporter = harvest.NewNavigationReporter(h.emit)
	return h
}

// Activate starts a poller for every available source. The first cycle runs
// immediately; later cycles follow the poll interval.
func (h *Harvester) Activate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active {
		return nil
	}

	scheduler := tasks.NewScheduler(h.cfg.Clock, 0)
	scheduler.Start()

	if h.cfg.Resources != nil {
		task := tasks.NewResourcePollTask(h.cfg.SessionID, h.cfg.Resources, h.reconciler, h.cfg.PollInterval, h.cfg.Obs)
		if err := scheduler.EnqueueTask(task); err != nil {
			scheduler.Stop()
			return err
		}
	} else {
		slog.Debug("Resource timing unavailable, poller not started", "session", h.cfg.SessionID)
	}

	if h.cfg.Navigation != nil {
		task := tasks.NewNavigationPollTask(h.cfg.SessionID, h.cfg.Navigation, h.reporter, h.cfg.PollInterval)
		if err := scheduler.EnqueueTask(task); err != nil {
			scheduler.Stop()
			return err
		}
	} else {
		slog.Debug("Navigation timing unavailable, poller not started", "session", h.cfg.SessionID)
	}

	h.scheduler = scheduler
	h.active = true
	h.activations++

	slog.Info("Harvester activated", "session", h.cfg.SessionID, "profile", h.cfg.Profile, "interval", h.cfg.PollInterval.String())
	return nil
}

// Teardown cancels both pending reschedules. No cycle runs after it returns.
func (h *Harvester) Teardown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.teardownLocked()
}

// Reset re-activates the harvester with fresh state, as for a new page.
func (h *Harvester) Reset() error {
	h.mu.Lock()
	h.teardownLocked()
	h.reconciler.Reset()
	h.reporter.Reset()
	h.mu.Unlock()

	return h.Activate()
}

func (h *Harvester) PollInterval() time.Duration {
	return h.cfg.PollInterval
}

func (h *Harvester) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Stats reads harvester state on the poll timeline while it is active.
func (h *Harvester) Stats(ctx context.Context) (HarvesterStats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var stats HarvesterStats
	collect := func(context.Context) error {
		stats = HarvesterStats{
			Active:           h.active,
			ResourceTiming:   h.cfg.Resources != nil,
			NavigationTiming: h.cfg.Navigation != nil,
			Activations:      h.activations,
			Reconciler:       h.reconciler.Stats(),
			Navigation:       h.reporter.State().String(),
			NavigationTicks:  h.reporter.Ticks(),
		}
		return nil
	}

	if !h.active {
		collect(ctx)
		return stats, nil
	}

	if err := h.scheduler.Run(ctx, h.cfg.SessionID, collect); err != nil {
		return HarvesterStats{}, err
	}
	stats.PendingTimers = h.scheduler.Pending()
	return stats, nil
}

func (h *Harvester) teardownLocked() {
	if !h.active {
		return
	}
	h.scheduler.Stop()
	h.active = false
	slog.Info("Harvester torn down", "session", h.cfg.SessionID)
}

func (h *Harvester) emit(eventType timing.EventType, payload any) {
	if h.cfg.Sink == nil {
		return
	}
	h.cfg.Sink.Emit(timing.Event{
		Type:      eventType,
		SessionID: h.cfg.SessionID,
		Profile:   h.cfg.Profile,
		Payload:   payload,
		At:        h.cfg.Clock.Now(),
	})
}
